package retro

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scrumkit/scrumkit-api/internal/gateway"
	"github.com/scrumkit/scrumkit-api/internal/ledger"
	"github.com/scrumkit/scrumkit-api/internal/models"
	"github.com/scrumkit/scrumkit-api/internal/querycache"
	"github.com/scrumkit/scrumkit-api/internal/ratelimit"
)

// fakeGateway is an in-memory gateway.Store with injectable failures and call
// counters. It mimics the real adapter closely enough for orchestrator tests:
// inserts assign ids, deletes remove rows, selects honor the filters the
// service actually uses.
type fakeGateway struct {
	mu sync.Mutex

	boards  []models.Board
	columns []models.BoardColumn
	items   []models.RetroItem
	votes   []models.Vote

	canVote      bool
	canVoteErr   error
	canVoteCalls int

	insertErr  error
	updateErr  error
	deleteErr  error
	insertGate chan struct{} // when set, Insert blocks until it closes

	inserts int
	updates int
	deletes int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{canVote: true}
}

func condsMatch(q gateway.Query, field func(string) any) bool {
	for _, c := range q.Conds {
		v := field(c.Column)
		if c.In {
			ids, _ := c.Values.([]uuid.UUID)
			found := false
			for _, id := range ids {
				if any(id) == v {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		} else if v != c.Value {
			return false
		}
	}
	return true
}

func itemField(it models.RetroItem) func(string) any {
	return func(col string) any {
		switch col {
		case "id":
			return it.ID
		case "board_id":
			return it.BoardID
		case "column_id":
			return it.ColumnID
		default:
			return nil
		}
	}
}

func voteField(v models.Vote) func(string) any {
	return func(col string) any {
		switch col {
		case "id":
			return v.ID
		case "item_id":
			return v.ItemID
		case "board_id":
			return v.BoardID
		case "voter_id":
			return v.VoterID
		default:
			return nil
		}
	}
}

func boardField(b models.Board) func(string) any {
	return func(col string) any {
		switch col {
		case "id":
			return b.ID
		default:
			return nil
		}
	}
}

func columnField(c models.BoardColumn) func(string) any {
	return func(col string) any {
		switch col {
		case "id":
			return c.ID
		case "board_id":
			return c.BoardID
		default:
			return nil
		}
	}
}

func (f *fakeGateway) Select(ctx context.Context, dest any, opts ...gateway.Option) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := gateway.Build(opts)
	switch d := dest.(type) {
	case *[]models.RetroItem:
		var out []models.RetroItem
		for _, it := range f.items {
			if condsMatch(q, itemField(it)) {
				out = append(out, it)
			}
		}
		// Callers in this package always order items by position, created_at.
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Position != out[j].Position {
				return out[i].Position < out[j].Position
			}
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
		*d = out
	case *[]models.BoardColumn:
		var out []models.BoardColumn
		for _, c := range f.columns {
			if condsMatch(q, columnField(c)) {
				out = append(out, c)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
		*d = out
	case *[]models.Vote:
		var out []models.Vote
		for _, v := range f.votes {
			if condsMatch(q, voteField(v)) {
				out = append(out, v)
			}
		}
		*d = out
	default:
		panic("fakeGateway: unexpected Select dest")
	}
	return nil
}

func (f *fakeGateway) First(ctx context.Context, dest any, opts ...gateway.Option) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := gateway.Build(opts)
	switch d := dest.(type) {
	case *models.Board:
		for _, b := range f.boards {
			if condsMatch(q, boardField(b)) {
				*d = b
				return nil
			}
		}
	case *models.RetroItem:
		for _, it := range f.items {
			if condsMatch(q, itemField(it)) {
				*d = it
				return nil
			}
		}
	default:
		panic("fakeGateway: unexpected First dest")
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeGateway) Insert(ctx context.Context, rows any) error {
	f.mu.Lock()
	gate := f.insertGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.insertErr != nil {
		return f.insertErr
	}
	now := time.Now()
	switch r := rows.(type) {
	case *models.RetroItem:
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		r.UpdatedAt = now
		f.items = append(f.items, *r)
	case *models.Vote:
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		f.votes = append(f.votes, *r)
	case *[]models.Vote:
		for i := range *r {
			if (*r)[i].ID == uuid.Nil {
				(*r)[i].ID = uuid.New()
			}
			if (*r)[i].CreatedAt.IsZero() {
				(*r)[i].CreatedAt = now
			}
			f.votes = append(f.votes, (*r)[i])
		}
	default:
		panic("fakeGateway: unexpected Insert rows")
	}
	return nil
}

func (f *fakeGateway) Update(ctx context.Context, model any, values map[string]any, opts ...gateway.Option) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	q := gateway.Build(opts)
	switch model.(type) {
	case *models.RetroItem:
		for i := range f.items {
			if !condsMatch(q, itemField(f.items[i])) {
				continue
			}
			for col, val := range values {
				switch col {
				case "text":
					f.items[i].Text = val.(string)
				case "position":
					f.items[i].Position = val.(int)
				case "column_id":
					f.items[i].ColumnID = val.(uuid.UUID)
				case "color":
					if val == nil {
						f.items[i].Color = nil
					} else {
						c := val.(string)
						f.items[i].Color = &c
					}
				}
			}
			f.items[i].UpdatedAt = time.Now()
		}
	default:
		panic("fakeGateway: unexpected Update model")
	}
	return nil
}

func (f *fakeGateway) Delete(ctx context.Context, model any, opts ...gateway.Option) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	q := gateway.Build(opts)
	switch model.(type) {
	case *models.RetroItem:
		var kept []models.RetroItem
		for _, it := range f.items {
			if !condsMatch(q, itemField(it)) {
				kept = append(kept, it)
			}
		}
		f.items = kept
	case *models.Vote:
		var kept []models.Vote
		for _, v := range f.votes {
			if !condsMatch(q, voteField(v)) {
				kept = append(kept, v)
			}
		}
		f.votes = kept
	default:
		panic("fakeGateway: unexpected Delete model")
	}
	return nil
}

func (f *fakeGateway) CanUserVote(ctx context.Context, boardID, voterID, itemID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canVoteCalls++
	if f.canVoteErr != nil {
		return false, f.canVoteErr
	}
	return f.canVote, nil
}

func (f *fakeGateway) itemRows() []models.RetroItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.RetroItem, len(f.items))
	copy(out, f.items)
	return out
}

func (f *fakeGateway) voteRows() []models.Vote {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Vote, len(f.votes))
	copy(out, f.votes)
	return out
}

func (f *fakeGateway) counts() (inserts, updates, deletes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inserts, f.updates, f.deletes
}

func (f *fakeGateway) setInsertErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertErr = err
}

func (f *fakeGateway) setUpdateErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateErr = err
}

func (f *fakeGateway) setCanVote(ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canVote = ok
}

func (f *fakeGateway) canVoteCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canVoteCalls
}

// collector records notices per actor.
type collector struct {
	mu      sync.Mutex
	entries []struct {
		actor string
		n     Notice
	}
}

func (c *collector) Notify(actor string, n Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, struct {
		actor string
		n     Notice
	}{actor, n})
}

func (c *collector) all() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.n
	}
	return out
}

func (c *collector) ofKind(kind string) []Notice {
	var out []Notice
	for _, n := range c.all() {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

type fixture struct {
	t       *testing.T
	gw      *fakeGateway
	cache   *querycache.Store
	notices *collector
	svc     *Service
	board   models.Board
	colA    models.BoardColumn
	colB    models.BoardColumn
	owner   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gw := newFakeGateway()
	cache := querycache.New()
	t.Cleanup(cache.Close)
	notices := &collector{}
	svc := NewService(gw, cache, ratelimit.New(ratelimit.DefaultConfig()), ledger.NewMemory(64), notices)

	ownerID := uuid.New()
	board := models.Board{
		ID:          uuid.New(),
		Title:       "Sprint 12 retro",
		Status:      models.BoardStatusActive,
		Template:    "default",
		VotingLimit: models.DefaultVotingLimit,
		CreatorID:   &ownerID,
		CreatedAt:   time.Now(),
	}
	colA := models.BoardColumn{ID: uuid.New(), BoardID: board.ID, Kind: "went-well", Title: "Went well", DisplayOrder: 0}
	colB := models.BoardColumn{ID: uuid.New(), BoardID: board.ID, Kind: "improve", Title: "To improve", DisplayOrder: 1}
	gw.boards = append(gw.boards, board)
	gw.columns = append(gw.columns, colA, colB)

	return &fixture{
		t:       t,
		gw:      gw,
		cache:   cache,
		notices: notices,
		svc:     svc,
		board:   board,
		colA:    colA,
		colB:    colB,
		owner:   ownerID.String(),
	}
}

func (f *fixture) seedItem(col models.BoardColumn, text string, position int, author string) models.RetroItem {
	f.t.Helper()
	item := models.RetroItem{
		ID:         uuid.New(),
		BoardID:    f.board.ID,
		ColumnID:   col.ID,
		Text:       text,
		AuthorName: "Someone",
		Position:   position,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if uid, err := uuid.Parse(author); err == nil {
		item.AuthorID = &uid
	}
	f.gw.mu.Lock()
	f.gw.items = append(f.gw.items, item)
	f.gw.mu.Unlock()
	return item
}

func (f *fixture) seedVote(item models.RetroItem, voterID uuid.UUID) models.Vote {
	f.t.Helper()
	vote := models.Vote{
		ID:        uuid.New(),
		ItemID:    item.ID,
		BoardID:   f.board.ID,
		VoterID:   voterID,
		CreatedAt: time.Now(),
	}
	f.gw.mu.Lock()
	f.gw.votes = append(f.gw.votes, vote)
	f.gw.mu.Unlock()
	return vote
}
