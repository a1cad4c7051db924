package retro

import (
	"context"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/scrumkit/scrumkit-api/internal/gateway"
	"github.com/scrumkit/scrumkit-api/internal/models"
	"github.com/scrumkit/scrumkit-api/internal/positions"
	"github.com/scrumkit/scrumkit-api/internal/querycache"
	"github.com/scrumkit/scrumkit-api/internal/ratelimit"
	"github.com/scrumkit/scrumkit-api/internal/sanitize"
)

const mergeSeparator = "\n\n"

var colorRx = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// CreateItem adds a piece of feedback to a column. The cached item list gets
// a synthesized record with a stand-in id immediately; the backend assigns
// the real id on insert and the stand-in is discarded on the settle refetch.
func (s *Service) CreateItem(ctx context.Context, actor string, boardID uuid.UUID, req models.CreateItemRequest) (models.RetroItem, error) {
	text := sanitize.ItemContent(req.Text)
	if text == "" {
		s.notify(actor, NoticeError, ErrEmptyItemText.Error())
		return models.RetroItem{}, ErrEmptyItemText
	}
	if _, err := s.activeBoard(ctx, boardID); err != nil {
		return models.RetroItem{}, err
	}
	cols, err := s.Columns(ctx, boardID)
	if err != nil {
		return models.RetroItem{}, err
	}
	if !columnExists(cols, req.ColumnID) {
		return models.RetroItem{}, ErrColumnNotFound
	}
	items, err := s.Items(ctx, boardID)
	if err != nil {
		return models.RetroItem{}, err
	}
	if err := s.allow(actor, ratelimit.OpCreateItem); err != nil {
		return models.RetroItem{}, err
	}
	s.limiter.Mark(actor, ratelimit.OpCreateItem)

	now := time.Now()
	temp := models.RetroItem{
		ID:         uuid.New(), // stand-in, never persisted
		BoardID:    boardID,
		ColumnID:   req.ColumnID,
		Text:       text,
		AuthorName: sanitize.Username(req.AuthorName),
		Position:   nextPositionInColumn(items, req.ColumnID),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if uid, err := uuid.Parse(actor); err == nil {
		temp.AuthorID = &uid
	}
	if temp.AuthorName == "" {
		temp.AuthorName = "Anonymous"
	}

	itemsKey := querycache.BoardItems(boardID)
	optimistic := make([]models.RetroItem, 0, len(items)+1)
	optimistic = append(optimistic, temp)
	optimistic = append(optimistic, items...)

	var created models.RetroItem
	err = s.run(ctx, mutation{
		actor: actor,
		board: boardID,
		keys:  []querycache.Key{itemsKey},
		apply: func() { s.cache.Set(itemsKey, optimistic) },
		write: func(ctx context.Context) error {
			row := temp
			row.ID = uuid.Nil // backend assigns the real id
			if err := s.gw.Insert(ctx, &row); err != nil {
				return err
			}
			if models.IsAnonymousID(actor) {
				// The backend stores a null author for anonymous items;
				// the ledger is what links them back to this session.
				s.ledger.Record(row.ID, actor)
			}
			created = row
			return nil
		},
		success: "Item added",
		failure: "Could not save the item. Your change was undone.",
	})
	if err != nil {
		return models.RetroItem{}, err
	}
	return created, nil
}

// UpdateItem applies a partial edit: only provided fields are sanitized,
// patched into the cached record, and written.
func (s *Service) UpdateItem(ctx context.Context, actor string, boardID, itemID uuid.UUID, req models.UpdateItemRequest) (models.RetroItem, error) {
	if _, err := s.activeBoard(ctx, boardID); err != nil {
		return models.RetroItem{}, err
	}
	items, err := s.Items(ctx, boardID)
	if err != nil {
		return models.RetroItem{}, err
	}
	idx := indexOfItem(items, itemID)
	if idx < 0 {
		return models.RetroItem{}, ErrItemNotFound
	}
	item := items[idx]
	if !s.canEditItem(item, actor) {
		return models.RetroItem{}, ErrNotItemAuthor
	}

	values := map[string]any{}
	patched := item
	if req.Text != nil {
		text := sanitize.ItemContent(*req.Text)
		if text == "" {
			s.notify(actor, NoticeError, ErrEmptyItemText.Error())
			return models.RetroItem{}, ErrEmptyItemText
		}
		values["text"] = text
		patched.Text = text
	}
	if req.Color != nil {
		switch {
		case *req.Color == "":
			values["color"] = nil
			patched.Color = nil
		case colorRx.MatchString(*req.Color):
			c := *req.Color
			values["color"] = c
			patched.Color = &c
		default:
			return models.RetroItem{}, ErrInvalidColor
		}
	}
	if len(values) == 0 {
		return item, nil // nothing provided, nothing to do
	}
	patched.UpdatedAt = time.Now()

	itemsKey := querycache.BoardItems(boardID)
	optimistic := cloneItems(items)
	optimistic[idx] = patched

	err = s.run(ctx, mutation{
		actor: actor,
		board: boardID,
		keys:  []querycache.Key{itemsKey},
		apply: func() { s.cache.Set(itemsKey, optimistic) },
		write: func(ctx context.Context) error {
			return s.gw.Update(ctx, &models.RetroItem{}, values, gateway.Eq("id", itemID))
		},
		success: "Item updated",
		failure: "Could not update the item. Your change was undone.",
	})
	if err != nil {
		return models.RetroItem{}, err
	}
	return patched, nil
}

// DeleteItem removes an item and its votes. Authors delete their own items,
// anonymous authors prove themselves through the ledger, and the board owner
// can delete anything.
func (s *Service) DeleteItem(ctx context.Context, actor string, boardID, itemID uuid.UUID) error {
	board, err := s.activeBoard(ctx, boardID)
	if err != nil {
		return err
	}
	items, err := s.Items(ctx, boardID)
	if err != nil {
		return err
	}
	idx := indexOfItem(items, itemID)
	if idx < 0 {
		return ErrItemNotFound
	}
	if !s.canEditItem(items[idx], actor) && !board.OwnedBy(actor) {
		return ErrNotItemAuthor
	}
	if err := s.allow(actor, ratelimit.OpDeleteItem); err != nil {
		return err
	}
	s.limiter.Mark(actor, ratelimit.OpDeleteItem)

	itemsKey := querycache.BoardItems(boardID)
	votesKey := querycache.BoardVotes(boardID, itemIDsOf(items))
	remaining := make([]models.RetroItem, 0, len(items)-1)
	for _, it := range items {
		if it.ID != itemID {
			remaining = append(remaining, it)
		}
	}

	keys := []querycache.Key{itemsKey}
	apply := func() { s.cache.Set(itemsKey, remaining) }
	if votes, ok := querycache.Value[[]models.Vote](s.cache, votesKey); ok {
		kept := make([]models.Vote, 0, len(votes))
		for _, v := range votes {
			if v.ItemID != itemID {
				kept = append(kept, v)
			}
		}
		keys = append(keys, votesKey)
		inner := apply
		apply = func() {
			inner()
			s.cache.Set(votesKey, kept)
		}
	}

	return s.run(ctx, mutation{
		actor: actor,
		board: boardID,
		keys:  keys,
		apply: apply,
		write: func(ctx context.Context) error {
			if err := s.gw.Delete(ctx, &models.Vote{}, gateway.Eq("item_id", itemID)); err != nil {
				return err
			}
			return s.gw.Delete(ctx, &models.RetroItem{}, gateway.Eq("id", itemID))
		},
		success: "Item deleted",
		failure: "Could not delete the item. It was restored.",
	})
}

// MoveItem reorders within a column or moves across columns. The remote batch
// runs as independent concurrent position writes; partial application is a
// benign inconsistency that the settle refetch repairs, so batch errors are
// logged rather than rolled back. Dropping an item exactly where it already
// sits is a silent no-op.
func (s *Service) MoveItem(ctx context.Context, actor string, boardID, itemID uuid.UUID, req models.MoveItemRequest) error {
	if _, err := s.activeBoard(ctx, boardID); err != nil {
		return err
	}
	items, err := s.Items(ctx, boardID)
	if err != nil {
		return err
	}
	idx := indexOfItem(items, itemID)
	if idx < 0 {
		return ErrItemNotFound
	}
	item := items[idx]
	cols, err := s.Columns(ctx, boardID)
	if err != nil {
		return err
	}
	if !columnExists(cols, req.ToColumnID) {
		return ErrColumnNotFound
	}

	var batch []positions.Update
	crossColumn := req.ToColumnID != item.ColumnID
	movedPosition := item.Position
	if crossColumn {
		destUpdates, pos := positions.CrossColumn(columnEntries(items, req.ToColumnID), req.NewIndex)
		movedPosition = pos
		batch = append(batch, destUpdates...)
		source := removeEntry(columnEntries(items, item.ColumnID), itemID)
		batch = append(batch, positions.Reindex(source)...)
	} else {
		batch = positions.Reorder(columnEntries(items, item.ColumnID), itemID, req.NewIndex)
		if len(batch) == 0 {
			return nil // no-op drop: no write, no notice, no invalidation
		}
	}

	optimistic := cloneItems(items)
	applyPositions(optimistic, batch)
	if crossColumn {
		optimistic[idx].ColumnID = req.ToColumnID
		optimistic[idx].Position = movedPosition
	}
	sortItems(optimistic)

	prefix := querycache.BoardDetail(boardID)
	s.cache.CancelQueries(prefix)
	s.cache.Set(querycache.BoardItems(boardID), optimistic)

	g := new(errgroup.Group)
	for _, u := range batch {
		g.Go(func() error {
			return s.gw.Update(ctx, &models.RetroItem{},
				map[string]any{"position": u.Position}, gateway.Eq("id", u.ID))
		})
	}
	if crossColumn {
		g.Go(func() error {
			return s.gw.Update(ctx, &models.RetroItem{},
				map[string]any{"column_id": req.ToColumnID, "position": movedPosition},
				gateway.Eq("id", itemID))
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("retro: move batch for %s: %v", itemID, err)
	}
	s.notify(actor, NoticeSuccess, "Item moved")
	s.cache.InvalidatePrefix(prefix)
	return nil
}

// MergeItems folds several items into one new item in the target column: text
// concatenated in the order given, voters unioned with one vote per distinct
// voter, originals deleted. Owner only. This mutation is write-through, not
// optimistic: its intermediate states have no sane cache representation.
func (s *Service) MergeItems(ctx context.Context, actor string, boardID uuid.UUID, req models.MergeItemsRequest) (models.RetroItem, error) {
	board, err := s.activeBoard(ctx, boardID)
	if err != nil {
		return models.RetroItem{}, err
	}
	if !board.OwnedBy(actor) {
		return models.RetroItem{}, ErrNotBoardOwner
	}
	if len(req.ItemIDs) < 2 {
		return models.RetroItem{}, ErrMergeTooFew
	}
	cols, err := s.Columns(ctx, boardID)
	if err != nil {
		return models.RetroItem{}, err
	}
	if !columnExists(cols, req.ToColumnID) {
		return models.RetroItem{}, ErrColumnNotFound
	}

	prefix := querycache.BoardDetail(boardID)
	fail := func(err error) (models.RetroItem, error) {
		s.notify(actor, NoticeError, failureMessage(err, "Could not merge the items."))
		s.cache.InvalidatePrefix(prefix)
		return models.RetroItem{}, err
	}

	var sources []models.RetroItem
	if err := s.gw.Select(ctx, &sources, gateway.In("id", req.ItemIDs)); err != nil {
		return fail(err)
	}
	byID := make(map[uuid.UUID]models.RetroItem, len(sources))
	for _, it := range sources {
		if it.BoardID != boardID {
			return models.RetroItem{}, ErrItemNotFound
		}
		byID[it.ID] = it
	}
	parts := make([]string, 0, len(req.ItemIDs))
	for _, id := range req.ItemIDs {
		it, ok := byID[id]
		if !ok {
			return models.RetroItem{}, ErrItemNotFound
		}
		parts = append(parts, it.Text)
	}

	var votes []models.Vote
	if err := s.gw.Select(ctx, &votes, gateway.In("item_id", req.ItemIDs)); err != nil {
		return fail(err)
	}
	var voters []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, v := range votes {
		if !seen[v.VoterID] {
			seen[v.VoterID] = true
			voters = append(voters, v.VoterID)
		}
	}

	var boardItems []models.RetroItem
	if err := s.gw.Select(ctx, &boardItems, gateway.Eq("board_id", boardID)); err != nil {
		return fail(err)
	}

	first := byID[req.ItemIDs[0]]
	merged := models.RetroItem{
		BoardID:    boardID,
		ColumnID:   req.ToColumnID,
		Text:       sanitize.ItemContent(strings.Join(parts, mergeSeparator)),
		AuthorID:   first.AuthorID,
		AuthorName: first.AuthorName,
		Position:   nextPositionInColumn(boardItems, req.ToColumnID),
	}
	if err := s.gw.Insert(ctx, &merged); err != nil {
		return fail(err)
	}
	if merged.AuthorID == nil && models.IsAnonymousID(actor) {
		s.ledger.Record(merged.ID, actor)
	}
	if len(voters) > 0 {
		rows := make([]models.Vote, len(voters))
		for i, voter := range voters {
			rows[i] = models.Vote{ItemID: merged.ID, BoardID: boardID, VoterID: voter}
		}
		if err := s.gw.Insert(ctx, &rows); err != nil {
			return fail(err)
		}
	}
	if err := s.gw.Delete(ctx, &models.Vote{}, gateway.In("item_id", req.ItemIDs)); err != nil {
		return fail(err)
	}
	if err := s.gw.Delete(ctx, &models.RetroItem{}, gateway.In("id", req.ItemIDs)); err != nil {
		return fail(err)
	}

	s.notify(actor, NoticeSuccess, "Items merged")
	s.cache.InvalidatePrefix(prefix)
	return merged, nil
}

func (s *Service) activeBoard(ctx context.Context, boardID uuid.UUID) (models.Board, error) {
	board, err := s.Board(ctx, boardID)
	if err != nil {
		return models.Board{}, err
	}
	if board.Status != models.BoardStatusActive {
		return models.Board{}, ErrBoardNotOpen
	}
	return board, nil
}

func (s *Service) canEditItem(item models.RetroItem, actor string) bool {
	return item.AuthoredBy(actor) || s.ledger.IsOwner(item.ID, actor)
}

func cloneItems(items []models.RetroItem) []models.RetroItem {
	out := make([]models.RetroItem, len(items))
	copy(out, items)
	return out
}

func indexOfItem(items []models.RetroItem, id uuid.UUID) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func columnExists(cols []models.BoardColumn, id uuid.UUID) bool {
	for _, c := range cols {
		if c.ID == id {
			return true
		}
	}
	return false
}

func nextPositionInColumn(items []models.RetroItem, columnID uuid.UUID) int {
	next := 0
	for _, it := range items {
		if it.ColumnID == columnID && it.Position >= next {
			next = it.Position + 1
		}
	}
	return next
}

// columnEntries projects a column's items into the ordering view, ascending
// by position as the algebra requires.
func columnEntries(items []models.RetroItem, columnID uuid.UUID) []positions.Entry {
	var entries []positions.Entry
	for _, it := range items {
		if it.ColumnID == columnID {
			entries = append(entries, positions.Entry{ID: it.ID, Position: it.Position})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })
	return entries
}

func removeEntry(entries []positions.Entry, id uuid.UUID) []positions.Entry {
	var out []positions.Entry
	for _, e := range entries {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}

func applyPositions(items []models.RetroItem, updates []positions.Update) {
	for i := range items {
		for _, u := range updates {
			if items[i].ID == u.ID {
				items[i].Position = u.Position
			}
		}
	}
}

func sortItems(items []models.RetroItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Position != items[j].Position {
			return items[i].Position < items[j].Position
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}
