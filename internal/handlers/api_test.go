package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/scrumkit/scrumkit-api/internal/database"
	"github.com/scrumkit/scrumkit-api/internal/gateway"
	"github.com/scrumkit/scrumkit-api/internal/handlers"
	"github.com/scrumkit/scrumkit-api/internal/ledger"
	"github.com/scrumkit/scrumkit-api/internal/middleware"
	"github.com/scrumkit/scrumkit-api/internal/models"
	"github.com/scrumkit/scrumkit-api/internal/poll"
	"github.com/scrumkit/scrumkit-api/internal/querycache"
	"github.com/scrumkit/scrumkit-api/internal/ratelimit"
	"github.com/scrumkit/scrumkit-api/internal/retro"
	"github.com/scrumkit/scrumkit-api/internal/routes"
)

// newTestApp boots the whole API against an in-memory database. The variadic
// limiter config lets rate-limit tests keep real cooldowns; everything else
// runs with negligible ones.
func newTestApp(t *testing.T, limits ...ratelimit.Config) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Background refetches run concurrently with requests; a second pooled
	// connection would open a separate empty in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Board{},
		&models.BoardColumn{},
		&models.RetroItem{},
		&models.Vote{},
		&models.Notification{},
		&models.PokerSession{},
		&models.PokerStory{},
		&models.PokerEstimate{},
	))
	database.DB = db

	cfg := ratelimit.Config{
		CreateItem: time.Nanosecond,
		DeleteItem: time.Nanosecond,
		Vote:       time.Nanosecond,
	}
	if len(limits) > 0 {
		cfg = limits[0]
	}

	store := querycache.New()
	t.Cleanup(store.Close)

	svc := retro.NewService(gateway.NewGorm(db), store, ratelimit.New(cfg), ledger.NewMemory(64), nil)
	handlers.Init(svc, poll.New(time.Hour, svc.RefreshBoard))

	app := fiber.New()
	routes.Setup(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, token string, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type apiError struct {
	Error string `json:"error"`
}

type boardDetail struct {
	Board   models.Board         `json:"board"`
	Columns []models.BoardColumn `json:"columns"`
	Items   []models.RetroItem   `json:"items"`
	Votes   []models.Vote        `json:"votes"`
}

func register(t *testing.T, app *fiber.App, email string) models.AuthResponse {
	t.Helper()
	resp := doJSON(t, app, fiber.MethodPost, "/api/auth/register", models.RegisterRequest{
		Email:    email,
		Password: "correct-horse-battery",
		Name:     "Dana",
	}, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decodeJSON[models.AuthResponse](t, resp)
}

// anonSession makes first contact without credentials and returns the minted
// anonymous session cookie.
func anonSession(t *testing.T, app *fiber.App) *http.Cookie {
	t.Helper()
	resp := doJSON(t, app, fiber.MethodGet, "/api/boards", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	for _, ck := range resp.Cookies() {
		if ck.Name == middleware.AnonCookie {
			return ck
		}
	}
	t.Fatal("no anonymous session cookie on first contact")
	return nil
}

func createBoard(t *testing.T, app *fiber.App, token string, req models.CreateBoardRequest, cookies ...*http.Cookie) models.Board {
	t.Helper()
	resp := doJSON(t, app, fiber.MethodPost, "/api/boards", req, token, cookies...)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decodeJSON[models.Board](t, resp)
}

func createItem(t *testing.T, app *fiber.App, token string, board models.Board, columnID uuid.UUID, text string, cookies ...*http.Cookie) models.RetroItem {
	t.Helper()
	resp := doJSON(t, app, fiber.MethodPost, "/api/boards/"+board.ID.String()+"/items", models.CreateItemRequest{
		ColumnID: columnID,
		Text:     text,
	}, token, cookies...)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decodeJSON[models.RetroItem](t, resp)
}

func TestRegisterLoginAndMe(t *testing.T) {
	app := newTestApp(t)

	auth := register(t, app, "dana@example.com")
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, "dana@example.com", auth.User.Email)

	// Token works on the account surface
	resp := doJSON(t, app, fiber.MethodGet, "/api/me", nil, auth.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	me := decodeJSON[models.User](t, resp)
	assert.Equal(t, auth.User.ID, me.ID)

	// Duplicate registration is a conflict
	resp = doJSON(t, app, fiber.MethodPost, "/api/auth/register", models.RegisterRequest{
		Email:    "dana@example.com",
		Password: "another-password",
	}, "")
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// Wrong password is rejected
	resp = doJSON(t, app, fiber.MethodPost, "/api/auth/login", models.LoginRequest{
		Email:    "dana@example.com",
		Password: "wrong",
	}, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodPost, "/api/auth/login", models.LoginRequest{
		Email:    "dana@example.com",
		Password: "correct-horse-battery",
	}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	login := decodeJSON[models.AuthResponse](t, resp)
	assert.NotEmpty(t, login.Token)

	// No token, no account surface
	resp = doJSON(t, app, fiber.MethodGet, "/api/me", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCreateBoardStampsTemplateColumns(t *testing.T) {
	app := newTestApp(t)
	auth := register(t, app, "dana@example.com")

	board := createBoard(t, app, auth.Token, models.CreateBoardRequest{
		Title:    "Sprint 12 retro",
		Template: "mad-sad-glad",
	})
	assert.Equal(t, models.BoardStatusActive, board.Status)
	assert.Equal(t, models.DefaultVotingLimit, board.VotingLimit)
	require.Len(t, board.Columns, 3)
	assert.Equal(t, "mad", board.Columns[0].Kind)
	assert.Equal(t, "sad", board.Columns[1].Kind)
	assert.Equal(t, "glad", board.Columns[2].Kind)
	for i, col := range board.Columns {
		assert.Equal(t, i, col.DisplayOrder)
	}

	// Unknown template names fall back to the default layout
	fallback := createBoard(t, app, auth.Token, models.CreateBoardRequest{
		Title:    "Quarter review",
		Template: "does-not-exist",
	})
	assert.Equal(t, "default", fallback.Template)
	require.Len(t, fallback.Columns, 3)
	assert.Equal(t, "went-well", fallback.Columns[0].Kind)

	resp := doJSON(t, app, fiber.MethodGet, "/api/boards", nil, auth.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	summaries := decodeJSON[[]models.BoardSummary](t, resp)
	assert.Len(t, summaries, 2)
}

func TestAnonymousSessionOwnsItsBoards(t *testing.T) {
	app := newTestApp(t)
	cookie := anonSession(t, app)

	board := createBoard(t, app, "", models.CreateBoardRequest{Title: "Team huddle"}, cookie)
	assert.Nil(t, board.CreatorID)

	resp := doJSON(t, app, fiber.MethodGet, "/api/boards", nil, "", cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	summaries := decodeJSON[[]models.BoardSummary](t, resp)
	require.Len(t, summaries, 1)
	assert.Equal(t, board.ID, summaries[0].ID)

	// A different anonymous session sees nothing
	other := anonSession(t, app)
	resp = doJSON(t, app, fiber.MethodGet, "/api/boards", nil, "", other)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeJSON[[]models.BoardSummary](t, resp))

	// But the anonymous owner can still change settings
	limit := 5
	resp = doJSON(t, app, fiber.MethodPut, "/api/boards/"+board.ID.String(), models.UpdateBoardRequest{
		VotingLimit: &limit,
	}, "", cookie)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestBoardDetailAssemblesAllScopes(t *testing.T) {
	app := newTestApp(t)
	auth := register(t, app, "dana@example.com")
	board := createBoard(t, app, auth.Token, models.CreateBoardRequest{Title: "Sprint 12 retro"})

	item := createItem(t, app, auth.Token, board, board.Columns[0].ID, "keep the demo cadence")

	resp := doJSON(t, app, fiber.MethodGet, "/api/boards/"+board.ID.String(), nil, auth.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	detail := decodeJSON[boardDetail](t, resp)

	assert.Equal(t, board.ID, detail.Board.ID)
	assert.Len(t, detail.Columns, 3)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, item.ID, detail.Items[0].ID)
	assert.Empty(t, detail.Votes)

	resp = doJSON(t, app, fiber.MethodGet, "/api/boards/"+uuid.NewString(), nil, auth.Token)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestItemLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	auth := register(t, app, "dana@example.com")
	board := createBoard(t, app, auth.Token, models.CreateBoardRequest{Title: "Sprint 12 retro"})
	colA, colB := board.Columns[0].ID, board.Columns[1].ID

	item := createItem(t, app, auth.Token, board, colA, "<b>ship</b> the docs")
	assert.Equal(t, "ship the docs", item.Text, "markup is stripped before storage")
	assert.Equal(t, 0, item.Position)
	require.NotNil(t, item.AuthorID)
	assert.Equal(t, auth.User.ID, *item.AuthorID)

	// Partial update: text only
	text := "ship the docs this sprint"
	resp := doJSON(t, app, fiber.MethodPut,
		"/api/boards/"+board.ID.String()+"/items/"+item.ID.String(),
		models.UpdateItemRequest{Text: &text}, auth.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	updated := decodeJSON[models.RetroItem](t, resp)
	assert.Equal(t, text, updated.Text)

	// Cross-column move
	resp = doJSON(t, app, fiber.MethodPost,
		"/api/boards/"+board.ID.String()+"/items/"+item.ID.String()+"/move",
		models.MoveItemRequest{ToColumnID: colB, NewIndex: 0}, auth.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodGet, "/api/boards/"+board.ID.String()+"/items", nil, auth.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	items := decodeJSON[[]models.RetroItem](t, resp)
	require.Len(t, items, 1)
	assert.Equal(t, colB, items[0].ColumnID)

	resp = doJSON(t, app, fiber.MethodDelete,
		"/api/boards/"+board.ID.String()+"/items/"+item.ID.String(), nil, auth.Token)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodGet, "/api/boards/"+board.ID.String()+"/items", nil, auth.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeJSON[[]models.RetroItem](t, resp))
}

func TestSameColumnReorderOverHTTP(t *testing.T) {
	app := newTestApp(t)
	auth := register(t, app, "dana@example.com")
	board := createBoard(t, app, auth.Token, models.CreateBoardRequest{Title: "Sprint 12 retro"})
	col := board.Columns[0].ID

	a := createItem(t, app, auth.Token, board, col, "a")
	b := createItem(t, app, auth.Token, board, col, "b")
	c := createItem(t, app, auth.Token, board, col, "c")

	resp := doJSON(t, app, fiber.MethodPost,
		"/api/boards/"+board.ID.String()+"/items/"+c.ID.String()+"/move",
		models.MoveItemRequest{ToColumnID: col, NewIndex: 0}, auth.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodGet, "/api/boards/"+board.ID.String()+"/items", nil, auth.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	items := decodeJSON[[]models.RetroItem](t, resp)
	require.Len(t, items, 3)
	assert.Equal(t, []uuid.UUID{c.ID, a.ID, b.ID}, []uuid.UUID{items[0].ID, items[1].ID, items[2].ID})
	for i, it := range items {
		assert.Equal(t, i, it.Position)
	}
}

func TestVoteFlowOverHTTP(t *testing.T) {
	app := newTestApp(t)
	auth := register(t, app, "dana@example.com")
	board := createBoard(t, app, auth.Token, models.CreateBoardRequest{Title: "Sprint 12 retro"})
	item := createItem(t, app, auth.Token, board, board.Columns[0].ID, "pair more")

	votePath := "/api/boards/" + board.ID.String() + "/items/" + item.ID.String() + "/vote"

	resp := doJSON(t, app, fiber.MethodPost, votePath, models.ToggleVoteRequest{HasVoted: false}, auth.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodGet, "/api/boards/"+board.ID.String()+"/votes", nil, auth.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	votes := decodeJSON[[]models.Vote](t, resp)
	require.Len(t, votes, 1)
	assert.Equal(t, item.ID, votes[0].ItemID)
	assert.Equal(t, auth.User.ID, votes[0].VoterID)

	resp = doJSON(t, app, fiber.MethodGet, "/api/boards/"+board.ID.String()+"/votes/me", nil, auth.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	stats := decodeJSON[models.VoteStats](t, resp)
	assert.Equal(t, 1, stats.Used)
	assert.Equal(t, board.VotingLimit-1, stats.Remaining)

	// Toggle back off
	resp = doJSON(t, app, fiber.MethodPost, votePath, models.ToggleVoteRequest{HasVoted: true}, auth.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodGet, "/api/boards/"+board.ID.String()+"/votes/me", nil, auth.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	stats = decodeJSON[models.VoteStats](t, resp)
	assert.Equal(t, 0, stats.Used)
}

func TestAnonymousVoteRejectedOverHTTP(t *testing.T) {
	app := newTestApp(t)
	auth := register(t, app, "dana@example.com")
	board := createBoard(t, app, auth.Token, models.CreateBoardRequest{Title: "Sprint 12 retro"})
	item := createItem(t, app, auth.Token, board, board.Columns[0].ID, "pair more")

	cookie := anonSession(t, app)
	resp := doJSON(t, app, fiber.MethodPost,
		"/api/boards/"+board.ID.String()+"/items/"+item.ID.String()+"/vote",
		models.ToggleVoteRequest{HasVoted: false}, "", cookie)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "sign in to vote", decodeJSON[apiError](t, resp).Error)

	resp = doJSON(t, app, fiber.MethodGet, "/api/boards/"+board.ID.String()+"/votes/me", nil, "", cookie)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAnonymousAuthorOwnsItemThroughLedger(t *testing.T) {
	app := newTestApp(t)
	auth := register(t, app, "dana@example.com")
	board := createBoard(t, app, auth.Token, models.CreateBoardRequest{Title: "Sprint 12 retro"})

	author := anonSession(t, app)
	item := createItem(t, app, "", board, board.Columns[0].ID, "less meetings", author)
	assert.Nil(t, item.AuthorID)

	// A different anonymous session cannot touch it
	stranger := anonSession(t, app)
	resp := doJSON(t, app, fiber.MethodDelete,
		"/api/boards/"+board.ID.String()+"/items/"+item.ID.String(), nil, "", stranger)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// The originating session can
	resp = doJSON(t, app, fiber.MethodDelete,
		"/api/boards/"+board.ID.String()+"/items/"+item.ID.String(), nil, "", author)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestSecondCreateRateLimitedOverHTTP(t *testing.T) {
	app := newTestApp(t, ratelimit.DefaultConfig())
	auth := register(t, app, "dana@example.com")
	board := createBoard(t, app, auth.Token, models.CreateBoardRequest{Title: "Sprint 12 retro"})

	createItem(t, app, auth.Token, board, board.Columns[0].ID, "first thought")

	resp := doJSON(t, app, fiber.MethodPost, "/api/boards/"+board.ID.String()+"/items", models.CreateItemRequest{
		ColumnID: board.Columns[0].ID,
		Text:     "second thought",
	}, auth.Token)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, decodeJSON[apiError](t, resp).Error, "slow down")
}

func TestBoardSettingsAndLifecycle(t *testing.T) {
	app := newTestApp(t)
	owner := register(t, app, "owner@example.com")
	stranger := register(t, app, "stranger@example.com")
	board := createBoard(t, app, owner.Token, models.CreateBoardRequest{Title: "Sprint 12 retro"})
	path := "/api/boards/" + board.ID.String()

	limit := 5
	resp := doJSON(t, app, fiber.MethodPut, path, models.UpdateBoardRequest{VotingLimit: &limit}, stranger.Token)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	bogus := "bogus"
	resp = doJSON(t, app, fiber.MethodPut, path, models.UpdateBoardRequest{Status: &bogus}, owner.Token)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	ended := models.BoardStatusEnded
	resp = doJSON(t, app, fiber.MethodPut, path, models.UpdateBoardRequest{VotingLimit: &limit, Status: &ended}, owner.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	updated := decodeJSON[models.Board](t, resp)
	assert.Equal(t, 5, updated.VotingLimit)
	assert.Equal(t, models.BoardStatusEnded, updated.Status)

	// An ended board refuses new feedback
	resp = doJSON(t, app, fiber.MethodPost, path+"/items", models.CreateItemRequest{
		ColumnID: board.Columns[0].ID,
		Text:     "too late",
	}, owner.Token)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodDelete, path, nil, stranger.Token)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodDelete, path, nil, owner.Token)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodGet, path, nil, owner.Token)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestMergeItemsOverHTTP(t *testing.T) {
	app := newTestApp(t)
	owner := register(t, app, "owner@example.com")
	helper := register(t, app, "helper@example.com")
	board := createBoard(t, app, owner.Token, models.CreateBoardRequest{Title: "Sprint 12 retro"})
	col := board.Columns[0].ID

	first := createItem(t, app, owner.Token, board, col, "first point")
	second := createItem(t, app, helper.Token, board, col, "second point")

	mergeReq := models.MergeItemsRequest{
		ItemIDs:    []uuid.UUID{first.ID, second.ID},
		ToColumnID: col,
	}

	resp := doJSON(t, app, fiber.MethodPost, "/api/boards/"+board.ID.String()+"/items/merge", mergeReq, helper.Token)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, "only the board owner merges")

	resp = doJSON(t, app, fiber.MethodPost, "/api/boards/"+board.ID.String()+"/items/merge", mergeReq, owner.Token)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	merged := decodeJSON[models.RetroItem](t, resp)
	assert.Equal(t, "first point\n\nsecond point", merged.Text)

	resp = doJSON(t, app, fiber.MethodGet, "/api/boards/"+board.ID.String()+"/items", nil, owner.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	items := decodeJSON[[]models.RetroItem](t, resp)
	require.Len(t, items, 1)
	assert.Equal(t, merged.ID, items[0].ID)
}

func TestOwnerNotifiedAboutForeignFeedback(t *testing.T) {
	app := newTestApp(t)
	owner := register(t, app, "owner@example.com")
	visitor := register(t, app, "visitor@example.com")
	board := createBoard(t, app, owner.Token, models.CreateBoardRequest{Title: "Sprint 12 retro"})

	createItem(t, app, visitor.Token, board, board.Columns[0].ID, "automate the release checklist")

	resp := doJSON(t, app, fiber.MethodGet, "/api/notifications", nil, owner.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	page := decodeJSON[struct {
		Notifications []models.Notification `json:"notifications"`
		Unread        int                   `json:"unread"`
	}](t, resp)
	require.Len(t, page.Notifications, 1)
	assert.Equal(t, 1, page.Unread)
	assert.Equal(t, "board_activity", page.Notifications[0].Type)
	assert.Contains(t, page.Notifications[0].Title, "Sprint 12 retro")
	assert.Contains(t, page.Notifications[0].Body, "automate")

	// The owner's own items never notify
	createItem(t, app, owner.Token, board, board.Columns[0].ID, "my own note")
	resp = doJSON(t, app, fiber.MethodGet, "/api/notifications", nil, owner.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	page = decodeJSON[struct {
		Notifications []models.Notification `json:"notifications"`
		Unread        int                   `json:"unread"`
	}](t, resp)
	assert.Len(t, page.Notifications, 1)

	resp = doJSON(t, app, fiber.MethodPut,
		"/api/notifications/"+page.Notifications[0].ID.String()+"/read", nil, owner.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
