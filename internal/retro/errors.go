package retro

import (
	"errors"
	"fmt"
	"time"
)

// errUnexpectedShape means a cache entry held a value of the wrong type,
// which would take a key collision between entity groups.
var errUnexpectedShape = errors.New("cached value has unexpected shape")

// Guard failures surfaced to handlers. Messages double as user-facing notice
// text, so they stay short and non-technical.
var (
	ErrAnonymousVote  = errors.New("sign in to vote")
	ErrNotItemAuthor  = errors.New("only the item author can do that")
	ErrNotBoardOwner  = errors.New("only the board owner can do that")
	ErrEmptyItemText  = errors.New("item text is empty")
	ErrBoardNotOpen   = errors.New("this board is no longer open for changes")
	ErrItemNotFound   = errors.New("item not found")
	ErrColumnNotFound = errors.New("column not found on this board")
	ErrInvalidColor   = errors.New("color must be a hex value like #ff8800")
	ErrMergeTooFew    = errors.New("select at least two items to merge")
)

// RateLimitError rejects a mutation still inside its actor's cooldown window.
// The backend is never contacted for a rate-limited attempt.
type RateLimitError struct {
	Op        string
	Remaining time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("slow down, that action is available again in %s",
		e.Remaining.Round(100*time.Millisecond))
}

// VoteLimitError rejects a vote once the voter's board budget is spent. The
// message carries the board's configured limit, which varies per board.
type VoteLimitError struct {
	Limit int
}

func (e *VoteLimitError) Error() string {
	return fmt.Sprintf("all %d of your votes on this board are used", e.Limit)
}
