package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/scrumkit/scrumkit-api/internal/poll"
	"github.com/scrumkit/scrumkit-api/internal/retro"
)

// Shared singletons wired in main, alongside database.DB and services.Push.
var (
	Retro  *retro.Service
	Poller *poll.Poller
)

// Init hands the handlers their service dependencies.
func Init(svc *retro.Service, p *poll.Poller) {
	Retro = svc
	Poller = p
}

// statusForError maps orchestrator errors onto HTTP status codes.
func statusForError(err error) int {
	var rateErr *retro.RateLimitError
	var limitErr *retro.VoteLimitError

	switch {
	case errors.As(err, &rateErr):
		return fiber.StatusTooManyRequests
	case errors.Is(err, retro.ErrAnonymousVote):
		return fiber.StatusUnauthorized
	case errors.As(err, &limitErr),
		errors.Is(err, retro.ErrNotItemAuthor),
		errors.Is(err, retro.ErrNotBoardOwner):
		return fiber.StatusForbidden
	case errors.Is(err, retro.ErrBoardNotOpen):
		return fiber.StatusConflict
	case errors.Is(err, retro.ErrItemNotFound),
		errors.Is(err, retro.ErrColumnNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, retro.ErrEmptyItemText),
		errors.Is(err, retro.ErrInvalidColor),
		errors.Is(err, retro.ErrMergeTooFew):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// serviceError renders an orchestrator error. Domain errors carry user-facing
// messages; anything else is an opaque 500.
func serviceError(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	msg := err.Error()
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		msg = "Not found"
	case status == fiber.StatusInternalServerError:
		msg = "Something went wrong"
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}
