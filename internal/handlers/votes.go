package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/scrumkit/scrumkit-api/internal/middleware"
	"github.com/scrumkit/scrumkit-api/internal/models"
	"github.com/scrumkit/scrumkit-api/internal/retro"
)

func GetVotes(c *fiber.Ctx) error {
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	votes, err := Retro.Votes(c.Context(), boardID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(votes)
}

// GetMyVoteStats returns the caller's used/remaining vote budget on a board.
// Anonymous sessions have no budget.
func GetMyVoteStats(c *fiber.Ctx) error {
	actorID := middleware.GetActorID(c)
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	voterID, err := uuid.Parse(actorID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": retro.ErrAnonymousVote.Error(),
		})
	}

	stats, err := Retro.VoterStats(c.Context(), boardID, voterID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(stats)
}

// ToggleVote adds or removes the caller's vote on an item. The request carries
// the client's current state; the orchestrator flips it.
func ToggleVote(c *fiber.Ctx) error {
	actorID := middleware.GetActorID(c)
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}
	itemID, err := uuid.Parse(c.Params("itemId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid item ID",
		})
	}

	var req models.ToggleVoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := Retro.ToggleVote(c.Context(), actorID, boardID, itemID, req.HasVoted); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
