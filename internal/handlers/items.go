package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/scrumkit/scrumkit-api/internal/middleware"
	"github.com/scrumkit/scrumkit-api/internal/models"
)

// Item endpoints translate HTTP to orchestrator calls. Guards, optimistic
// cache updates, rollback and notices all live in the retro service; handlers
// only map typed errors onto status codes.

func GetItems(c *fiber.Ctx) error {
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	items, err := Retro.Items(c.Context(), boardID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(items)
}

func CreateItem(c *fiber.Ctx) error {
	actorID := middleware.GetActorID(c)
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	var req models.CreateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	board, err := Retro.Board(c.Context(), boardID)
	if err != nil {
		return serviceError(c, err)
	}

	item, err := Retro.CreateItem(c.Context(), actorID, boardID, req)
	if err != nil {
		return serviceError(c, err)
	}

	notifyBoardOwner(board, actorID, "board_activity",
		"New feedback on "+board.Title, preview(item.Text),
		map[string]interface{}{
			"boardId": board.ID.String(),
			"itemId":  item.ID.String(),
		})

	return c.Status(fiber.StatusCreated).JSON(item)
}

func UpdateItem(c *fiber.Ctx) error {
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

	var req models.UpdateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	item, err := Retro.UpdateItem(c.Context(), actorID, boardID, itemID, req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(item)
}

func DeleteItem(c *fiber.Ctx) error {
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

	if err := Retro.DeleteItem(c.Context(), actorID, boardID, itemID); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func MoveItem(c *fiber.Ctx) error {
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

	var req models.MoveItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := Retro.MoveItem(c.Context(), actorID, boardID, itemID, req); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func MergeItems(c *fiber.Ctx) error {
	actorID := middleware.GetActorID(c)
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	var req models.MergeItemsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	item, err := Retro.MergeItems(c.Context(), actorID, boardID, req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}
