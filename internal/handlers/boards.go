package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/scrumkit/scrumkit-api/internal/database"
	"github.com/scrumkit/scrumkit-api/internal/middleware"
	"github.com/scrumkit/scrumkit-api/internal/models"
	"github.com/scrumkit/scrumkit-api/internal/querycache"
	"github.com/scrumkit/scrumkit-api/internal/sanitize"
)

// GetBoards lists the caller's boards. Anonymous creators are matched by their
// session token, accounts by their user ID.
func GetBoards(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	actorID := middleware.GetActorID(c)

	q := database.DB.Order("created_at DESC")
	if userID != uuid.Nil {
		q = q.Where("creator_id = ?", userID)
	} else {
		q = q.Where("creator_token = ?", actorID)
	}

	var boards []models.Board
	if err := q.Find(&boards).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch boards",
		})
	}

	summaries := make([]models.BoardSummary, len(boards))
	for i, board := range boards {
		var itemCount int64
		database.DB.Model(&models.RetroItem{}).Where("board_id = ?", board.ID).Count(&itemCount)

		summaries[i] = models.BoardSummary{
			ID:          board.ID,
			Title:       board.Title,
			Status:      board.Status,
			Template:    board.Template,
			VotingLimit: board.VotingLimit,
			IsAnonymous: board.IsAnonymous,
			ItemCount:   int(itemCount),
			CreatedAt:   board.CreatedAt,
		}
	}

	return c.JSON(summaries)
}

// CreateBoard creates a board and stamps out its columns from the requested
// template. Unknown templates fall back to the default layout.
func CreateBoard(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	actorID := middleware.GetActorID(c)

	var req models.CreateBoardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	title := sanitize.Username(req.Title)
	if title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Title is required",
		})
	}

	votingLimit := req.VotingLimit
	if votingLimit < 1 {
		votingLimit = models.DefaultVotingLimit
	}

	template, layout := models.ColumnsForTemplate(req.Template)

	board := models.Board{
		Title:       title,
		Status:      models.BoardStatusActive,
		Template:    template,
		VotingLimit: votingLimit,
		IsAnonymous: req.IsAnonymous,
	}
	if userID != uuid.Nil {
		board.CreatorID = &userID
	} else {
		board.CreatorToken = actorID
	}

	if err := database.DB.Create(&board).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create board",
		})
	}

	columns := make([]models.BoardColumn, len(layout))
	for i, col := range layout {
		columns[i] = models.BoardColumn{
			BoardID:      board.ID,
			Kind:         col.Kind,
			Title:        col.Title,
			Description:  col.Description,
			Color:        col.Color,
			DisplayOrder: i,
		}
	}
	if err := database.DB.Create(&columns).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create board columns",
		})
	}
	board.Columns = columns

	return c.Status(fiber.StatusCreated).JSON(board)
}

// GetBoard returns the full board detail: board, columns, items and votes,
// all read through the query store so repeat opens hit the cache.
func GetBoard(c *fiber.Ctx) error {
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	ctx := c.Context()

	board, err := Retro.Board(ctx, boardID)
	if err != nil {
		return serviceError(c, err)
	}
	columns, err := Retro.Columns(ctx, boardID)
	if err != nil {
		return serviceError(c, err)
	}
	items, err := Retro.Items(ctx, boardID)
	if err != nil {
		return serviceError(c, err)
	}
	votes, err := Retro.Votes(ctx, boardID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"board":   board,
		"columns": columns,
		"items":   items,
		"votes":   votes,
	})
}

// UpdateBoard lets the board owner change settings: title, status, voting
// limit, anonymity. Columns are immutable after creation.
func UpdateBoard(c *fiber.Ctx) error {
	actorID := middleware.GetActorID(c)
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	var board models.Board
	if err := database.DB.Where("id = ?", boardID).First(&board).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}

	if !board.OwnedBy(actorID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the board owner can change settings",
		})
	}

	var req models.UpdateBoardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Title != nil {
		title := sanitize.Username(*req.Title)
		if title == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Title cannot be empty",
			})
		}
		board.Title = title
	}
	if req.Status != nil {
		if !models.IsValidBoardStatus(*req.Status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid board status",
			})
		}
		board.Status = *req.Status
	}
	if req.VotingLimit != nil {
		if *req.VotingLimit < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Voting limit must be at least 1",
			})
		}
		board.VotingLimit = *req.VotingLimit
	}
	if req.IsAnonymous != nil {
		board.IsAnonymous = *req.IsAnonymous
	}

	if err := database.DB.Save(&board).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update board",
		})
	}

	// Connected participants pick the change up through the store.
	Retro.Cache().InvalidatePrefix(querycache.BoardDetail(boardID))

	return c.JSON(board)
}

// DeleteBoard soft-deletes a board and drops its live state. Owner only.
func DeleteBoard(c *fiber.Ctx) error {
	actorID := middleware.GetActorID(c)
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	var board models.Board
	if err := database.DB.Where("id = ?", boardID).First(&board).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}

	if !board.OwnedBy(actorID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the board owner can delete the board",
		})
	}

	database.DB.Where("board_id = ?", boardID).Delete(&models.Vote{})
	database.DB.Where("board_id = ?", boardID).Delete(&models.RetroItem{})

	if err := database.DB.Delete(&board).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete board",
		})
	}

	Poller.Untrack(boardID)
	Retro.ReleaseBoard(boardID)

	return c.SendStatus(fiber.StatusNoContent)
}
