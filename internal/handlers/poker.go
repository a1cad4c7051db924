package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/scrumkit/scrumkit-api/internal/database"
	"github.com/scrumkit/scrumkit-api/internal/middleware"
	"github.com/scrumkit/scrumkit-api/internal/models"
	"github.com/scrumkit/scrumkit-api/internal/positions"
	"github.com/scrumkit/scrumkit-api/internal/sanitize"
)

// Planning poker sits outside the sync core: sessions are small and
// short-lived, so handlers talk to the database directly and fan events out
// through the hub. The session owner facilitates; anyone in the room
// estimates.

func CreatePokerSession(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	actorID := middleware.GetActorID(c)

	var req models.CreatePokerSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	name := sanitize.Username(req.Name)
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	deck := req.Deck
	if deck == "" {
		deck = "fibonacci"
	}
	if _, ok := models.PokerDecks[deck]; !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown deck",
		})
	}

	session := models.PokerSession{
		Name:   name,
		Deck:   deck,
		Status: models.PokerStatusVoting,
	}
	if userID != uuid.Nil {
		session.CreatorID = &userID
	} else {
		session.CreatorToken = actorID
	}

	if err := database.DB.Create(&session).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create session",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

// pokerStoryView is a story plus its estimates; values are blanked until the
// story is revealed so clients only see who has locked in.
type pokerStoryView struct {
	models.PokerStory
	Estimates []models.PokerEstimate `json:"estimates"`
}

func GetPokerSession(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid session ID",
		})
	}

	var session models.PokerSession
	if err := database.DB.Where("id = ?", sessionID).First(&session).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	var stories []models.PokerStory
	database.DB.Where("session_id = ?", sessionID).
		Order("position ASC").
		Order("created_at ASC").
		Find(&stories)

	views := make([]pokerStoryView, len(stories))
	for i, story := range stories {
		var estimates []models.PokerEstimate
		database.DB.Where("story_id = ?", story.ID).
			Order("created_at ASC").
			Find(&estimates)

		if !story.Revealed {
			for j := range estimates {
				estimates[j].Value = ""
			}
		}
		views[i] = pokerStoryView{PokerStory: story, Estimates: estimates}
	}

	return c.JSON(fiber.Map{
		"session": session,
		"stories": views,
		"deck":    models.PokerDecks[session.Deck],
	})
}

// ownedSession loads a session and checks that the caller facilitates it.
// Returns a nil session after writing the error response.
func ownedSession(c *fiber.Ctx) (*models.PokerSession, error) {
	actorID := middleware.GetActorID(c)
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid session ID",
		})
	}

	var session models.PokerSession
	if err := database.DB.Where("id = ?", sessionID).First(&session).Error; err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	if !session.OwnedBy(actorID) {
		return nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the session owner can do that",
		})
	}
	return &session, nil
}

func AddStory(c *fiber.Ctx) error {
	session, resp := ownedSession(c)
	if session == nil {
		return resp
	}

	var req models.CreateStoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	title := sanitize.ItemContent(req.Title)
	if title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Title is required",
		})
	}

	// New stories go to the end of the backlog
	position := 0
	var last models.PokerStory
	if err := database.DB.Where("session_id = ?", session.ID).
		Order("position DESC").
		First(&last).Error; err == nil {
		position = last.Position + 1
	}

	story := models.PokerStory{
		SessionID:   session.ID,
		Title:       title,
		Description: sanitize.ItemContent(req.Description),
		Position:    position,
	}
	if err := database.DB.Create(&story).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create story",
		})
	}

	WS.Broadcast(session.ID, middleware.GetActorID(c), WSEvent{
		Type:    EventStoryAdded,
		BoardID: session.ID.String(),
		Data:    story,
	})

	return c.Status(fiber.StatusCreated).JSON(story)
}

func DeleteStory(c *fiber.Ctx) error {
	session, resp := ownedSession(c)
	if session == nil {
		return resp
	}
	storyID, err := uuid.Parse(c.Params("storyId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid story ID",
		})
	}

	var story models.PokerStory
	if err := database.DB.Where("id = ? AND session_id = ?", storyID, session.ID).
		First(&story).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Story not found",
		})
	}

	database.DB.Where("story_id = ?", storyID).Delete(&models.PokerEstimate{})
	if err := database.DB.Delete(&story).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete story",
		})
	}

	if session.CurrentStoryID != nil && *session.CurrentStoryID == storyID {
		session.CurrentStoryID = nil
		database.DB.Save(session)
	}

	WS.Broadcast(session.ID, middleware.GetActorID(c), WSEvent{
		Type:    EventStoryRemoved,
		BoardID: session.ID.String(),
		Data:    fiber.Map{"storyId": storyID},
	})

	return c.SendStatus(fiber.StatusNoContent)
}

func ReorderStories(c *fiber.Ctx) error {
	session, resp := ownedSession(c)
	if session == nil {
		return resp
	}

	var req models.ReorderStoriesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var stories []models.PokerStory
	database.DB.Where("session_id = ?", session.ID).
		Order("position ASC").
		Order("created_at ASC").
		Find(&stories)

	entries := make([]positions.Entry, len(stories))
	for i, story := range stories {
		entries[i] = positions.Entry{ID: story.ID, Position: story.Position}
	}

	updates := positions.Reorder(entries, req.StoryID, req.NewIndex)
	for _, u := range updates {
		if err := database.DB.Model(&models.PokerStory{}).
			Where("id = ?", u.ID).
			Update("position", u.Position).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to reorder stories",
			})
		}
	}

	if len(updates) > 0 {
		WS.Broadcast(session.ID, "", WSEvent{
			Type:    EventStoriesReordered,
			BoardID: session.ID.String(),
			Data:    fiber.Map{"updates": updates},
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

// SubmitEstimate records or replaces the caller's card for a story. Open to
// anonymous participants; values stay hidden until reveal.
func SubmitEstimate(c *fiber.Ctx) error {
	actorID := middleware.GetActorID(c)
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid session ID",
		})
	}
	storyID, err := uuid.Parse(c.Params("storyId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid story ID",
		})
	}

	var session models.PokerSession
	if err := database.DB.Where("id = ?", sessionID).First(&session).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}
	if session.Status == models.PokerStatusFinished {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Session is finished",
		})
	}

	var story models.PokerStory
	if err := database.DB.Where("id = ? AND session_id = ?", storyID, sessionID).
		First(&story).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Story not found",
		})
	}
	if story.Revealed {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Story is already revealed",
		})
	}

	var req models.SubmitEstimateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if !deckHasValue(session.Deck, req.Value) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Value is not in the deck",
		})
	}

	voterName := sanitize.Username(req.VoterName)
	if voterName == "" {
		voterName = "Anonymous"
	}

	// One card per voter per story; a resubmit replaces it
	var estimate models.PokerEstimate
	err = database.DB.Where("story_id = ? AND voter_id = ?", storyID, actorID).
		First(&estimate).Error
	if err == nil {
		estimate.Value = req.Value
		estimate.VoterName = voterName
		if err := database.DB.Save(&estimate).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to save estimate",
			})
		}
	} else {
		estimate = models.PokerEstimate{
			StoryID:   storyID,
			VoterID:   actorID,
			VoterName: voterName,
			Value:     req.Value,
		}
		if err := database.DB.Create(&estimate).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to save estimate",
			})
		}
	}

	// The room learns who locked in, not what they picked
	WS.Broadcast(sessionID, actorID, WSEvent{
		Type:    EventEstimateSubmitted,
		BoardID: sessionID.String(),
		Data: fiber.Map{
			"storyId":   storyID,
			"voterId":   actorID,
			"voterName": voterName,
		},
	})

	return c.JSON(fiber.Map{"success": true})
}

func RevealStory(c *fiber.Ctx) error {
	session, resp := ownedSession(c)
	if session == nil {
		return resp
	}
	storyID, err := uuid.Parse(c.Params("storyId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid story ID",
		})
	}

	var story models.PokerStory
	if err := database.DB.Where("id = ? AND session_id = ?", storyID, session.ID).
		First(&story).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Story not found",
		})
	}

	story.Revealed = true
	if err := database.DB.Save(&story).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to reveal story",
		})
	}
	session.Status = models.PokerStatusRevealed
	database.DB.Save(session)

	var estimates []models.PokerEstimate
	database.DB.Where("story_id = ?", storyID).
		Order("created_at ASC").
		Find(&estimates)

	payload := fiber.Map{"story": story, "estimates": estimates}
	WS.Broadcast(session.ID, "", WSEvent{
		Type:    EventStoryRevealed,
		BoardID: session.ID.String(),
		Data:    payload,
	})

	return c.JSON(payload)
}

// SetStoryEstimate records the agreed final value after discussion.
func SetStoryEstimate(c *fiber.Ctx) error {
	session, resp := ownedSession(c)
	if session == nil {
		return resp
	}
	storyID, err := uuid.Parse(c.Params("storyId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid story ID",
		})
	}

	var story models.PokerStory
	if err := database.DB.Where("id = ? AND session_id = ?", storyID, session.ID).
		First(&story).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Story not found",
		})
	}

	var req models.SetEstimateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if !deckHasValue(session.Deck, req.Estimate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Value is not in the deck",
		})
	}

	story.Estimate = &req.Estimate
	if err := database.DB.Save(&story).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save estimate",
		})
	}

	WS.Broadcast(session.ID, "", WSEvent{
		Type:    EventStoryEstimated,
		BoardID: session.ID.String(),
		Data:    story,
	})

	return c.JSON(story)
}

// SetCurrentStory moves the room to a story and reopens voting.
func SetCurrentStory(c *fiber.Ctx) error {
	session, resp := ownedSession(c)
	if session == nil {
		return resp
	}

	var req struct {
		StoryID uuid.UUID `json:"storyId"`
	}
	if err := c.BodyParser(&req); err != nil || req.StoryID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Story ID is required",
		})
	}

	var story models.PokerStory
	if err := database.DB.Where("id = ? AND session_id = ?", req.StoryID, session.ID).
		First(&story).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Story not found",
		})
	}

	session.CurrentStoryID = &story.ID
	session.Status = models.PokerStatusVoting
	if err := database.DB.Save(session).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to switch story",
		})
	}

	WS.Broadcast(session.ID, "", WSEvent{
		Type:    EventCurrentStoryChanged,
		BoardID: session.ID.String(),
		Data:    story,
	})

	return c.JSON(session)
}

func FinishSession(c *fiber.Ctx) error {
	session, resp := ownedSession(c)
	if session == nil {
		return resp
	}

	session.Status = models.PokerStatusFinished
	if err := database.DB.Save(session).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to finish session",
		})
	}

	WS.Broadcast(session.ID, "", WSEvent{
		Type:    EventSessionFinished,
		BoardID: session.ID.String(),
		Data:    session,
	})

	return c.JSON(session)
}

func deckHasValue(deck, value string) bool {
	for _, v := range models.PokerDecks[deck] {
		if v == value {
			return true
		}
	}
	return false
}
