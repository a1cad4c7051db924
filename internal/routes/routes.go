package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/scrumkit/scrumkit-api/internal/handlers"
	"github.com/scrumkit/scrumkit-api/internal/middleware"
)

// Setup registers all routes. Registration order matters: the account-only
// catch-all middleware comes last so the link-joinable board and poker
// surfaces stay reachable for anonymous sessions.
func Setup(app *fiber.App) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handlers.Register)
	auth.Post("/login", handlers.Login)

	// Boards are joinable by link: an account token or an anonymous session
	// cookie both work
	boards := api.Group("/boards", middleware.Participant())
	boards.Get("/", handlers.GetBoards)
	boards.Post("/", handlers.CreateBoard)
	boards.Get("/:id", handlers.GetBoard)
	boards.Put("/:id", handlers.UpdateBoard)
	boards.Delete("/:id", handlers.DeleteBoard)

	boards.Get("/:id/items", handlers.GetItems)
	boards.Post("/:id/items", handlers.CreateItem)
	boards.Post("/:id/items/merge", handlers.MergeItems)
	boards.Put("/:id/items/:itemId", handlers.UpdateItem)
	boards.Delete("/:id/items/:itemId", handlers.DeleteItem)
	boards.Post("/:id/items/:itemId/move", handlers.MoveItem)
	boards.Post("/:id/items/:itemId/vote", handlers.ToggleVote)

	boards.Get("/:id/votes", handlers.GetVotes)
	boards.Get("/:id/votes/me", handlers.GetMyVoteStats)

	// Planning poker
	poker := api.Group("/poker", middleware.Participant())
	poker.Post("/", handlers.CreatePokerSession)
	poker.Get("/:id", handlers.GetPokerSession)
	poker.Post("/:id/finish", handlers.FinishSession)
	poker.Post("/:id/current", handlers.SetCurrentStory)
	poker.Post("/:id/stories", handlers.AddStory)
	poker.Post("/:id/stories/reorder", handlers.ReorderStories)
	poker.Delete("/:id/stories/:storyId", handlers.DeleteStory)
	poker.Post("/:id/stories/:storyId/estimate", handlers.SubmitEstimate)
	poker.Post("/:id/stories/:storyId/reveal", handlers.RevealStory)
	poker.Put("/:id/stories/:storyId/estimate", handlers.SetStoryEstimate)

	// Account-only surface
	protected := api.Group("/", middleware.Protected())

	protected.Get("/me", handlers.GetMe)
	protected.Put("/me", handlers.UpdateProfile)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", handlers.GetNotifications)
	notifications.Put("/:id/read", handlers.MarkNotificationRead)
	notifications.Post("/read-all", handlers.MarkAllRead)

	// Device token for push notifications
	protected.Post("/device-token", handlers.RegisterDeviceToken)

	// WebSocket for real-time room updates
	app.Use("/ws", handlers.WebSocketUpgrade())
	app.Get("/ws/boards/:id", websocket.New(handlers.HandleBoardSocket))
	app.Get("/ws/poker/:id", websocket.New(handlers.HandlePokerSocket))
}
