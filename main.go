package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/scrumkit/scrumkit-api/internal/config"
	"github.com/scrumkit/scrumkit-api/internal/database"
	"github.com/scrumkit/scrumkit-api/internal/gateway"
	"github.com/scrumkit/scrumkit-api/internal/handlers"
	"github.com/scrumkit/scrumkit-api/internal/ledger"
	"github.com/scrumkit/scrumkit-api/internal/poll"
	"github.com/scrumkit/scrumkit-api/internal/querycache"
	"github.com/scrumkit/scrumkit-api/internal/ratelimit"
	"github.com/scrumkit/scrumkit-api/internal/retro"
	"github.com/scrumkit/scrumkit-api/internal/routes"
	"github.com/scrumkit/scrumkit-api/internal/services"
)

func main() {
	// .env is optional; deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	services.InitPush(cfg.FCMServiceAccount)

	// Sync core: gateway -> cached query store -> orchestrator. The hub
	// doubles as the orchestrator's notifier and mirrors store changes to
	// connected clients.
	store := querycache.New()
	limiter := ratelimit.New(ratelimit.Config{
		CreateItem: cfg.CreateItemCooldown,
		DeleteItem: cfg.DeleteItemCooldown,
		Vote:       cfg.VoteCooldown,
	})
	svc := retro.NewService(
		gateway.NewGorm(database.DB),
		store,
		limiter,
		ledger.NewMemory(ledger.DefaultCapacity),
		handlers.WS,
	)
	handlers.WS.BindCache(store)

	poller := poll.New(cfg.PollInterval, svc.RefreshBoard)
	if err := poller.Start(); err != nil {
		log.Fatalf("Failed to start poller: %v", err)
	}
	handlers.WS.OnEmpty = func(roomID uuid.UUID) {
		poller.Untrack(roomID)
		svc.ReleaseBoard(roomID)
	}

	handlers.Init(svc, poller)

	app := fiber.New()
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
	}))

	routes.Setup(app)

	log.Printf("ScrumKit API listening on :%s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
