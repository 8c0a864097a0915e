package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"decokatsu-challenge-system/handlers"
	"decokatsu-challenge-system/middleware"
	"decokatsu-challenge-system/models"
	"decokatsu-challenge-system/services"
	"decokatsu-challenge-system/utils"
	"decokatsu-challenge-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{})

	// 🔐 GLOBAL: only Gateway requests allowed — auth lives upstream
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-Participant-ID, X-Participant-Name, X-Service-Token",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.ActionDefinition{},
		&models.LedgerEntry{},
		&models.Participant{},
		&models.GameAttempt{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	catalog, err := services.NewCatalogService(db)
	if err != nil {
		log.Fatal("failed to load action catalog:", err)
	}

	ledgerService := services.NewLedgerService(db, catalog)
	gameService := services.NewGameService(db)
	statsService := services.NewStatsService(db)
	lotteryService := services.NewLotteryService(db, ledgerService)
	exportService := services.NewExportService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Roster mirror from the enrollment service (optional) ---
	rosterServiceURL := os.Getenv("ROSTER_SERVICE_URL")
	if rosterServiceURL != "" {
		rosterToken := os.Getenv("ROSTER_SERVICE_TOKEN")
		if rosterToken == "" {
			log.Fatal("ROSTER_SERVICE_TOKEN environment variable not set")
		}
		rosterWorker := workers.NewRosterSyncWorker(db, rosterServiceURL, "/api/v1/public/roster", rosterToken)
		rosterWorker.Start(ctx)
	} else {
		log.Println("⚠️  ROSTER_SERVICE_URL not set — roster sync disabled, roster fills from submissions only")
	}

	statsService.StartRefreshScheduler()
	exportService.StartExportScheduler()

	handlers.SetupChallengeRoutes(app, ledgerService, catalog, statsService)
	handlers.SetupGameRoutes(app, gameService)
	handlers.SetupAdminRoutes(app, lotteryService, exportService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Stats refresh running (every 60s)")
	log.Println("✅ Nightly ledger export scheduled")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
