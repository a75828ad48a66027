package main

import (
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"telepsychiatry-server/internal/cache"
	"telepsychiatry-server/internal/config"
	"telepsychiatry-server/internal/models"
	"telepsychiatry-server/internal/notify"
	"telepsychiatry-server/internal/reminder"
	"telepsychiatry-server/internal/routes"
	"telepsychiatry-server/internal/scheduling"
	"telepsychiatry-server/internal/utils"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger := utils.InitLogger(cfg.Environment)
	defer logger.Sync()

	// Initialize database connection
	db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Booked-slot cache is optional; the service reads through to the
	// database when it is absent.
	var slotCache scheduling.SlotCache
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewBookedSlots(cfg.Redis, logger)
		if err != nil {
			logger.Warn("redis unavailable, running without slot cache", zap.Error(err))
		} else {
			slotCache = redisCache
		}
	}

	// Mail delivery is best-effort and disabled without a relay.
	var notifier notify.Notifier = notify.Nop{}
	if cfg.Mailer.Host != "" {
		notifier = notify.NewMailer(notify.NewSMTPSender(cfg.Mailer), logger)
	}

	repo := scheduling.NewGormRepository(db)
	scheduler := scheduling.NewService(repo, slotCache, notifier, logger)

	reminderWorker := reminder.NewWorker(repo, notifier, logger, cfg.ReminderHourUTC)
	reminderWorker.Start()
	defer reminderWorker.Stop()

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	router := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, db, cfg, scheduler)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := router.Run(serverAddr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
