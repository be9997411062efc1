package main

import (
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/eventatlas/eventatlas-backend/internal/config"
	"github.com/eventatlas/eventatlas-backend/internal/handler"
	"github.com/eventatlas/eventatlas-backend/internal/middleware"
	"github.com/eventatlas/eventatlas-backend/internal/repository"
	"github.com/eventatlas/eventatlas-backend/internal/server"
	"github.com/eventatlas/eventatlas-backend/internal/service"
	"github.com/eventatlas/eventatlas-backend/pkg/countries"
	"github.com/eventatlas/eventatlas-backend/pkg/database"
	"github.com/eventatlas/eventatlas-backend/pkg/email"
	"github.com/eventatlas/eventatlas-backend/pkg/geoip"
	"github.com/eventatlas/eventatlas-backend/pkg/storage"
	"github.com/eventatlas/eventatlas-backend/pkg/utils"
)

func main() {
	// .env is optional outside development
	_ = godotenv.Load()

	cfg := config.LoadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)

	// Picture storage
	pictureStorage, err := storage.NewR2Storage(cfg)
	if err != nil {
		logger.Fatal("failed to initialize R2 storage", zap.Error(err))
	}

	// Country reference table
	countryTable := countries.NewTable()

	// Geo resolver; every lookup fails closed to the default coordinates
	// when no database is configured.
	var geoResolver geoip.Resolver
	if cfg.GeoIPDBPath != "" {
		resolver, err := geoip.Open(cfg.GeoIPDBPath)
		if err != nil {
			logger.Fatal("failed to open geoip database", zap.Error(err))
		}
		defer resolver.Close()
		geoResolver = resolver
	} else {
		logger.Warn("GEOIP_DB_PATH not set, geo resolution disabled")
		geoResolver = geoip.Unavailable{}
	}

	// Email service
	emailService := email.NewEmailService(cfg, logger)

	// Services
	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo)
	eventService := service.NewEventService(eventRepo, userRepo, pictureStorage, geoResolver, countryTable, emailService, logger)
	moderationService := service.NewModerationService(eventRepo, userRepo, pictureStorage, countryTable, emailService, logger)

	validator := utils.NewValidator()

	// Handlers
	authHandler := handler.NewAuthHandler(authService, validator)
	eventHandler := handler.NewEventHandler(eventService, validator)
	moderationHandler := handler.NewModerationHandler(moderationService)
	userHandler := handler.NewUserHandler(userService)

	policy := middleware.NewPolicyMiddleware(eventRepo, userRepo, countryTable)

	app := server.New(authHandler, eventHandler, moderationHandler, userHandler, policy)

	logger.Info("starting server", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
