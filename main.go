package main

import (
	"context"
	"log"
	"time"

	api "devnudge-backend/cmd/api"
	authRepo "devnudge-backend/internal/auth/repository"
	authUsecase "devnudge-backend/internal/auth/usecase"
	"devnudge-backend/internal/followup/orchestrator"
	"devnudge-backend/internal/followup/source"
	integrationDelivery "devnudge-backend/internal/integration/delivery"
	integrationRepo "devnudge-backend/internal/integration/repository"
	integrationUsecase "devnudge-backend/internal/integration/usecase"
	reminderDelivery "devnudge-backend/internal/reminder/delivery"
	reminderRepo "devnudge-backend/internal/reminder/repository"
	"devnudge-backend/internal/reminder/scheduler"
	reminderUsecase "devnudge-backend/internal/reminder/usecase"
	"devnudge-backend/pkg/ai"
	"devnudge-backend/pkg/config"
	"devnudge-backend/pkg/database"
	"devnudge-backend/pkg/fcm"
	"devnudge-backend/pkg/github"
	"devnudge-backend/pkg/gmail"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load configuration
	cfg := config.Load()
	ctx := context.Background()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	useMongo := cfg.DatabaseDriver == config.DriverMongo

	// Auto-migrate database schemas
	if err := database.AutoMigrate(db, !useMongo); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	accountRepo := authRepo.NewAccountRepository(db)
	fcmTokenRepo := authRepo.NewFCMTokenRepository(db)

	var (
		reminderRepository    reminderRepo.ReminderRepository
		integrationRepository integrationRepo.IntegrationRepository
		syncRunRepository     integrationRepo.SyncRunRepository
	)
	if useMongo {
		mdb, err := database.NewMongoDatabase(ctx, cfg)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB:", err)
		}
		if reminderRepository, err = reminderRepo.NewMongoReminderRepository(ctx, mdb); err != nil {
			log.Fatal("Failed to prepare reminders collection:", err)
		}
		if integrationRepository, err = integrationRepo.NewMongoIntegrationRepository(ctx, mdb); err != nil {
			log.Fatal("Failed to prepare integrations collection:", err)
		}
		if syncRunRepository, err = integrationRepo.NewMongoSyncRunRepository(ctx, mdb); err != nil {
			log.Fatal("Failed to prepare sync runs collection:", err)
		}
	} else {
		reminderRepository = reminderRepo.NewGormReminderRepository(db)
		integrationRepository = integrationRepo.NewIntegrationRepository(db)
		syncRunRepository = integrationRepo.NewSyncRunRepository(db)
	}
	log.Printf("Reminder store: %s", cfg.DatabaseDriver)

	// Data sources
	credentials := authUsecase.NewCredentialProvider(accountRepo, cfg)
	adapters := []source.Adapter{
		source.NewMailboxAdapter(gmail.NewService()),
		source.NewTrackerAdapter(github.NewClient(), time.Now),
	}

	syncOrchestrator := orchestrator.New(credentials, reminderRepository, integrationRepository, syncRunRepository, adapters, orchestrator.Options{
		PageSize: cfg.SyncPageSize,
		Metrics:  orchestrator.MustNewMetrics(prometheus.DefaultRegisterer),
	})

	// Initialize AI draft service with runtime settings
	settings := api.NewRuntimeConfig(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.CerebrasModel)
	draftService := ai.NewDraftService(ai.Config{
		Provider:       ai.ProviderType(cfg.AIProvider),
		CerebrasAPIKey: cfg.CerebrasAPIKey,
		CerebrasModel:  cfg.CerebrasModel,
		GeminiAPIKey:   cfg.GeminiApiKey,
		OllamaBaseURL:  cfg.OllamaBaseURL,
		OllamaModel:    cfg.OllamaModel,
		Runtime:        settings,
	})

	// Initialize FCM Client (optional, follow-ups still fire without it)
	var notifier fcm.Notifier
	if cfg.FirebaseCredentials != "" {
		fcmClient, err := fcm.NewClient(ctx, cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (push notifications disabled): %v", err)
		} else {
			notifier = fcmClient
			log.Printf("[FCM] Client initialized")
		}
	} else {
		log.Printf("[FCM] No Firebase credentials configured, push disabled")
	}

	runner := scheduler.NewFollowUpRunner(reminderRepository, draftService, fcmTokenRepo, notifier, time.Now)

	// Initialize use cases (dependency injection)
	authUsecaseInstance := authUsecase.NewAuthUsecase(userRepo, accountRepo, fcmTokenRepo, cfg)
	reminderUsecaseInstance := reminderUsecase.NewReminderUsecase(reminderRepository)
	reminderUsecaseInstance.SetDraftGenerator(draftService)
	integrationUsecaseInstance := integrationUsecase.NewIntegrationUsecase(integrationRepository, syncRunRepository, syncOrchestrator)

	// Connecting an account enables its integration and runs a first sync
	authUsecaseInstance.SetAccountConnectedCallback(integrationUsecaseInstance.EnsureEnabled)

	if cfg.CronSecret == "" {
		log.Printf("[WARN] CRON_SECRET not set, /api/cron endpoints are disabled")
	}

	// Initialize HTTP handler
	handler := api.NewHandler(api.Routes{
		AuthUsecase:        authUsecaseInstance,
		ReminderHandler:    reminderDelivery.NewReminderHandler(reminderUsecaseInstance, runner),
		IntegrationHandler: integrationDelivery.NewIntegrationHandler(integrationUsecaseInstance),
		Settings:           settings,
		CronSecret:         cfg.CronSecret,
	})

	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
