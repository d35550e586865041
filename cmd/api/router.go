package api

import (
	"net/http"

	"devnudge-backend/internal/auth/delivery"
	authUsecase "devnudge-backend/internal/auth/usecase"
	integrationDelivery "devnudge-backend/internal/integration/delivery"
	reminderDelivery "devnudge-backend/internal/reminder/delivery"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes bundles the handlers mounted by SetupRoutes
type Routes struct {
	AuthUsecase        authUsecase.AuthUsecase
	ReminderHandler    *reminderDelivery.ReminderHandler
	IntegrationHandler *integrationDelivery.IntegrationHandler
	Settings           *RuntimeConfig
	CronSecret         string
	// Gatherer serves /metrics; nil means the default registry
	Gatherer prometheus.Gatherer
}

func SetupRoutes(r *gin.Engine, rt Routes) {
	authHandler := delivery.NewAuthHandler(rt.AuthUsecase)
	requireAuth := delivery.AuthMiddleware(rt.AuthUsecase)

	gatherer := rt.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
			auth.GET("/me", requireAuth, authHandler.Me)
			auth.POST("/accounts", requireAuth, authHandler.ConnectAccount)
			auth.GET("/accounts/:provider/status", requireAuth, authHandler.AccountStatus)
		}

		// FCM routes (protected)
		fcm := api.Group("/fcm")
		fcm.Use(requireAuth)
		{
			fcm.POST("/register", authHandler.RegisterFCMToken)
			fcm.DELETE("/:token", authHandler.UnregisterFCMToken)
		}

		// Reminder routes (protected)
		reminders := api.Group("/reminders")
		reminders.Use(requireAuth)
		{
			reminders.GET("", rt.ReminderHandler.GetReminders)
			reminders.POST("", rt.ReminderHandler.CreateReminder)
			reminders.GET("/search", rt.ReminderHandler.SearchReminders)
			reminders.GET("/:id", rt.ReminderHandler.GetReminderByID)
			reminders.PATCH("/:id", rt.ReminderHandler.UpdateReminder)
			reminders.DELETE("/:id", rt.ReminderHandler.DeleteReminder)
			reminders.PUT("/:id/auto-follow-up", rt.ReminderHandler.EnableAutoFollowUp)
			reminders.DELETE("/:id/auto-follow-up", rt.ReminderHandler.DisableAutoFollowUp)
			reminders.POST("/:id/draft", rt.ReminderHandler.GenerateReminderDraft)
		}

		api.POST("/drafts", requireAuth, rt.ReminderHandler.GenerateDraft)

		// Integration routes (protected)
		integrations := api.Group("/integrations")
		integrations.Use(requireAuth)
		{
			integrations.GET("", rt.IntegrationHandler.GetIntegrations)
			integrations.POST("", rt.IntegrationHandler.UpsertIntegration)
			integrations.GET("/sync-runs", rt.IntegrationHandler.GetSyncRuns)
			integrations.POST("/:type/sync", rt.IntegrationHandler.SyncIntegration)
		}

		// Periodic trigger routes (shared secret)
		cron := api.Group("/cron")
		cron.Use(delivery.CronAuthMiddleware(rt.CronSecret))
		{
			cron.POST("/sync", rt.IntegrationHandler.RunSync)
			cron.POST("/follow-ups", rt.ReminderHandler.RunFollowUps)
		}

		// Settings routes - Runtime configuration
		settings := api.Group("/settings")
		settings.Use(requireAuth)
		{
			settings.GET("/ai", rt.Settings.GetAISettings)
			settings.PUT("/ai", rt.Settings.UpdateAISettings)
			settings.POST("/ai/test", rt.Settings.TestOllamaConnection)
		}
	}
}
