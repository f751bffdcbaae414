package routes

import (
	"log/slog"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"trainerpro-backend/config"
	"trainerpro-backend/controllers"
	"trainerpro-backend/utils"
)

// Handlers are the controllers that need injected services.
type Handlers struct {
	Messages *controllers.MessageController
	Webhooks *controllers.WebhookController
}

func SetupRouter(cfg *config.Config, h Handlers, log *slog.Logger) *gin.Engine {
	if !cfg.IsDebug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			return slices.Contains(cfg.CORSOrigins, origin)
		},
	}))

	r.Use(config.PerformanceLogger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)

		profile := auth.Group("/profile")
		{
			profile.GET("", controllers.GetProfile)
			profile.PUT("", controllers.UpdateProfile)
			profile.PUT("/password", controllers.ChangePassword)
		}
	}

	r.POST("/webhooks/stevo", h.Webhooks.Stevo)

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		recipients := api.Group("/recipients")
		{
			recipients.POST("", controllers.CreateRecipient)
			recipients.GET("", controllers.GetRecipients)
			recipients.GET("/:id", controllers.GetRecipient)
			recipients.PUT("/:id", controllers.UpdateRecipient)
			recipients.DELETE("/:id", controllers.DeleteRecipient)
		}

		sessions := api.Group("/sessions")
		{
			sessions.POST("", controllers.CreateSession)
			sessions.GET("", controllers.GetSessions)
			sessions.GET("/:id", controllers.GetSession)
			sessions.PUT("/:id", controllers.UpdateSession)
			sessions.DELETE("/:id", controllers.DeleteSession)
		}

		charges := api.Group("/charges")
		{
			charges.POST("", controllers.CreateCharge)
			charges.GET("", controllers.GetCharges)
			charges.GET("/:id", controllers.GetCharge)
			charges.PUT("/:id", controllers.UpdateCharge)
			charges.DELETE("/:id", controllers.DeleteCharge)
			charges.POST("/:id/pay", controllers.PayCharge)
		}

		automations := api.Group("/automations")
		{
			automations.POST("", controllers.CreateAutomationRule)
			automations.GET("", controllers.GetAutomationRules)
			automations.POST("/run", h.Messages.RunAutomations)
			automations.GET("/:id", controllers.GetAutomationRule)
			automations.PUT("/:id", controllers.UpdateAutomationRule)
			automations.DELETE("/:id", controllers.DeleteAutomationRule)
		}

		messages := api.Group("/messages")
		{
			messages.POST("", h.Messages.SendMessage)
			messages.GET("", h.Messages.ListMessages)
			messages.GET("/overview", h.Messages.GetOverview)
		}
	}

	return r
}
