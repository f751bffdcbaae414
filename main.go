package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"trainerpro-backend/config"
	"trainerpro-backend/controllers"
	"trainerpro-backend/messaging"
	"trainerpro-backend/repository"
	"trainerpro-backend/routes"
	"trainerpro-backend/services"
	"trainerpro-backend/utils"
)

func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg.IsDebug())

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, generating an ephemeral one")
		cfg.JWTSecret = utils.GenerateJWTSecret()
	}
	utils.SetJWTConfig(cfg.JWTSecret, cfg.JWTExpiryHours)

	if err := config.ConnectDB(cfg.DBURL); err != nil {
		log.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	if err := config.Migrate(config.DB); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	store := repository.New(config.DB)

	sender := newSender(cfg)
	if err := sender.CheckConfig(); err != nil {
		log.Warn("messaging provider not configured, automations will not send", "provider", sender.Name())
	}

	publisher, closePublisher := newPublisher(cfg, log)
	defer closePublisher()

	automation := services.NewAutomationService(store, sender, services.Options{
		SendInterval: cfg.WorkerSendInterval,
		CountryCode:  cfg.PhoneCountryCode,
		Location:     cfg.Timezone,
		Publisher:    publisher,
		Logger:       log.With("component", "automation"),
	})

	locker, closeLocker := newLocker(cfg, log)
	defer closeLocker()

	scheduler := services.NewScheduler(automation, locker, cfg.WorkerInterval, cfg.WorkerLockTTL,
		log.With("component", "scheduler"), services.RunOnStart())
	if cfg.WorkerEnabled {
		if err := scheduler.Start(); err != nil {
			log.Error("could not start scheduler", "error", err)
			os.Exit(1)
		}
	}

	r := routes.SetupRouter(cfg, routes.Handlers{
		Messages: &controllers.MessageController{
			Store:      store,
			Automation: automation,
			Location:   cfg.Timezone,
			Log:        log,
		},
		Webhooks: &controllers.WebhookController{
			Inbound: services.NewInboundService(store, log.With("component", "inbound")),
			APIKey:  cfg.StevoWebhookKey,
			Log:     log,
		},
	}, log)
	if cfg.IsDebug() {
		printRoutes(r)
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Info("listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	scheduler.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown", "error", err)
	}
}

func newSender(cfg *config.Config) messaging.Sender {
	if cfg.Provider == "twilio" {
		return messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsApp)
	}
	return messaging.NewStevoClient(cfg.StevoBaseURL, cfg.StevoInstance, cfg.StevoAPIKey, nil)
}

func newPublisher(cfg *config.Config, log *slog.Logger) (services.Publisher, func()) {
	if cfg.AMQPURL == "" {
		return services.NopPublisher{}, func() {}
	}
	p, err := services.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, log.With("component", "events"))
	if err != nil {
		log.Warn("rabbitmq unavailable, dispatch events disabled", "error", err)
		return services.NopPublisher{}, func() {}
	}
	return p, func() { p.Close() }
}

// newLocker falls back to a process-local lease when Redis is missing, which
// is only safe with a single worker replica.
func newLocker(cfg *config.Config, log *slog.Logger) (services.Locker, func()) {
	if cfg.RedisURL == "" {
		return services.NopLocker{}, func() {}
	}
	l, err := services.NewRedisLocker(cfg.RedisURL)
	if err != nil {
		log.Warn("invalid REDIS_URL, running without worker lease", "error", err)
		return services.NopLocker{}, func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := l.Ping(ctx); err != nil {
		log.Warn("redis unreachable, lease attempts will fail until it is back", "error", err)
	}
	return l, func() { l.Close() }
}

func printRoutes(r *gin.Engine) {
	for _, route := range r.Routes() {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
