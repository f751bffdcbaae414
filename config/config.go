package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything read from the environment at startup.
type Config struct {
	Env   string
	Port  string
	DBURL string

	JWTSecret      string
	JWTExpiryHours int
	CORSOrigins    []string

	Timezone *time.Location

	Provider         string
	StevoBaseURL     string
	StevoInstance    string
	StevoAPIKey      string
	StevoWebhookKey  string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioWhatsApp   string
	PhoneCountryCode string

	WorkerEnabled      bool
	WorkerInterval     time.Duration
	WorkerSendInterval time.Duration
	WorkerLockTTL      time.Duration

	RedisURL     string
	AMQPURL      string
	AMQPExchange string
}

var Conf *viper.Viper

func init() {
	Conf = viper.New()

	Conf.SetTypeByDefaultValue(true)
	Conf.SetDefault("env", "dev")
	Conf.SetDefault("port", "8080")
	Conf.SetDefault("jwt_expiry_hours", 24)
	Conf.SetDefault("cors_origins", "http://localhost:3000")
	Conf.SetDefault("timezone", "America/Sao_Paulo")
	Conf.SetDefault("messaging_provider", "stevo")
	Conf.SetDefault("phone_country_code", "55")
	Conf.SetDefault("worker_enabled", true)
	Conf.SetDefault("worker_interval", 15*time.Minute)
	Conf.SetDefault("worker_send_interval", 6*time.Second)
	Conf.SetDefault("worker_lock_ttl", 10*time.Minute)
	Conf.SetDefault("amqp_exchange", "trainerpro.messages")

	Conf.AutomaticEnv()
}

// Load reads .env (when present) and returns the resolved configuration.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found")
	}

	loc, err := time.LoadLocation(Conf.GetString("timezone"))
	if err != nil {
		slog.Warn("unknown TIMEZONE, falling back to UTC", "timezone", Conf.GetString("timezone"), "error", err)
		loc = time.UTC
	}

	return &Config{
		Env:                Conf.GetString("env"),
		Port:               Conf.GetString("port"),
		DBURL:              Conf.GetString("db_url"),
		JWTSecret:          Conf.GetString("jwt_secret"),
		JWTExpiryHours:     Conf.GetInt("jwt_expiry_hours"),
		CORSOrigins:        splitList(Conf.GetString("cors_origins")),
		Timezone:           loc,
		Provider:           strings.ToLower(Conf.GetString("messaging_provider")),
		StevoBaseURL:       Conf.GetString("stevo_base_url"),
		StevoInstance:      Conf.GetString("stevo_instance"),
		StevoAPIKey:        Conf.GetString("stevo_api_key"),
		StevoWebhookKey:    Conf.GetString("stevo_webhook_key"),
		TwilioAccountSID:   Conf.GetString("twilio_account_sid"),
		TwilioAuthToken:    Conf.GetString("twilio_auth_token"),
		TwilioWhatsApp:     Conf.GetString("twilio_whatsapp_number"),
		PhoneCountryCode:   Conf.GetString("phone_country_code"),
		WorkerEnabled:      Conf.GetBool("worker_enabled"),
		WorkerInterval:     Conf.GetDuration("worker_interval"),
		WorkerSendInterval: Conf.GetDuration("worker_send_interval"),
		WorkerLockTTL:      Conf.GetDuration("worker_lock_ttl"),
		RedisURL:           Conf.GetString("redis_url"),
		AMQPURL:            Conf.GetString("amqp_url"),
		AMQPExchange:       Conf.GetString("amqp_exchange"),
	}
}

func (c *Config) IsDebug() bool {
	return c.Env == "dev" || c.Env == "test"
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
