package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Driver names accepted by DB_DRIVER.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	HTTPAddr string

	DBDriver      string
	DBURL         string
	MongoURL      string
	MongoDatabase string
	RedisURL      string

	JWTSecret     string
	SessionCookie string

	RoomAPIKey    string
	RoomAPISecret string
	RoomTokenTTL  time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	OTPTTL time.Duration

	LogLevel  string
	LogFormat string

	WSEventsPerSecond float64
	WSEventBurst      int

	AsynqConcurrency int
}

var defaults = map[string]any{
	"HTTP_ADDR":            ":8080",
	"DB_DRIVER":            DriverMemory,
	"MONGO_DATABASE":       "projectsync",
	"SESSION_COOKIE":       "token",
	"ROOM_TOKEN_TTL":       "1h",
	"SMTP_PORT":            587,
	"OTP_TTL":              "10m",
	"LOG_LEVEL":            "info",
	"LOG_FORMAT":           "text",
	"WS_EVENTS_PER_SECOND": 20.0,
	"WS_EVENT_BURST":       40,
	"ASYNQ_CONCURRENCY":    10,
}

var keys = []string{
	"HTTP_ADDR", "DB_DRIVER", "DB_URL", "MONGO_URL", "MONGO_DATABASE", "REDIS_URL",
	"JWT_SECRET", "SESSION_COOKIE", "ROOM_API_KEY", "ROOM_API_SECRET", "ROOM_TOKEN_TTL",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "MAIL_FROM", "OTP_TTL",
	"LOG_LEVEL", "LOG_FORMAT", "WS_EVENTS_PER_SECOND", "WS_EVENT_BURST", "ASYNQ_CONCURRENCY",
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(viper.New())
}

// LoadFrom reads configuration through the provided viper instance. Values set
// directly on v take precedence over the environment.
func LoadFrom(v *viper.Viper) (*Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", k, err)
		}
	}

	cfg := &Config{
		HTTPAddr:          strings.TrimSpace(v.GetString("HTTP_ADDR")),
		DBDriver:          strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
		DBURL:             strings.TrimSpace(v.GetString("DB_URL")),
		MongoURL:          strings.TrimSpace(v.GetString("MONGO_URL")),
		MongoDatabase:     strings.TrimSpace(v.GetString("MONGO_DATABASE")),
		RedisURL:          strings.TrimSpace(v.GetString("REDIS_URL")),
		JWTSecret:         v.GetString("JWT_SECRET"),
		SessionCookie:     strings.TrimSpace(v.GetString("SESSION_COOKIE")),
		RoomAPIKey:        strings.TrimSpace(v.GetString("ROOM_API_KEY")),
		RoomAPISecret:     v.GetString("ROOM_API_SECRET"),
		RoomTokenTTL:      v.GetDuration("ROOM_TOKEN_TTL"),
		SMTPHost:          strings.TrimSpace(v.GetString("SMTP_HOST")),
		SMTPPort:          v.GetInt("SMTP_PORT"),
		SMTPUsername:      v.GetString("SMTP_USERNAME"),
		SMTPPassword:      v.GetString("SMTP_PASSWORD"),
		MailFrom:          strings.TrimSpace(v.GetString("MAIL_FROM")),
		OTPTTL:            v.GetDuration("OTP_TTL"),
		LogLevel:          strings.TrimSpace(v.GetString("LOG_LEVEL")),
		LogFormat:         strings.TrimSpace(v.GetString("LOG_FORMAT")),
		WSEventsPerSecond: v.GetFloat64("WS_EVENTS_PER_SECOND"),
		WSEventBurst:      v.GetInt("WS_EVENT_BURST"),
		AsynqConcurrency:  v.GetInt("ASYNQ_CONCURRENCY"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("config: JWT_SECRET is required"))
	}
	switch c.DBDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.DBURL == "" {
			errs = append(errs, errors.New("config: DB_URL is required when DB_DRIVER=postgres"))
		}
	case DriverMongo:
		if c.MongoURL == "" {
			errs = append(errs, errors.New("config: MONGO_URL is required when DB_DRIVER=mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: DB_DRIVER %q is not one of memory, postgres, mongo", c.DBDriver))
	}
	if c.RoomTokenTTL <= 0 {
		errs = append(errs, errors.New("config: ROOM_TOKEN_TTL must be positive"))
	}
	if c.OTPTTL <= 0 {
		errs = append(errs, errors.New("config: OTP_TTL must be positive"))
	}
	if c.WSEventsPerSecond <= 0 || c.WSEventBurst <= 0 {
		errs = append(errs, errors.New("config: WS_EVENTS_PER_SECOND and WS_EVENT_BURST must be positive"))
	}
	return errors.Join(errs...)
}
