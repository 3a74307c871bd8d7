package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Automation AutomationConfig
	Slack      SlackConfig
	Webhook    WebhookConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr selects the in-memory session registry.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret           string
	SessionTTLMinutes   int
	SessionSweepMinutes int
	BcryptCost          int
}

// AutomationConfig points at the external automation engine notified on incident creation.
type AutomationConfig struct {
	WebhookURL string
	TimeoutMS  int
}

// SlackConfig holds the incoming webhook used for chat notices.
type SlackConfig struct {
	WebhookURL string
	Channel    string
}

// WebhookConfig protects inbound automation endpoints.
type WebhookConfig struct {
	Secret     string
	AllowedIPs []string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "it-helpdesk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:      os.Getenv("REDIS_ADDR"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "helpdesk"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:           getEnv("AUTH_JWT_SECRET", "dev-secret"),
			SessionTTLMinutes:   getEnvAsInt("SESSION_TTL_MINUTES", 480),
			SessionSweepMinutes: getEnvAsInt("SESSION_SWEEP_MINUTES", 15),
			BcryptCost:          getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Automation: AutomationConfig{
			WebhookURL: getEnv("AUTOMATION_WEBHOOK_URL", ""),
			TimeoutMS:  getEnvAsInt("AUTOMATION_TIMEOUT_MS", 3000),
		},
		Slack: SlackConfig{
			WebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
			Channel:    getEnv("SLACK_CHANNEL", ""),
		},
		Webhook: WebhookConfig{
			Secret:     os.Getenv("WEBHOOK_SECRET"),
			AllowedIPs: getEnvAsList("WEBHOOK_ALLOWED_IPS"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SessionTTL returns how long an issued session stays valid.
func (a AuthConfig) SessionTTL() time.Duration {
	if a.SessionTTLMinutes <= 0 {
		return 8 * time.Hour
	}
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

// SweepInterval returns how often expired sessions are purged. Zero disables the sweeper.
func (a AuthConfig) SweepInterval() time.Duration {
	if a.SessionSweepMinutes <= 0 {
		return 0
	}
	return time.Duration(a.SessionSweepMinutes) * time.Minute
}

// Timeout bounds the outbound automation call.
func (a AutomationConfig) Timeout() time.Duration {
	if a.TimeoutMS <= 0 {
		return 3 * time.Second
	}
	return time.Duration(a.TimeoutMS) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
