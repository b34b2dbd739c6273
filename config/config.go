package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full runtime configuration, built once in main and passed down.
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Push     PushConfig
	Login    LoginConfig
}

type AppConfig struct {
	Name        string
	Environment string
	LogLevel    string
}

// Development reports whether the service runs with developer-friendly output.
func (a AppConfig) Development() bool {
	return a.Environment == "local" || a.Environment == "development"
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	// Driver is "sqlite" (pure Go) or "sqlite3" (cgo).
	Driver string
	DSN    string
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// RedisConfig is optional; an empty Addr disables the login throttle.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NATSConfig is optional; an empty URL disables event publishing.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

// PushConfig is optional; an empty ServerKey disables push delivery.
type PushConfig struct {
	Endpoint  string
	ServerKey string
	Timeout   time.Duration
}

type LoginConfig struct {
	MaxAttempts int
	Window      time.Duration
}

// Load reads configuration from the environment. When APP_ENV is "local" the
// file at envPath is loaded first; a missing file is not an error.
func Load(envPath string) *Config {
	if getEnv("APP_ENV", "local") == "local" {
		if err := godotenv.Load(envPath); err != nil {
			log.Println("no env file loaded:", err)
		}
	}

	cfg := &Config{}

	cfg.App.Name = getEnv("APP_NAME", "meal-delivery-api")
	cfg.App.Environment = getEnv("APP_ENV", "local")
	cfg.App.LogLevel = getEnv("LOG_LEVEL", "info")

	cfg.Server.Port = getEnv("PORT", "8080")
	cfg.Server.ReadTimeout = getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	cfg.Server.WriteTimeout = getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	cfg.Server.ShutdownTimeout = getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second)

	cfg.Database.Driver = getEnv("DB_DRIVER", "sqlite")
	cfg.Database.DSN = getEnv("DB_DSN", "meal_delivery.db")

	cfg.JWT.Secret = getEnv("JWT_SECRET", "meal_delivery_dev_secret")
	cfg.JWT.Expiry = getEnvAsDuration("JWT_EXPIRY", 7*24*time.Hour)
	cfg.JWT.Issuer = getEnv("JWT_ISSUER", "meal-delivery-api")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", 0)

	cfg.NATS.URL = getEnv("NATS_URL", "")
	cfg.NATS.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", "delivery")

	cfg.Push.Endpoint = getEnv("FCM_ENDPOINT", "https://fcm.googleapis.com/fcm/send")
	cfg.Push.ServerKey = getEnv("FCM_SERVER_KEY", "")
	cfg.Push.Timeout = getEnvAsDuration("FCM_TIMEOUT", 5*time.Second)

	cfg.Login.MaxAttempts = getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5)
	cfg.Login.Window = getEnvAsDuration("LOGIN_ATTEMPT_WINDOW", 15*time.Minute)

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid integer for %s, using default %d", key, fallback)
		return fallback
	}
	return n
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid duration for %s, using default %s", key, fallback)
		return fallback
	}
	return d
}
