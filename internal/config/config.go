package config

import (
	"os"
	"strconv"
	"time"

	"turnstile/internal/cache"
	"turnstile/internal/database"
	"turnstile/internal/external"
	"turnstile/internal/messaging"
	"turnstile/internal/queue"
)

type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	HoldTTL        time.Duration
	PaymentTimeout time.Duration
	SweepInterval  time.Duration

	Database database.Config
	Redis    cache.Config
	NATS     messaging.Config
	Toss     external.TossConfig
	Queue    queue.Config
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT_SEC", 30) * time.Second,

		HoldTTL:        getEnvDuration("SEAT_HOLD_TTL_SEC", 300) * time.Second,
		PaymentTimeout: getEnvDuration("PAYMENT_TIMEOUT_SEC", 600) * time.Second,
		SweepInterval:  getEnvDuration("RESERVATION_SWEEP_SEC", 30) * time.Second,

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "turnstile"),
			Password:           getEnv("DB_PASSWORD", "turnstile123"),
			DBName:             getEnv("DB_NAME", "turnstile"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		Redis: cache.Config{
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			UsersHashKey: getEnv("REDIS_USERS_HASH_KEY", "users:auth"),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "turnstile"),
			ClientID:  getEnv("NATS_CLIENT_ID", "turnstile-api"),
		},

		Toss: external.TossConfig{
			BaseURL:   getEnv("TOSS_BASE_URL", "https://api.tosspayments.com"),
			SecretKey: getEnv("TOSS_SECRET_KEY", ""),
			Timeout:   getEnvDuration("TOSS_TIMEOUT_SEC", 30) * time.Second,
		},

		Queue: queue.Config{
			Window:     getEnvInt("QUEUE_READY_WINDOW", 100),
			ReadyGrace: getEnvDuration("QUEUE_READY_GRACE_SEC", 120) * time.Second,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds))
}
