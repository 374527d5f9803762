package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string

	JWTSecret     []byte
	SessionTTL    time.Duration
	PendingMfaTTL time.Duration
	MfaIssuer     string

	LoginMaxAttempts     int
	LoginLockoutDuration time.Duration
	LimiterRedisURL      string

	KafkaBrokers []string
	KafkaTopic   string

	SweepInterval time.Duration

	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "blog-auth"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    os.Getenv("LOG_LEVEL"),

		DatabaseURL: EnvDefault("DATABASE_URL", "file:blog.db"),

		JWTSecret:     []byte(os.Getenv("JWT_SECRET")),
		SessionTTL:    EnvDurationDefault("JWT_SESSION_TTL", 24*time.Hour),
		PendingMfaTTL: EnvDurationDefault("JWT_PENDING_MFA_TTL", 5*time.Minute),
		MfaIssuer:     EnvDefault("MFA_ISSUER", "Blog Application"),

		LoginMaxAttempts:     EnvIntDefault("LOGIN_MAX_ATTEMPTS", 5),
		LoginLockoutDuration: EnvDurationDefault("LOGIN_LOCKOUT_DURATION", 10*time.Minute),
		LimiterRedisURL:      os.Getenv("LOGIN_LIMITER_REDIS_URL"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvDefault("KAFKA_TOPIC", "user_events"),

		SweepInterval: EnvDurationDefault("TOKEN_SWEEP_INTERVAL", 24*time.Hour),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
}
