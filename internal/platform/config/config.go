package config

import (
	"os"
	"strings"
	"time"
)

// defaultJWTSigningKey keeps local development working when JWT_SIGNING_KEY
// is unset. main logs a warning when the fallback is active.
const defaultJWTSigningKey = "dev-secret-key-change-in-production"

// Config captures everything the binaries read from the environment.
// It is built once in main and passed down explicitly; no other package
// reads env vars on its own.
type Config struct {
	Addr        string
	PostgresURL string
	RedisURL    string

	Kafka KafkaConfig

	JWTSigningKey string
	TokenTTL      time.Duration

	ProbeTimeout time.Duration
}

// KafkaConfig identifies the broker connection and the user-events stream.
type KafkaConfig struct {
	Brokers  []string
	ClientID string
	GroupID  string
	Topic    string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Addr:        getEnv("USERHUB_ADDR", ":3000"),
		PostgresURL: getEnv("POSTGRES_URL", "postgres://localhost:5432/userhub?sslmode=disable"),
		RedisURL:    os.Getenv("REDIS_URL"),
		Kafka: KafkaConfig{
			Brokers:  strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			ClientID: getEnv("KAFKA_CLIENT_ID", "user-service"),
			GroupID:  getEnv("KAFKA_GROUP_ID", "user-service-group"),
			Topic:    getEnv("KAFKA_TOPIC", "user-events"),
		},
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", defaultJWTSigningKey),
		TokenTTL:      24 * time.Hour,
		ProbeTimeout:  5 * time.Second,
	}
}

// UsingDefaultSigningKey reports whether the insecure development fallback
// secret is in effect.
func (c Config) UsingDefaultSigningKey() bool {
	return c.JWTSigningKey == defaultJWTSigningKey
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
