package config

import (
	"os"
	"strings"
	"time"

	"nameplate/pkg/domain"
)

// Server captures process-level configuration. Storage and messaging backends
// are optional: with no Postgres DSN the directory runs on in-memory stores,
// with no Kafka brokers events stay in the local log only.
type Server struct {
	Addr          string
	JWTSigningKey string
	AdminAddress  domain.Address

	PostgresDSN  string
	RedisURL     string
	KafkaBrokers []string
	KafkaTopic   string

	// DevTokenSecretHash is the bcrypt hash gating the local token mint
	// endpoint. The endpoint stays off when unset.
	DevTokenSecretHash string

	ShutdownTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("NAMEPLATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("NAMEPLATE_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("NAMEPLATE_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}
	topic := os.Getenv("NAMEPLATE_KAFKA_TOPIC")
	if topic == "" {
		topic = "nameplate.directory.events"
	}

	return Server{
		Addr:               addr,
		JWTSigningKey:      jwtSigningKey,
		AdminAddress:       domain.Address(strings.ToLower(os.Getenv("NAMEPLATE_ADMIN_ADDRESS"))),
		PostgresDSN:        os.Getenv("NAMEPLATE_POSTGRES_DSN"),
		RedisURL:           os.Getenv("NAMEPLATE_REDIS_URL"),
		DevTokenSecretHash: os.Getenv("NAMEPLATE_DEV_TOKEN_SECRET_HASH"),
		KafkaBrokers:       brokers,
		KafkaTopic:         topic,
		ShutdownTimeout:    10 * time.Second,
	}
}
