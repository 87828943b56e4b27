// Package config loads service configuration from the environment so main
// stays lean. Backends (Postgres, Redis, Kafka) are optional: an empty
// DSN/URL/broker list disables the corresponding integration and the service
// falls back to in-memory stores.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures everything the server needs at startup.
type Config struct {
	Addr            string        `env:"CUSTODIA_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"CUSTODIA_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// JWTSigningKey verifies the platform's caller-identity tokens.
	JWTSigningKey string `env:"CUSTODIA_JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string `env:"CUSTODIA_JWT_ISSUER" envDefault:"custodia"`

	PostgresDSN string `env:"CUSTODIA_POSTGRES_DSN"`

	Redis RedisConfig `envPrefix:"CUSTODIA_REDIS_"`
	Kafka KafkaConfig `envPrefix:"CUSTODIA_KAFKA_"`

	// EmergencyCooldown is the default minimum delay between an emergency
	// freeze and a permitted unfreeze for newly created emergency configs.
	EmergencyCooldown time.Duration `env:"CUSTODIA_EMERGENCY_COOLDOWN" envDefault:"24h"`
}

// RedisConfig tunes the optional Redis backend used for spending counters.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig tunes the optional Kafka audit publisher.
type KafkaConfig struct {
	Brokers    []string `env:"BROKERS" envSeparator:","`
	AuditTopic string   `env:"AUDIT_TOPIC" envDefault:"custodia.audit"`
}

// FromEnv parses Config from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
