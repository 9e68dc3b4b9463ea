package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`

	MySQLDSN          string        `envconfig:"MYSQL_DSN" default:"root:password@tcp(localhost:3306)/venue_management?charset=utf8mb4&parseTime=True&loc=Local"`
	DBMaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"5"`
	DBMaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	DBConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
	ResetDB           bool          `envconfig:"RESET_DB" default:"false"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`
	RedisPass string `envconfig:"REDIS_PASSWORD"`

	JWTSecret     string `envconfig:"JWT_SECRET" default:"change-me"`
	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"venue.events"`

	LoginRateLimit  int64         `envconfig:"LOGIN_RATE_LIMIT" default:"10"`
	LoginRatePeriod time.Duration `envconfig:"LOGIN_RATE_PERIOD" default:"1m"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON  bool   `envconfig:"LOG_JSON" default:"false"`
	// Debug exposes raw storage error text in error responses.
	Debug bool `envconfig:"APP_DEBUG" default:"false"`

	CORSAllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
	// TrustedProxies lists the CIDRs allowed to set X-Forwarded-For. Empty
	// means the client IP is always the TCP peer.
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`
	SwaggerHost      string   `envconfig:"SWAGGER_HOST"`
}

// Load builds Config from an optional .env file and the environment.
func Load() (*Config, error) {
	// A missing .env file is fine, the process environment still applies.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.DBMaxOpenConns <= 0 {
		return nil, fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", cfg.DBMaxOpenConns)
	}
	return &cfg, nil
}
