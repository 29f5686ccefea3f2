package config

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/Skotchmaster/basket_shop/internal/repo"
	pkgconfig "github.com/Skotchmaster/basket_shop/pkg/config"
	"github.com/Skotchmaster/basket_shop/pkg/db"
)

type Config struct {
	ServiceName string
	HTTPAddr    string
	LogLevel    string

	DBDriver    string
	DatabaseURL string

	JWTSecret      []byte
	AccessTokenTTL time.Duration

	KafkaBrokers []string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	ProductCacheTTL time.Duration

	SweepInterval time.Duration
	SweepLockTTL  time.Duration

	LegacyConflictStatus bool
	CSRFEnabled          bool
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("notice: cannot read .env: %v", err)
	}

	cfg := &Config{
		ServiceName: pkgconfig.EnvDefault("SERVICE_NAME", "basket_shop"),
		HTTPAddr:    pkgconfig.EnvDefault("HTTP_ADDR", ":8080"),
		LogLevel:    pkgconfig.EnvDefault("LOG_LEVEL", "info"),

		DBDriver:    pkgconfig.EnvDefault("DB_DRIVER", db.DriverPostgres),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:      []byte(os.Getenv("JWT_SECRET")),
		AccessTokenTTL: pkgconfig.EnvDurationDefault("ACCESS_TOKEN_TTL", 24*time.Hour),

		KafkaBrokers: pkgconfig.CSV(os.Getenv("KAFKA_BROKERS")),

		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         pkgconfig.EnvIntDefault("REDIS_DB", 0),
		ProductCacheTTL: pkgconfig.EnvDurationDefault("PRODUCT_CACHE_TTL", 5*time.Minute),

		SweepInterval: pkgconfig.EnvDurationDefault("SWEEP_INTERVAL", time.Hour),
		SweepLockTTL:  pkgconfig.EnvDurationDefault("SWEEP_LOCK_TTL", 5*time.Minute),

		LegacyConflictStatus: pkgconfig.EnvBoolDefault("LEGACY_CONFLICT_STATUS", false),
		CSRFEnabled:          pkgconfig.EnvBoolDefault("CSRF_ENABLED", false),
	}

	if err := pkgconfig.RequireNonEmpty(cfg.DatabaseURL, "DATABASE_URL"); err != nil {
		return nil, err
	}
	if err := pkgconfig.RequireNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func InitDB(ctx context.Context, cfg *Config) (*gorm.DB, error) {
	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := repo.Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return gdb, nil
}
