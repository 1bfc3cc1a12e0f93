package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultJWTSecret = "change-me-jwt-secret"

	PendingStoreMemory = "memory"
	PendingStoreRedis  = "redis"
)

type Config struct {
	AppEnv   string
	HTTPAddr string
	LogLevel string

	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	TrainsCSV   string
	StationsCSV string

	PendingTTL           time.Duration
	PendingSweepInterval time.Duration
	PendingStore         string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AtomicAllocation bool
	HoldOnPending    bool
	RestockOnCancel  bool

	CORSAllowedOrigins []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "railbook.db")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("TRAINS_CSV", "data/trains.csv")
	v.SetDefault("STATIONS_CSV", "data/station_coordinates.csv")
	v.SetDefault("PENDING_TTL", "15m")
	v.SetDefault("PENDING_SWEEP_INTERVAL", "1m")
	v.SetDefault("PENDING_STORE", PendingStoreMemory)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("INVENTORY_ATOMIC_ALLOCATION", true)
	v.SetDefault("INVENTORY_HOLD_ON_PENDING", true)
	v.SetDefault("INVENTORY_RESTOCK_ON_CANCEL", false)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return FromViper(v)
}

func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppEnv:        strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		HTTPAddr:      strings.TrimSpace(v.GetString("HTTP_ADDR")),
		LogLevel:      strings.TrimSpace(v.GetString("LOG_LEVEL")),
		DatabaseURL:   strings.TrimSpace(v.GetString("DATABASE_URL")),
		JWTSecret:     strings.TrimSpace(v.GetString("JWT_SECRET")),
		TrainsCSV:     v.GetString("TRAINS_CSV"),
		StationsCSV:   v.GetString("STATIONS_CSV"),
		PendingStore:  strings.ToLower(strings.TrimSpace(v.GetString("PENDING_STORE"))),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		AtomicAllocation: v.GetBool("INVENTORY_ATOMIC_ALLOCATION"),
		HoldOnPending:    v.GetBool("INVENTORY_HOLD_ON_PENDING"),
		RestockOnCancel:  v.GetBool("INVENTORY_RESTOCK_ON_CANCEL"),
	}

	var err error
	if cfg.JWTTTL, err = parseDuration(v, "JWT_TTL"); err != nil {
		return nil, err
	}
	if cfg.PendingTTL, err = parseDuration(v, "PENDING_TTL"); err != nil {
		return nil, err
	}
	if cfg.PendingSweepInterval, err = parseDuration(v, "PENDING_SWEEP_INTERVAL"); err != nil {
		return nil, err
	}

	for _, o := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.PendingTTL <= 0 {
		return fmt.Errorf("PENDING_TTL must be > 0")
	}
	if cfg.PendingSweepInterval <= 0 {
		return fmt.Errorf("PENDING_SWEEP_INTERVAL must be > 0")
	}
	if cfg.PendingStore != PendingStoreMemory && cfg.PendingStore != PendingStoreRedis {
		return fmt.Errorf("PENDING_STORE must be one of: memory, redis")
	}
	if cfg.PendingStore == PendingStoreRedis && strings.TrimSpace(cfg.RedisAddr) == "" {
		return fmt.Errorf("REDIS_ADDR must be set when PENDING_STORE=redis")
	}

	if cfg.IsProd() {
		if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
	}
	return nil
}

func (c *Config) IsProd() bool {
	return c.AppEnv == "prod" || c.AppEnv == "production" || c.AppEnv == "release"
}

func parseDuration(v *viper.Viper, name string) (time.Duration, error) {
	value := strings.TrimSpace(v.GetString(name))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}
