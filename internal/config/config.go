package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
)

type HTTPConfig struct {
	Addr           string
	RequestTimeout time.Duration
	AllowedOrigins []string
	GinMode        string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type JobsConfig struct {
	// Cron-выражение для отмены просроченных pending-бронирований. Пустая строка отключает задачу.
	ExpirePendingCron string
}

type PaymentsConfig struct {
	// Пустой URL: песочница, все платежи проходят.
	GatewayURL string
	GatewayKey string
	Timeout    time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json | text
}

type Config struct {
	DB       *DBConfig
	HTTP     HTTPConfig
	GRPCAddr string
	Auth     AuthConfig
	Jobs     JobsConfig
	Payments PaymentsConfig
	Log      LogConfig

	// Сколько раз повторять идемпотентные чтения при сбое хранилища.
	ReadRetryAttempts int
	Debug             bool
}

// Load читает .env (если есть) и переменные окружения.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	dbCfg, err := LoadDBConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DB: dbCfg,
		HTTP: HTTPConfig{
			Addr:           getEnv("HTTP_ADDR", ":8080"),
			RequestTimeout: getEnvDuration("HTTP_REQUEST_TIMEOUT", 15*time.Second),
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			GinMode:        getEnv("GIN_MODE", "release"),
		},
		GRPCAddr: getEnv("GRPC_ADDR", ":50051"),
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  time.Duration(getEnvInt("JWT_TTL_HOURS", 24)) * time.Hour,
		},
		Jobs: JobsConfig{
			ExpirePendingCron: getEnv("JOBS_EXPIRE_PENDING_CRON", "@every 15m"),
		},
		Payments: PaymentsConfig{
			GatewayURL: getEnv("PAYMENT_GATEWAY_URL", ""),
			GatewayKey: getEnv("PAYMENT_GATEWAY_KEY", ""),
			Timeout:    getEnvDuration("PAYMENT_GATEWAY_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		ReadRetryAttempts: getEnvInt("READ_RETRY_ATTEMPTS", 3),
		Debug:             getEnvBool("DEBUG", false),
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("invalid config: JWT_SECRET must not be empty")
	}
	if cfg.ReadRetryAttempts < 1 {
		cfg.ReadRetryAttempts = 1
	}

	return cfg, nil
}
