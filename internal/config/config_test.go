package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.Driver != DriverPostgres || cfg.DB.Port != 5432 {
		t.Fatalf("unexpected db defaults %+v", cfg.DB)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.HTTP.RequestTimeout != 15*time.Second {
		t.Fatalf("unexpected http defaults %+v", cfg.HTTP)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("unexpected token ttl %v", cfg.Auth.TokenTTL)
	}
	if cfg.ReadRetryAttempts != 3 {
		t.Fatalf("unexpected read retry attempts %d", cfg.ReadRetryAttempts)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_SQLITE_PATH", "/tmp/hc.db")
	t.Setenv("HTTP_REQUEST_TIMEOUT", "30")
	t.Setenv("PAYMENT_GATEWAY_TIMEOUT", "2s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("READ_RETRY_ATTEMPTS", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.Driver != DriverSQLite || cfg.DB.SQLitePath != "/tmp/hc.db" {
		t.Fatalf("unexpected db config %+v", cfg.DB)
	}
	if cfg.HTTP.RequestTimeout != 30*time.Second || cfg.Payments.Timeout != 2*time.Second {
		t.Fatalf("durations not parsed: %v %v", cfg.HTTP.RequestTimeout, cfg.Payments.Timeout)
	}
	if len(cfg.HTTP.AllowedOrigins) != 2 || cfg.HTTP.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.HTTP.AllowedOrigins)
	}
	if cfg.ReadRetryAttempts != 1 {
		t.Fatalf("read retries must be at least 1, got %d", cfg.ReadRetryAttempts)
	}
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without JWT_SECRET")
	}
}

func TestLoadDBConfig_UnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	if _, err := LoadDBConfig(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
