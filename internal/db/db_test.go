package db

import (
	"path/filepath"
	"testing"

	"github.com/harmoni/harmoniconnect/internal/config"
	"github.com/harmoni/harmoniconnect/internal/logging"
	"github.com/harmoni/harmoniconnect/internal/model"
)

func TestNewGormDB_SQLite(t *testing.T) {
	cfg := &config.DBConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "hc.db"),
	}

	gdb, err := NewGormDB(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("NewGormDB: %v", err)
	}
	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	u := &model.User{Username: "alice"}
	if err := gdb.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := gdb.Create(&model.User{Username: "alice"}).Error; err == nil {
		t.Fatalf("duplicate username must fail")
	}

	sqlDB, _ := gdb.DB()
	if got := sqlDB.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("sqlite pool size = %d, want 1", got)
	}
}
