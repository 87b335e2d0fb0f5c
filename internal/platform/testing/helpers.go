package testing

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"artifact-server-go/internal/platform/config"
	"artifact-server-go/internal/platform/logging"
	"artifact-server-go/internal/platform/storage"
)

var testDBCounter int64

func SetupTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Server.IP = "127.0.0.1"
	cfg.Server.Auth.Secret = "test-secret"
	cfg.Server.Auth.TokenTTL = time.Hour
	cfg.Log.Level = "debug"
	cfg.Log.Dir = t.TempDir()
	cfg.Log.File = "test.log"

	return cfg
}

func SetupTestLogger(t *testing.T) *logging.Logger {
	t.Helper()

	cfg := SetupTestConfig(t)
	logger, err := logging.New(logging.Config{
		Level:    cfg.Log.Level,
		Dir:      cfg.Log.Dir,
		Filename: cfg.Log.File,
	})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}

	t.Cleanup(func() {
		logger.Close()
	})
	return logger
}

// SetupTestDB opens a private in-memory SQLite database with the schema
// migrated. Each call gets its own database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	id := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:test-%d?mode=memory&cache=shared", id)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&storage.Artifact{}, &storage.DomainEvent{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error but got nil")
	}
}

func AssertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if expected != actual {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}
