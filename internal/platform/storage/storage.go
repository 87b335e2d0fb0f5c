package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"artifact-server-go/internal/platform/storage/migrations"
)

// Global database instance. Opened once at startup and reused for the
// lifetime of the process.
var db *gorm.DB

// InitDatabase opens the SQLite database at path and applies migrations.
func InitDatabase(path string) error {
	if db != nil {
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	var err error
	db, err = gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// AutoMigrate keeps the schema current; versioned migrations handle
	// everything AutoMigrate cannot express.
	if err := db.AutoMigrate(&Artifact{}, &DomainEvent{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	migrationManager := NewMigrationManager(db)
	migrationManager.AddMigration(&migrations.Migration001Indexes{})

	if err := migrationManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// GetDB returns the global database instance.
func GetDB() *gorm.DB {
	if db == nil {
		panic("database not initialized, call InitDatabase() first")
	}
	return db
}
