package storage

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"artifact-server-go/internal/platform/errors"
)

// Migration is a single versioned schema change.
type Migration interface {
	Version() string
	Description() string
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

// MigrationRecord tracks applied migrations.
type MigrationRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Version   string    `gorm:"uniqueIndex;not null"`
	Name      string    `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}

// MigrationManager applies pending migrations in registration order.
type MigrationManager struct {
	db         *gorm.DB
	migrations []Migration
}

func NewMigrationManager(db *gorm.DB) *MigrationManager {
	return &MigrationManager{
		db:         db,
		migrations: []Migration{},
	}
}

func (m *MigrationManager) AddMigration(migration Migration) {
	m.migrations = append(m.migrations, migration)
}

// RunMigrations executes every migration that has not been applied yet.
func (m *MigrationManager) RunMigrations() error {
	if err := m.db.AutoMigrate(&MigrationRecord{}); err != nil {
		return errors.Wrap(errors.KindStorage, "migration.create_table", "failed to create migration table", err)
	}

	var appliedVersions []string
	if err := m.db.Model(&MigrationRecord{}).Pluck("version", &appliedVersions).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "migration.get_applied", "failed to get applied migrations", err)
	}

	appliedMap := make(map[string]bool)
	for _, version := range appliedVersions {
		appliedMap[version] = true
	}

	for _, migration := range m.migrations {
		if appliedMap[migration.Version()] {
			continue
		}

		tx := m.db.Begin()
		if tx.Error != nil {
			return errors.Wrap(errors.KindStorage, "migration.begin_tx", "failed to begin transaction", tx.Error)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return errors.Wrap(errors.KindStorage, "migration.up", fmt.Sprintf("failed to run migration %s", migration.Version()), err)
		}

		record := &MigrationRecord{
			Version:   migration.Version(),
			Name:      migration.Description(),
			AppliedAt: time.Now(),
		}
		if err := tx.Create(record).Error; err != nil {
			tx.Rollback()
			return errors.Wrap(errors.KindStorage, "migration.record", "failed to record migration", err)
		}

		if err := tx.Commit().Error; err != nil {
			return errors.Wrap(errors.KindStorage, "migration.commit", "failed to commit migration", err)
		}
	}

	return nil
}

// RollbackMigration reverts a single applied migration by version.
func (m *MigrationManager) RollbackMigration(version string) error {
	var record MigrationRecord
	if err := m.db.Where("version = ?", version).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.New(errors.KindStorage, "migration.not_found", fmt.Sprintf("migration %s not found", version))
		}
		return errors.Wrap(errors.KindStorage, "migration.find_record", "failed to find migration record", err)
	}

	var targetMigration Migration
	for _, migration := range m.migrations {
		if migration.Version() == version {
			targetMigration = migration
			break
		}
	}

	if targetMigration == nil {
		return errors.New(errors.KindStorage, "migration.not_registered", fmt.Sprintf("migration %s not registered", version))
	}

	tx := m.db.Begin()
	if tx.Error != nil {
		return errors.Wrap(errors.KindStorage, "migration.rollback_begin_tx", "failed to begin rollback transaction", tx.Error)
	}

	if err := targetMigration.Down(tx); err != nil {
		tx.Rollback()
		return errors.Wrap(errors.KindStorage, "migration.down", fmt.Sprintf("failed to rollback migration %s", version), err)
	}

	if err := tx.Delete(&record).Error; err != nil {
		tx.Rollback()
		return errors.Wrap(errors.KindStorage, "migration.delete_record", "failed to delete migration record", err)
	}

	if err := tx.Commit().Error; err != nil {
		return errors.Wrap(errors.KindStorage, "migration.rollback_commit", "failed to commit rollback", err)
	}

	return nil
}
