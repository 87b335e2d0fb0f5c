package migrations

import (
	"gorm.io/gorm"
)

// Migration001Indexes adds the lookup indexes the repository queries rely on.
type Migration001Indexes struct{}

func (m *Migration001Indexes) Version() string {
	return "001_indexes"
}

func (m *Migration001Indexes) Description() string {
	return "Add artifact name and event lookup indexes"
}

func (m *Migration001Indexes) Up(db *gorm.DB) error {
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_artifacts_name ON artifacts(name)`).Error; err != nil {
		return err
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_domain_events_event_type ON domain_events(event_type)`).Error; err != nil {
		return err
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_domain_events_artifact_id ON domain_events(artifact_id)`).Error; err != nil {
		return err
	}
	return nil
}

func (m *Migration001Indexes) Down(db *gorm.DB) error {
	if err := db.Exec(`DROP INDEX IF EXISTS idx_artifacts_name`).Error; err != nil {
		return err
	}
	if err := db.Exec(`DROP INDEX IF EXISTS idx_domain_events_event_type`).Error; err != nil {
		return err
	}
	if err := db.Exec(`DROP INDEX IF EXISTS idx_domain_events_artifact_id`).Error; err != nil {
		return err
	}
	return nil
}
