package storage

import (
	"time"

	"gorm.io/datatypes"
)

// Artifact is the GORM storage model. The date-ish columns are free-form
// text supplied by clients, so autoCreateTime is disabled; the database
// never fills them in.
type Artifact struct {
	ID           string         `gorm:"type:varchar(36);primaryKey"`
	Name         string         `gorm:"index"`
	Image        string         `gorm:"type:text"`
	Type         string
	Description  string         `gorm:"type:text"`
	CreatedAt    string         `gorm:"autoCreateTime:false"`
	DiscoveredAt string
	DiscoveredBy string
	Location     string
	AddedBy      datatypes.JSON `gorm:"not null"`
	LikedBy      datatypes.JSON `gorm:"not null"`
	LikeCount    int            `gorm:"not null;default:0"`
}

// DomainEvent stores published artifact events for auditing.
type DomainEvent struct {
	ID         uint           `gorm:"primaryKey"`
	EventType  string         `gorm:"index;not null"`
	ArtifactID string         `gorm:"index"`
	ActorEmail string         `gorm:"index"`
	Data       datatypes.JSON `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"index"`
}
