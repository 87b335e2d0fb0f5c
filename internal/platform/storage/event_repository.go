package storage

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"artifact-server-go/internal/domain/eventbus"
	"artifact-server-go/internal/platform/errors"
)

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates the GORM-backed event recorder.
func NewEventRepository(db *gorm.DB) *eventRepository {
	return &eventRepository{
		db: db,
	}
}

// Record persists a published artifact event.
func (r *eventRepository) Record(ctx context.Context, eventType string, event eventbus.ArtifactEventData) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return errors.Wrap(errors.KindStorage, "event.record", "failed to marshal event data", err)
	}

	record := &DomainEvent{
		EventType:  eventType,
		ArtifactID: event.ArtifactID,
		ActorEmail: event.ActorEmail,
		Data:       data,
		CreatedAt:  event.OccurredAt,
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "event.record", "failed to store event", err)
	}

	return nil
}

// CountByType returns how many events of each type have been recorded.
func (r *eventRepository) CountByType(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		EventType string
		Count     int64
	}

	if err := r.db.WithContext(ctx).
		Model(&DomainEvent{}).
		Select("event_type, count(*) as count").
		Group("event_type").
		Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "event.count_by_type", "failed to count events", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.EventType] = row.Count
	}
	return counts, nil
}
