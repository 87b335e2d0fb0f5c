package eventbus

import (
	"context"
	"time"

	evbus "github.com/asaskevich/EventBus"

	"artifact-server-go/internal/platform/logging"
)

// Event topics published by the artifact service.
const (
	EventArtifactCreated     = "artifact:created"
	EventArtifactDeleted     = "artifact:deleted"
	EventArtifactLikeToggled = "artifact:like_toggled"
)

// ArtifactEventData is the payload carried by every artifact topic.
type ArtifactEventData struct {
	ArtifactID string                 `json:"artifact_id"`
	ActorEmail string                 `json:"actor_email,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Recorder persists published events. Implemented by the storage layer.
type Recorder interface {
	Record(ctx context.Context, eventType string, event ArtifactEventData) error
}

// Bus wraps the in-process event bus. Publishing never blocks request
// handling; subscribers run asynchronously.
type Bus struct {
	bus    evbus.Bus
	logger *logging.Logger
}

// New creates an event bus.
func New(logger *logging.Logger) *Bus {
	return &Bus{
		bus:    evbus.New(),
		logger: logger,
	}
}

// Publish emits an event on the given topic.
func (b *Bus) Publish(topic string, data ArtifactEventData) {
	if b == nil {
		return
	}
	b.bus.Publish(topic, data)
}

// SubscribeRecorder registers an async subscriber persisting every artifact
// event through the recorder. Persistence failures are logged, never
// surfaced to the publisher.
func (b *Bus) SubscribeRecorder(rec Recorder) error {
	topics := []string{
		EventArtifactCreated,
		EventArtifactDeleted,
		EventArtifactLikeToggled,
	}

	for _, topic := range topics {
		topic := topic
		handler := func(data ArtifactEventData) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := rec.Record(ctx, topic, data); err != nil {
				b.logger.WarnTag("events", "failed to record %s event: %v", topic, err)
			}
		}
		if err := b.bus.SubscribeAsync(topic, handler, false); err != nil {
			return err
		}
	}
	return nil
}

// Close waits for in-flight async subscribers to drain.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.bus.WaitAsync()
}
