package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"artifact-server-go/internal/domain/artifact/aggregate"
	"artifact-server-go/internal/domain/artifact/repository"
	"artifact-server-go/internal/domain/eventbus"
	"artifact-server-go/internal/platform/errors"
)

// ArtifactService implements the artifact operations on top of the
// repository. Toggles are serialized per artifact id so concurrent
// requests inside one process never race the conditional store write.
type ArtifactService struct {
	repo repository.ArtifactRepository
	bus  *eventbus.Bus

	toggleLocks sync.Map // artifact id -> *sync.Mutex
}

// NewArtifactService creates the service. bus may be nil when event
// publishing is not wanted (tests).
func NewArtifactService(repo repository.ArtifactRepository, bus *eventbus.Bus) *ArtifactService {
	return &ArtifactService{
		repo: repo,
		bus:  bus,
	}
}

// Create validates and persists a new artifact, returning its assigned id.
// The like fields are server-owned and always start empty regardless of
// what the caller supplied.
func (s *ArtifactService) Create(ctx context.Context, desc aggregate.Descriptive, addedBy aggregate.Creator) (*aggregate.Artifact, error) {
	artifact, err := aggregate.NewArtifact(desc, addedBy)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, artifact); err != nil {
		return nil, err
	}

	s.publish(eventbus.EventArtifactCreated, artifact.ID, addedBy.Email, map[string]interface{}{
		"name": artifact.Name,
	})

	return artifact, nil
}

// List returns artifacts filtered by a case-insensitive name substring;
// an empty filter returns everything.
func (s *ArtifactService) List(ctx context.Context, nameFilter string) ([]*aggregate.Artifact, error) {
	return s.repo.List(ctx, nameFilter)
}

// ListByCreator returns artifacts added by the given email. The ownership
// check against the caller's verified identity happens at the transport
// layer before this is reached.
func (s *ArtifactService) ListByCreator(ctx context.Context, email string) ([]*aggregate.Artifact, error) {
	if strings.TrimSpace(email) == "" {
		return nil, errors.New(errors.KindValidation, "artifact.list_by_creator", "email is required")
	}
	return s.repo.ListByCreator(ctx, email)
}

// ListLiked returns artifacts whose like set contains the given email.
// An empty result is reported as not found; callers depend on that
// contract even though the general listing returns empty success lists.
func (s *ArtifactService) ListLiked(ctx context.Context, email string) ([]*aggregate.Artifact, error) {
	artifacts, err := s.repo.ListLikedBy(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		return nil, errors.New(errors.KindNotFound, "artifact.list_liked", "no liked artifacts found")
	}
	return artifacts, nil
}

// Get returns the artifact with the given id.
func (s *ArtifactService) Get(ctx context.Context, id string) (*aggregate.Artifact, error) {
	artifact, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, errors.New(errors.KindNotFound, "artifact.get", "artifact not found")
	}
	return artifact, nil
}

// Update replaces the descriptive fields wholesale, zero values included.
func (s *ArtifactService) Update(ctx context.Context, id string, fields aggregate.Descriptive) error {
	updated, err := s.repo.UpdateFields(ctx, id, fields)
	if err != nil {
		return err
	}
	if !updated {
		return errors.New(errors.KindNotFound, "artifact.update", "artifact not found")
	}
	return nil
}

// Delete removes the artifact with the given id.
func (s *ArtifactService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return errors.New(errors.KindNotFound, "artifact.delete", "artifact not found")
	}

	s.publish(eventbus.EventArtifactDeleted, id, "", nil)
	return nil
}

// ToggleLike flips the like state of an artifact for the given email and
// reports the new state. After a successful toggle the like counter equals
// the like set cardinality.
func (s *ArtifactService) ToggleLike(ctx context.Context, id, email string) (repository.ToggleResult, error) {
	if strings.TrimSpace(email) == "" {
		return repository.ToggleResult{}, errors.New(errors.KindValidation, "artifact.toggle_like", "email is required")
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	result, err := s.repo.ToggleLike(ctx, id, email)
	if err != nil {
		return repository.ToggleResult{}, err
	}

	s.publish(eventbus.EventArtifactLikeToggled, id, email, map[string]interface{}{
		"liked":      result.Liked,
		"like_count": result.LikeCount,
	})

	return result, nil
}

func (s *ArtifactService) lockFor(id string) *sync.Mutex {
	value, _ := s.toggleLocks.LoadOrStore(id, &sync.Mutex{})
	return value.(*sync.Mutex)
}

func (s *ArtifactService) publish(topic, artifactID, actorEmail string, data map[string]interface{}) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(topic, eventbus.ArtifactEventData{
		ArtifactID: artifactID,
		ActorEmail: actorEmail,
		Data:       data,
		OccurredAt: time.Now(),
	})
}
