package repository

import (
	"context"

	"artifact-server-go/internal/domain/artifact/aggregate"
)

// ToggleResult reports the outcome of a like toggle.
type ToggleResult struct {
	Liked     bool
	LikeCount int
}

// ArtifactRepository is the persistence contract for artifacts. Lookup
// methods return (nil, nil) when no document matches.
type ArtifactRepository interface {
	// Create persists a new artifact and assigns its id.
	Create(ctx context.Context, artifact *aggregate.Artifact) error

	// List returns artifacts whose name contains nameFilter
	// case-insensitively; an empty filter returns all artifacts.
	List(ctx context.Context, nameFilter string) ([]*aggregate.Artifact, error)

	// ListByCreator returns artifacts whose creator email matches exactly.
	ListByCreator(ctx context.Context, email string) ([]*aggregate.Artifact, error)

	// ListLikedBy returns artifacts whose like set contains email.
	ListLikedBy(ctx context.Context, email string) ([]*aggregate.Artifact, error)

	FindByID(ctx context.Context, id string) (*aggregate.Artifact, error)

	// UpdateFields replaces the descriptive fields wholesale, zero values
	// included. Returns false when no matching row was found.
	UpdateFields(ctx context.Context, id string, fields aggregate.Descriptive) (bool, error)

	// Delete removes the artifact. Returns false when no row matched.
	Delete(ctx context.Context, id string) (bool, error)

	// ToggleLike atomically flips membership of email in the like set and
	// adjusts the counter in a single conditional store operation.
	ToggleLike(ctx context.Context, id, email string) (ToggleResult, error)
}
