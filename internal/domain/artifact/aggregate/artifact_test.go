package aggregate

import (
	"testing"

	"artifact-server-go/internal/platform/errors"
)

func TestNewArtifactRequiresCreatorEmail(t *testing.T) {
	_, err := NewArtifact(Descriptive{Name: "Rosetta Stone"}, Creator{Name: "no email"})
	if err == nil {
		t.Fatal("expected error for missing creator email")
	}
	if !errors.IsKind(err, errors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = NewArtifact(Descriptive{}, Creator{Email: "   "})
	if err == nil {
		t.Fatal("expected error for blank creator email")
	}
}

func TestNewArtifactForcesEmptyLikeState(t *testing.T) {
	artifact, err := NewArtifact(
		Descriptive{Name: "Antikythera Mechanism", CreatedAt: "100 BC"},
		Creator{Email: "curator@example.com", Name: "Curator"},
	)
	if err != nil {
		t.Fatalf("NewArtifact failed: %v", err)
	}

	if artifact.LikeCount != 0 {
		t.Fatalf("expected like count 0, got %d", artifact.LikeCount)
	}
	if artifact.LikedBy == nil || len(artifact.LikedBy) != 0 {
		t.Fatalf("expected empty like set, got %v", artifact.LikedBy)
	}
	if artifact.CreatedAt != "100 BC" {
		t.Fatalf("free-form date not preserved: %q", artifact.CreatedAt)
	}
}

func TestToggleLike(t *testing.T) {
	artifact := &Artifact{LikedBy: []string{}}

	liked := artifact.ToggleLike("a@example.com")
	if !liked {
		t.Fatal("first toggle should like")
	}
	if artifact.LikeCount != 1 || !artifact.HasLiked("a@example.com") {
		t.Fatalf("like state inconsistent: count=%d likedBy=%v", artifact.LikeCount, artifact.LikedBy)
	}

	artifact.ToggleLike("b@example.com")
	if artifact.LikeCount != 2 {
		t.Fatalf("expected count 2, got %d", artifact.LikeCount)
	}

	liked = artifact.ToggleLike("a@example.com")
	if liked {
		t.Fatal("second toggle should unlike")
	}
	if artifact.LikeCount != 1 || artifact.HasLiked("a@example.com") {
		t.Fatalf("unlike state inconsistent: count=%d likedBy=%v", artifact.LikeCount, artifact.LikedBy)
	}
	if !artifact.HasLiked("b@example.com") {
		t.Fatal("unrelated like lost")
	}
}

func TestToggleLikeKeepsCountEqualToSetSize(t *testing.T) {
	artifact := &Artifact{LikedBy: []string{}}
	emails := []string{"a@x.com", "b@x.com", "c@x.com", "a@x.com", "b@x.com"}

	for _, email := range emails {
		artifact.ToggleLike(email)
		if artifact.LikeCount != len(artifact.LikedBy) {
			t.Fatalf("invariant broken: count=%d set=%v", artifact.LikeCount, artifact.LikedBy)
		}
	}

	if artifact.LikeCount != 1 || !artifact.HasLiked("c@x.com") {
		t.Fatalf("unexpected final state: count=%d set=%v", artifact.LikeCount, artifact.LikedBy)
	}
}
