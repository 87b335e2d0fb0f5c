package aggregate

import (
	"strings"

	"artifact-server-go/internal/platform/errors"
)

// Creator identifies who added an artifact. Email is the identity key.
type Creator struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Artifact is the sole persisted entity of the service. The descriptive
// date fields are free-form text with no enforced format.
type Artifact struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Image        string   `json:"image"`
	Type         string   `json:"type"`
	Description  string   `json:"description"`
	CreatedAt    string   `json:"createdAt"`
	DiscoveredAt string   `json:"discoveredAt"`
	DiscoveredBy string   `json:"discoveredBy"`
	Location     string   `json:"location"`
	AddedBy      Creator  `json:"addedBy"`
	LikedBy      []string `json:"likedBy"`
	LikeCount    int      `json:"likeCount"`
}

// Descriptive carries the mutable descriptive fields replaced wholesale by
// an update. Like state and creator identity are never part of an update.
type Descriptive struct {
	Name         string `json:"name"`
	Image        string `json:"image"`
	Type         string `json:"type"`
	Description  string `json:"description"`
	CreatedAt    string `json:"createdAt"`
	DiscoveredAt string `json:"discoveredAt"`
	DiscoveredBy string `json:"discoveredBy"`
	Location     string `json:"location"`
}

// NewArtifact builds an artifact for creation. The creator email is the
// only required field; like state is server-owned and always starts empty,
// whatever the caller supplied.
func NewArtifact(desc Descriptive, addedBy Creator) (*Artifact, error) {
	if strings.TrimSpace(addedBy.Email) == "" {
		return nil, errors.New(errors.KindValidation, "artifact.create", "creator email is required")
	}

	return &Artifact{
		Name:         desc.Name,
		Image:        desc.Image,
		Type:         desc.Type,
		Description:  desc.Description,
		CreatedAt:    desc.CreatedAt,
		DiscoveredAt: desc.DiscoveredAt,
		DiscoveredBy: desc.DiscoveredBy,
		Location:     desc.Location,
		AddedBy:      addedBy,
		LikedBy:      []string{},
		LikeCount:    0,
	}, nil
}

// HasLiked reports whether email is currently a member of the like set.
func (a *Artifact) HasLiked(email string) bool {
	for _, e := range a.LikedBy {
		if e == email {
			return true
		}
	}
	return false
}

// ToggleLike flips membership of email in the like set and keeps LikeCount
// equal to the set cardinality. Returns the new liked state.
func (a *Artifact) ToggleLike(email string) bool {
	if a.HasLiked(email) {
		kept := make([]string, 0, len(a.LikedBy))
		for _, e := range a.LikedBy {
			if e != email {
				kept = append(kept, e)
			}
		}
		a.LikedBy = kept
		a.LikeCount = len(a.LikedBy)
		return false
	}

	a.LikedBy = append(a.LikedBy, email)
	a.LikeCount = len(a.LikedBy)
	return true
}
