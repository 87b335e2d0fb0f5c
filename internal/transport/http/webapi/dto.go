package webapi

import "artifact-server-go/internal/domain/artifact/aggregate"

// createArtifactRequest is the POST /history body. Like state fields sent
// by the client are accepted and discarded; the store owns them.
type createArtifactRequest struct {
	Name         string            `json:"name"`
	Image        string            `json:"image"`
	Type         string            `json:"type"`
	Description  string            `json:"description"`
	CreatedAt    string            `json:"createdAt"`
	DiscoveredAt string            `json:"discoveredAt"`
	DiscoveredBy string            `json:"discoveredBy"`
	Location     string            `json:"location"`
	AddedBy      aggregate.Creator `json:"addedBy"`
}

func (r createArtifactRequest) descriptive() aggregate.Descriptive {
	return aggregate.Descriptive{
		Name:         r.Name,
		Image:        r.Image,
		Type:         r.Type,
		Description:  r.Description,
		CreatedAt:    r.CreatedAt,
		DiscoveredAt: r.DiscoveredAt,
		DiscoveredBy: r.DiscoveredBy,
		Location:     r.Location,
	}
}

// updateArtifactRequest is the PATCH /artifact/:id body. All eight
// descriptive fields are written as sent, absent fields included.
type updateArtifactRequest struct {
	Name         string `json:"name"`
	Image        string `json:"image"`
	Type         string `json:"type"`
	Description  string `json:"description"`
	CreatedAt    string `json:"createdAt"`
	DiscoveredAt string `json:"discoveredAt"`
	DiscoveredBy string `json:"discoveredBy"`
	Location     string `json:"location"`
}

func (r updateArtifactRequest) descriptive() aggregate.Descriptive {
	return aggregate.Descriptive{
		Name:         r.Name,
		Image:        r.Image,
		Type:         r.Type,
		Description:  r.Description,
		CreatedAt:    r.CreatedAt,
		DiscoveredAt: r.DiscoveredAt,
		DiscoveredBy: r.DiscoveredBy,
		Location:     r.Location,
	}
}

// toggleLikeRequest is the PATCH /artifact/:id/like body.
type toggleLikeRequest struct {
	Email string `json:"email"`
}
