package storage

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"artifact-server-go/internal/domain/artifact/aggregate"
	"artifact-server-go/internal/domain/artifact/repository"
	"artifact-server-go/internal/platform/errors"
)

type artifactRepository struct {
	db *gorm.DB
}

// NewArtifactRepository creates the GORM-backed artifact repository.
func NewArtifactRepository(db *gorm.DB) repository.ArtifactRepository {
	return &artifactRepository{
		db: db,
	}
}

// Create persists the artifact and assigns a store-owned id.
func (r *artifactRepository) Create(ctx context.Context, artifact *aggregate.Artifact) error {
	model, err := r.toModel(artifact)
	if err != nil {
		return err
	}
	model.ID = uuid.NewString()

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "artifact.create", "failed to save artifact", err)
	}

	artifact.ID = model.ID
	return nil
}

func (r *artifactRepository) List(ctx context.Context, nameFilter string) ([]*aggregate.Artifact, error) {
	query := r.db.WithContext(ctx).Model(&Artifact{})
	if nameFilter != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(nameFilter)+"%")
	}

	var models []Artifact
	if err := query.Find(&models).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "artifact.list", "failed to list artifacts", err)
	}

	return r.fromModels(models)
}

func (r *artifactRepository) ListByCreator(ctx context.Context, email string) ([]*aggregate.Artifact, error) {
	var models []Artifact
	if err := r.db.WithContext(ctx).
		Where(datatypes.JSONQuery("added_by").Equals(email, "email")).
		Find(&models).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "artifact.list_by_creator", "failed to list artifacts by creator", err)
	}

	return r.fromModels(models)
}

func (r *artifactRepository) ListLikedBy(ctx context.Context, email string) ([]*aggregate.Artifact, error) {
	var models []Artifact
	if err := r.db.WithContext(ctx).
		Where(datatypes.JSONArrayQuery("liked_by").Contains(email)).
		Find(&models).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "artifact.list_liked", "failed to list liked artifacts", err)
	}

	return r.fromModels(models)
}

func (r *artifactRepository) FindByID(ctx context.Context, id string) (*aggregate.Artifact, error) {
	var model Artifact
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(errors.KindStorage, "artifact.find_by_id", "failed to find artifact", err)
	}
	return r.fromModel(&model)
}

// UpdateFields replaces the descriptive columns wholesale. Select forces
// zero values through, preserving the permissive overwrite contract.
func (r *artifactRepository) UpdateFields(ctx context.Context, id string, fields aggregate.Descriptive) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&Artifact{}).
		Where("id = ?", id).
		Select("name", "image", "type", "description", "created_at",
			"discovered_at", "discovered_by", "location").
		Updates(Artifact{
			Name:         fields.Name,
			Image:        fields.Image,
			Type:         fields.Type,
			Description:  fields.Description,
			CreatedAt:    fields.CreatedAt,
			DiscoveredAt: fields.DiscoveredAt,
			DiscoveredBy: fields.DiscoveredBy,
			Location:     fields.Location,
		})
	if result.Error != nil {
		return false, errors.Wrap(errors.KindStorage, "artifact.update", "failed to update artifact", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *artifactRepository) Delete(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Artifact{})
	if result.Error != nil {
		return false, errors.Wrap(errors.KindStorage, "artifact.delete", "failed to delete artifact", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ToggleLike flips membership of email in the like set inside a single
// transaction. The write is conditional on the like counter observed at
// read time; a row changed in between fails the toggle instead of
// re-deriving state, so a lost update cannot happen.
func (r *artifactRepository) ToggleLike(ctx context.Context, id, email string) (repository.ToggleResult, error) {
	var outcome repository.ToggleResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model Artifact
		if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.New(errors.KindNotFound, "artifact.toggle_like", "artifact not found")
			}
			return errors.Wrap(errors.KindStorage, "artifact.toggle_like", "failed to read artifact", err)
		}

		var likedBy []string
		if len(model.LikedBy) > 0 {
			if err := json.Unmarshal(model.LikedBy, &likedBy); err != nil {
				return errors.Wrap(errors.KindStorage, "artifact.toggle_like", "corrupt like set", err)
			}
		}

		hasLiked := false
		for _, e := range likedBy {
			if e == email {
				hasLiked = true
				break
			}
		}

		var updated []string
		if hasLiked {
			updated = make([]string, 0, len(likedBy))
			for _, e := range likedBy {
				if e != email {
					updated = append(updated, e)
				}
			}
		} else {
			updated = append(likedBy, email)
		}

		encoded, err := json.Marshal(updated)
		if err != nil {
			return errors.Wrap(errors.KindStorage, "artifact.toggle_like", "failed to encode like set", err)
		}

		// Counter equals set cardinality by construction; the condition on
		// the previously observed counter rejects concurrent modification.
		result := tx.Model(&Artifact{}).
			Where("id = ? AND like_count = ?", id, model.LikeCount).
			Updates(map[string]interface{}{
				"liked_by":   datatypes.JSON(encoded),
				"like_count": len(updated),
			})
		if result.Error != nil {
			return errors.Wrap(errors.KindStorage, "artifact.toggle_like", "failed to write like state", result.Error)
		}
		if result.RowsAffected == 0 {
			return errors.New(errors.KindStorage, "artifact.toggle_like", "artifact modified concurrently")
		}

		outcome = repository.ToggleResult{
			Liked:     !hasLiked,
			LikeCount: len(updated),
		}
		return nil
	})
	if err != nil {
		return repository.ToggleResult{}, err
	}

	return outcome, nil
}

func (r *artifactRepository) toModel(artifact *aggregate.Artifact) (*Artifact, error) {
	addedBy, err := json.Marshal(artifact.AddedBy)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "artifact.to_model", "failed to encode creator", err)
	}

	likedBy := artifact.LikedBy
	if likedBy == nil {
		likedBy = []string{}
	}
	likedByJSON, err := json.Marshal(likedBy)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "artifact.to_model", "failed to encode like set", err)
	}

	return &Artifact{
		ID:           artifact.ID,
		Name:         artifact.Name,
		Image:        artifact.Image,
		Type:         artifact.Type,
		Description:  artifact.Description,
		CreatedAt:    artifact.CreatedAt,
		DiscoveredAt: artifact.DiscoveredAt,
		DiscoveredBy: artifact.DiscoveredBy,
		Location:     artifact.Location,
		AddedBy:      datatypes.JSON(addedBy),
		LikedBy:      datatypes.JSON(likedByJSON),
		LikeCount:    artifact.LikeCount,
	}, nil
}

func (r *artifactRepository) fromModel(model *Artifact) (*aggregate.Artifact, error) {
	var addedBy aggregate.Creator
	if len(model.AddedBy) > 0 {
		if err := json.Unmarshal(model.AddedBy, &addedBy); err != nil {
			return nil, errors.Wrap(errors.KindStorage, "artifact.from_model", "corrupt creator data", err)
		}
	}

	likedBy := []string{}
	if len(model.LikedBy) > 0 {
		if err := json.Unmarshal(model.LikedBy, &likedBy); err != nil {
			return nil, errors.Wrap(errors.KindStorage, "artifact.from_model", "corrupt like set", err)
		}
	}

	return &aggregate.Artifact{
		ID:           model.ID,
		Name:         model.Name,
		Image:        model.Image,
		Type:         model.Type,
		Description:  model.Description,
		CreatedAt:    model.CreatedAt,
		DiscoveredAt: model.DiscoveredAt,
		DiscoveredBy: model.DiscoveredBy,
		Location:     model.Location,
		AddedBy:      addedBy,
		LikedBy:      likedBy,
		LikeCount:    model.LikeCount,
	}, nil
}

func (r *artifactRepository) fromModels(models []Artifact) ([]*aggregate.Artifact, error) {
	artifacts := make([]*aggregate.Artifact, len(models))
	for i := range models {
		artifact, err := r.fromModel(&models[i])
		if err != nil {
			return nil, err
		}
		artifacts[i] = artifact
	}
	return artifacts, nil
}
