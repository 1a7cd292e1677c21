package repository

import (
	"context"

	"github.com/nahuelp/clipstack/internal/domain"
	"gorm.io/gorm"
)

// TaxonomyRepository handles area and topic lookups.
type TaxonomyRepository struct {
	db *gorm.DB
}

// NewTaxonomyRepository creates a new TaxonomyRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *TaxonomyRepository: repository instance bound to db.
func NewTaxonomyRepository(db *gorm.DB) *TaxonomyRepository {
	return &TaxonomyRepository{db: db}
}

// ListAreas retrieves all areas ordered by ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - []domain.Area: all areas.
//   - error: non-nil if the query fails.
func (r *TaxonomyRepository) ListAreas(ctx context.Context) ([]domain.Area, error) {
	var areas []domain.Area
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&areas).Error; err != nil {
		return nil, err
	}
	return areas, nil
}

// ListTopics retrieves all topics ordered by area then ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - []domain.Topic: all topics.
//   - error: non-nil if the query fails.
func (r *TaxonomyRepository) ListTopics(ctx context.Context) ([]domain.Topic, error) {
	var topics []domain.Topic
	if err := r.db.WithContext(ctx).Order("area_id ASC, id ASC").Find(&topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}

// TopicsByArea retrieves the topics belonging to a single area.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - areaID: area whose topics are listed.
// Returns:
//   - []domain.Topic: topics in the area.
//   - error: non-nil if the query fails.
func (r *TaxonomyRepository) TopicsByArea(ctx context.Context, areaID int64) ([]domain.Topic, error) {
	var topics []domain.Topic
	if err := r.db.WithContext(ctx).
		Where("area_id = ?", areaID).
		Order("id ASC").
		Find(&topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}
