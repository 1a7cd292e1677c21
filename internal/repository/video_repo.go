package repository

import (
	"context"
	"fmt"

	"github.com/nahuelp/clipstack/internal/domain"
	"gorm.io/gorm"
)

// defaultPageSize is the FetchAll page size when none is configured.
const defaultPageSize = 1000

// VideoFilter selects which records an enrichment run targets.
// Store-expressible conditions are applied per page; OnlyWithoutKeyPoints
// cannot be pushed to the store (key points are a JSON column) and is
// applied in memory after fetching. Limit applies after all filtering.
type VideoFilter struct {
	Source               domain.VideoSource
	CuratedChannelID     *int64
	OnlyWithoutArea      bool
	OnlyWithoutSummary   bool
	OnlyWithoutKeyPoints bool
	SkipProcessed        bool
	Limit                int
}

// VideoRepository handles video record operations.
type VideoRepository struct {
	db       *gorm.DB
	pageSize int
}

// NewVideoRepository creates a new VideoRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *VideoRepository: repository instance bound to db.
func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{db: db, pageSize: defaultPageSize}
}

// SetPageSize overrides the FetchAll page size. Values below 1 are ignored.
func (r *VideoRepository) SetPageSize(size int) {
	if size > 0 {
		r.pageSize = size
	}
}

// applyFilter adds the store-expressible filter conditions to a query.
func applyFilter(query *gorm.DB, filter VideoFilter) *gorm.DB {
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.CuratedChannelID != nil {
		query = query.Where("curated_channel_id = ?", *filter.CuratedChannelID)
	}
	if filter.OnlyWithoutArea {
		query = query.Where("area_id IS NULL")
	}
	if filter.OnlyWithoutSummary {
		query = query.Where("summary IS NULL OR summary = ''")
	}
	if filter.SkipProcessed {
		query = query.Where("ai_processed_at IS NULL")
	}
	return query
}

// FetchAll retrieves every record matching the filter before processing
// begins. Pages of fixed size are fetched with the filter re-applied each
// page until a short page signals the end; in-memory predicates and the
// hard limit are applied after concatenation. Fetch order (by id) is the
// processing order.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - filter: record selection criteria.
// Returns:
//   - []domain.Video: ordered matching records.
//   - error: non-nil if any page query fails.
func (r *VideoRepository) FetchAll(ctx context.Context, filter VideoFilter) ([]domain.Video, error) {
	var all []domain.Video
	offset := 0

	for {
		var page []domain.Video
		query := applyFilter(r.db.WithContext(ctx).Model(&domain.Video{}), filter)
		if err := query.
			Order("id ASC").
			Limit(r.pageSize).
			Offset(offset).
			Find(&page).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch videos page at offset %d: %w", offset, err)
		}

		all = append(all, page...)
		if len(page) < r.pageSize {
			break
		}
		offset += r.pageSize
	}

	if filter.OnlyWithoutKeyPoints {
		filtered := all[:0]
		for _, v := range all {
			if len(v.KeyPoints) == 0 {
				filtered = append(filtered, v)
			}
		}
		all = filtered
	}

	if filter.Limit > 0 && len(all) > filter.Limit {
		all = all[:filter.Limit]
	}

	return all, nil
}

// GetByID retrieves a video by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: video ID.
// Returns:
//   - *domain.Video: video record if found.
//   - error: non-nil if lookup fails.
func (r *VideoRepository) GetByID(ctx context.Context, id int64) (*domain.Video, error) {
	var video domain.Video
	if err := r.db.WithContext(ctx).First(&video, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

// UpdateFields applies a partial update to a video record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: video ID to update.
//   - fields: column name to value map.
// Returns:
//   - error: non-nil if the update fails.
func (r *VideoRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&domain.Video{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// AuthorHistory returns how many already-classified videos each area holds
// for the given author. Used as a classification signal: authors tend to
// publish within the same areas.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - author: author/channel name.
// Returns:
//   - map[int64]int: area ID to classified-video count.
//   - error: non-nil if the query fails.
func (r *VideoRepository) AuthorHistory(ctx context.Context, author string) (map[int64]int, error) {
	type row struct {
		AreaID int64
		Count  int
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&domain.Video{}).
		Select("area_id, count(*) as count").
		Where("author = ? AND area_id IS NOT NULL", author).
		Group("area_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	history := make(map[int64]int, len(rows))
	for _, rw := range rows {
		history[rw.AreaID] = rw.Count
	}
	return history, nil
}

// ReplaceTopics replaces all topic links for a video with the given set.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - videoID: video whose links are replaced.
//   - links: new topic links with per-link confidence and review flags.
// Returns:
//   - error: non-nil if the transaction fails.
func (r *VideoRepository) ReplaceTopics(ctx context.Context, videoID int64, links []domain.VideoTopic) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.VideoTopic{}, "video_id = ?", videoID).Error; err != nil {
			return err
		}
		if len(links) == 0 {
			return nil
		}
		return tx.Create(&links).Error
	})
}

// CountBySource counts videos per source platform.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - map[string]int64: source name to record count.
//   - error: non-nil if the query fails.
func (r *VideoRepository) CountBySource(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Source string
		Count  int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&domain.Video{}).
		Select("source, count(*) as count").
		Group("source").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Source] = rw.Count
	}
	return counts, nil
}
