package domain

import "time"

// Area represents a top-level content category videos are classified into.
type Area struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:text;not null;uniqueIndex:idx_areas_name" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Area.
func (Area) TableName() string {
	return "areas"
}

// Topic represents a sub-category scoped to a single area.
type Topic struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	AreaID    int64     `gorm:"not null;index:idx_topics_area" json:"area_id"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Topic.
func (Topic) TableName() string {
	return "topics"
}

// VideoTopic links a video to a topic with per-link classification metadata.
type VideoTopic struct {
	VideoID     int64     `gorm:"primaryKey" json:"video_id"`
	TopicID     int64     `gorm:"primaryKey" json:"topic_id"`
	Confidence  float64   `gorm:"default:0" json:"confidence"`
	NeedsReview bool      `gorm:"default:false" json:"needs_review"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for VideoTopic.
func (VideoTopic) TableName() string {
	return "video_topics"
}
