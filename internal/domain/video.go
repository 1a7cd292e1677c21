package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// VideoSource identifies the platform a video record came from.
type VideoSource string

const (
	SourceYouTube   VideoSource = "youtube"
	SourceInstagram VideoSource = "instagram"
)

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded string representation of the slice.
//   - error: non-nil if marshaling fails.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// Video represents a content record being enriched.
// Raw evidence fields (tags, description, existing transcript) feed the
// classifier; enrichment outputs (summary, key points, area assignment)
// are written back by the pipeline.
type Video struct {
	ID               int64       `gorm:"primaryKey" json:"id"`
	Source           VideoSource `gorm:"type:text;not null;index:idx_videos_source" json:"source"`
	ExternalID       string      `gorm:"type:text;not null;index:idx_videos_external,unique" json:"external_id"`
	URL              string      `gorm:"type:text;not null" json:"url"`
	Title            string      `gorm:"type:text" json:"title"`
	Author           string      `gorm:"type:text;index:idx_videos_author" json:"author"`
	Description      string      `gorm:"type:text" json:"description"`
	Tags             StringArray `gorm:"type:text" json:"tags"`
	Transcript       string      `gorm:"type:text" json:"transcript,omitempty"`
	HasTranscript    bool        `gorm:"default:false" json:"has_transcript"`
	TranscriptMethod string      `gorm:"type:text" json:"transcript_method,omitempty"`
	Summary          string      `gorm:"type:text" json:"summary,omitempty"`
	KeyPoints        StringArray `gorm:"type:text" json:"key_points"`
	UploadDate       *time.Time  `json:"upload_date,omitempty"`
	AreaID           *int64      `gorm:"index:idx_videos_area" json:"area_id,omitempty"`
	Confidence       float64     `gorm:"default:0" json:"classification_confidence"`
	NeedsReview      bool        `gorm:"default:false" json:"needs_review"`
	Method           string      `gorm:"type:text" json:"classification_method,omitempty"`
	CuratedChannelID *int64      `gorm:"index:idx_videos_channel" json:"curated_channel_id,omitempty"`
	AIProcessedAt    *time.Time  `json:"ai_processed_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Video.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Video) TableName() string {
	return "videos"
}
