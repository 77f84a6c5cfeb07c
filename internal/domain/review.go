package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review source platforms. receipt_qr covers in-store QR feedback cards.
const (
	SourceGoogle      = "google"
	SourceYelp        = "yelp"
	SourceTripadvisor = "tripadvisor"
	SourceFacebook    = "facebook"
	SourceReceiptQR   = "receipt_qr"
	SourceInternal    = "internal"
)

// Per-mention sentiment labels assigned upstream.
const (
	SentimentPositive = "POSITIVE"
	SentimentNeutral  = "NEUTRAL"
	SentimentNegative = "NEGATIVE"
)

// Review is an ingested customer review. Rows are produced by the ingestion
// connectors and are read-only to the scoring core.
type Review struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_review_tenant_date,priority:1" json:"tenant_id"`
	LocationID     *uuid.UUID     `gorm:"type:uuid;column:location_id;index" json:"location_id,omitempty"`
	SourceType     string         `gorm:"column:source_type;not null;index" json:"source_type"` // google|yelp|tripadvisor|facebook|receipt_qr|internal
	ExternalID     string         `gorm:"column:external_id;index" json:"external_id"`
	Content        string         `gorm:"column:content;type:text" json:"content"`
	Rating         *int           `gorm:"column:rating" json:"rating,omitempty"` // 1..5 when the source has stars
	ReviewDate     time.Time      `gorm:"column:review_date;not null;index:idx_review_tenant_date,priority:2" json:"review_date"`
	AuthorName     string         `gorm:"column:author_name" json:"author_name,omitempty"`
	LikesCount     int            `gorm:"column:likes_count;not null;default:0" json:"likes_count"`
	RepliesCount   int            `gorm:"column:replies_count;not null;default:0" json:"replies_count"`
	HelpfulCount   int            `gorm:"column:helpful_count;not null;default:0" json:"helpful_count"`
	TextLength     int            `gorm:"column:text_length;not null;default:0" json:"text_length"`
	SentimentScore float64        `gorm:"column:sentiment_score;not null;default:0" json:"sentiment_score"` // [-1,1] upstream signal
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Review) TableName() string { return "review" }

// Theme is a topical category reviews get tagged with (e.g. SERVICE).
type Theme struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;index:idx_theme_tenant_key,unique,priority:1" json:"tenant_id"`
	Key       string         `gorm:"column:key;not null;index:idx_theme_tenant_key,unique,priority:2" json:"key"` // SERVICE|FOOD|CLEANLINESS|VALUE|AMBIANCE|WAIT_TIME|custom
	Name      string         `gorm:"column:name;not null" json:"name"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Theme) TableName() string { return "theme" }

// ReviewTheme links a review to a theme with the upstream-assigned mention
// sentiment. Consumed, never produced, by the scoring core.
type ReviewTheme struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ReviewID        uuid.UUID `gorm:"type:uuid;not null;index:idx_review_theme,unique,priority:1" json:"review_id"`
	ThemeID         uuid.UUID `gorm:"type:uuid;not null;index:idx_review_theme,unique,priority:2" json:"theme_id"`
	Sentiment       string    `gorm:"column:sentiment;not null" json:"sentiment"` // POSITIVE|NEUTRAL|NEGATIVE
	ConfidenceScore float64   `gorm:"column:confidence_score;not null;default:0" json:"confidence_score"`
	CreatedAt       time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ReviewTheme) TableName() string { return "review_theme" }
