package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ScoreRun lifecycle. The row is inserted already RUNNING inside the
// concurrency-guard transaction; PENDING only exists before insert.
const (
	RunStatusRunning   = "RUNNING"
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"
)

// ScoreRun is one batch execution of the scoring pipeline for a tenant.
// Outputs are immutable once status is COMPLETED; re-scoring creates a new
// run.
type ScoreRun struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID           uuid.UUID  `gorm:"type:uuid;not null;index:idx_score_run_tenant,priority:1" json:"tenant_id"`
	PeriodStart        time.Time  `gorm:"column:period_start;not null" json:"period_start"`
	PeriodEnd          time.Time  `gorm:"column:period_end;not null" json:"period_end"`
	ReferenceTime      time.Time  `gorm:"column:reference_time;not null" json:"reference_time"`
	ParameterVersionID uuid.UUID  `gorm:"type:uuid;column:parameter_version_id;not null" json:"parameter_version_id"`
	RuleSetVersionID   uuid.UUID  `gorm:"type:uuid;column:rule_set_version_id;not null" json:"rule_set_version_id"`
	Status             string     `gorm:"column:status;not null;index" json:"status"` // RUNNING|COMPLETED|FAILED
	ErrorMessage       string     `gorm:"column:error_message" json:"error_message,omitempty"`
	ReviewsProcessed   int        `gorm:"column:reviews_processed;not null;default:0" json:"reviews_processed"`
	ThemesProcessed    int        `gorm:"column:themes_processed;not null;default:0" json:"themes_processed"`
	StartedAt          time.Time  `gorm:"column:started_at;not null;default:now()" json:"started_at"`
	CompletedAt        *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt          time.Time  `gorm:"not null;default:now();index:idx_score_run_tenant,priority:2" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (ScoreRun) TableName() string { return "score_run" }

// ReviewScore is the per-(review, run) weighted impact with the full factor
// breakdown kept for audit display. Written once, never mutated.
type ReviewScore struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RunID             uuid.UUID      `gorm:"type:uuid;column:run_id;not null;index:idx_review_score_run_review,unique,priority:1" json:"run_id"`
	ReviewID          uuid.UUID      `gorm:"type:uuid;column:review_id;not null;index:idx_review_score_run_review,unique,priority:2" json:"review_id"`
	BaseSentiment     float64        `gorm:"column:base_sentiment;not null" json:"base_sentiment"`
	TimeWeight        float64        `gorm:"column:time_weight;not null" json:"time_weight"`
	SourceWeight      float64        `gorm:"column:source_weight;not null" json:"source_weight"`
	EngagementWeight  float64        `gorm:"column:engagement_weight;not null" json:"engagement_weight"`
	ConfidenceWeight  float64        `gorm:"column:confidence_weight;not null" json:"confidence_weight"`
	WeightedImpact    float64        `gorm:"column:weighted_impact;not null" json:"weighted_impact"`
	ConfidenceReason  string         `gorm:"column:confidence_reason;not null" json:"confidence_reason"`
	SufficiencyLevel  string         `gorm:"column:sufficiency_level;not null" json:"sufficiency_level"`
	SufficiencyReason string         `gorm:"column:sufficiency_reason;not null" json:"sufficiency_reason"`
	Components        datatypes.JSON `gorm:"type:jsonb;column:components" json:"components,omitempty"`
	CreatedAt         time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (ReviewScore) TableName() string { return "review_score" }

// ThemeScore is the per-(theme, run) aggregate. Themes with zero mentions in
// the run get no row at all.
type ThemeScore struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RunID          uuid.UUID `gorm:"type:uuid;column:run_id;not null;index:idx_theme_score_run_theme,unique,priority:1" json:"run_id"`
	ThemeID        uuid.UUID `gorm:"type:uuid;column:theme_id;not null;index:idx_theme_score_run_theme,unique,priority:2" json:"theme_id"`
	ThemeSentiment float64   `gorm:"column:theme_sentiment;not null" json:"theme_sentiment"` // [-1,1]
	ThemeScore010  float64   `gorm:"column:theme_score_0_10;not null" json:"theme_score_0_10"`
	MentionCount   int       `gorm:"column:mention_count;not null" json:"mention_count"`
	Severity       float64   `gorm:"column:severity;not null" json:"severity"` // ranking key, 0 for non-negative themes
	CreatedAt      time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ThemeScore) TableName() string { return "theme_score" }
