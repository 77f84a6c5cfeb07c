package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TaskStatusOpen       = "OPEN"
	TaskStatusInProgress = "IN_PROGRESS"
	TaskStatusCompleted  = "COMPLETED"
	TaskStatusCancelled  = "CANCELLED"
)

// FixScore confidence labels, derived from min(pre, post) review counts.
const (
	FixConfidenceHigh         = "HIGH"
	FixConfidenceMedium       = "MEDIUM"
	FixConfidenceLow          = "LOW"
	FixConfidenceInsufficient = "INSUFFICIENT"
)

// Task is a remediation action linked to a theme. Completing it triggers the
// FixScore estimator.
type Task struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ThemeID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"theme_id"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Description string         `gorm:"column:description;type:text" json:"description"`
	Status      string         `gorm:"column:status;not null;index" json:"status"` // OPEN|IN_PROGRESS|COMPLETED|CANCELLED
	CompletedAt *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Task) TableName() string { return "task" }

// FixScore is the before/after sentiment-shift estimate for a completed
// task. One row per task; recomputation replaces the prior row. DeltaS and
// Score are null when either window has zero reviews.
type FixScore struct {
	ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TaskID           uuid.UUID `gorm:"type:uuid;column:task_id;not null;uniqueIndex" json:"task_id"`
	ThemeID          uuid.UUID `gorm:"type:uuid;column:theme_id;not null;index" json:"theme_id"`
	DeltaS           *float64  `gorm:"column:delta_s" json:"delta_s,omitempty"`
	Score            *float64  `gorm:"column:fix_score" json:"fix_score,omitempty"`
	ConfidenceLevel  string    `gorm:"column:confidence_level;not null" json:"confidence_level"` // HIGH|MEDIUM|LOW|INSUFFICIENT
	ReviewCountPre   int       `gorm:"column:review_count_pre;not null" json:"review_count_pre"`
	ReviewCountPost  int       `gorm:"column:review_count_post;not null" json:"review_count_post"`
	MeasurementStart time.Time `gorm:"column:measurement_start;not null" json:"measurement_start"`
	MeasurementEnd   time.Time `gorm:"column:measurement_end;not null" json:"measurement_end"`
	ComputedAt       time.Time `gorm:"column:computed_at;not null" json:"computed_at"`
	CreatedAt        time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (FixScore) TableName() string { return "fix_score" }
