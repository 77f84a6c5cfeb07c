package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Version lifecycle. Exactly one ACTIVE version may exist per lineage.
const (
	VersionStatusDraft    = "DRAFT"
	VersionStatusActive   = "ACTIVE"
	VersionStatusArchived = "ARCHIVED"
)

// Config categories exposed by the configuration store.
const (
	ConfigCategoryParameters = "parameters"
	ConfigCategoryRules      = "rules"
)

// DefaultLineage is the single lineage used until per-tenant lineages exist.
const DefaultLineage = "scoring"

// ParameterSetVersion is an immutable snapshot of scoring parameters. The
// payload is mutable only while status is DRAFT.
type ParameterSetVersion struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Lineage       string         `gorm:"column:lineage;not null;index:idx_param_lineage_version,unique,priority:1" json:"lineage"`
	VersionNumber int            `gorm:"column:version_number;not null;index:idx_param_lineage_version,unique,priority:2" json:"version_number"`
	Name          string         `gorm:"column:name;not null" json:"name"`
	Payload       datatypes.JSON `gorm:"type:jsonb;column:payload;not null" json:"payload"`
	Status        string         `gorm:"column:status;not null;index" json:"status"` // DRAFT|ACTIVE|ARCHIVED
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	ActivatedAt   *time.Time     `gorm:"column:activated_at" json:"activated_at,omitempty"`
}

func (ParameterSetVersion) TableName() string { return "parameter_set_version" }

// RuleSetVersion is an immutable snapshot of the confidence and sufficiency
// rule lists plus their default outcomes.
type RuleSetVersion struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Lineage       string         `gorm:"column:lineage;not null;index:idx_ruleset_lineage_version,unique,priority:1" json:"lineage"`
	VersionNumber int            `gorm:"column:version_number;not null;index:idx_ruleset_lineage_version,unique,priority:2" json:"version_number"`
	Name          string         `gorm:"column:name;not null" json:"name"`
	Payload       datatypes.JSON `gorm:"type:jsonb;column:payload;not null" json:"payload"`
	Status        string         `gorm:"column:status;not null;index" json:"status"` // DRAFT|ACTIVE|ARCHIVED
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	ActivatedAt   *time.Time     `gorm:"column:activated_at" json:"activated_at,omitempty"`
}

func (RuleSetVersion) TableName() string { return "rule_set_version" }
