package config

import (
	"encoding/json"
	"fmt"

	"github.com/fixloop/fixloop-backend/internal/domain"
)

// Condition kinds. Each kind is a closed variant with its own operand
// fields; there is no generic expression language.
const (
	CondKindNumeric = "numeric"
	CondKindSet     = "set"
	CondKindString  = "string"
)

// Numeric operators.
const (
	OpGT      = "gt"
	OpGTE     = "gte"
	OpLT      = "lt"
	OpLTE     = "lte"
	OpEQ      = "eq"
	OpNEQ     = "neq"
	OpBetween = "between"
)

// Set operators.
const (
	OpIn    = "in"
	OpNotIn = "not_in"
)

// String operators.
const (
	OpEquals   = "equals"
	OpContains = "contains"
	OpPrefix   = "prefix"
)

// Sufficiency verdict levels.
const (
	SufficiencyHigh         = "HIGH"
	SufficiencyMedium       = "MEDIUM"
	SufficiencyLow          = "LOW"
	SufficiencyInsufficient = "INSUFFICIENT"
)

// Condition is one predicate against the per-review fact set. Which operand
// fields apply depends on Kind.
type Condition struct {
	Fact string `json:"fact"`
	Kind string `json:"kind"` // numeric|set|string
	Op   string `json:"op"`

	Value     float64  `json:"value,omitempty"`      // numeric
	ValueHigh float64  `json:"value_high,omitempty"` // numeric, upper bound for between
	Values    []string `json:"values,omitempty"`     // set
	Match     string   `json:"match,omitempty"`      // string
}

// ConfidenceOutcome is the result of a matching confidence rule.
type ConfidenceOutcome struct {
	Confidence float64 `json:"confidence"`
	ReasonCode string  `json:"reason_code"`
}

// SufficiencyOutcome is the result of a matching sufficiency rule.
type SufficiencyOutcome struct {
	Level      string `json:"level"`
	ReasonCode string `json:"reason_code"`
}

// ConfidenceRule discounts unreliable reviews. Higher priority evaluates
// first; the first matching rule wins.
type ConfidenceRule struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Priority   int               `json:"priority"`
	Conditions []Condition       `json:"conditions"`
	Outcome    ConfidenceOutcome `json:"outcome"`
}

// SufficiencyRule annotates data quality. Informational only; it never gates
// the scoring formula.
type SufficiencyRule struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Priority   int                `json:"priority"`
	Conditions []Condition        `json:"conditions"`
	Outcome    SufficiencyOutcome `json:"outcome"`
}

// RuleSetDefaults holds the outcomes returned when no rule matches. Defaults
// are payload data, not code.
type RuleSetDefaults struct {
	Confidence  ConfidenceOutcome  `json:"confidence"`
	Sufficiency SufficiencyOutcome `json:"sufficiency"`
}

// RuleSet is the versioned payload of a RuleSetVersion.
type RuleSet struct {
	ConfidenceRules  []ConfidenceRule  `json:"confidence_rules"`
	SufficiencyRules []SufficiencyRule `json:"sufficiency_rules"`
	Defaults         RuleSetDefaults   `json:"defaults"`
}

// ParseRuleSet decodes and validates a rule-set payload.
func ParseRuleSet(payload []byte) (*RuleSet, error) {
	const op = "config.ParseRuleSet"
	var rs RuleSet
	if err := json.Unmarshal(payload, &rs); err != nil {
		return nil, domain.NewError(domain.CodeValidation, op, "malformed rule set payload", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// Validate checks rule ids, condition shapes and outcome ranges.
func (rs *RuleSet) Validate() error {
	const op = "config.RuleSet.Validate"
	seen := map[string]bool{}
	for i, r := range rs.ConfidenceRules {
		if r.ID == "" {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("confidence_rules[%d] missing id", i), nil)
		}
		if seen["c:"+r.ID] {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("duplicate confidence rule id %q", r.ID), nil)
		}
		seen["c:"+r.ID] = true
		if len(r.Conditions) == 0 {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("confidence rule %q has no conditions", r.ID), nil)
		}
		for j, c := range r.Conditions {
			if err := validateCondition(c); err != nil {
				return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("confidence rule %q condition %d: %v", r.ID, j, err), err)
			}
		}
		if r.Outcome.Confidence < 0 || r.Outcome.Confidence > 2 {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("confidence rule %q outcome confidence %v outside [0,2]", r.ID, r.Outcome.Confidence), nil)
		}
		if r.Outcome.ReasonCode == "" {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("confidence rule %q missing outcome reason_code", r.ID), nil)
		}
	}
	for i, r := range rs.SufficiencyRules {
		if r.ID == "" {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("sufficiency_rules[%d] missing id", i), nil)
		}
		if seen["s:"+r.ID] {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("duplicate sufficiency rule id %q", r.ID), nil)
		}
		seen["s:"+r.ID] = true
		if len(r.Conditions) == 0 {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("sufficiency rule %q has no conditions", r.ID), nil)
		}
		for j, c := range r.Conditions {
			if err := validateCondition(c); err != nil {
				return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("sufficiency rule %q condition %d: %v", r.ID, j, err), err)
			}
		}
		if !validSufficiencyLevel(r.Outcome.Level) {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("sufficiency rule %q outcome level %q unknown", r.ID, r.Outcome.Level), nil)
		}
	}
	if rs.Defaults.Confidence.ReasonCode == "" {
		return domain.NewError(domain.CodeValidation, op, "defaults.confidence.reason_code required", nil)
	}
	if rs.Defaults.Confidence.Confidence < 0 || rs.Defaults.Confidence.Confidence > 2 {
		return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("defaults.confidence.confidence %v outside [0,2]", rs.Defaults.Confidence.Confidence), nil)
	}
	if !validSufficiencyLevel(rs.Defaults.Sufficiency.Level) {
		return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("defaults.sufficiency.level %q unknown", rs.Defaults.Sufficiency.Level), nil)
	}
	return nil
}

func validateCondition(c Condition) error {
	if c.Fact == "" {
		return fmt.Errorf("missing fact")
	}
	switch c.Kind {
	case CondKindNumeric:
		switch c.Op {
		case OpGT, OpGTE, OpLT, OpLTE, OpEQ, OpNEQ:
		case OpBetween:
			if c.ValueHigh < c.Value {
				return fmt.Errorf("between bounds inverted: [%v,%v]", c.Value, c.ValueHigh)
			}
		default:
			return fmt.Errorf("unknown numeric op %q", c.Op)
		}
	case CondKindSet:
		if c.Op != OpIn && c.Op != OpNotIn {
			return fmt.Errorf("unknown set op %q", c.Op)
		}
		if len(c.Values) == 0 {
			return fmt.Errorf("set condition requires values")
		}
	case CondKindString:
		if c.Op != OpEquals && c.Op != OpContains && c.Op != OpPrefix {
			return fmt.Errorf("unknown string op %q", c.Op)
		}
	default:
		return fmt.Errorf("unknown condition kind %q", c.Kind)
	}
	return nil
}

func validSufficiencyLevel(level string) bool {
	switch level {
	case SufficiencyHigh, SufficiencyMedium, SufficiencyLow, SufficiencyInsufficient:
		return true
	}
	return false
}
