package config

import (
	"encoding/json"
	"fmt"

	"github.com/fixloop/fixloop-backend/internal/domain"
)

// ScoringParameters is the versioned numeric configuration driving the
// review scorer, theme aggregator and FixScore estimator. It is stored as
// the jsonb payload of a ParameterSetVersion and is immutable once the
// version leaves DRAFT.
type ScoringParameters struct {
	Sentiment             SentimentParams    `json:"sentiment"`
	TimeDecay             TimeDecayParams    `json:"time_decay"`
	SourceWeights         SourceWeightParams `json:"source_weights"`
	Engagement            EngagementParams   `json:"engagement"`
	ConfidenceMultipliers map[string]float64 `json:"confidence_multipliers"`
	FixScore              FixScoreParams     `json:"fix_score"`
}

type SentimentParams struct {
	// UseStarRating blends the star rating into base sentiment as the mean
	// of the upstream signal and the rating mapped from [1,5] to [-1,1].
	UseStarRating bool `json:"use_star_rating"`
}

type TimeDecayParams struct {
	HalfLifeDays float64 `json:"half_life_days"`
}

type SourceWeightParams struct {
	MinWeight float64            `json:"min_weight"`
	MaxWeight float64            `json:"max_weight"`
	Weights   map[string]float64 `json:"weights"`
}

type EngagementParams struct {
	// Factor scales log1p(likes + 0.5*replies + 0.25*helpful).
	Factor    float64                     `json:"factor"`
	PerSource map[string]SourceEngagement `json:"per_source"`
}

type SourceEngagement struct {
	Enabled bool    `json:"enabled"`
	Cap     float64 `json:"cap"`
}

type FixScoreParams struct {
	PreWindowDays        int                `json:"pre_window_days"`
	PostWindowDays       int                `json:"post_window_days"`
	ConfidenceThresholds FixScoreThresholds `json:"confidence_thresholds"`
}

type FixScoreThresholds struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// SourceWeight returns the clamped weight for a source, defaulting to 1.0
// when the source has no table entry.
func (p *ScoringParameters) SourceWeight(source string) float64 {
	w, ok := p.SourceWeights.Weights[source]
	if !ok {
		w = 1.0
	}
	if w < p.SourceWeights.MinWeight {
		w = p.SourceWeights.MinWeight
	}
	if w > p.SourceWeights.MaxWeight {
		w = p.SourceWeights.MaxWeight
	}
	return w
}

// EngagementFor returns the engagement toggle and cap for a source.
// Sources absent from the table have engagement disabled.
func (p *ScoringParameters) EngagementFor(source string) SourceEngagement {
	se, ok := p.Engagement.PerSource[source]
	if !ok {
		return SourceEngagement{Enabled: false, Cap: 1.0}
	}
	return se
}

// ConfidenceMultiplier resolves the weight multiplier for a rule outcome's
// reason code. Unknown reason codes fall back to 1.0 so a rule-set edit
// cannot zero out scoring by accident.
func (p *ScoringParameters) ConfidenceMultiplier(reasonCode string) float64 {
	m, ok := p.ConfidenceMultipliers[reasonCode]
	if !ok {
		return 1.0
	}
	return m
}

// ParseParameters decodes and validates a parameter payload.
func ParseParameters(payload []byte) (*ScoringParameters, error) {
	const op = "config.ParseParameters"
	var p ScoringParameters
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, domain.NewError(domain.CodeValidation, op, "malformed parameter payload", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate enforces the range constraints a DRAFT must satisfy before it can
// be saved or activated.
func (p *ScoringParameters) Validate() error {
	const op = "config.ScoringParameters.Validate"
	if p.TimeDecay.HalfLifeDays <= 0 {
		return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("time_decay.half_life_days must be > 0, got %v", p.TimeDecay.HalfLifeDays), nil)
	}
	sw := p.SourceWeights
	if sw.MinWeight <= 0 || sw.MaxWeight < sw.MinWeight {
		return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("source_weights bounds invalid: min=%v max=%v", sw.MinWeight, sw.MaxWeight), nil)
	}
	for source, w := range sw.Weights {
		if w < sw.MinWeight || w > sw.MaxWeight {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("source_weights.weights.%s=%v outside [%v,%v]", source, w, sw.MinWeight, sw.MaxWeight), nil)
		}
	}
	if p.Engagement.Factor < 0 {
		return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("engagement.factor must be >= 0, got %v", p.Engagement.Factor), nil)
	}
	for source, se := range p.Engagement.PerSource {
		if se.Cap < 1 {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("engagement.per_source.%s.cap must be >= 1, got %v", source, se.Cap), nil)
		}
	}
	for code, m := range p.ConfidenceMultipliers {
		if m < 0 || m > 2 {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("confidence_multipliers.%s=%v outside [0,2]", code, m), nil)
		}
	}
	fs := p.FixScore
	if fs.PreWindowDays <= 0 || fs.PostWindowDays <= 0 {
		return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("fix_score windows must be > 0, got pre=%d post=%d", fs.PreWindowDays, fs.PostWindowDays), nil)
	}
	th := fs.ConfidenceThresholds
	if !(th.High > th.Medium && th.Medium > th.Low && th.Low >= 1) {
		return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("fix_score.confidence_thresholds must satisfy high > medium > low >= 1, got %+v", th), nil)
	}
	return nil
}
