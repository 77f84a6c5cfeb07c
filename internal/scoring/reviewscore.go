package scoring

import (
	"math"
	"time"

	"github.com/fixloop/fixloop-backend/internal/scoring/config"
	"github.com/fixloop/fixloop-backend/internal/scoring/rules"
)

// ReviewInput carries the per-review signals the scorer consumes. The
// upstream sentiment signal and engagement counters come straight off the
// review row.
type ReviewInput struct {
	SentimentScore      float64 // [-1,1]
	Rating              *int    // 1..5 when present
	ReviewDate          time.Time
	Source              string
	LikesCount          int
	RepliesCount        int
	HelpfulCount        int
	TextLength          int
	DuplicateSimilarity float64 // 0 unless upstream supplies one
}

// Breakdown is the full factor decomposition of one review's weighted
// impact, persisted per run for audit display.
type Breakdown struct {
	BaseSentiment     float64 `json:"base_sentiment"`
	TimeWeight        float64 `json:"time_weight"`
	SourceWeight      float64 `json:"source_weight"`
	EngagementWeight  float64 `json:"engagement_weight"`
	ConfidenceWeight  float64 `json:"confidence_weight"`
	WeightedImpact    float64 `json:"weighted_impact"`
	AgeDays           float64 `json:"age_days"`
	ConfidenceReason  string  `json:"confidence_reason"`
	SufficiencyLevel  string  `json:"sufficiency_level"`
	SufficiencyReason string  `json:"sufficiency_reason"`
}

// ScoreReview computes one review's weighted impact under the active
// parameter set and rule set. reference is the run's reference time; using
// it instead of wall-clock now keeps runs replayable.
func ScoreReview(params *config.ScoringParameters, ruleSet *config.RuleSet, in ReviewInput, reference time.Time) Breakdown {
	ageDays := reference.Sub(in.ReviewDate).Hours() / 24.0
	if ageDays < 0 {
		ageDays = 0
	}

	facts := BuildFacts(in, ageDays)
	conf := rules.EvaluateConfidence(ruleSet, facts)
	suff := rules.EvaluateSufficiency(ruleSet, facts)

	base := BaseSentiment(params, in.SentimentScore, in.Rating)
	timeW := TimeWeight(ageDays, params.TimeDecay.HalfLifeDays)
	sourceW := params.SourceWeight(in.Source)
	engageW := EngagementWeight(params, in.Source, in.LikesCount, in.RepliesCount, in.HelpfulCount)
	confW := confidenceWeight(params, conf)

	return Breakdown{
		BaseSentiment:     base,
		TimeWeight:        timeW,
		SourceWeight:      sourceW,
		EngagementWeight:  engageW,
		ConfidenceWeight:  confW,
		WeightedImpact:    base * timeW * sourceW * engageW * confW,
		AgeDays:           ageDays,
		ConfidenceReason:  conf.ReasonCode,
		SufficiencyLevel:  suff.Level,
		SufficiencyReason: suff.ReasonCode,
	}
}

// BaseSentiment blends the upstream sentiment signal with the star rating
// when the blend mode is enabled. Ratings map linearly from [1,5] to [-1,1].
func BaseSentiment(params *config.ScoringParameters, sentimentScore float64, rating *int) float64 {
	if !params.Sentiment.UseStarRating || rating == nil {
		return sentimentScore
	}
	ratingSentiment := (float64(*rating) - 3.0) / 2.0
	return (sentimentScore + ratingSentiment) / 2.0
}

// TimeWeight is the exponential half-life decay: exactly 0.5 at one
// half-life of age, 1.0 at age zero.
func TimeWeight(ageDays, halfLifeDays float64) float64 {
	if halfLifeDays <= 0 {
		return 1.0
	}
	return math.Exp(-math.Ln2 * ageDays / halfLifeDays)
}

// EngagementWeight boosts reviews with engagement, capped per source and
// fixed at 1.0 for sources with engagement disabled.
func EngagementWeight(params *config.ScoringParameters, source string, likes, replies, helpful int) float64 {
	se := params.EngagementFor(source)
	if !se.Enabled {
		return 1.0
	}
	raw := float64(likes) + 0.5*float64(replies) + 0.25*float64(helpful)
	w := 1.0 + params.Engagement.Factor*math.Log1p(raw)
	if w > se.Cap {
		w = se.Cap
	}
	return w
}

// confidenceWeight maps the rule outcome to a multiplier. The parameter
// set's multiplier table keyed by reason code wins when it has an entry;
// otherwise the outcome's own confidence value applies, so a rule set can
// introduce new reason codes before the parameter table learns them.
func confidenceWeight(params *config.ScoringParameters, outcome config.ConfidenceOutcome) float64 {
	if _, ok := params.ConfidenceMultipliers[outcome.ReasonCode]; ok {
		return params.ConfidenceMultiplier(outcome.ReasonCode)
	}
	return outcome.Confidence
}

// BuildFacts assembles the rule-evaluator fact set for one review.
func BuildFacts(in ReviewInput, ageDays float64) rules.Facts {
	numbers := map[string]float64{
		rules.FactTextLength:          float64(in.TextLength),
		rules.FactLikesCount:          float64(in.LikesCount),
		rules.FactRepliesCount:        float64(in.RepliesCount),
		rules.FactHelpfulCount:        float64(in.HelpfulCount),
		rules.FactAgeDays:             ageDays,
		rules.FactSentimentScore:      in.SentimentScore,
		rules.FactDuplicateSimilarity: in.DuplicateSimilarity,
	}
	if in.Rating != nil {
		numbers[rules.FactRating] = float64(*in.Rating)
	}
	hasText := 0.0
	if in.TextLength > 0 {
		hasText = 1.0
	}
	numbers[rules.FactHasText] = hasText
	return rules.Facts{
		Numbers: numbers,
		Strings: map[string]string{
			rules.FactSource: in.Source,
		},
	}
}
