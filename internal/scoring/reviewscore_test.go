package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/fixloop/fixloop-backend/internal/scoring/config"
)

func testParams() *config.ScoringParameters {
	return &config.ScoringParameters{
		Sentiment: config.SentimentParams{UseStarRating: false},
		TimeDecay: config.TimeDecayParams{HalfLifeDays: 60},
		SourceWeights: config.SourceWeightParams{
			MinWeight: 0.5,
			MaxWeight: 1.5,
			Weights:   map[string]float64{"google": 1.2, "internal": 0.6},
		},
		Engagement: config.EngagementParams{
			Factor: 0.35,
			PerSource: map[string]config.SourceEngagement{
				"google": {Enabled: true, Cap: 1.5},
			},
		},
		ConfidenceMultipliers: map[string]float64{
			"NO_RULE_MATCHED":   1.0,
			"SHORT_TEXT":        0.6,
			"DUPLICATE_SUSPECT": 0.3,
		},
		FixScore: config.FixScoreParams{
			PreWindowDays:        90,
			PostWindowDays:       60,
			ConfidenceThresholds: config.FixScoreThresholds{High: 10, Medium: 5, Low: 2},
		},
	}
}

func testRuleSet() *config.RuleSet {
	return &config.RuleSet{
		ConfidenceRules: []config.ConfidenceRule{
			{
				ID:       "short-text",
				Name:     "Short text",
				Priority: 50,
				Conditions: []config.Condition{
					{Fact: "text_length", Kind: config.CondKindNumeric, Op: config.OpLT, Value: 20},
				},
				Outcome: config.ConfidenceOutcome{Confidence: 0.6, ReasonCode: "SHORT_TEXT"},
			},
		},
		Defaults: config.RuleSetDefaults{
			Confidence:  config.ConfidenceOutcome{Confidence: 1.0, ReasonCode: "NO_RULE_MATCHED"},
			Sufficiency: config.SufficiencyOutcome{Level: config.SufficiencyHigh, ReasonCode: "DEFAULT"},
		},
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTimeWeightHalfLife(t *testing.T) {
	if got := TimeWeight(0, 60); !almostEqual(got, 1.0) {
		t.Fatalf("TimeWeight(0, 60)=%v, want 1.0", got)
	}
	if got := TimeWeight(60, 60); !almostEqual(got, 0.5) {
		t.Fatalf("TimeWeight(60, 60)=%v, want 0.5", got)
	}
	if got := TimeWeight(120, 60); !almostEqual(got, 0.25) {
		t.Fatalf("TimeWeight(120, 60)=%v, want 0.25", got)
	}
}

func TestScoreReviewAgeFlooredAtZero(t *testing.T) {
	params := testParams()
	reference := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	in := ReviewInput{
		SentimentScore: 0.8,
		ReviewDate:     reference.Add(48 * time.Hour), // future-dated review
		Source:         "google",
		TextLength:     120,
	}
	got := ScoreReview(params, testRuleSet(), in, reference)
	if !almostEqual(got.TimeWeight, 1.0) {
		t.Fatalf("future review time weight = %v, want 1.0", got.TimeWeight)
	}
	if got.AgeDays != 0 {
		t.Fatalf("future review age days = %v, want 0", got.AgeDays)
	}
}

func TestSourceWeightClamped(t *testing.T) {
	params := testParams()
	params.SourceWeights.Weights["yelp"] = 3.0   // above max
	params.SourceWeights.Weights["spamco"] = 0.1 // below min
	cases := []struct {
		source string
		want   float64
	}{
		{"google", 1.2},
		{"yelp", 1.5},
		{"spamco", 0.5},
		{"unknown", 1.0},
	}
	for _, tc := range cases {
		if got := params.SourceWeight(tc.source); !almostEqual(got, tc.want) {
			t.Fatalf("SourceWeight(%q)=%v, want %v", tc.source, got, tc.want)
		}
	}
}

func TestEngagementWeight(t *testing.T) {
	params := testParams()

	// Disabled source always 1.0 regardless of counters.
	if got := EngagementWeight(params, "yelp", 500, 500, 500); !almostEqual(got, 1.0) {
		t.Fatalf("disabled source engagement = %v, want 1.0", got)
	}
	// Zero engagement on an enabled source is the neutral 1.0.
	if got := EngagementWeight(params, "google", 0, 0, 0); !almostEqual(got, 1.0) {
		t.Fatalf("zero engagement = %v, want 1.0", got)
	}
	// Large counters hit the cap.
	if got := EngagementWeight(params, "google", 10000, 10000, 10000); !almostEqual(got, 1.5) {
		t.Fatalf("capped engagement = %v, want 1.5", got)
	}
	// Mid-range stays below the cap and above neutral.
	got := EngagementWeight(params, "google", 2, 1, 0)
	want := 1.0 + 0.35*math.Log1p(2.5)
	if !almostEqual(got, want) {
		t.Fatalf("engagement(2,1,0)=%v, want %v", got, want)
	}
}

func TestBaseSentimentStarBlending(t *testing.T) {
	params := testParams()
	five := 5
	one := 1

	// Blending off: rating ignored.
	if got := BaseSentiment(params, 0.4, &five); !almostEqual(got, 0.4) {
		t.Fatalf("blend off: got %v, want 0.4", got)
	}

	params.Sentiment.UseStarRating = true
	if got := BaseSentiment(params, 0.4, &five); !almostEqual(got, 0.7) {
		t.Fatalf("blend(0.4, 5 stars)=%v, want 0.7", got)
	}
	if got := BaseSentiment(params, 0.0, &one); !almostEqual(got, -0.5) {
		t.Fatalf("blend(0.0, 1 star)=%v, want -0.5", got)
	}
	// No rating available: signal passes through even with blending on.
	if got := BaseSentiment(params, -0.2, nil); !almostEqual(got, -0.2) {
		t.Fatalf("blend with nil rating = %v, want -0.2", got)
	}
}

func TestWeightedImpactSignMatchesBaseSentiment(t *testing.T) {
	params := testParams()
	params.Sentiment.UseStarRating = true
	ruleSet := testRuleSet()
	reference := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	ratings := []int{1, 2, 3, 4, 5}
	sentiments := []float64{-1, -0.5, -0.1, 0.1, 0.5, 1}
	for _, r := range ratings {
		for _, s := range sentiments {
			r := r
			in := ReviewInput{
				SentimentScore: s,
				Rating:         &r,
				ReviewDate:     reference.AddDate(0, 0, -30),
				Source:         "google",
				LikesCount:     3,
				TextLength:     10, // trips the short-text rule
			}
			got := ScoreReview(params, ruleSet, in, reference)
			if got.BaseSentiment == 0 {
				continue
			}
			if math.Signbit(got.WeightedImpact) != math.Signbit(got.BaseSentiment) {
				t.Fatalf("sign mismatch: base=%v impact=%v (rating=%d sentiment=%v)", got.BaseSentiment, got.WeightedImpact, r, s)
			}
		}
	}
}

func TestScoreReviewConfidenceFromRules(t *testing.T) {
	params := testParams()
	ruleSet := testRuleSet()
	reference := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	short := ReviewInput{
		SentimentScore: 0.5,
		ReviewDate:     reference.AddDate(0, 0, -10),
		Source:         "google",
		TextLength:     5,
	}
	got := ScoreReview(params, ruleSet, short, reference)
	if got.ConfidenceReason != "SHORT_TEXT" {
		t.Fatalf("confidence reason = %q, want SHORT_TEXT", got.ConfidenceReason)
	}
	if !almostEqual(got.ConfidenceWeight, 0.6) {
		t.Fatalf("confidence weight = %v, want 0.6 (from multiplier table)", got.ConfidenceWeight)
	}
	if got.SufficiencyLevel != config.SufficiencyHigh {
		t.Fatalf("sufficiency level = %q, want HIGH default", got.SufficiencyLevel)
	}

	long := short
	long.TextLength = 300
	got = ScoreReview(params, ruleSet, long, reference)
	if got.ConfidenceReason != "NO_RULE_MATCHED" {
		t.Fatalf("confidence reason = %q, want NO_RULE_MATCHED", got.ConfidenceReason)
	}
	if !almostEqual(got.ConfidenceWeight, 1.0) {
		t.Fatalf("confidence weight = %v, want 1.0", got.ConfidenceWeight)
	}
}

func TestScoreReviewUnknownReasonFallsBackToOutcome(t *testing.T) {
	params := testParams()
	ruleSet := testRuleSet()
	ruleSet.ConfidenceRules = append(ruleSet.ConfidenceRules, config.ConfidenceRule{
		ID:       "brand-new",
		Priority: 100,
		Conditions: []config.Condition{
			{Fact: "likes_count", Kind: config.CondKindNumeric, Op: config.OpGTE, Value: 0},
		},
		Outcome: config.ConfidenceOutcome{Confidence: 0.45, ReasonCode: "NOT_IN_TABLE"},
	})
	reference := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	in := ReviewInput{SentimentScore: 0.5, ReviewDate: reference, Source: "google", TextLength: 100}
	got := ScoreReview(params, ruleSet, in, reference)
	if !almostEqual(got.ConfidenceWeight, 0.45) {
		t.Fatalf("confidence weight = %v, want outcome confidence 0.45", got.ConfidenceWeight)
	}
}
