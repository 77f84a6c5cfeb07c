package services

import (
	"math"
	"testing"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/scoring/config"
)

var testThresholds = config.FixScoreThresholds{High: 10, Medium: 5, Low: 2}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestEstimateFixDelta(t *testing.T) {
	pre := []float64{-1, -1, 0, -1, 1}  // avg -0.4
	post := []float64{1, 1, 0, 1, -1}   // avg 0.4
	delta, score, level := estimateFix(pre, post, testThresholds)
	if delta == nil || score == nil {
		t.Fatal("estimate should be present for non-empty windows")
	}
	if math.Abs(*delta-0.8) > 1e-9 {
		t.Fatalf("delta = %v, want 0.8", *delta)
	}
	if math.Abs(*score-4.0) > 1e-9 {
		t.Fatalf("score = %v, want 4.0", *score)
	}
	if level != domain.FixConfidenceMedium {
		t.Fatalf("level = %s, want MEDIUM for min count 5", level)
	}
}

func TestEstimateFixConfidenceLevels(t *testing.T) {
	cases := []struct {
		name      string
		pre, post int
		want      string
	}{
		{"high", 12, 10, domain.FixConfidenceHigh},
		{"medium at boundary", 5, 20, domain.FixConfidenceMedium},
		{"low", 2, 3, domain.FixConfidenceLow},
		{"below low", 1, 50, domain.FixConfidenceInsufficient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			delta, score, level := estimateFix(repeat(0.5, tc.pre), repeat(0.5, tc.post), testThresholds)
			if level != tc.want {
				t.Fatalf("level = %s, want %s", level, tc.want)
			}
			if delta == nil || score == nil {
				t.Fatal("estimate should be present even at INSUFFICIENT counts above zero")
			}
		})
	}
}

func TestEstimateFixEmptyWindow(t *testing.T) {
	for _, tc := range []struct {
		name      string
		pre, post []float64
	}{
		{"empty pre", nil, repeat(1, 8)},
		{"empty post", repeat(-1, 8), nil},
		{"both empty", nil, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			delta, score, level := estimateFix(tc.pre, tc.post, testThresholds)
			if delta != nil || score != nil {
				t.Fatalf("empty window estimate = (%v, %v), want nils", delta, score)
			}
			if level != domain.FixConfidenceInsufficient {
				t.Fatalf("level = %s, want INSUFFICIENT", level)
			}
		})
	}
}

func TestSignedSentiment(t *testing.T) {
	cases := map[string]float64{
		domain.SentimentPositive: 1,
		domain.SentimentNegative: -1,
		domain.SentimentNeutral:  0,
		"SOMETHING_ELSE":         0,
	}
	for label, want := range cases {
		if got := signedSentiment(label); got != want {
			t.Fatalf("signedSentiment(%s) = %v, want %v", label, got, want)
		}
	}
}
