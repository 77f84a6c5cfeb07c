package scoring

import (
	"math"
	"math/rand"
	"testing"
)

func TestAggregateThemeZeroMentionsOmitted(t *testing.T) {
	if _, ok := AggregateTheme(nil); ok {
		t.Fatal("zero mentions must not produce a theme aggregate")
	}
	if _, ok := AggregateTheme([]float64{}); ok {
		t.Fatal("empty impacts must not produce a theme aggregate")
	}
}

func TestAggregateThemeValues(t *testing.T) {
	agg, ok := AggregateTheme([]float64{0.5, -0.25, 0.25})
	if !ok {
		t.Fatal("expected aggregate")
	}
	// sum=0.5, abs sum=1.0
	if !almostEqual(agg.ThemeSentiment, 0.5) {
		t.Fatalf("sentiment = %v, want 0.5", agg.ThemeSentiment)
	}
	if !almostEqual(agg.Score010, 7.5) {
		t.Fatalf("score 0-10 = %v, want 7.5", agg.Score010)
	}
	if agg.Severity != 0 {
		t.Fatalf("severity = %v, want 0 for positive theme", agg.Severity)
	}
	if agg.MentionCount != 3 {
		t.Fatalf("mention count = %d, want 3", agg.MentionCount)
	}
}

func TestAggregateThemeAllZeroImpacts(t *testing.T) {
	agg, ok := AggregateTheme([]float64{0, 0})
	if !ok {
		t.Fatal("expected aggregate for nonzero mentions")
	}
	if agg.ThemeSentiment != 0 || !almostEqual(agg.Score010, 5.0) {
		t.Fatalf("all-zero impacts: sentiment=%v score=%v, want 0 and 5.0", agg.ThemeSentiment, agg.Score010)
	}
}

func TestSeverityRanking(t *testing.T) {
	// S_theme = -0.4, 9 mentions -> 0.4 * ln(10)
	got := Severity(-0.4, 9)
	want := 0.4 * math.Log(10)
	if !almostEqual(got, want) {
		t.Fatalf("Severity(-0.4, 9)=%v, want %v", got, want)
	}
	if got := Severity(0.2, 500); got != 0 {
		t.Fatalf("Severity(0.2, 500)=%v, want 0", got)
	}
	if got := Severity(0, 500); got != 0 {
		t.Fatalf("Severity(0, 500)=%v, want 0", got)
	}
}

func TestAggregateThemeOrderIndependent(t *testing.T) {
	impacts := []float64{0.9, -0.7, 0.3, -0.2, 0.05, -0.5, 0.61}
	base, ok := AggregateTheme(impacts)
	if !ok {
		t.Fatal("expected aggregate")
	}
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := make([]float64, len(impacts))
		copy(shuffled, impacts)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got, ok := AggregateTheme(shuffled)
		if !ok {
			t.Fatal("expected aggregate")
		}
		if math.Abs(got.ThemeSentiment-base.ThemeSentiment) > 1e-12 ||
			math.Abs(got.Score010-base.Score010) > 1e-12 ||
			math.Abs(got.Severity-base.Severity) > 1e-12 {
			t.Fatalf("permutation changed aggregate: %+v vs %+v", got, base)
		}
	}
}
