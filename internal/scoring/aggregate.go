package scoring

import "math"

// ThemeAggregate is the per-theme rollup of review impacts for one run.
type ThemeAggregate struct {
	ThemeSentiment float64 // [-1,1]
	Score010       float64 // 5 * (sentiment + 1)
	Severity       float64 // ranking key; 0 for non-negative themes
	MentionCount   int
}

// AggregateTheme combines the weighted impacts of every review mentioning a
// theme. Returns ok=false for zero mentions, in which case the theme is
// omitted from the run's output entirely. Order-independent: the result is
// built from commutative sums only.
func AggregateTheme(impacts []float64) (ThemeAggregate, bool) {
	if len(impacts) == 0 {
		return ThemeAggregate{}, false
	}
	var sum, absSum float64
	for _, w := range impacts {
		sum += w
		absSum += math.Abs(w)
	}
	sentiment := 0.0
	if absSum > 0 {
		sentiment = sum / absSum
	}
	return ThemeAggregate{
		ThemeSentiment: sentiment,
		Score010:       5.0 * (sentiment + 1.0),
		Severity:       Severity(sentiment, len(impacts)),
		MentionCount:   len(impacts),
	}, true
}

// Severity ranks negative-leaning themes by intensity and volume:
// |min(sentiment, 0)| * ln(1 + mentions). It is an unbounded sort key, not
// a score.
func Severity(sentiment float64, mentionCount int) float64 {
	if sentiment >= 0 {
		return 0
	}
	return math.Abs(sentiment) * math.Log(1.0+float64(mentionCount))
}
