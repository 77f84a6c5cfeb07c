package rules

import (
	"sort"
	"strings"

	"github.com/fixloop/fixloop-backend/internal/scoring/config"
)

// Fact names supplied for every review in a scoring pass.
const (
	FactTextLength          = "text_length"
	FactRating              = "rating"
	FactSource              = "source"
	FactLikesCount          = "likes_count"
	FactRepliesCount        = "replies_count"
	FactHelpfulCount        = "helpful_count"
	FactAgeDays             = "age_days"
	FactHasText             = "has_text"
	FactSentimentScore      = "sentiment_score"
	FactDuplicateSimilarity = "duplicate_similarity"
)

// Facts is the attribute set one review presents to the rule lists. Numeric
// and string facts live in separate tables so a condition's kind decides the
// lookup; a condition referencing a missing fact simply does not match.
type Facts struct {
	Numbers map[string]float64
	Strings map[string]string
}

// EvaluateConfidence runs the confidence rule list against the facts.
// Rules are ordered by priority descending with list order as tie-break;
// conditions are conjunctive and the first matching rule's outcome is
// returned immediately. When nothing matches, the rule set's configured
// default outcome is returned.
func EvaluateConfidence(rs *config.RuleSet, facts Facts) config.ConfidenceOutcome {
	ordered := make([]config.ConfidenceRule, len(rs.ConfidenceRules))
	copy(ordered, rs.ConfidenceRules)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority > ordered[j].Priority })
	for _, r := range ordered {
		if matchAll(r.Conditions, facts) {
			return r.Outcome
		}
	}
	return rs.Defaults.Confidence
}

// EvaluateSufficiency mirrors EvaluateConfidence for the sufficiency list.
// Sufficiency verdicts are informational; callers must not gate scoring on
// them.
func EvaluateSufficiency(rs *config.RuleSet, facts Facts) config.SufficiencyOutcome {
	ordered := make([]config.SufficiencyRule, len(rs.SufficiencyRules))
	copy(ordered, rs.SufficiencyRules)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority > ordered[j].Priority })
	for _, r := range ordered {
		if matchAll(r.Conditions, facts) {
			return r.Outcome
		}
	}
	return rs.Defaults.Sufficiency
}

func matchAll(conds []config.Condition, facts Facts) bool {
	for _, c := range conds {
		if !matchCondition(c, facts) {
			return false
		}
	}
	return true
}

func matchCondition(c config.Condition, facts Facts) bool {
	switch c.Kind {
	case config.CondKindNumeric:
		v, ok := facts.Numbers[c.Fact]
		if !ok {
			return false
		}
		return matchNumeric(c, v)
	case config.CondKindSet:
		v, ok := facts.Strings[c.Fact]
		if !ok {
			return false
		}
		found := false
		for _, candidate := range c.Values {
			if candidate == v {
				found = true
				break
			}
		}
		if c.Op == config.OpNotIn {
			return !found
		}
		return found
	case config.CondKindString:
		v, ok := facts.Strings[c.Fact]
		if !ok {
			return false
		}
		switch c.Op {
		case config.OpEquals:
			return v == c.Match
		case config.OpContains:
			return strings.Contains(v, c.Match)
		case config.OpPrefix:
			return strings.HasPrefix(v, c.Match)
		}
		return false
	default:
		return false
	}
}

func matchNumeric(c config.Condition, v float64) bool {
	switch c.Op {
	case config.OpGT:
		return v > c.Value
	case config.OpGTE:
		return v >= c.Value
	case config.OpLT:
		return v < c.Value
	case config.OpLTE:
		return v <= c.Value
	case config.OpEQ:
		return v == c.Value
	case config.OpNEQ:
		return v != c.Value
	case config.OpBetween:
		return v >= c.Value && v <= c.ValueHigh
	default:
		return false
	}
}
