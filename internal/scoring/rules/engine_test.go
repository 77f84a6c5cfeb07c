package rules

import (
	"testing"

	"github.com/fixloop/fixloop-backend/internal/scoring/config"
)

func facts(numbers map[string]float64, strings map[string]string) Facts {
	if numbers == nil {
		numbers = map[string]float64{}
	}
	if strings == nil {
		strings = map[string]string{}
	}
	return Facts{Numbers: numbers, Strings: strings}
}

func ruleSetWithDefaults(confidence []config.ConfidenceRule, sufficiency []config.SufficiencyRule) *config.RuleSet {
	return &config.RuleSet{
		ConfidenceRules:  confidence,
		SufficiencyRules: sufficiency,
		Defaults: config.RuleSetDefaults{
			Confidence:  config.ConfidenceOutcome{Confidence: 1.0, ReasonCode: "NO_RULE_MATCHED"},
			Sufficiency: config.SufficiencyOutcome{Level: config.SufficiencyHigh, ReasonCode: "DEFAULT"},
		},
	}
}

func TestFirstMatchHighestPriorityWins(t *testing.T) {
	anyText := config.Condition{Fact: FactTextLength, Kind: config.CondKindNumeric, Op: config.OpGTE, Value: 0}
	rs := ruleSetWithDefaults([]config.ConfidenceRule{
		{ID: "b", Priority: 5, Conditions: []config.Condition{anyText}, Outcome: config.ConfidenceOutcome{Confidence: 0.2, ReasonCode: "B"}},
		{ID: "a", Priority: 10, Conditions: []config.Condition{anyText}, Outcome: config.ConfidenceOutcome{Confidence: 0.8, ReasonCode: "A"}},
	}, nil)

	got := EvaluateConfidence(rs, facts(map[string]float64{FactTextLength: 50}, nil))
	if got.ReasonCode != "A" {
		t.Fatalf("outcome = %q, want higher-priority rule A", got.ReasonCode)
	}
}

func TestFirstMatchListOrderTieBreak(t *testing.T) {
	anyText := config.Condition{Fact: FactTextLength, Kind: config.CondKindNumeric, Op: config.OpGTE, Value: 0}
	rs := ruleSetWithDefaults([]config.ConfidenceRule{
		{ID: "first", Priority: 10, Conditions: []config.Condition{anyText}, Outcome: config.ConfidenceOutcome{Confidence: 0.5, ReasonCode: "FIRST"}},
		{ID: "second", Priority: 10, Conditions: []config.Condition{anyText}, Outcome: config.ConfidenceOutcome{Confidence: 0.9, ReasonCode: "SECOND"}},
	}, nil)

	got := EvaluateConfidence(rs, facts(map[string]float64{FactTextLength: 50}, nil))
	if got.ReasonCode != "FIRST" {
		t.Fatalf("outcome = %q, want list-order tie-break FIRST", got.ReasonCode)
	}
}

func TestConjunctiveConditions(t *testing.T) {
	rs := ruleSetWithDefaults([]config.ConfidenceRule{
		{
			ID:       "short-google",
			Priority: 10,
			Conditions: []config.Condition{
				{Fact: FactTextLength, Kind: config.CondKindNumeric, Op: config.OpLT, Value: 20},
				{Fact: FactSource, Kind: config.CondKindSet, Op: config.OpIn, Values: []string{"google"}},
			},
			Outcome: config.ConfidenceOutcome{Confidence: 0.6, ReasonCode: "SHORT_GOOGLE"},
		},
	}, nil)

	// Both conditions hold.
	got := EvaluateConfidence(rs, facts(map[string]float64{FactTextLength: 5}, map[string]string{FactSource: "google"}))
	if got.ReasonCode != "SHORT_GOOGLE" {
		t.Fatalf("outcome = %q, want SHORT_GOOGLE", got.ReasonCode)
	}
	// One condition fails: default applies.
	got = EvaluateConfidence(rs, facts(map[string]float64{FactTextLength: 5}, map[string]string{FactSource: "yelp"}))
	if got.ReasonCode != "NO_RULE_MATCHED" {
		t.Fatalf("outcome = %q, want NO_RULE_MATCHED default", got.ReasonCode)
	}
}

func TestDefaultOutcomeIsData(t *testing.T) {
	rs := ruleSetWithDefaults(nil, nil)
	rs.Defaults.Confidence = config.ConfidenceOutcome{Confidence: 0.77, ReasonCode: "CUSTOM_DEFAULT"}
	rs.Defaults.Sufficiency = config.SufficiencyOutcome{Level: config.SufficiencyMedium, ReasonCode: "CUSTOM_SUFF"}

	conf := EvaluateConfidence(rs, facts(nil, nil))
	if conf.ReasonCode != "CUSTOM_DEFAULT" || conf.Confidence != 0.77 {
		t.Fatalf("confidence default = %+v, want configured default", conf)
	}
	suff := EvaluateSufficiency(rs, facts(nil, nil))
	if suff.Level != config.SufficiencyMedium || suff.ReasonCode != "CUSTOM_SUFF" {
		t.Fatalf("sufficiency default = %+v, want configured default", suff)
	}
}

func TestMissingFactFailsCondition(t *testing.T) {
	rs := ruleSetWithDefaults([]config.ConfidenceRule{
		{
			ID:       "needs-rating",
			Priority: 10,
			Conditions: []config.Condition{
				{Fact: FactRating, Kind: config.CondKindNumeric, Op: config.OpLTE, Value: 2},
			},
			Outcome: config.ConfidenceOutcome{Confidence: 0.5, ReasonCode: "LOW_RATING"},
		},
	}, nil)

	got := EvaluateConfidence(rs, facts(map[string]float64{FactTextLength: 50}, nil))
	if got.ReasonCode != "NO_RULE_MATCHED" {
		t.Fatalf("outcome = %q, want default when fact absent", got.ReasonCode)
	}
}

func TestConditionKinds(t *testing.T) {
	cases := []struct {
		name string
		cond config.Condition
		f    Facts
		want bool
	}{
		{"numeric_between_inside", config.Condition{Fact: "x", Kind: config.CondKindNumeric, Op: config.OpBetween, Value: 1, ValueHigh: 5}, facts(map[string]float64{"x": 3}, nil), true},
		{"numeric_between_edge", config.Condition{Fact: "x", Kind: config.CondKindNumeric, Op: config.OpBetween, Value: 1, ValueHigh: 5}, facts(map[string]float64{"x": 5}, nil), true},
		{"numeric_between_outside", config.Condition{Fact: "x", Kind: config.CondKindNumeric, Op: config.OpBetween, Value: 1, ValueHigh: 5}, facts(map[string]float64{"x": 6}, nil), false},
		{"numeric_neq", config.Condition{Fact: "x", Kind: config.CondKindNumeric, Op: config.OpNEQ, Value: 2}, facts(map[string]float64{"x": 3}, nil), true},
		{"set_in", config.Condition{Fact: "s", Kind: config.CondKindSet, Op: config.OpIn, Values: []string{"a", "b"}}, facts(nil, map[string]string{"s": "b"}), true},
		{"set_not_in", config.Condition{Fact: "s", Kind: config.CondKindSet, Op: config.OpNotIn, Values: []string{"a", "b"}}, facts(nil, map[string]string{"s": "c"}), true},
		{"string_equals", config.Condition{Fact: "s", Kind: config.CondKindString, Op: config.OpEquals, Match: "abc"}, facts(nil, map[string]string{"s": "abc"}), true},
		{"string_contains", config.Condition{Fact: "s", Kind: config.CondKindString, Op: config.OpContains, Match: "bc"}, facts(nil, map[string]string{"s": "abcd"}), true},
		{"string_prefix_miss", config.Condition{Fact: "s", Kind: config.CondKindString, Op: config.OpPrefix, Match: "bc"}, facts(nil, map[string]string{"s": "abcd"}), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := matchCondition(tc.cond, tc.f); got != tc.want {
				t.Fatalf("matchCondition(%+v)=%v, want %v", tc.cond, got, tc.want)
			}
		})
	}
}

func TestSufficiencyFirstMatch(t *testing.T) {
	rs := ruleSetWithDefaults(nil, []config.SufficiencyRule{
		{
			ID:       "tiny",
			Priority: 20,
			Conditions: []config.Condition{
				{Fact: FactTextLength, Kind: config.CondKindNumeric, Op: config.OpEQ, Value: 0},
			},
			Outcome: config.SufficiencyOutcome{Level: config.SufficiencyInsufficient, ReasonCode: "NO_TEXT"},
		},
		{
			ID:       "short",
			Priority: 10,
			Conditions: []config.Condition{
				{Fact: FactTextLength, Kind: config.CondKindNumeric, Op: config.OpLT, Value: 30},
			},
			Outcome: config.SufficiencyOutcome{Level: config.SufficiencyLow, ReasonCode: "SHORT"},
		},
	})

	got := EvaluateSufficiency(rs, facts(map[string]float64{FactTextLength: 0}, nil))
	if got.ReasonCode != "NO_TEXT" {
		t.Fatalf("outcome = %q, want NO_TEXT", got.ReasonCode)
	}
	got = EvaluateSufficiency(rs, facts(map[string]float64{FactTextLength: 10}, nil))
	if got.ReasonCode != "SHORT" {
		t.Fatalf("outcome = %q, want SHORT", got.ReasonCode)
	}
	got = EvaluateSufficiency(rs, facts(map[string]float64{FactTextLength: 100}, nil))
	if got.Level != config.SufficiencyHigh {
		t.Fatalf("outcome level = %q, want default HIGH", got.Level)
	}
}
