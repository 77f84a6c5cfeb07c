package seed

import "testing"

func TestDefaultParametersValid(t *testing.T) {
	p, err := DefaultParameters()
	if err != nil {
		t.Fatalf("DefaultParameters: %v", err)
	}
	if p.TimeDecay.HalfLifeDays != 60 {
		t.Fatalf("half life = %v, want 60", p.TimeDecay.HalfLifeDays)
	}
	if !p.Sentiment.UseStarRating {
		t.Fatal("star rating blending should default on")
	}
	if p.FixScore.PreWindowDays != 90 || p.FixScore.PostWindowDays != 60 {
		t.Fatalf("fix score windows = %d/%d, want 90/60", p.FixScore.PreWindowDays, p.FixScore.PostWindowDays)
	}
}

func TestDefaultRuleSetValid(t *testing.T) {
	rs, err := DefaultRuleSet()
	if err != nil {
		t.Fatalf("DefaultRuleSet: %v", err)
	}
	if len(rs.ConfidenceRules) == 0 || len(rs.SufficiencyRules) == 0 {
		t.Fatalf("default rule set empty: %+v", rs)
	}
	if rs.Defaults.Confidence.ReasonCode != "NO_RULE_MATCHED" {
		t.Fatalf("default confidence reason = %q", rs.Defaults.Confidence.ReasonCode)
	}
	if rs.Defaults.Sufficiency.Level != "HIGH" {
		t.Fatalf("default sufficiency level = %q", rs.Defaults.Sufficiency.Level)
	}
}
