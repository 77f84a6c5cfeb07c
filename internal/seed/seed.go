// Package seed holds the built-in default scoring configuration. The
// defaults exist only to bootstrap the first DRAFT versions of each lineage;
// once activated, all changes flow through the configuration store.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/fixloop/fixloop-backend/internal/scoring/config"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type defaultsFile struct {
	Parameters map[string]interface{} `yaml:"parameters"`
	Rules      map[string]interface{} `yaml:"rules"`
}

func load() (*defaultsFile, error) {
	var df defaultsFile
	if err := yaml.Unmarshal(defaultsYAML, &df); err != nil {
		return nil, fmt.Errorf("parse embedded defaults: %w", err)
	}
	return &df, nil
}

// DefaultParameterPayload returns the validated JSON payload for the initial
// parameter draft.
func DefaultParameterPayload() ([]byte, error) {
	df, err := load()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(df.Parameters)
	if err != nil {
		return nil, fmt.Errorf("encode default parameters: %w", err)
	}
	if _, err := config.ParseParameters(raw); err != nil {
		return nil, fmt.Errorf("embedded default parameters invalid: %w", err)
	}
	return raw, nil
}

// DefaultRuleSetPayload returns the validated JSON payload for the initial
// rule set draft.
func DefaultRuleSetPayload() ([]byte, error) {
	df, err := load()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(df.Rules)
	if err != nil {
		return nil, fmt.Errorf("encode default rules: %w", err)
	}
	if _, err := config.ParseRuleSet(raw); err != nil {
		return nil, fmt.Errorf("embedded default rule set invalid: %w", err)
	}
	return raw, nil
}

// DefaultParameters returns the decoded default parameter set.
func DefaultParameters() (*config.ScoringParameters, error) {
	raw, err := DefaultParameterPayload()
	if err != nil {
		return nil, err
	}
	return config.ParseParameters(raw)
}

// DefaultRuleSet returns the decoded default rule set.
func DefaultRuleSet() (*config.RuleSet, error) {
	raw, err := DefaultRuleSetPayload()
	if err != nil {
		return nil, err
	}
	return config.ParseRuleSet(raw)
}
