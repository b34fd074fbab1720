package game

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Rules holds the tunable game parameters: daily limits per action kind,
// the contest and reset probabilities, and the penalty mute duration.
type Rules struct {
	ContestMax          int     `yaml:"contestMax"`
	ContestProbability  float64 `yaml:"contestProbability"`
	DiscardMaxPerDay    int     `yaml:"discardMaxPerDay"`
	SwapMaxPerDay       int     `yaml:"swapMaxPerDay"`
	ResetMaxPerDay      int     `yaml:"resetMaxPerDay"`
	ResetSuccessRate    float64 `yaml:"resetSuccessRate"`
	MuteDurationSeconds int     `yaml:"muteDurationSeconds"`
}

// DefaultRules returns the parameters used when no rules file is present.
func DefaultRules() *Rules {
	return &Rules{
		ContestMax:          3,
		ContestProbability:  0.2,
		DiscardMaxPerDay:    3,
		SwapMaxPerDay:       3,
		ResetMaxPerDay:      3,
		ResetSuccessRate:    0.5,
		MuteDurationSeconds: 300,
	}
}

// MuteDuration returns the penalty mute length.
func (r *Rules) MuteDuration() time.Duration {
	return time.Duration(r.MuteDurationSeconds) * time.Second
}

// LoadRules loads game parameters from a YAML file. Values support
// environment variable expansion in the form ${VAR_NAME} or
// ${VAR_NAME:default}.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	rules := DefaultRules()
	if err := yaml.Unmarshal([]byte(expanded), rules); err != nil {
		return nil, fmt.Errorf("failed to parse YAML rules: %w", err)
	}

	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}

	return rules, nil
}

// Validate checks the parameters for values the engine cannot work with.
func (r *Rules) Validate() error {
	limits := map[string]int{
		"contestMax":       r.ContestMax,
		"discardMaxPerDay": r.DiscardMaxPerDay,
		"swapMaxPerDay":    r.SwapMaxPerDay,
		"resetMaxPerDay":   r.ResetMaxPerDay,
	}
	for name, limit := range limits {
		if limit < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", name, limit)
		}
	}

	if r.ContestProbability < 0 || r.ContestProbability > 1 {
		return fmt.Errorf("contestProbability must be in [0,1], got %v", r.ContestProbability)
	}
	if r.ResetSuccessRate < 0 || r.ResetSuccessRate > 1 {
		return fmt.Errorf("resetSuccessRate must be in [0,1], got %v", r.ResetSuccessRate)
	}
	if r.MuteDurationSeconds < 0 {
		return fmt.Errorf("muteDurationSeconds must be non-negative, got %d", r.MuteDurationSeconds)
	}

	return nil
}

func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		// Support ${VAR:default} syntax
		parts := strings.SplitN(key, ":", 2)
		varName := parts[0]
		defaultValue := ""
		if len(parts) == 2 {
			defaultValue = parts[1]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}
