package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning is the optional YAML overlay applied on top of the environment.
// Only the operational knobs live here; scoring weights and receptivity
// thresholds are fixed in code so behavior stays consistent across installs.
type Tuning struct {
	MinNudgeIntervalHours *int    `yaml:"min_nudge_interval_hours"`
	DisplayTimeoutSecs    *int    `yaml:"display_timeout_secs"`
	SettleDelaySecs       *int    `yaml:"settle_delay_secs"`
	EvaluateIntervalSecs  *int    `yaml:"evaluate_interval_secs"`
	GenerateTimeoutSecs   *int    `yaml:"generate_timeout_secs"`
	Provider              *string `yaml:"provider"`
	OllamaModel           *string `yaml:"ollama_model"`
	GeminiModel           *string `yaml:"gemini_model"`
}

// applyTuning overrides config fields with values present in the YAML file.
// Absent fields keep their environment or default values.
func (c *Config) applyTuning(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read tuning file: %w", err)
	}

	var t Tuning
	if err := yaml.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("parse tuning file: %w", err)
	}

	if t.MinNudgeIntervalHours != nil {
		c.MinNudgeIntervalHours = *t.MinNudgeIntervalHours
	}
	if t.DisplayTimeoutSecs != nil {
		c.DisplayTimeoutSecs = *t.DisplayTimeoutSecs
	}
	if t.SettleDelaySecs != nil {
		c.SettleDelaySecs = *t.SettleDelaySecs
	}
	if t.EvaluateIntervalSecs != nil {
		c.EvaluateIntervalSecs = *t.EvaluateIntervalSecs
	}
	if t.GenerateTimeoutSecs != nil {
		c.GenerateTimeoutSecs = *t.GenerateTimeoutSecs
	}
	if t.Provider != nil {
		c.Provider = *t.Provider
	}
	if t.OllamaModel != nil {
		c.OllamaModel = *t.OllamaModel
	}
	if t.GeminiModel != nil {
		c.GeminiModel = *t.GeminiModel
	}
	return nil
}
