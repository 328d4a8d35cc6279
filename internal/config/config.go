package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Generation providers.
const (
	ProviderStatic = "static"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

type Config struct {
	Port     int
	DBPath   string
	APIKey   string
	LogLevel string
	// Nudge scheduling
	MinNudgeIntervalHours int
	DisplayTimeoutSecs    int
	SettleDelaySecs       int
	EvaluateIntervalSecs  int
	// Content generation
	Provider            string
	OllamaBaseURL       string
	OllamaModel         string
	GeminiAPIKey        string
	GeminiModel         string
	GenerateTimeoutSecs int
	// Analytics backend
	AnalyticsURL   string
	AnalyticsToken string
	// Optional YAML overlay for the knobs above
	TuningPath string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                  envInt("PORT", 8630),
		DBPath:                envStr("STHEALTH_DB_PATH", "/data/sthealth.db"),
		APIKey:                envStr("API_KEY", ""),
		LogLevel:              envStr("LOG_LEVEL", "info"),
		MinNudgeIntervalHours: envInt("MIN_NUDGE_INTERVAL_HOURS", 24),
		DisplayTimeoutSecs:    envInt("NUDGE_DISPLAY_TIMEOUT_SECS", 300),
		SettleDelaySecs:       envInt("NUDGE_SETTLE_DELAY_SECS", 2),
		EvaluateIntervalSecs:  envInt("EVALUATE_INTERVAL_SECS", 60),
		Provider:              envStr("GENERATION_PROVIDER", ProviderStatic),
		OllamaBaseURL:         envStr("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:           envStr("OLLAMA_MODEL", "qwen2.5:1.5b"),
		GeminiAPIKey:          envStr("GEMINI_API_KEY", ""),
		GeminiModel:           envStr("GEMINI_MODEL", "gemini-2.5-flash"),
		GenerateTimeoutSecs:   envInt("GENERATE_TIMEOUT_SECS", 10),
		AnalyticsURL:          envStr("ANALYTICS_INGEST_URL", ""),
		AnalyticsToken:        envStr("ANALYTICS_TOKEN", ""),
		TuningPath:            envStr("TUNING_PATH", ""),
	}

	if cfg.TuningPath != "" {
		if err := cfg.applyTuning(cfg.TuningPath); err != nil {
			return nil, fmt.Errorf("apply tuning file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("STHEALTH_DB_PATH must not be empty")
	}
	if c.MinNudgeIntervalHours < 0 {
		return fmt.Errorf("MIN_NUDGE_INTERVAL_HOURS must not be negative, got %d", c.MinNudgeIntervalHours)
	}
	if c.DisplayTimeoutSecs < 1 {
		return fmt.Errorf("NUDGE_DISPLAY_TIMEOUT_SECS must be positive, got %d", c.DisplayTimeoutSecs)
	}
	if c.SettleDelaySecs < 0 {
		return fmt.Errorf("NUDGE_SETTLE_DELAY_SECS must not be negative, got %d", c.SettleDelaySecs)
	}
	if c.EvaluateIntervalSecs < 0 {
		return fmt.Errorf("EVALUATE_INTERVAL_SECS must not be negative, got %d", c.EvaluateIntervalSecs)
	}
	if c.GenerateTimeoutSecs < 1 {
		return fmt.Errorf("GENERATE_TIMEOUT_SECS must be positive, got %d", c.GenerateTimeoutSecs)
	}

	switch c.Provider {
	case ProviderStatic:
	case ProviderOllama:
		if c.OllamaBaseURL == "" {
			return fmt.Errorf("OLLAMA_BASE_URL must not be empty with the ollama provider")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY must not be empty with the gemini provider")
		}
	default:
		return fmt.Errorf("GENERATION_PROVIDER must be static, ollama, or gemini, got %q", c.Provider)
	}
	return nil
}

// MinNudgeInterval returns the delivery floor as a duration. Zero disables
// the gate, which only tests and local experiments should ever do.
func (c *Config) MinNudgeInterval() time.Duration {
	return time.Duration(c.MinNudgeIntervalHours) * time.Hour
}

func (c *Config) DisplayTimeout() time.Duration {
	return time.Duration(c.DisplayTimeoutSecs) * time.Second
}

func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelaySecs) * time.Second
}

// EvaluateInterval returns the background check cadence. Zero disables the
// periodic loop so only foreground triggers evaluate.
func (c *Config) EvaluateInterval() time.Duration {
	return time.Duration(c.EvaluateIntervalSecs) * time.Second
}

func (c *Config) GenerateTimeout() time.Duration {
	return time.Duration(c.GenerateTimeoutSecs) * time.Second
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
