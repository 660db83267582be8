// Package config loads superfill configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all superfill configuration.
type Config struct {
	// Matching pipeline
	Engine EngineConfig `yaml:"engine"`

	// Language model used by the AI matcher
	LLM LLMConfig `yaml:"llm"`

	// Live page source
	Browser BrowserConfig `yaml:"browser"`

	// Record store
	Store StoreConfig `yaml:"store"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			AutoFillThreshold: 0.8,
			MaxFieldsPerPage:  200,
			MaxRecords:        50,
			LabelCacheSize:    2048,
			UseAI:             true,
		},
		LLM: LLMConfig{
			Timeout:    "30s",
			MaxRetries: 2,
		},
		Browser: BrowserConfig{
			Headless:            true,
			ViewportWidth:       1280,
			ViewportHeight:      900,
			NavigationTimeoutMs: 30000,
		},
		Store: StoreConfig{
			Path: filepath.Join(".superfill", "records.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// providerKeyEnv lists provider API key variables in ascending priority.
var providerKeyEnv = []struct {
	provider string
	env      string
}{
	{"openai", "OPENAI_API_KEY"},
	{"anthropic", "ANTHROPIC_API_KEY"},
	{"groq", "GROQ_API_KEY"},
	{"deepseek", "DEEPSEEK_API_KEY"},
	{"gemini", "GEMINI_API_KEY"},
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if p := os.Getenv("SUPERFILL_LLM_PROVIDER"); p != "" {
		c.LLM.Provider = p
	}
	if m := os.Getenv("SUPERFILL_LLM_MODEL"); m != "" {
		c.LLM.Model = m
	}

	if c.LLM.Provider != "" {
		// Explicit provider: only its own key applies.
		if c.LLM.APIKey == "" {
			for _, pk := range providerKeyEnv {
				if pk.provider == c.LLM.Provider {
					c.LLM.APIKey = os.Getenv(pk.env)
				}
			}
		}
	} else {
		for _, pk := range providerKeyEnv {
			if key := os.Getenv(pk.env); key != "" {
				c.LLM.APIKey = key
				c.LLM.Provider = pk.provider
			}
		}
	}

	if path := os.Getenv("SUPERFILL_STORE"); path != "" {
		c.Store.Path = path
	}
	if v := os.Getenv("SUPERFILL_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Engine.AutoFillThreshold = f
		}
	}
	if url := os.Getenv("SUPERFILL_DEBUGGER_URL"); url != "" {
		c.Browser.DebuggerURL = url
	}
}

// ValidProviders lists the accepted llm.provider values.
var ValidProviders = []string{"openai", "anthropic", "groq", "deepseek", "gemini", "local"}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	e := c.Engine
	if e.AutoFillThreshold < 0 || e.AutoFillThreshold > 1 {
		return fmt.Errorf("%w: engine.auto_fill_threshold must be within [0,1], got %v", ErrInvalidConfig, e.AutoFillThreshold)
	}
	if e.MaxFieldsPerPage <= 0 {
		return fmt.Errorf("%w: engine.max_fields_per_page must be positive", ErrInvalidConfig)
	}
	if e.MaxRecords <= 0 {
		return fmt.Errorf("%w: engine.max_records must be positive", ErrInvalidConfig)
	}

	if c.LLM.Provider == "" {
		return nil // rule-based matching only
	}

	validProvider := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("%w: invalid LLM provider: %s (valid: %v)", ErrInvalidConfig, c.LLM.Provider, ValidProviders)
	}
	if c.LLM.APIKey == "" && c.LLM.Provider != "local" {
		return fmt.Errorf("%w: LLM API key not configured for %s (set OPENAI_API_KEY, ANTHROPIC_API_KEY, GROQ_API_KEY, DEEPSEEK_API_KEY, or GEMINI_API_KEY)", ErrInvalidConfig, c.LLM.Provider)
	}

	return nil
}

// AIEnabled reports whether the AI matcher should be attempted.
func (c *Config) AIEnabled() bool {
	return c.Engine.UseAI && c.LLM.Provider != ""
}
