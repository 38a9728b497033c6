package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Site struct {
		Title  string `yaml:"title"`
		Source string `yaml:"source"`
		Output string `yaml:"output"`
	} `yaml:"site"`
	Check struct {
		// Languages limits which fence tags get syntax-checked. Empty
		// means all known languages.
		Languages []string `yaml:"languages"`
	} `yaml:"check"`
	AI struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"ai"`
}

// DefaultConfig returns the configuration used when no site.yaml exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Site.Title = "Notes"
	cfg.Site.Source = "notes"
	cfg.Site.Output = "_site"
	cfg.AI.Model = "gemini-2.0-flash"
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := DefaultConfig()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(file, cfg); err != nil {
		return nil, err
	}

	// 3. Override with Environment Variables if present
	applyEnv(cfg)

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if apiKey := os.Getenv("NOTESMITH_API_KEY"); apiKey != "" {
		cfg.AI.APIKey = apiKey
	}
	if provider := os.Getenv("NOTESMITH_AI_PROVIDER"); provider != "" {
		cfg.AI.Provider = provider
	}
	if src := os.Getenv("NOTESMITH_SOURCE"); src != "" {
		cfg.Site.Source = src
	}
	if out := os.Getenv("NOTESMITH_OUTPUT"); out != "" {
		cfg.Site.Output = out
	}
}
