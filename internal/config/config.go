package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level book.yaml configuration that lives
// next to a book directory.
type Config struct {
	Book      BookConfig      `yaml:"book"`
	Inference InferenceConfig `yaml:"inference"`
	Backups   BackupsConfig   `yaml:"backups"`
	Git       GitConfig       `yaml:"git"`
}

// BookConfig identifies the ledger book.
type BookConfig struct {
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"`
}

// InferenceConfig controls the natural-language fallback tier.
type InferenceConfig struct {
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// BackupsConfig controls backup rotation.
type BackupsConfig struct {
	RetentionDays int `yaml:"retention_days"`
}

// GitConfig controls git integration for the book directory.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a config file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new book.
func Default(bookName string) *Config {
	return &Config{
		Book: BookConfig{
			Name:     bookName,
			Currency: "USD",
		},
		Inference: InferenceConfig{
			Model:          "gemini-2.0-flash",
			TimeoutSeconds: 30,
		},
		Backups: BackupsConfig{
			RetentionDays: 30,
		},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "gnucash-cli",
			AuthorEmail: "bot@gnucash-cli.local",
		},
	}
}
