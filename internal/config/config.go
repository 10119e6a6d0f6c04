// Package config provides configuration loading and structs for the
// ontosift server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	History    HistoryConfig    `yaml:"history"`
	Index      IndexConfig      `yaml:"index"`
	Agent      AgentConfig      `yaml:"agent"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Resolve    ResolveConfig    `yaml:"resolve"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// VocabularyConfig holds the concept snapshot settings.
type VocabularyConfig struct {
	SnapshotPath string `yaml:"snapshot_path"`
	Watch        bool   `yaml:"watch"`
}

// HistoryConfig holds the resolution log settings.
type HistoryConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// IndexConfig holds the external hybrid index connection settings.
type IndexConfig struct {
	Enabled        bool    `yaml:"enabled"`
	URL            string  `yaml:"url"`
	APIKey         string  `yaml:"api_key"`
	IndexUID       string  `yaml:"index_uid"`
	Embedder       string  `yaml:"embedder"`
	SemanticRatio  float64 `yaml:"semantic_ratio"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// AgentConfig holds the capability-assisted resolver settings.
type AgentConfig struct {
	Enabled        bool   `yaml:"enabled"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	ResultsPerTerm int    `yaml:"results_per_term"`
}

// EmbeddingConfig holds local ONNX embedder settings for hybrid queries.
type EmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// RarityConfig holds the ranking specificity settings.
type RarityConfig struct {
	// Mode selects the multiplier source: "tiers", "vocab", or "none".
	Mode     string             `yaml:"mode"`
	MaxBoost float64            `yaml:"max_boost"`
	Tiers    map[string]float64 `yaml:"tiers"`
}

// ResolveConfig holds funnel policy settings.
type ResolveConfig struct {
	DefaultLimit    int          `yaml:"default_limit"`
	MaxLimit        int          `yaml:"max_limit"`
	MergePolicy     string       `yaml:"merge_policy"`
	RunAll          bool         `yaml:"run_all"`
	SupplementIndex bool         `yaml:"supplement_index"`
	Rarity          RarityConfig `yaml:"rarity"`
	MustHave        []string     `yaml:"must_have"`
}

// Load reads and parses the config file at path, expands paths, and applies
// defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Vocabulary.SnapshotPath = expandPath(cfg.Vocabulary.SnapshotPath, configDir)
	cfg.History.DatabasePath = expandPath(cfg.History.DatabasePath, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
