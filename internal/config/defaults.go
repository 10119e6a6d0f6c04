package config

// ApplyDefaults fills unset fields with defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Vocabulary.SnapshotPath == "" {
		cfg.Vocabulary.SnapshotPath = "/usr/local/var/ontosift/data/vocabulary.json"
	}
	if cfg.History.DatabasePath == "" {
		cfg.History.DatabasePath = "/usr/local/var/ontosift/data/db/history.db"
	}
	if cfg.Index.URL == "" {
		cfg.Index.URL = "http://localhost:7700"
	}
	if cfg.Index.IndexUID == "" {
		cfg.Index.IndexUID = "concepts"
	}
	if cfg.Index.Embedder == "" {
		cfg.Index.Embedder = "concept-semantic"
	}
	if cfg.Index.SemanticRatio == 0 {
		cfg.Index.SemanticRatio = 0.5
	}
	if cfg.Index.TimeoutSeconds == 0 {
		cfg.Index.TimeoutSeconds = 10
	}
	if cfg.Agent.BaseURL == "" {
		cfg.Agent.BaseURL = "http://localhost:1234/v1"
	}
	if cfg.Agent.Model == "" {
		cfg.Agent.Model = "qwen2.5-7b-instruct-1m"
	}
	if cfg.Agent.TimeoutSeconds == 0 {
		cfg.Agent.TimeoutSeconds = 60
	}
	if cfg.Agent.ResultsPerTerm == 0 {
		cfg.Agent.ResultsPerTerm = 5
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Resolve.DefaultLimit == 0 {
		cfg.Resolve.DefaultLimit = 10
	}
	if cfg.Resolve.MaxLimit == 0 {
		cfg.Resolve.MaxLimit = 100
	}
	if cfg.Resolve.MergePolicy == "" {
		cfg.Resolve.MergePolicy = "max"
	}
	if cfg.Resolve.Rarity.Mode == "" {
		cfg.Resolve.Rarity.Mode = "none"
	}
	if cfg.Resolve.Rarity.MaxBoost == 0 {
		cfg.Resolve.Rarity.MaxBoost = 3.0
	}
}
