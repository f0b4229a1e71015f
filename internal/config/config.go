// Package config loads and validates Aurora configuration.
// Precedence: hardcoded defaults < aurora.yaml < environment variables (AURORA_*).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Aurora configuration.
type Config struct {
	Upstream  UpstreamConfig  `yaml:"upstream" json:"upstream"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Embedding EmbeddingConfig `yaml:"embedding" json:"embedding"`
	Index     IndexConfig     `yaml:"index" json:"index"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	Synthesis SynthesisConfig `yaml:"synthesis" json:"synthesis"`
	Server    ServerConfig    `yaml:"server" json:"server"`
}

// UpstreamConfig configures the external member-messages API.
type UpstreamConfig struct {
	// URL is the messages endpoint.
	URL string `yaml:"url" json:"url"`
	// FetchLimit is the page limit sent to the API (high enough for the full corpus).
	FetchLimit int `yaml:"fetch_limit" json:"fetch_limit"`
	// Timeout bounds a single fetch request.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// MaxRetries bounds transient-failure retries per fetch.
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
}

// CacheConfig configures the in-process corpus cache.
type CacheConfig struct {
	// TTL is the maximum snapshot age before a fetch refreshes it.
	TTL time.Duration `yaml:"ttl" json:"ttl"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	// Provider selects the embedder: "ollama" (default) or "static".
	Provider string `yaml:"provider" json:"provider"`
	// Model is the embedding model name.
	Model string `yaml:"model" json:"model"`
	// Dimensions is the vector dimension (0 = auto-detect from the model).
	Dimensions int `yaml:"dimensions" json:"dimensions"`
	// BatchSize is texts per embedding request.
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	// OllamaHost is the Ollama API endpoint (default: http://localhost:11434).
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`
	// CacheSize is the query-embedding LRU capacity.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// IndexConfig configures on-disk index locations and build behavior.
type IndexConfig struct {
	// DataDir holds the dense graph, metadata database, and backup snapshot.
	DataDir string `yaml:"data_dir" json:"data_dir"`
	// DenseBatchSize is entries per dense-index insertion batch.
	// Affects throughput only, never final content.
	DenseBatchSize int `yaml:"dense_batch_size" json:"dense_batch_size"`
	// Metric is the dense distance metric: "l2" (default) or "cos".
	Metric string `yaml:"metric" json:"metric"`
}

// SearchConfig configures hybrid retrieval parameters.
type SearchConfig struct {
	// LexicalWeight is the fusion weight for BM25 scores (0.0-1.0).
	// Dense weight is 1 - LexicalWeight.
	LexicalWeight float64 `yaml:"lexical_weight" json:"lexical_weight"`
	// TopK is the number of fused contexts handed to the synthesizer.
	TopK int `yaml:"top_k" json:"top_k"`
	// DenseCandidates is the oversampled dense candidate pool size.
	// Must exceed TopK so lexical-only matches can surface dense competitors.
	DenseCandidates int `yaml:"dense_candidates" json:"dense_candidates"`
	// LexicalCandidates is the lexical candidate pool size.
	LexicalCandidates int `yaml:"lexical_candidates" json:"lexical_candidates"`
	// Expansion toggles synonym query expansion for the lexical leg.
	// A pointer so an explicit "expansion: false" survives the merge
	// (a plain bool false is indistinguishable from unset).
	Expansion *bool `yaml:"expansion" json:"expansion"`
	// Timeout bounds one retrieval pass (dense + lexical + fusion).
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// ExpansionEnabled reports whether synonym expansion is on (default true).
func (s SearchConfig) ExpansionEnabled() bool {
	return s.Expansion == nil || *s.Expansion
}

// SynthesisConfig configures the answer-synthesis provider.
type SynthesisConfig struct {
	// BaseURL is the OpenAI-compatible chat completions endpoint.
	BaseURL string `yaml:"base_url" json:"base_url"`
	// APIKey authenticates requests. Usually set via AURORA_SYNTHESIS_API_KEY.
	APIKey string `yaml:"api_key" json:"api_key"`
	// Model is the chat model name.
	Model string `yaml:"model" json:"model"`
	// Temperature controls sampling; slightly above zero for natural synthesis.
	Temperature float64 `yaml:"temperature" json:"temperature"`
	// MaxTokens caps the generated answer length.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`
	// Timeout bounds a single completion request.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// MaxRetries bounds transient-failure retries per completion.
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			URL:        "",
			FetchLimit: 10000,
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		Cache: CacheConfig{
			TTL: time.Hour,
		},
		Embedding: EmbeddingConfig{
			Provider:   "ollama",
			Model:      "all-minilm:l6-v2",
			Dimensions: 0, // Auto-detect from embedder
			BatchSize:  32,
			OllamaHost: "",
			CacheSize:  1000,
		},
		Index: IndexConfig{
			DataDir:        defaultDataDir(),
			DenseBatchSize: 100,
			Metric:         "l2",
		},
		Search: SearchConfig{
			// Lexical-favoring default: member questions lean on names and
			// literal keywords that BM25 matches exactly.
			LexicalWeight:     0.6,
			TopK:              25,
			DenseCandidates:   50,
			LexicalCandidates: 100,
			Expansion:         boolPtr(true),
			Timeout:           10 * time.Second,
		},
		Synthesis: SynthesisConfig{
			BaseURL:     "https://api.groq.com/openai/v1",
			Model:       "llama-3.3-70b-versatile",
			Temperature: 0.3,
			MaxTokens:   600,
			Timeout:     25 * time.Second,
			MaxRetries:  2,
		},
		Server: ServerConfig{
			Host:     "0.0.0.0",
			Port:     8000,
			LogLevel: "info",
		},
	}
}

func boolPtr(b bool) *bool { return &b }

// defaultDataDir returns the default data directory (~/.aurora/data).
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".aurora", "data")
	}
	return filepath.Join(home, ".aurora", "data")
}

// Load loads configuration from the given directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. aurora.yaml (or aurora.yml) in dir
//  3. Environment variables (AURORA_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from aurora.yaml or aurora.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, "aurora.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, "aurora.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine - use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Upstream.URL != "" {
		c.Upstream.URL = other.Upstream.URL
	}
	if other.Upstream.FetchLimit != 0 {
		c.Upstream.FetchLimit = other.Upstream.FetchLimit
	}
	if other.Upstream.Timeout != 0 {
		c.Upstream.Timeout = other.Upstream.Timeout
	}
	if other.Upstream.MaxRetries != 0 {
		c.Upstream.MaxRetries = other.Upstream.MaxRetries
	}

	if other.Cache.TTL != 0 {
		c.Cache.TTL = other.Cache.TTL
	}

	if other.Embedding.Provider != "" {
		c.Embedding.Provider = other.Embedding.Provider
	}
	if other.Embedding.Model != "" {
		c.Embedding.Model = other.Embedding.Model
	}
	if other.Embedding.Dimensions != 0 {
		c.Embedding.Dimensions = other.Embedding.Dimensions
	}
	if other.Embedding.BatchSize != 0 {
		c.Embedding.BatchSize = other.Embedding.BatchSize
	}
	if other.Embedding.OllamaHost != "" {
		c.Embedding.OllamaHost = other.Embedding.OllamaHost
	}
	if other.Embedding.CacheSize != 0 {
		c.Embedding.CacheSize = other.Embedding.CacheSize
	}

	if other.Index.DataDir != "" {
		c.Index.DataDir = other.Index.DataDir
	}
	if other.Index.DenseBatchSize != 0 {
		c.Index.DenseBatchSize = other.Index.DenseBatchSize
	}
	if other.Index.Metric != "" {
		c.Index.Metric = other.Index.Metric
	}

	// 0 is a valid lexical weight (dense-only), but as a config value it is
	// indistinguishable from unset; use env override for dense-only setups.
	if other.Search.LexicalWeight != 0 {
		c.Search.LexicalWeight = other.Search.LexicalWeight
	}
	if other.Search.TopK != 0 {
		c.Search.TopK = other.Search.TopK
	}
	if other.Search.DenseCandidates != 0 {
		c.Search.DenseCandidates = other.Search.DenseCandidates
	}
	if other.Search.LexicalCandidates != 0 {
		c.Search.LexicalCandidates = other.Search.LexicalCandidates
	}
	if other.Search.Expansion != nil {
		c.Search.Expansion = other.Search.Expansion
	}
	if other.Search.Timeout != 0 {
		c.Search.Timeout = other.Search.Timeout
	}

	if other.Synthesis.BaseURL != "" {
		c.Synthesis.BaseURL = other.Synthesis.BaseURL
	}
	if other.Synthesis.APIKey != "" {
		c.Synthesis.APIKey = other.Synthesis.APIKey
	}
	if other.Synthesis.Model != "" {
		c.Synthesis.Model = other.Synthesis.Model
	}
	if other.Synthesis.Temperature != 0 {
		c.Synthesis.Temperature = other.Synthesis.Temperature
	}
	if other.Synthesis.MaxTokens != 0 {
		c.Synthesis.MaxTokens = other.Synthesis.MaxTokens
	}
	if other.Synthesis.Timeout != 0 {
		c.Synthesis.Timeout = other.Synthesis.Timeout
	}
	if other.Synthesis.MaxRetries != 0 {
		c.Synthesis.MaxRetries = other.Synthesis.MaxRetries
	}

	if other.Server.Host != "" {
		c.Server.Host = other.Server.Host
	}
	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies AURORA_* environment variables (highest precedence).
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("AURORA_UPSTREAM_URL"); v != "" {
		c.Upstream.URL = v
	}
	if v := os.Getenv("AURORA_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = d
		}
	}
	if v := os.Getenv("AURORA_EMBEDDING_PROVIDER"); v != "" {
		c.Embedding.Provider = v
	}
	if v := os.Getenv("AURORA_EMBEDDING_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("AURORA_OLLAMA_HOST"); v != "" {
		c.Embedding.OllamaHost = v
	}
	if v := os.Getenv("AURORA_DATA_DIR"); v != "" {
		c.Index.DataDir = v
	}
	if v := os.Getenv("AURORA_LEXICAL_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.LexicalWeight = f
		}
	}
	if v := os.Getenv("AURORA_EXPANSION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Search.Expansion = &b
		}
	}
	if v := os.Getenv("AURORA_SYNTHESIS_API_KEY"); v != "" {
		c.Synthesis.APIKey = v
	}
	if v := os.Getenv("AURORA_SYNTHESIS_BASE_URL"); v != "" {
		c.Synthesis.BaseURL = v
	}
	if v := os.Getenv("AURORA_SYNTHESIS_MODEL"); v != "" {
		c.Synthesis.Model = v
	}
	if v := os.Getenv("AURORA_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("AURORA_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Search.LexicalWeight < 0 || c.Search.LexicalWeight > 1 {
		return fmt.Errorf("search.lexical_weight must be in [0,1], got %v", c.Search.LexicalWeight)
	}
	if c.Search.TopK <= 0 {
		return fmt.Errorf("search.top_k must be positive, got %d", c.Search.TopK)
	}
	if c.Search.DenseCandidates < c.Search.TopK {
		return fmt.Errorf("search.dense_candidates (%d) must be at least search.top_k (%d)",
			c.Search.DenseCandidates, c.Search.TopK)
	}
	if c.Index.DenseBatchSize <= 0 {
		return fmt.Errorf("index.dense_batch_size must be positive, got %d", c.Index.DenseBatchSize)
	}
	switch c.Index.Metric {
	case "l2", "cos":
	default:
		return fmt.Errorf("index.metric must be \"l2\" or \"cos\", got %q", c.Index.Metric)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0,65535], got %d", c.Server.Port)
	}
	if c.Upstream.MaxRetries < 0 || c.Synthesis.MaxRetries < 0 {
		return fmt.Errorf("retry counts must be non-negative")
	}
	return nil
}

// Save writes the configuration to aurora.yaml in the given directory.
func (c *Config) Save(dir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(dir, "aurora.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}
