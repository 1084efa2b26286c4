package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the toolsage API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Judge     JudgeConfig     `yaml:"judge"`
	Search    SearchConfig    `yaml:"search"`
	Insights  InsightsConfig  `yaml:"insights"`
	Session   SessionConfig   `yaml:"session"`
	Auth      AuthConfig      `yaml:"auth"`
	Index     IndexConfig     `yaml:"index"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	WriteTimeoutSec  int      `yaml:"write_timeout_sec"`
}

// IndexConfig holds HNSW index and pagination settings.
type IndexConfig struct {
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Providers   map[string]ProviderConfig   `yaml:"providers"`
	Vectorizers map[string]VectorizerConfig `yaml:"vectorizers"`
	Vectorizer  string                      `yaml:"vectorizer"` // name of the active vectorizer
	CacheTTLHrs int                         `yaml:"cache_ttl_hours"`
}

// ProviderConfig holds settings of an OpenAI-compatible API.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// VectorizerConfig holds vectorizer settings.
type VectorizerConfig struct {
	Provider            string `yaml:"provider"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
}

// JudgeConfig holds the LLM judgment provider settings.
type JudgeConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	MaxAttempts int           `yaml:"max_attempts"`
	TimeoutSec  int           `yaml:"timeout_sec"`
	Breaker     BreakerConfig `yaml:"breaker"`
}

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	MaxFailures    uint32 `yaml:"max_failures"`
	OpenTimeoutSec int    `yaml:"open_timeout_sec"`
}

// SearchConfig holds hybrid search settings.
type SearchConfig struct {
	SemanticWeight   float64 `yaml:"semantic_weight"`
	KeywordWeight    float64 `yaml:"keyword_weight"`
	DefaultLimit     int     `yaml:"default_limit"`
	DefaultThreshold *float64 `yaml:"default_threshold"`
}

// InsightsConfig holds insight memory settings.
type InsightsConfig struct {
	DedupThreshold float64 `yaml:"dedup_threshold"`
	// Cut-offs are pointers: an explicit 0 keeps every item, an absent key gets the default.
	RerankMinRelevance    *float64 `yaml:"rerank_min_relevance"`
	KnowledgeMinRelevance *float64 `yaml:"knowledge_min_relevance"`
	WorkerPoolSize        int      `yaml:"worker_pool_size"`
	SideEffectTimeoutSec  int      `yaml:"side_effect_timeout_sec"`
}

// SessionConfig holds conversation session settings.
type SessionConfig struct {
	TTLHours    int `yaml:"ttl_hours"`
	MaxMessages int `yaml:"max_messages"`
}

// TTL returns the session time-to-live.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLHours) * time.Hour
}

// Default cut-offs applied when the keys are absent.
const (
	DefaultSearchThreshold = 0.1
	DefaultMinRelevance    = 0.6
)

func ptr[T any](v T) *T { return &v }

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ActiveVectorizer returns the selected vectorizer and its provider settings.
// Without an explicit selection the alphabetically first vectorizer wins.
func (c *Config) ActiveVectorizer() (string, VectorizerConfig, ProviderConfig) {
	name := c.Embedding.Vectorizer
	if name == "" {
		names := make([]string, 0, len(c.Embedding.Vectorizers))
		for n := range c.Embedding.Vectorizers {
			names = append(names, n)
		}
		sort.Strings(names)
		if len(names) > 0 {
			name = names[0]
		}
	}
	vc := c.Embedding.Vectorizers[name]
	return vc.Provider, vc, c.Embedding.Providers[vc.Provider]
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.CacheTTLHrs <= 0 {
		c.Embedding.CacheTTLHrs = 24 * 7
	}
	if c.Judge.MaxAttempts <= 0 {
		c.Judge.MaxAttempts = 2
	}
	if c.Judge.TimeoutSec <= 0 {
		c.Judge.TimeoutSec = 20
	}
	if c.Judge.Breaker.MaxFailures == 0 {
		c.Judge.Breaker.MaxFailures = 5
	}
	if c.Judge.Breaker.OpenTimeoutSec <= 0 {
		c.Judge.Breaker.OpenTimeoutSec = 30
	}
	if c.Search.SemanticWeight == 0 && c.Search.KeywordWeight == 0 {
		c.Search.SemanticWeight = 0.6
		c.Search.KeywordWeight = 0.4
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 5
	}
	if c.Search.DefaultThreshold == nil {
		c.Search.DefaultThreshold = ptr(DefaultSearchThreshold)
	}
	if c.Insights.DedupThreshold == 0 {
		c.Insights.DedupThreshold = 0.95
	}
	if c.Insights.RerankMinRelevance == nil {
		c.Insights.RerankMinRelevance = ptr(DefaultMinRelevance)
	}
	if c.Insights.KnowledgeMinRelevance == nil {
		c.Insights.KnowledgeMinRelevance = ptr(DefaultMinRelevance)
	}
	if c.Insights.WorkerPoolSize <= 0 {
		c.Insights.WorkerPoolSize = 4
	}
	if c.Insights.SideEffectTimeoutSec <= 0 {
		c.Insights.SideEffectTimeoutSec = 5
	}
	if c.Session.TTLHours <= 0 {
		c.Session.TTLHours = 24
	}
	if c.Session.MaxMessages <= 0 {
		c.Session.MaxMessages = 50
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Index.DefaultPageSize <= 0 {
		c.Index.DefaultPageSize = 20
	}
	if c.Index.MaxPageSize <= 0 {
		c.Index.MaxPageSize = 100
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "toolsage:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	for name, vc := range c.Embedding.Vectorizers {
		if _, ok := c.Embedding.Providers[vc.Provider]; !ok {
			return fmt.Errorf("embedding.vectorizers.%s.provider %q is not configured", name, vc.Provider)
		}
	}
	if c.Embedding.Vectorizer != "" {
		if _, ok := c.Embedding.Vectorizers[c.Embedding.Vectorizer]; !ok {
			return fmt.Errorf("embedding.vectorizer %q is not configured", c.Embedding.Vectorizer)
		}
	}
	if c.Judge.Provider != "" {
		if _, ok := c.Embedding.Providers[c.Judge.Provider]; !ok {
			return fmt.Errorf("judge.provider %q is not configured under embedding.providers", c.Judge.Provider)
		}
	}
	if c.Judge.Temperature < 0 || c.Judge.Temperature > 2 {
		return fmt.Errorf("judge.temperature must be between 0 and 2, got %v", c.Judge.Temperature)
	}
	s := c.Search
	if s.SemanticWeight < 0 || s.KeywordWeight < 0 || s.SemanticWeight+s.KeywordWeight > 1 {
		return fmt.Errorf("search weights must be non-negative and sum to at most 1, got %v + %v",
			s.SemanticWeight, s.KeywordWeight)
	}
	for name, p := range map[string]*float64{
		"search.default_threshold":         s.DefaultThreshold,
		"insights.dedup_threshold":         &c.Insights.DedupThreshold,
		"insights.rerank_min_relevance":    c.Insights.RerankMinRelevance,
		"insights.knowledge_min_relevance": c.Insights.KnowledgeMinRelevance,
	} {
		if p != nil && (*p < 0 || *p > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %v", name, *p)
		}
	}
	if !strings.HasSuffix(c.Storage.KeyPrefix, ":") {
		return fmt.Errorf("storage.key_prefix must end with ':', got %q", c.Storage.KeyPrefix)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests and `go run` from subdirectories
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
