package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the roost API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Vocab     VocabConfig     `yaml:"vocab"`
	Auth      AuthConfig      `yaml:"auth"`
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

// CorpusConfig holds listing source settings.
type CorpusConfig struct {
	// Driver selects the listing source: "file" (JSON lines) or "redis".
	Driver string `yaml:"driver"`
	// Path is the listings file for the file driver.
	Path string `yaml:"path"`
	// Addrs and Password configure the redis driver.
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	// MaxMalformedFraction aborts the load when exceeded (0..1).
	MaxMalformedFraction float64 `yaml:"max_malformed_fraction"`
	// DetectionsPath is an optional file of CV-detected amenities
	// (listing id -> labels) merged into amenity sets before indexing.
	DetectionsPath string `yaml:"detections_path"`
}

// EmbeddingConfig holds embedding backend and index-build settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	// BatchSize is the number of text blobs per backend call.
	BatchSize int `yaml:"batch_size"`
	// Workers bounds the parallel batch calls during index build.
	Workers int `yaml:"workers"`
	// MaxRetries and RetryBaseDelayMs shape the backoff around backend calls.
	MaxRetries       int `yaml:"max_retries"`
	RetryBaseDelayMs int `yaml:"retry_base_delay_ms"`
	// CachePath is the on-disk vector cache keyed by corpus fingerprint.
	CachePath string `yaml:"cache_path"`
}

// SearchConfig holds ranking settings.
type SearchConfig struct {
	// TopN caps the ranked response size.
	TopN int `yaml:"top_n"`
	// MinCandidates is the floor below which the candidate filter starts
	// relaxing constraints.
	MinCandidates int `yaml:"min_candidates"`
	// FeaturedCount is the size of the featured-listings response.
	FeaturedCount int `yaml:"featured_count"`
	// RetrievalMaxK caps the RAG retrieval top-K.
	RetrievalMaxK int `yaml:"retrieval_max_k"`
}

// VocabConfig points at the neighbourhood gazetteer and amenity synonyms.
type VocabConfig struct {
	Path string `yaml:"path"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
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

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 15
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Corpus.Driver == "" {
		c.Corpus.Driver = "file"
	}
	if c.Corpus.KeyPrefix == "" {
		c.Corpus.KeyPrefix = "roost:listing:"
	}
	if c.Corpus.ReadinessTimeout <= 0 {
		c.Corpus.ReadinessTimeout = 10
	}
	if c.Corpus.MaxMalformedFraction <= 0 {
		c.Corpus.MaxMalformedFraction = 0.2
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 64
	}
	if c.Embedding.Workers <= 0 {
		c.Embedding.Workers = 4
	}
	if c.Embedding.MaxRetries <= 0 {
		c.Embedding.MaxRetries = 3
	}
	if c.Embedding.RetryBaseDelayMs <= 0 {
		c.Embedding.RetryBaseDelayMs = 250
	}
	if c.Embedding.CachePath == "" {
		c.Embedding.CachePath = "data/embeddings.bin"
	}
	if c.Search.TopN <= 0 {
		c.Search.TopN = 20
	}
	if c.Search.MinCandidates <= 0 {
		c.Search.MinCandidates = 5
	}
	if c.Search.FeaturedCount <= 0 {
		c.Search.FeaturedCount = 8
	}
	if c.Search.RetrievalMaxK <= 0 {
		c.Search.RetrievalMaxK = 10
	}
	if c.Vocab.Path == "" {
		c.Vocab.Path = "config/vocab.yaml"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Corpus.Driver {
	case "file":
		if c.Corpus.Path == "" {
			return fmt.Errorf("corpus.path is required for the file driver")
		}
	case "redis":
		if len(c.Corpus.Addrs) == 0 {
			return fmt.Errorf("corpus.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("corpus.driver must be \"file\" or \"redis\", got %q", c.Corpus.Driver)
	}
	if c.Corpus.MaxMalformedFraction > 1 {
		return fmt.Errorf("corpus.max_malformed_fraction must be at most 1, got %g",
			c.Corpus.MaxMalformedFraction)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
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
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
