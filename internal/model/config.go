package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds the complete runtime configuration
type Config struct {
	Database     DatabaseConfig     `yaml:"database" mapstructure:"database"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Filter       FilterConfig       `yaml:"filter" mapstructure:"filter"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Paths        PathsConfig        `yaml:"paths" mapstructure:"paths"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// DatabaseConfig describes the route database connection
type DatabaseConfig struct {
	// Driver selects the backend: "postgres" (production) or "sqlite"
	Driver string `yaml:"driver" mapstructure:"driver"`

	// Postgres connection parameters
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Name     string `yaml:"name" mapstructure:"name"`
	SSLMode  string `yaml:"sslmode" mapstructure:"sslmode"`

	// Path is the database file for the sqlite driver
	Path string `yaml:"path" mapstructure:"path"`
}

// LLMConfig describes the classifier backend
type LLMConfig struct {
	// Provider name: "openai", "anthropic", "ollama", "" (disabled)
	Provider string `yaml:"provider" mapstructure:"provider"`

	// Model name (provider-specific)
	Model string `yaml:"model" mapstructure:"model"`

	// APIKey for OpenAI/Anthropic (normally set via env)
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout for API requests, seconds
	Timeout int `yaml:"timeout" mapstructure:"timeout"`

	// MaxTokens for response generation
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// FilterConfig describes route eligibility
type FilterConfig struct {
	// Activities a route must overlap to be processed
	Activities []string `yaml:"activities" mapstructure:"activities"`
}

// CacheConfig describes the classifier reply cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// RateLimitingConfig throttles classifier calls
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// PathsConfig holds filesystem locations for the CSV pipeline
type PathsConfig struct {
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
}

// OutputConfig controls progress reporting
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:  "postgres",
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			Name:    "topo",
			SSLMode: "disable",
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4o",
			Timeout:   60,
			MaxTokens: 600,
		},
		Filter: FilterConfig{
			Activities: []string{"rock_climbing", "bouldering", "mountain_climbing"},
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       defaultCacheDir(),
			MemoryTTL: 2 * time.Hour,
			DiskTTL:   30 * 24 * time.Hour,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 1.0,
			BurstSize:         2,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Paths: PathsConfig{
			DataDir: "./data",
		},
		Output: OutputConfig{
			Verbose: false,
		},
	}
}

// defaultCacheDir returns ~/.cotations/cache, falling back to a relative
// directory when the home directory cannot be resolved
func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cotations-cache"
	}
	return filepath.Join(home, ".cotations", "cache")
}
