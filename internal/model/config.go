package model

import "time"

// Config is the complete runtime configuration
type Config struct {
	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	LinkCheck LinkCheckConfig `yaml:"link_check" mapstructure:"link_check"`
	Oracle    OracleConfig    `yaml:"oracle" mapstructure:"oracle"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Reference ReferenceConfig `yaml:"reference" mapstructure:"reference"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
}

// EngineConfig tunes the corroboration engine
type EngineConfig struct {
	BestSize           int     `yaml:"best_size" mapstructure:"best_size"`                       // Size of the "best sources" list
	PoolSize           int     `yaml:"pool_size" mapstructure:"pool_size"`                       // Size of the full source pool
	MinRationaleLength int     `yaml:"min_rationale_length" mapstructure:"min_rationale_length"` // Shorter rationales are not actionable
	NeutralWeight      float64 `yaml:"neutral_weight" mapstructure:"neutral_weight"`             // Weight of neutral evidence as support
	HardThreshold      float64 `yaml:"hard_threshold" mapstructure:"hard_threshold"`             // Weighted score above which disagreement is unresolved
	ScopeThreshold     float64 `yaml:"scope_threshold" mapstructure:"scope_threshold"`           // Weighted score at or below which disagreement is a scope difference
}

// LinkCheckConfig controls the live link verifier
type LinkCheckConfig struct {
	Enabled           bool          `yaml:"enabled" mapstructure:"enabled"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"` // Per-check timeout
	Budget            int           `yaml:"budget" mapstructure:"budget"`   // Total checks per request
	Workers           int           `yaml:"workers" mapstructure:"workers"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"` // Per-domain
	BurstSize         int           `yaml:"burst_size" mapstructure:"burst_size"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy           string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// OracleConfig configures the external LLM oracle
type OracleConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, file
	Model       string `yaml:"model" mapstructure:"model"`
	APIKey      string `yaml:"-" mapstructure:"api_key"` // Never written to config files
	BaseURL     string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	PayloadPath string `yaml:"payload_path,omitempty" mapstructure:"payload_path"` // For the file provider
	Timeout     int    `yaml:"timeout" mapstructure:"timeout"`                      // seconds
	MaxTokens   int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxAttempts int    `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// CacheConfig configures the oracle response cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ReferenceConfig points at an optional reference table override
type ReferenceConfig struct {
	Path string `yaml:"path,omitempty" mapstructure:"path"` // Empty uses the built-in tables
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			BestSize:           4,
			PoolSize:           10,
			MinRationaleLength: 20,
			NeutralWeight:      0.5,
			HardThreshold:      60,
			ScopeThreshold:     25,
		},
		LinkCheck: LinkCheckConfig{
			Enabled:           true,
			Timeout:           1200 * time.Millisecond,
			Budget:            8,
			Workers:           4,
			UserAgent:         "Credence/0.1 (+https://github.com/ppiankov/credence)",
			RequestsPerSecond: 2,
			BurstSize:         2,
		},
		Oracle: OracleConfig{
			Provider:    "",
			Timeout:     30,
			MaxTokens:   1500,
			MaxAttempts: 3,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".credence-cache",
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   6 * time.Hour,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
