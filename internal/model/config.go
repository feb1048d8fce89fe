package model

import "time"

// Config is the complete runtime configuration.
// Precedence: flags > AFFIDAVIT_* env vars > config file > DefaultConfig.
type Config struct {
	Template     TemplateConfig     `yaml:"template" mapstructure:"template"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// TemplateConfig controls how the Form 11 template is loaded and filled.
type TemplateConfig struct {
	Path         string `yaml:"path" mapstructure:"path"`                   // empty = embedded template
	FormatNames  bool   `yaml:"format_names" mapstructure:"format_names"`   // "Given SURNAME", upper-case claimant
	PrefillPlace bool   `yaml:"prefill_place" mapstructure:"prefill_place"` // [Place] <- served defendant's address
	ProcessName  string `yaml:"process_name" mapstructure:"process_name"`
}

// ServerConfig configures the HTTP function shell.
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr"`
	Base64Body   bool          `yaml:"base64_body" mapstructure:"base64_body"`
	AllowOrigin  string        `yaml:"allow_origin" mapstructure:"allow_origin"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// LLMConfig configures claim extraction.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"` // never written to config files
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`

	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures the extraction cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig configures batch processing.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig limits calls to the LLM provider. Providers overrides
// the default limit per provider name (openai, anthropic, ollama).
type RateLimitingConfig struct {
	RequestsPerSecond float64                 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int                     `yaml:"burst_size" mapstructure:"burst_size"`
	Providers         map[string]ProviderRate `yaml:"providers,omitempty" mapstructure:"providers"`
}

// ProviderRate is one provider's limit.
type ProviderRate struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig configures where batch output goes.
type OutputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json, console
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Template: TemplateConfig{
			ProcessName: "General Procedure Claim",
		},
		Server: ServerConfig{
			Addr:         ":8888",
			Base64Body:   true,
			AllowOrigin:  "*",
			MaxBodyBytes: 1 << 20,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 1024,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".affidavit-cache",
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         2,
		},
		Output: OutputConfig{
			Dir: "./affidavits",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
