package model

import "time"

// Config is the process-wide configuration. It is built once at startup and
// treated as read-only afterwards.
type Config struct {
	Server       ServerConfig      `yaml:"server" mapstructure:"server"`
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	Pipeline     PipelineConfig    `yaml:"pipeline" mapstructure:"pipeline"`
	Translate    TranslateConfig   `yaml:"translate" mapstructure:"translate"`
	FactCheck    FactCheckConfig   `yaml:"factcheck" mapstructure:"factcheck"`
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Feedback     FeedbackConfig    `yaml:"feedback" mapstructure:"feedback"`
	Reference    ReferenceConfig   `yaml:"reference" mapstructure:"reference"`
	Knowledge    KnowledgeConfig   `yaml:"knowledge" mapstructure:"knowledge"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Logging      LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	StaticDir       string        `yaml:"static_dir" mapstructure:"static_dir"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// HTTPConfig holds outbound HTTP client settings shared by all adapters
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// PipelineConfig controls the check pipeline
type PipelineConfig struct {
	PivotLanguage   string            `yaml:"pivot_language" mapstructure:"pivot_language"`
	DisplayLanguage string            `yaml:"display_language" mapstructure:"display_language"`
	DefaultMode     string            `yaml:"default_mode" mapstructure:"default_mode"`
	SourcePriority  string            `yaml:"source_priority" mapstructure:"source_priority"` // "", database, balanced
	FeedbackLimit   int               `yaml:"feedback_limit" mapstructure:"feedback_limit"`
	SearchLinks     map[string]string `yaml:"search_links" mapstructure:"search_links"`
	Timeouts        StepTimeouts      `yaml:"timeouts" mapstructure:"timeouts"`
}

// StepTimeouts bounds every external call made while serving one check.
// A timeout is handled as a failure of that provider.
type StepTimeouts struct {
	Translate time.Duration `yaml:"translate" mapstructure:"translate"`
	FactCheck time.Duration `yaml:"factcheck" mapstructure:"factcheck"`
	Model     time.Duration `yaml:"model" mapstructure:"model"`
	Reference time.Duration `yaml:"reference" mapstructure:"reference"`
	Store     time.Duration `yaml:"store" mapstructure:"store"`
}

// TranslateConfig selects and configures the translation backend
type TranslateConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"` // google, llm, identity
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Cache   bool   `yaml:"cache" mapstructure:"cache"`
}

// FactCheckConfig configures the claim-search capability
type FactCheckConfig struct {
	APIKey       string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	LanguageCode string  `yaml:"language_code" mapstructure:"language_code"`
	PageSize     int     `yaml:"page_size" mapstructure:"page_size"`
	RequestsPerS float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst        int     `yaml:"burst" mapstructure:"burst"`
}

// LLMConfig holds LLM provider configuration
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, gemini
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// FeedbackConfig selects the feedback store backend
type FeedbackConfig struct {
	Backend  string `yaml:"backend" mapstructure:"backend"` // file, sqlite, postgres
	Path     string `yaml:"path" mapstructure:"path"`       // file log or sqlite database path
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Name     string `yaml:"name" mapstructure:"name"`
	SSLMode  string `yaml:"ssl_mode" mapstructure:"ssl_mode"`
}

// ReferenceConfig configures the optional page-crawl reference lookup
type ReferenceConfig struct {
	Enabled       bool   `yaml:"enabled" mapstructure:"enabled"`
	URLTemplate   string `yaml:"url_template" mapstructure:"url_template"`
	Selector      string `yaml:"selector" mapstructure:"selector"`
	MaxChars      int    `yaml:"max_chars" mapstructure:"max_chars"`
	RespectRobots bool   `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// KnowledgeConfig configures the database-sourced fact lookup
type KnowledgeConfig struct {
	Source string `yaml:"source" mapstructure:"source"` // "", yaml, store
	Path   string `yaml:"path" mapstructure:"path"`

	// CacheTTL bounds how long a store fact is reused before it is read
	// again; zero reads the store on every check
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// CacheConfig configures translation and reference caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskDir   string        `yaml:"disk_dir" mapstructure:"disk_dir"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// RateLimitConfig limits inbound requests per client address
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json, console
}

// ConcurrencyConfig controls batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			StaticDir:       "web",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    64 << 10,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "factsift/0.1 (+https://github.com/ppiankov/factsift)",
			MaxBodyBytes: 2_000_000,
		},
		Pipeline: PipelineConfig{
			PivotLanguage:   "en",
			DisplayLanguage: "ko",
			DefaultMode:     "news",
			FeedbackLimit:   10,
			SearchLinks: map[string]string{
				"naver":  "https://search.naver.com/search.naver?query={query}&where=news",
				"google": "https://www.google.com/search?q={query}&tbm=nws",
			},
			Timeouts: StepTimeouts{
				Translate: 10 * time.Second,
				FactCheck: 10 * time.Second,
				Model:     60 * time.Second,
				Reference: 8 * time.Second,
				Store:     5 * time.Second,
			},
		},
		Translate: TranslateConfig{
			Backend: "google",
			BaseURL: "https://translation.googleapis.com",
			Cache:   true,
		},
		FactCheck: FactCheckConfig{
			BaseURL:      "https://factchecktools.googleapis.com",
			LanguageCode: "en",
			PageSize:     5,
			RequestsPerS: 5,
			Burst:        5,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Timeout:     60,
			MaxTokens:   1200,
			Temperature: 0.3,
		},
		Feedback: FeedbackConfig{
			Backend: "file",
			Path:    "logs/feedback_log.json",
			Port:    5432,
			SSLMode: "disable",
		},
		Reference: ReferenceConfig{
			Enabled:       false,
			URLTemplate:   "https://en.wikipedia.org/w/index.php?search={query}",
			Selector:      "#mw-content-text p",
			MaxChars:      1500,
			RespectRobots: true,
		},
		Knowledge: KnowledgeConfig{
			CacheTTL: time.Minute,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 1 * time.Hour,
			DiskDir:   ".factsift/cache",
			DiskTTL:   24 * time.Hour,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
	}
}
