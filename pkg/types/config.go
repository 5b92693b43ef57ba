package types

import "time"

// HTTPConfig holds shared HTTP settings used by every source adapter.
type HTTPConfig struct {
	// ConnectTimeout bounds dialing and the TLS handshake (default 3s).
	ConnectTimeout time.Duration `json:"connect_timeout" yaml:"connect_timeout"`

	// ReadTimeout bounds a whole request including reading the body (default 15s).
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "litfinder/1.0").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429 and 5xx (default 2).
	// Zero disables retries; a negative value selects the default.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SearchConfig holds settings for the fetch stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the per-source cap (default 300).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// Sources lists the sources queried when a request names none.
	Sources []SourceName `json:"sources" yaml:"sources"`

	// OpenAlexEmail is sent as the mailto parameter for the polite pool.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// CrossrefMailto is sent as the mailto parameter for the Crossref polite pool.
	CrossrefMailto string `json:"crossref_mailto,omitempty" yaml:"crossref_mailto,omitempty"`

	// RateLimit is the per-source request rate in requests per second (default 5).
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`
}

// AIConfig holds settings for the AI enrichment collaborator.
type AIConfig struct {
	// Model is the model identifier (e.g. "gpt-5-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retries on a failed AI call (default 2).
	// Zero disables retries; a negative value selects the default.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// EnrichConfig holds settings for the enrichment stage.
type EnrichConfig struct {
	AIConfig `yaml:",inline"`

	// Summaries enables per-record summaries.
	Summaries bool `json:"summaries" yaml:"summaries"`

	// Keywords enables per-record keyphrase extraction.
	Keywords bool `json:"keywords" yaml:"keywords"`

	// SummaryWords is the target summary length in words (30-160, default 60).
	SummaryWords int `json:"summary_words" yaml:"summary_words"`

	// TopN is the number of keyphrases per record (default 5).
	TopN int `json:"top_n" yaml:"top_n"`

	// PreviewCount is the number of leading rows enriched when ProcessAll
	// is false (default 20).
	PreviewCount int `json:"preview_count" yaml:"preview_count"`

	// ProcessAll enriches every row instead of the preview.
	ProcessAll bool `json:"process_all" yaml:"process_all"`

	// Concurrency bounds in-flight enrichment calls (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// Enabled reports whether any enrichment is requested.
func (c EnrichConfig) Enabled() bool { return c.Summaries || c.Keywords }

// CacheConfig holds settings for the fetch cache.
type CacheConfig struct {
	// Dir is the directory holding the cache database.
	Dir string `json:"dir" yaml:"dir"`

	// TTL is how long a cached fetch stays valid (default 1h).
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// Disabled turns the cache off.
	Disabled bool `json:"disabled" yaml:"disabled"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Search SearchConfig `json:"search" yaml:"search"`
	Enrich EnrichConfig `json:"enrich" yaml:"enrich"`
	Cache  CacheConfig  `json:"cache" yaml:"cache"`
	Log    LogConfig    `json:"log" yaml:"log"`
}
