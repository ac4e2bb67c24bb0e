// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Config is the full citation-engine configuration as loaded by viper.
type Config struct {
	Scopus  ScopusConfig  `mapstructure:"scopus" json:"scopus" yaml:"scopus"`
	Catalog CatalogConfig `mapstructure:"catalog" json:"catalog" yaml:"catalog"`
	Logging LoggingConfig `mapstructure:"logging" json:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" json:"metrics" yaml:"metrics"`
	Store   StoreConfig   `mapstructure:"store" json:"store" yaml:"store"`
}

// HTTPConfig holds shared HTTP settings.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout" validate:"gt=0"`

	// UserAgent is sent with every request (e.g. "citation-engine/0.1").
	UserAgent string `mapstructure:"user_agent" json:"user_agent" yaml:"user_agent"`
}

// ScopusConfig holds settings for the Scopus Search API client.
type ScopusConfig struct {
	HTTPConfig `mapstructure:",squash" yaml:",inline"`

	// BaseURL is the search endpoint.
	BaseURL string `mapstructure:"base_url" json:"base_url" yaml:"base_url" validate:"required,url"`

	// APIKey needs COMPLETE view access; cited-by queries need the extra
	// REFEID entitlement from Elsevier support.
	APIKey string `mapstructure:"api_key" json:"-" yaml:"-"`

	// RateLimit is the sustained request rate in requests per second (default 9).
	RateLimit float64 `mapstructure:"rate_limit" json:"rate_limit" yaml:"rate_limit" validate:"gt=0"`

	// Burst is the limiter burst size (default 1).
	Burst int `mapstructure:"burst" json:"burst" yaml:"burst" validate:"gte=1"`

	// MaxRetries bounds retries on HTTP 429 (default 5).
	MaxRetries int `mapstructure:"max_retries" json:"max_retries" yaml:"max_retries" validate:"gte=0"`

	// ProgressEvery logs remaining quota every N rows of a bulk pull (default 100).
	ProgressEvery int `mapstructure:"progress_every" json:"progress_every" yaml:"progress_every" validate:"gte=1"`
}

// CatalogConfig names the static tables the reference catalog is built from.
type CatalogConfig struct {
	// Heuristic selects how a journal's discipline is chosen: asjc, subjects or mapping.
	Heuristic string `mapstructure:"heuristic" json:"heuristic" yaml:"heuristic" validate:"oneof=asjc subjects mapping"`

	// MetricsFile is the CiteScore metrics export (Title, Quartile, CiteScore, ASJC code).
	MetricsFile string `mapstructure:"metrics_file" json:"metrics_file" yaml:"metrics_file"`

	// SourcesFile is the Scopus source list with Source Type and joined subject column.
	SourcesFile string `mapstructure:"sources_file" json:"sources_file" yaml:"sources_file"`

	// FieldMapFile maps ASJC codes or subject names to NS, EC, GI or Other.
	FieldMapFile string `mapstructure:"field_map_file" json:"field_map_file" yaml:"field_map_file"`

	// MappingFile is a precomputed Publication_Name, Quartile, Field, CiteScore table.
	MappingFile string `mapstructure:"mapping_file" json:"mapping_file" yaml:"mapping_file"`

	// Encoding of the table files: utf-8 or cp1252.
	Encoding string `mapstructure:"encoding" json:"encoding" yaml:"encoding" validate:"oneof=utf-8 cp1252"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" json:"level" yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" json:"format" yaml:"format" validate:"oneof=json console"`
	Output string `mapstructure:"output" json:"output" yaml:"output" validate:"oneof=stdout stderr"`
}

// MetricsConfig configures the Prometheus textfile written at exit.
type MetricsConfig struct {
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace" json:"namespace" yaml:"namespace" validate:"required"`

	// Textfile is written when non-empty.
	Textfile string `mapstructure:"textfile" json:"textfile" yaml:"textfile"`
}

// StoreConfig locates the run ledger database.
type StoreConfig struct {
	Path string `mapstructure:"path" json:"path" yaml:"path" validate:"required"`
}
