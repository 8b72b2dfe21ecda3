// Package config defines the engine settings for gorulesync.
// These types are pure data structures; loading lives in internal/configloader.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Default settings values.
const (
	DefaultPollInterval      = 10 * time.Second
	DefaultReadyTimeout      = 2 * time.Second
	DefaultDebounce          = 500 * time.Millisecond
	DefaultRequestTimeout    = 10 * time.Second
	DefaultAnalysisCacheSize = 256
	DefaultLogLevel          = "info"
)

// RuleFormat controls how rule identifiers appear in output.
type RuleFormat string

// Rule format values.
const (
	RuleFormatName     RuleFormat = "name"     // "no-eval"
	RuleFormatRuleset  RuleFormat = "ruleset"  // "python-security"
	RuleFormatCombined RuleFormat = "combined" // "python-security/no-eval"
)

// APIConfig configures the remote rule service.
type APIConfig struct {
	// GraphQLURL serves ruleset queries.
	GraphQLURL string `mapstructure:"graphql_url" yaml:"graphql_url"`

	// AnalysisURL runs analyses.
	AnalysisURL string `mapstructure:"analysis_url" yaml:"analysis_url"`

	// Token authenticates requests. Set it through the environment, not a file.
	Token string `mapstructure:"token" yaml:"-"`

	// Timeout bounds each request.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// MaxRetries is the number of retries of transient failures.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
}

// CacheConfig configures the rule cache.
type CacheConfig struct {
	// PollInterval is the delay between two refreshes.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`

	// ReadyTimeout bounds how long a session waits for the first refresh.
	ReadyTimeout time.Duration `mapstructure:"ready_timeout" yaml:"ready_timeout"`

	// WatchConfig triggers an early refresh when the ruleset file changes.
	WatchConfig bool `mapstructure:"watch_config" yaml:"watch_config"`
}

// SessionConfig configures annotation sessions.
type SessionConfig struct {
	// Debounce is the quiet period after the last edit before analyzing.
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// AnalysisConfig configures analysis requests.
type AnalysisConfig struct {
	// CacheSize is the number of analysis responses memoized (0 disables).
	CacheSize int `mapstructure:"cache_size" yaml:"cache_size"`

	// LogOutput asks the analyzer to return rule execution logs.
	LogOutput bool `mapstructure:"log_output" yaml:"log_output"`
}

// Settings is the root engine configuration.
type Settings struct {
	API      APIConfig      `mapstructure:"api" yaml:"api"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Session  SessionConfig  `mapstructure:"session" yaml:"session"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	LogLevel string         `mapstructure:"log_level" yaml:"log_level"`

	// RuleFormat controls how rule identifiers appear in reports.
	RuleFormat RuleFormat `mapstructure:"rule_format" yaml:"rule_format"`
}

// NewSettings returns Settings populated with defaults.
func NewSettings() *Settings {
	return &Settings{
		API: APIConfig{
			Timeout:    DefaultRequestTimeout,
			MaxRetries: 2,
		},
		Cache: CacheConfig{
			PollInterval: DefaultPollInterval,
			ReadyTimeout: DefaultReadyTimeout,
			WatchConfig:  true,
		},
		Session: SessionConfig{
			Debounce: DefaultDebounce,
		},
		Analysis: AnalysisConfig{
			CacheSize: DefaultAnalysisCacheSize,
		},
		LogLevel:   DefaultLogLevel,
		RuleFormat: RuleFormatCombined,
	}
}

// ValidationError describes one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks that every setting is usable. All problems are reported.
func (s *Settings) Validate() error {
	var errs []error

	for field, raw := range map[string]string{
		"api.graphql_url":  s.API.GraphQLURL,
		"api.analysis_url": s.API.AnalysisURL,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf("invalid URL %q", raw)})
		}
	}

	if s.API.Timeout <= 0 {
		errs = append(errs, &ValidationError{Field: "api.timeout", Message: "must be positive"})
	}
	if s.API.MaxRetries < 0 {
		errs = append(errs, &ValidationError{Field: "api.max_retries", Message: "must not be negative"})
	}
	if s.Cache.PollInterval <= 0 {
		errs = append(errs, &ValidationError{Field: "cache.poll_interval", Message: "must be positive"})
	}
	if s.Cache.ReadyTimeout < 0 {
		errs = append(errs, &ValidationError{Field: "cache.ready_timeout", Message: "must not be negative"})
	}
	if s.Session.Debounce < 0 {
		errs = append(errs, &ValidationError{Field: "session.debounce", Message: "must not be negative"})
	}
	if s.Analysis.CacheSize < 0 {
		errs = append(errs, &ValidationError{Field: "analysis.cache_size", Message: "must not be negative"})
	}

	switch s.RuleFormat {
	case RuleFormatName, RuleFormatRuleset, RuleFormatCombined, "":
	default:
		errs = append(errs, &ValidationError{
			Field:   "rule_format",
			Message: fmt.Sprintf("unknown format %q (want name, ruleset or combined)", s.RuleFormat),
		})
	}

	return errors.Join(errs...)
}

// HasCredentials reports whether an API token is configured.
func (s *Settings) HasCredentials() bool {
	return s.API.Token != ""
}
