package configloader

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/yaklabco/gorulesync/pkg/config"
)

// EnvPrefix is the prefix of every settings environment variable,
// e.g. GORULESYNC_API_TOKEN or GORULESYNC_CACHE_POLL_INTERVAL.
const EnvPrefix = "GORULESYNC"

// SettingsOptions controls settings loading.
type SettingsOptions struct {
	// ExplicitPath is a settings file given with --settings. It must exist.
	ExplicitPath string

	// IgnoreUserSettings skips the user-level settings file.
	IgnoreUserSettings bool

	// IgnoreEnv skips environment variables.
	IgnoreEnv bool
}

// SettingsResult contains the resolved settings and where they came from.
type SettingsResult struct {
	Settings *config.Settings

	// LoadedFrom is the settings file that was read, if any.
	LoadedFrom string
}

// LoadSettings resolves the engine settings.
// Precedence (highest to lowest):
//  1. Environment variables (GORULESYNC_*)
//  2. Explicit settings file (opts.ExplicitPath)
//  3. User settings ($XDG_CONFIG_HOME/gorulesync/config.yaml)
//  4. Defaults
func LoadSettings(opts SettingsOptions) (*SettingsResult, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	defaults := config.NewSettings()
	setDefaults(v, defaults)

	if !opts.IgnoreEnv {
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	path := opts.ExplicitPath
	if path == "" && !opts.IgnoreUserSettings {
		path = UserSettingsPath()
	}

	result := &SettingsResult{}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings %s: %w", path, err)
		}
		result.LoadedFrom = v.ConfigFileUsed()
	}

	settings := config.NewSettings()
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	result.Settings = settings
	return result, nil
}

// setDefaults registers every key so that environment overrides apply.
func setDefaults(v *viper.Viper, s *config.Settings) {
	v.SetDefault("api.graphql_url", s.API.GraphQLURL)
	v.SetDefault("api.analysis_url", s.API.AnalysisURL)
	v.SetDefault("api.token", s.API.Token)
	v.SetDefault("api.timeout", s.API.Timeout)
	v.SetDefault("api.max_retries", s.API.MaxRetries)

	v.SetDefault("cache.poll_interval", s.Cache.PollInterval)
	v.SetDefault("cache.ready_timeout", s.Cache.ReadyTimeout)
	v.SetDefault("cache.watch_config", s.Cache.WatchConfig)

	v.SetDefault("session.debounce", s.Session.Debounce)

	v.SetDefault("analysis.cache_size", s.Analysis.CacheSize)
	v.SetDefault("analysis.log_output", s.Analysis.LogOutput)

	v.SetDefault("log_level", s.LogLevel)
	v.SetDefault("rule_format", string(s.RuleFormat))
}

// EnvVarName returns the environment variable that overrides key.
func EnvVarName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
