package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/yaklabco/gorulesync/internal/configloader"
	"github.com/yaklabco/gorulesync/internal/logging"
	"github.com/yaklabco/gorulesync/pkg/config"
	"github.com/yaklabco/gorulesync/pkg/rulecache"
	"github.com/yaklabco/gorulesync/pkg/rulesource"
)

// environment is everything a command needs to talk to the rule service.
type environment struct {
	settings *config.Settings
	root     string
	resolver *configloader.Resolver
	provider rulesource.Provider
	logger   *log.Logger
}

// commandContext returns the command context, never nil.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadEnvironment resolves settings, the project root and the rule source.
func loadEnvironment(ctx context.Context, globals *globalFlags) (*environment, error) {
	loaded, err := configloader.LoadSettings(configloader.SettingsOptions{
		ExplicitPath: globals.settingsPath,
	})
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	settings := loaded.Settings

	if !globals.debug {
		logging.SetLevel(settings.LogLevel)
	}
	logger := logging.Default()
	if loaded.LoadedFrom != "" {
		logger.Debug("loaded settings", logging.FieldPath, loaded.LoadedFrom)
	}

	root := globals.root
	if root == "" {
		root, err = configloader.FindProjectRoot(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("find project root: %w", err)
		}
	}
	logger.Debug("project root", logging.FieldRoot, root)

	provider := globals.provider
	if provider == nil {
		provider = newProvider(settings, logger)
	}

	return &environment{
		settings: settings,
		root:     root,
		resolver: configloader.NewResolver(root),
		provider: provider,
		logger:   logger,
	}, nil
}

// newProvider builds the HTTP rule source described by settings.
func newProvider(settings *config.Settings, logger *log.Logger) rulesource.Provider {
	retry := rulesource.DefaultRetryConfig()
	retry.MaxRetries = settings.API.MaxRetries

	provider := rulesource.NewProvider(rulesource.ClientOptions{
		GraphQLURL:  settings.API.GraphQLURL,
		AnalysisURL: settings.API.AnalysisURL,
		Token:       settings.API.Token,
		Timeout:     settings.API.Timeout,
		Retry:       retry,
		Logger:      logger,
	})

	if settings.Analysis.CacheSize > 0 {
		provider = rulesource.CachedProvider(provider, settings.Analysis.CacheSize)
	}
	return provider
}

// source returns a rule source or explains why none is configured.
func (e *environment) source() (rulesource.Source, error) {
	src, err := e.provider()
	if err != nil {
		return nil, fmt.Errorf("rule source: %w", err)
	}
	return src, nil
}

// newCache creates a rule cache for the project.
func (e *environment) newCache() *rulecache.Cache {
	return rulecache.New(e.resolver, e.provider,
		rulecache.WithInterval(e.settings.Cache.PollInterval),
		rulecache.WithReadyTimeout(e.settings.Cache.ReadyTimeout),
		rulecache.WithLogger(e.logger),
	)
}

// loadRules creates a rule cache and fills it with one update.
func (e *environment) loadRules(ctx context.Context) (*rulecache.Cache, error) {
	if _, err := e.source(); err != nil {
		return nil, err
	}

	cache := e.newCache()
	result := cache.HandleUpdate(ctx)
	e.logger.Debug("rules loaded",
		logging.FieldResult, result,
		logging.FieldRules, cache.RuleCount(),
		logging.FieldTimestamp, cache.Timestamp(),
	)

	if cache.IsEmpty() {
		if _, ok := e.resolver.Find(); !ok {
			e.logger.Warn("no project rulesets; run 'gorulesync init' to create one",
				logging.FieldPath, e.resolver.Path())
		} else {
			e.logger.Warn("no rules loaded", logging.FieldPath, e.resolver.Path())
		}
	}

	return cache, nil
}
