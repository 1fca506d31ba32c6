// Package extension provides the Forge extension adapter for Recur.
//
// It implements the forge.Extension interface to integrate Recur
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.recur" or "recur" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	recur "github.com/xraph/recur"
	"github.com/xraph/recur/store"
	"github.com/xraph/recur/store/memory"
	"github.com/xraph/recur/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "recur"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Recurring tiered subscription engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Recur as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config    Config
	engine    *recur.Engine
	store     store.Store
	recurOpts []recur.Option
}

// New creates a new Recur Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Recur instance.
// This is nil until Register is called.
func (e *Extension) Engine() *recur.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	opts, err := e.buildRecurOpts()
	if err != nil {
		return err
	}

	eng := recur.New(e.store, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*recur.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("recur: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("recur: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildRecurOpts constructs recur.Option values from the resolved config.
func (e *Extension) buildRecurOpts() ([]recur.Option, error) {
	opts := make([]recur.Option, 0, len(e.recurOpts)+1)

	if e.config.Treasury != "" {
		treasury, err := types.ParseAddress(e.config.Treasury)
		if err != nil {
			return nil, fmt.Errorf("recur: treasury in config: %w", err)
		}
		cfg := recur.Config{
			Treasury:     treasury,
			Policy:       recur.PeriodPolicy(e.config.PeriodPolicy),
			PeriodMonths: e.config.PeriodMonths,
			PeriodFixed:  e.config.PeriodFixed,
			RenewWindow:  e.config.RenewWindow,
		}
		opts = append(opts, recur.WithConfig(cfg))
	}

	// Append any pass-through recur options.
	opts = append(opts, e.recurOpts...)

	return opts, nil
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("recur: configuration is required but not found in config files; " +
				"ensure 'extensions.recur' or 'recur' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("recur: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("treasury", e.config.Treasury),
		forge.F("period_policy", e.config.PeriodPolicy),
		forge.F("period_months", e.config.PeriodMonths),
		forge.F("period_fixed", e.config.PeriodFixed),
		forge.F("renew_window", e.config.RenewWindow),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.recur" first (namespaced pattern).
	if cm.IsSet("extensions.recur") {
		if err := cm.Bind("extensions.recur", &cfg); err == nil {
			e.Logger().Debug("recur: loaded config from file",
				forge.F("key", "extensions.recur"),
			)
			return cfg, true
		}
		e.Logger().Warn("recur: failed to bind extensions.recur config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "recur" key.
	if cm.IsSet("recur") {
		if err := cm.Bind("recur", &cfg); err == nil {
			e.Logger().Debug("recur: loaded config from file",
				forge.F("key", "recur"),
			)
			return cfg, true
		}
		e.Logger().Warn("recur: failed to bind recur config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.PeriodPolicy == "" {
		cfg.PeriodPolicy = defaults.PeriodPolicy
	}
	if cfg.PeriodPolicy == defaults.PeriodPolicy && cfg.PeriodMonths == 0 {
		cfg.PeriodMonths = defaults.PeriodMonths
	}
	if cfg.RenewWindow == 0 {
		cfg.RenewWindow = defaults.RenewWindow
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.Treasury == "" && programmaticConfig.Treasury != "" {
		yamlConfig.Treasury = programmaticConfig.Treasury
	}
	if yamlConfig.PeriodPolicy == "" && programmaticConfig.PeriodPolicy != "" {
		yamlConfig.PeriodPolicy = programmaticConfig.PeriodPolicy
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.PeriodMonths == 0 && programmaticConfig.PeriodMonths != 0 {
		yamlConfig.PeriodMonths = programmaticConfig.PeriodMonths
	}
	if yamlConfig.PeriodFixed == 0 && programmaticConfig.PeriodFixed != 0 {
		yamlConfig.PeriodFixed = programmaticConfig.PeriodFixed
	}
	if yamlConfig.RenewWindow == 0 && programmaticConfig.RenewWindow != 0 {
		yamlConfig.RenewWindow = programmaticConfig.RenewWindow
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
