package extension

import (
	"time"

	recur "github.com/xraph/recur"
	"github.com/xraph/recur/guard"
	"github.com/xraph/recur/payment"
	"github.com/xraph/recur/plugin"
	"github.com/xraph/recur/store"
)

// Option configures the Recur Forge extension.
type Option func(*Extension)

// WithStore sets the store for the engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithRecurOption passes a recur.Option through to the underlying engine.
func WithRecurOption(opt recur.Option) Option {
	return func(e *Extension) {
		e.recurOpts = append(e.recurOpts, opt)
	}
}

// WithPlugin registers a recur plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.recurOpts = append(e.recurOpts, recur.WithPlugin(p))
	}
}

// WithTransfers sets the value-transfer collaborators for settlement.
func WithTransfers(native payment.NativeTransfer, token payment.TokenTransfer) Option {
	return func(e *Extension) {
		e.recurOpts = append(e.recurOpts, recur.WithTransfers(native, token))
	}
}

// WithAuthorizer sets the capability authorizer for admin and service calls.
func WithAuthorizer(a guard.Authorizer) Option {
	return func(e *Extension) {
		e.recurOpts = append(e.recurOpts, recur.WithAuthorizer(a))
	}
}

// WithPauser sets the emergency-stop collaborator.
func WithPauser(p guard.Pauser) Option {
	return func(e *Extension) {
		e.recurOpts = append(e.recurOpts, recur.WithPauser(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithTreasury sets the settlement destination address (0x hex).
func WithTreasury(addr string) Option {
	return func(e *Extension) { e.config.Treasury = addr }
}

// WithRenewWindow sets how far before expiry keeper renewal is allowed.
func WithRenewWindow(d time.Duration) Option {
	return func(e *Extension) { e.config.RenewWindow = d }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
