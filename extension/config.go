package extension

import "time"

// Config holds the Recur extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.recur" or "recur" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Treasury is the settlement destination address (0x hex).
	Treasury string `json:"treasury" mapstructure:"treasury" yaml:"treasury"`

	// PeriodPolicy selects "months" or "fixed" billing periods
	// (default: "months").
	PeriodPolicy string `json:"period_policy" mapstructure:"period_policy" yaml:"period_policy"`

	// PeriodMonths is the period length in calendar months when
	// PeriodPolicy is "months" (default: 1).
	PeriodMonths int `json:"period_months" mapstructure:"period_months" yaml:"period_months"`

	// PeriodFixed is the period length when PeriodPolicy is "fixed".
	PeriodFixed time.Duration `json:"period_fixed" mapstructure:"period_fixed" yaml:"period_fixed"`

	// RenewWindow is how far before expiry keeper renewal is allowed
	// (default: 168h).
	RenewWindow time.Duration `json:"renew_window" mapstructure:"renew_window" yaml:"renew_window"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PeriodPolicy: "months",
		PeriodMonths: 1,
		RenewWindow:  7 * 24 * time.Hour,
	}
}
