// internal/browser/cdp/config.go
package cdp

import "time"

// Config controls how the browser is launched and how long single CDP
// operations may take.
type Config struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	ExecPath          string        `mapstructure:"exec_path" yaml:"exec_path"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	ExtendedEvasions  bool          `mapstructure:"extended_evasions" yaml:"extended_evasions"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
}

// DefaultConfig launches a visible browser.
func DefaultConfig() Config {
	return Config{
		Headless:          false,
		NavigationTimeout: 60 * time.Second,
		ActionTimeout:     10 * time.Second,
	}
}
