// File: internal/orchestrator/config.go
package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/xkilldash9x/quickfinder/internal/browser/humanoid"
	"github.com/xkilldash9x/quickfinder/internal/browser/interaction"
	"github.com/xkilldash9x/quickfinder/internal/browser/stealth"
)

// Locators are the raw selector strings of the portal, copied from the page.
type Locators struct {
	Country     string `mapstructure:"country" yaml:"country"`
	Username    string `mapstructure:"username" yaml:"username"`
	Password    string `mapstructure:"password" yaml:"password"`
	LoginButton string `mapstructure:"login_button" yaml:"login_button"`
	ServiceMenu string `mapstructure:"service_menu" yaml:"service_menu"`
	QuickFinder string `mapstructure:"quick_finder" yaml:"quick_finder"`
	LookupInput string `mapstructure:"lookup_input" yaml:"lookup_input"`
	Result      string `mapstructure:"result" yaml:"result"`
}

// Portal describes the target site. Swapping portals means swapping this
// value only.
type Portal struct {
	URL      string   `mapstructure:"url" yaml:"url"`
	Username string   `mapstructure:"username" yaml:"username"`
	Password string   `mapstructure:"password" yaml:"password"`
	Locators Locators `mapstructure:"locators" yaml:"locators"`
}

// Pauses are the idle gaps between authentication and navigation steps.
type Pauses struct {
	AfterUsername humanoid.DurationRange `mapstructure:"after_username" yaml:"after_username"`
	AfterPassword humanoid.DurationRange `mapstructure:"after_password" yaml:"after_password"`
	AfterLogin    humanoid.DurationRange `mapstructure:"after_login" yaml:"after_login"`
	BetweenMenus  humanoid.DurationRange `mapstructure:"between_menus" yaml:"between_menus"`
}

// Polling controls how long an item's result cell is watched. The wait
// after poll n (0-based) is Base + Step*n.
type Polling struct {
	Attempts int           `mapstructure:"attempts" yaml:"attempts"`
	Base     time.Duration `mapstructure:"base" yaml:"base"`
	Step     time.Duration `mapstructure:"step" yaml:"step"`
}

// Delay returns the wait after the given 0-based poll.
func (p Polling) Delay(poll int) time.Duration {
	return p.Base + p.Step*time.Duration(poll)
}

// Config is everything the workflow needs. It is built once at startup and
// never modified.
type Config struct {
	Portal      Portal             `mapstructure:"portal" yaml:"portal"`
	Pauses      Pauses             `mapstructure:"pauses" yaml:"pauses"`
	Polling     Polling            `mapstructure:"polling" yaml:"polling"`
	ItemPace    time.Duration      `mapstructure:"item_pace" yaml:"item_pace"`
	Interaction interaction.Config `mapstructure:"interaction" yaml:"interaction"`
	Humanoid    humanoid.Config    `mapstructure:"humanoid" yaml:"humanoid"`
	Profiles    stealth.Pools      `mapstructure:"profiles" yaml:"profiles"`
}

// DefaultConfig returns the workflow timings. Portal fields are left empty.
func DefaultConfig() Config {
	ms := time.Millisecond
	return Config{
		Pauses: Pauses{
			AfterUsername: humanoid.DurationRange{Min: 300 * ms, Max: 600 * ms},
			AfterPassword: humanoid.DurationRange{Min: 200 * ms, Max: 500 * ms},
			AfterLogin:    humanoid.DurationRange{Min: 1000 * ms, Max: 2200 * ms},
			BetweenMenus:  humanoid.DurationRange{Min: 300 * ms, Max: 700 * ms},
		},
		Polling:     Polling{Attempts: 6, Base: 500 * ms, Step: 200 * ms},
		Interaction: interaction.DefaultConfig(),
		Humanoid:    humanoid.DefaultConfig(),
		Profiles:    stealth.DefaultPools(),
	}
}

// Validate checks that every locator is set.
func (l Locators) Validate() error {
	for name, raw := range map[string]string{
		"country":      l.Country,
		"username":     l.Username,
		"password":     l.Password,
		"login_button": l.LoginButton,
		"service_menu": l.ServiceMenu,
		"quick_finder": l.QuickFinder,
		"lookup_input": l.LookupInput,
		"result":       l.Result,
	} {
		if strings.TrimSpace(raw) == "" {
			return fmt.Errorf("%s is empty", name)
		}
	}
	return nil
}
