// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/quickfinder/internal/browser/cdp"
	"github.com/xkilldash9x/quickfinder/internal/browser/humanoid"
	"github.com/xkilldash9x/quickfinder/internal/input"
	"github.com/xkilldash9x/quickfinder/internal/orchestrator"
	"github.com/xkilldash9x/quickfinder/internal/reporting"
	"github.com/xkilldash9x/quickfinder/internal/retry"
)

// EnvPrefix prefixes every environment override, e.g. QUICKFINDER_BROWSER_HEADLESS.
const EnvPrefix = "QUICKFINDER"

// ErrMissingCredentials is returned by RequireCredentials.
var ErrMissingCredentials = errors.New("portal credentials are not configured")

// Config holds the entire application configuration. It is built once by
// Load and passed by value; nothing modifies it afterwards.
type Config struct {
	Logger   LoggerConfig        `mapstructure:"logger" yaml:"logger"`
	Browser  cdp.Config          `mapstructure:"browser" yaml:"browser"`
	Workflow orchestrator.Config `mapstructure:"workflow" yaml:"workflow"`
	Input    input.Config        `mapstructure:"input" yaml:"input"`
	Output   reporting.Config    `mapstructure:"output" yaml:"output"`
	Database DatabaseConfig      `mapstructure:"database" yaml:"database"`
}

// LoggerConfig configures the zap logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// DatabaseConfig enables the Postgres result sink.
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	URL     string `mapstructure:"url" yaml:"url"`
}

// NewDefaultConfig returns the configuration with nothing but defaults applied.
func NewDefaultConfig() Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return cfg
}

// SetDefaults registers a default for every key so that env overrides and
// Unmarshal see the full key set.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "quickfinder")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	b := cdp.DefaultConfig()
	v.SetDefault("browser.headless", b.Headless)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.extended_evasions", b.ExtendedEvasions)
	v.SetDefault("browser.navigation_timeout", b.NavigationTimeout)
	v.SetDefault("browser.action_timeout", b.ActionTimeout)

	// -- Workflow --
	setWorkflowDefaults(v, "workflow", orchestrator.DefaultConfig())

	// -- Input / Output --
	in := input.DefaultConfig()
	v.SetDefault("input.path", in.Path)
	v.SetDefault("input.column", in.Column)
	v.SetDefault("input.sheet", "")
	out := reporting.DefaultConfig()
	v.SetDefault("output.path", out.Path)
	v.SetDefault("output.format", "")
	v.SetDefault("output.sheet", out.Sheet)
	v.SetDefault("output.auto_open", out.AutoOpen)

	// -- Database --
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.url", "")
}

func setWorkflowDefaults(v *viper.Viper, prefix string, w orchestrator.Config) {
	key := func(k string) string { return prefix + "." + k }

	v.SetDefault(key("portal.url"), "https://portal.bsh-partner.com/portal(bD1lbiZjPTA2MA==)/regionframe.htm")
	v.SetDefault(key("portal.username"), "")
	v.SetDefault(key("portal.password"), "")
	v.SetDefault(key("portal.locators.country"), "/html/body/div[2]/div/div[1]/div[2]/div[3]/div[9]/a")
	v.SetDefault(key("portal.locators.username"), "#PORTAL_LOGINNAME")
	v.SetDefault(key("portal.locators.password"), "#PORTAL_PASSWORD")
	v.SetDefault(key("portal.locators.login_button"), "#loginsubmitbtn")
	v.SetDefault(key("portal.locators.service_menu"), "body > div:nth-child(1) > a")
	v.SetDefault(key("portal.locators.quick_finder"), "body > div:nth-child(4) > a")
	v.SetDefault(key("portal.locators.lookup_input"), "/html/body/form/div[3]/div[2]/table/tbody/tr[2]/td[2]/input")
	v.SetDefault(key("portal.locators.result"), "/html/body/form/table[5]/tbody/tr[3]/td[7]")

	setRange(v, key("pauses.after_username"), w.Pauses.AfterUsername)
	setRange(v, key("pauses.after_password"), w.Pauses.AfterPassword)
	setRange(v, key("pauses.after_login"), w.Pauses.AfterLogin)
	setRange(v, key("pauses.between_menus"), w.Pauses.BetweenMenus)

	v.SetDefault(key("polling.attempts"), w.Polling.Attempts)
	v.SetDefault(key("polling.base"), w.Polling.Base)
	v.SetDefault(key("polling.step"), w.Polling.Step)
	v.SetDefault(key("item_pace"), w.ItemPace)

	setPolicy(v, key("interaction.click"), w.Interaction.Click)
	setPolicy(v, key("interaction.type"), w.Interaction.Type)
	setPolicy(v, key("interaction.read"), w.Interaction.Read)
	v.SetDefault(key("interaction.resolve_timeout"), w.Interaction.ResolveTimeout)
	v.SetDefault(key("interaction.poll_interval"), w.Interaction.PollInterval)

	h := w.Humanoid
	v.SetDefault(key("humanoid.min_steps"), h.MinSteps)
	v.SetDefault(key("humanoid.max_steps"), h.MaxSteps)
	v.SetDefault(key("humanoid.jitter"), h.Jitter)
	v.SetDefault(key("humanoid.target_offset"), h.TargetOffset)
	setRange(v, key("humanoid.step_delay"), h.StepDelay)
	setRange(v, key("humanoid.pre_click"), h.PreClick)
	setRange(v, key("humanoid.post_click"), h.PostClick)
	setRange(v, key("humanoid.key_delay"), h.KeyDelay)
	setRange(v, key("humanoid.scroll_wait"), h.ScrollWait)
	v.SetDefault(key("humanoid.scroll_min"), h.ScrollMin)
	v.SetDefault(key("humanoid.scroll_max"), h.ScrollMax)

	p := w.Profiles
	viewports := make([]map[string]any, len(p.Viewports))
	for i, vp := range p.Viewports {
		viewports[i] = map[string]any{"width": vp.Width, "height": vp.Height}
	}
	v.SetDefault(key("profiles.user_agents"), p.UserAgents)
	v.SetDefault(key("profiles.viewports"), viewports)
	v.SetDefault(key("profiles.locales"), p.Locales)
	v.SetDefault(key("profiles.accept_languages"), p.AcceptLanguages)
}

func setRange(v *viper.Viper, key string, r humanoid.DurationRange) {
	v.SetDefault(key+".min", r.Min)
	v.SetDefault(key+".max", r.Max)
}

func setPolicy(v *viper.Viper, key string, p retry.Policy) {
	v.SetDefault(key+".max_attempts", p.MaxAttempts)
	v.SetDefault(key+".base_delay", p.BaseDelay)
}

// BindEnv enables QUICKFINDER_* overrides for every registered key, plus
// short aliases for the credentials.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("workflow.portal.username", EnvPrefix+"_WORKFLOW_PORTAL_USERNAME", EnvPrefix+"_USERNAME")
	_ = v.BindEnv("workflow.portal.password", EnvPrefix+"_WORKFLOW_PORTAL_PASSWORD", EnvPrefix+"_PASSWORD")
	_ = v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")
}

// Load unmarshals v, expands home-relative paths and validates the result.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Input.Path, &c.Logger.LogFile, &c.Browser.ExecPath} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	if c.Output.Path != "stdout" {
		expanded, err := homedir.Expand(c.Output.Path)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", c.Output.Path, err)
		}
		c.Output.Path = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
// Credentials are checked separately by RequireCredentials.
func (c Config) Validate() error {
	w := c.Workflow
	u, err := url.Parse(w.Portal.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("workflow.portal.url must be an absolute URL, got %q", w.Portal.URL)
	}
	if err := w.Portal.Locators.Validate(); err != nil {
		return fmt.Errorf("workflow.portal.locators: %w", err)
	}
	if err := w.Profiles.Validate(); err != nil {
		return fmt.Errorf("workflow.profiles: %w", err)
	}
	if w.Polling.Attempts <= 0 {
		return fmt.Errorf("workflow.polling.attempts must be a positive integer")
	}
	for name, p := range map[string]retry.Policy{
		"click": w.Interaction.Click,
		"type":  w.Interaction.Type,
		"read":  w.Interaction.Read,
	} {
		if p.MaxAttempts <= 0 {
			return fmt.Errorf("workflow.interaction.%s.max_attempts must be a positive integer", name)
		}
	}
	if w.Interaction.PollInterval <= 0 {
		return fmt.Errorf("workflow.interaction.poll_interval must be a positive duration")
	}
	if err := validateHumanoid(w.Humanoid); err != nil {
		return err
	}
	if c.Browser.NavigationTimeout <= 0 || c.Browser.ActionTimeout <= 0 {
		return fmt.Errorf("browser timeouts must be positive durations")
	}
	if c.Input.Column == "" {
		return fmt.Errorf("input.column is required")
	}
	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("database.url is required when database.enabled is set")
	}
	return nil
}

func validateHumanoid(h humanoid.Config) error {
	if h.MinSteps <= 0 || h.MaxSteps < h.MinSteps {
		return fmt.Errorf("workflow.humanoid: steps must satisfy 0 < min_steps <= max_steps")
	}
	if h.ScrollMin < 0 || h.ScrollMax < h.ScrollMin {
		return fmt.Errorf("workflow.humanoid: scroll must satisfy 0 <= scroll_min <= scroll_max")
	}
	ranges := map[string]humanoid.DurationRange{
		"step_delay":  h.StepDelay,
		"pre_click":   h.PreClick,
		"post_click":  h.PostClick,
		"key_delay":   h.KeyDelay,
		"scroll_wait": h.ScrollWait,
	}
	for name, r := range ranges {
		if r.Min < 0 || r.Max < r.Min {
			return fmt.Errorf("workflow.humanoid.%s: min must not exceed max", name)
		}
	}
	return nil
}

// RequireCredentials reports whether the portal login can be attempted.
func (c Config) RequireCredentials() error {
	if c.Workflow.Portal.Username == "" || c.Workflow.Portal.Password == "" {
		return fmt.Errorf("%w: set workflow.portal.username/password or %s_USERNAME/%s_PASSWORD",
			ErrMissingCredentials, EnvPrefix, EnvPrefix)
	}
	return nil
}
