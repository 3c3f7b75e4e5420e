// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Browser engines the run configuration accepts. Driving happens over the
// DevTools protocol; non-Chromium engines need an explicit exec_path to a
// binary that speaks it.
const (
	BrowserChromium = "chromium"
	BrowserFirefox  = "firefox"
	BrowserWebkit   = "webkit"
)

// Export formats for the run summary.
const (
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatExcel = "excel"
)

// Config is the full application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Engine  EngineConfig  `mapstructure:"engine" yaml:"engine"`
	Proxy   ProxyConfig   `mapstructure:"proxy" yaml:"proxy"`
	Export  ExportConfig  `mapstructure:"export" yaml:"export"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the browser instance backing a run.
type BrowserConfig struct {
	Type        string         `mapstructure:"type" yaml:"type"`
	Headless    bool           `mapstructure:"headless" yaml:"headless"`
	StealthMode bool           `mapstructure:"stealth_mode" yaml:"stealth_mode"`
	ExecPath    string         `mapstructure:"exec_path" yaml:"exec_path"`
	Args        []string       `mapstructure:"args" yaml:"args"`
	Viewport    ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
}

// ViewportConfig sets the emulated viewport dimensions.
type ViewportConfig struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// EngineConfig tunes the action execution engine.
type EngineConfig struct {
	DefaultActionTimeout time.Duration `mapstructure:"default_action_timeout" yaml:"default_action_timeout"`
	MaxActionTimeout     time.Duration `mapstructure:"max_action_timeout" yaml:"max_action_timeout"`
	NavigationTimeout    time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ScreenshotDir        string        `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
}

// ProxyConfig selects the outbound proxy for the browser. A managed proxy
// builds its address from PAGEDRIVER_PROXY_HOSTNAME / PAGEDRIVER_PROXY_PASSWORD;
// custom_proxy_url wins when both are set.
type ProxyConfig struct {
	UseManagedProxy bool     `mapstructure:"use_managed_proxy" yaml:"use_managed_proxy"`
	ProxyGroups     []string `mapstructure:"proxy_groups" yaml:"proxy_groups"`
	CustomProxyURL  string   `mapstructure:"custom_proxy_url" yaml:"custom_proxy_url"`
}

// ExportConfig selects the output format and artifact location.
type ExportConfig struct {
	Format    string `mapstructure:"format" yaml:"format"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
}

// ProxySettings is the resolved proxy a session should use. Credentials are
// answered over the DevTools auth challenge, not embedded in the server URL.
type ProxySettings struct {
	Server   string
	Username string
	Password string
}

// Resolve turns the proxy configuration into concrete settings, or nil when
// no proxy is requested.
func (p ProxyConfig) Resolve() (*ProxySettings, error) {
	if p.CustomProxyURL != "" {
		u, err := url.Parse(p.CustomProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid custom_proxy_url: %w", err)
		}
		settings := &ProxySettings{Server: u.Scheme + "://" + u.Host}
		if u.User != nil {
			settings.Username = u.User.Username()
			settings.Password, _ = u.User.Password()
		}
		return settings, nil
	}
	if !p.UseManagedProxy {
		return nil, nil
	}
	hostname := os.Getenv("PAGEDRIVER_PROXY_HOSTNAME")
	if hostname == "" {
		return nil, fmt.Errorf("use_managed_proxy is set but PAGEDRIVER_PROXY_HOSTNAME is empty")
	}
	password := os.Getenv("PAGEDRIVER_PROXY_PASSWORD")
	username := "auto"
	if len(p.ProxyGroups) > 0 {
		username = "groups-" + strings.Join(p.ProxyGroups, "+")
	}
	return &ProxySettings{
		Server:   "http://" + hostname + ":8000",
		Username: username,
		Password: password,
	}, nil
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "pagedriver")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.type", BrowserChromium)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.stealth_mode", false)
	v.SetDefault("browser.viewport.width", 1920)
	v.SetDefault("browser.viewport.height", 1080)

	// -- Engine --
	v.SetDefault("engine.default_action_timeout", "10s")
	v.SetDefault("engine.max_action_timeout", "30s")
	v.SetDefault("engine.navigation_timeout", "30s")
	v.SetDefault("engine.screenshot_dir", "")

	// -- Proxy --
	v.SetDefault("proxy.use_managed_proxy", false)

	// -- Export --
	v.SetDefault("export.format", FormatJSON)
	v.SetDefault("export.output_dir", ".")
}

// NewDefaultConfig creates a configuration populated with defaults only.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a validated configuration from a viper instance.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.Browser.Type {
	case BrowserChromium, BrowserFirefox, BrowserWebkit:
	default:
		return fmt.Errorf("browser.type must be one of %s, %s, %s", BrowserChromium, BrowserFirefox, BrowserWebkit)
	}
	if c.Browser.Type != BrowserChromium && c.Browser.ExecPath == "" {
		return fmt.Errorf("browser.exec_path is required for browser.type %q", c.Browser.Type)
	}
	if c.Engine.DefaultActionTimeout <= 0 {
		return fmt.Errorf("engine.default_action_timeout must be a positive duration")
	}
	if c.Engine.MaxActionTimeout > 0 && c.Engine.MaxActionTimeout < c.Engine.DefaultActionTimeout {
		return fmt.Errorf("engine.max_action_timeout must not be below engine.default_action_timeout")
	}
	switch c.Export.Format {
	case FormatJSON, FormatCSV, FormatExcel:
	default:
		return fmt.Errorf("export.format must be one of %s, %s, %s", FormatJSON, FormatCSV, FormatExcel)
	}
	return nil
}
