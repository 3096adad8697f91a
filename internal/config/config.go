// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Snapshot SnapshotConfig `mapstructure:"snapshot" yaml:"snapshot"`
	Tools    ToolsConfig    `mapstructure:"tools" yaml:"tools"`
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
}

// ServerConfig controls how the MCP server identifies itself and listens.
// An empty ListenAddr selects the stdio transport.
type ServerConfig struct {
	Name       string `mapstructure:"name" yaml:"name"`
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
}

// BrowserConfig holds browser launch options. UserDataDir selects the profile
// directory; changing it requires tearing down the running session, so the
// session layer treats it as part of the session identity.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	UserDataDir       string        `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	ExecutablePath    string        `mapstructure:"executable_path" yaml:"executable_path"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	NoSandbox         bool          `mapstructure:"no_sandbox" yaml:"no_sandbox"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	StabilizeWait     time.Duration `mapstructure:"stabilize_wait" yaml:"stabilize_wait"`
}

// SnapshotConfig is the capture policy applied to every action result.
type SnapshotConfig struct {
	Capture bool `mapstructure:"capture" yaml:"capture"`
}

// ToolsConfig selects which capability tags are exposed to the client.
// An empty list exposes everything.
type ToolsConfig struct {
	Capabilities []string `mapstructure:"capabilities" yaml:"capabilities"`
}

// LoggerConfig holds settings for the zap logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// SetDefaults registers the default values for all configuration keys.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "playwright-mcp")
	v.SetDefault("server.listen_addr", "")

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_data_dir", "")
	v.SetDefault("browser.executable_path", "")
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.no_sandbox", false)
	v.SetDefault("browser.navigation_timeout", 60*time.Second)
	v.SetDefault("browser.stabilize_wait", 2*time.Second)

	v.SetDefault("snapshot.capture", true)
	v.SetDefault("tools.capabilities", []string{})

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "playwright-mcp")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.compress", true)
}

// Default returns the configuration produced by the defaults alone.
func Default() Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	if err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return *cfg
}

// NewConfigFromViper unmarshals and validates the configuration from a viper
// instance that has already loaded its sources (defaults, file, env, flags).
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints that viper cannot express.
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return fmt.Errorf("server.name must not be empty")
	}
	if c.Browser.NavigationTimeout < 0 {
		return fmt.Errorf("browser.navigation_timeout must not be negative")
	}
	if c.Browser.StabilizeWait < 0 {
		return fmt.Errorf("browser.stabilize_wait must not be negative")
	}
	switch c.Logger.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logger.format must be 'console' or 'json', got %q", c.Logger.Format)
	}
	return nil
}
