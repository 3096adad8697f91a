// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "playwright-mcp", cfg.Server.Name)
	assert.Empty(t, cfg.Server.ListenAddr, "stdio transport should be the default")
	assert.True(t, cfg.Browser.Headless)
	assert.Empty(t, cfg.Browser.UserDataDir)
	assert.Equal(t, 60*time.Second, cfg.Browser.NavigationTimeout)
	assert.True(t, cfg.Snapshot.Capture)
	assert.Empty(t, cfg.Tools.Capabilities)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("browser.headless", false)
	v.Set("browser.user_data_dir", "/tmp/profile-a")
	v.Set("server.listen_addr", "127.0.0.1:8931")
	v.Set("tools.capabilities", []string{"core"})

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "/tmp/profile-a", cfg.Browser.UserDataDir)
	assert.Equal(t, "127.0.0.1:8931", cfg.Server.ListenAddr)
	assert.Equal(t, []string{"core"}, cfg.Tools.Capabilities)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty server name",
			mutate:  func(c *Config) { c.Server.Name = "" },
			wantErr: "server.name",
		},
		{
			name:    "negative navigation timeout",
			mutate:  func(c *Config) { c.Browser.NavigationTimeout = -time.Second },
			wantErr: "navigation_timeout",
		},
		{
			name:    "bad logger format",
			mutate:  func(c *Config) { c.Logger.Format = "xml" },
			wantErr: "logger.format",
		},
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			cfg, err := NewConfigFromViper(v)
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
