// -- cmd/root.go --
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hyhfish/playwright-mcp/internal/browser"
	"github.com/hyhfish/playwright-mcp/internal/config"
	"github.com/hyhfish/playwright-mcp/internal/observability"
	"github.com/hyhfish/playwright-mcp/internal/server"
)

var (
	cfgFile string
	port    int
)

// rootCmd starts the MCP server. There are no subcommands; the transport is
// chosen by configuration (stdio by default, HTTP when a port is given).
var rootCmd = &cobra.Command{
	Use:     "playwright-mcp",
	Short:   "An MCP server that drives a browser over the Chrome DevTools Protocol.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initializeConfig(); err != nil {
			return err
		}

		var cfg config.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "playwright-mcp"})
			return fmt.Errorf("failed to unmarshal config: %w", err)
		}

		observability.InitializeLogger(cfg.Logger)
		observability.GetLogger().Info("Starting playwright-mcp.", zap.String("version", Version))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewConfigFromViper(viper.GetViper())
		if err != nil {
			return err
		}
		if port > 0 {
			cfg.Server.ListenAddr = fmt.Sprintf("127.0.0.1:%d", port)
		}

		logger := observability.GetLogger()
		engine := browser.NewChromeEngine(logger)

		srv, err := server.New(*cfg, Version, engine, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx)
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	defer observability.Sync()
	if err := rootCmd.Execute(); err != nil {
		observability.GetLogger().Error("Command execution failed.", zap.Error(err))
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	flags.IntVar(&port, "port", 0, "serve MCP over HTTP on this localhost port instead of stdio")
	flags.Bool("headless", true, "run the browser without a visible window")
	flags.String("user-data-dir", "", "browser profile directory (empty for a temporary profile)")
	flags.String("executable-path", "", "path to the browser executable")
	flags.Bool("no-sandbox", false, "disable the browser sandbox")
	flags.Bool("snapshots", true, "append a page state snapshot to action results")
	flags.StringSlice("caps", nil, "capability filter for exposed tools (empty for all)")

	cobra.CheckErr(viper.BindPFlag("browser.headless", flags.Lookup("headless")))
	cobra.CheckErr(viper.BindPFlag("browser.user_data_dir", flags.Lookup("user-data-dir")))
	cobra.CheckErr(viper.BindPFlag("browser.executable_path", flags.Lookup("executable-path")))
	cobra.CheckErr(viper.BindPFlag("browser.no_sandbox", flags.Lookup("no-sandbox")))
	cobra.CheckErr(viper.BindPFlag("snapshot.capture", flags.Lookup("snapshots")))
	cobra.CheckErr(viper.BindPFlag("tools.capabilities", flags.Lookup("caps")))

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// initializeConfig loads defaults, then the config file if present, then
// environment variables.
func initializeConfig() error {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PLAYWRIGHT_MCP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}
