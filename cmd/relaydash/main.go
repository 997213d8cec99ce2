package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/relaydash/internal/app"
	"github.com/five82/relaydash/internal/config"
)

var (
	configPath string
	backendURL string
	logLevel   string

	themeName string
	startTab  string
	prefsPath string
)

var rootCmd = &cobra.Command{
	Use:   "relaydash",
	Short: "Terminal dashboard for networked relay devices",
	Long: `relaydash keeps a live view of relay devices, their schedules and
activity log, and lets you switch relays and edit schedules from the terminal.

Without a subcommand it starts the interactive dashboard.`,
	SilenceUsage: true,
	RunE:         runDashboard,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default ~/.config/relaydash/config.toml)")
	pf.StringVar(&backendURL, "backend", "", "backend URL; overrides config and environment")
	pf.StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn or error")

	rootCmd.Flags().StringVar(&themeName, "theme", "", "dashboard theme (Dracula, Nightfox, Kanagawa, Slate)")
	rootCmd.Flags().StringVar(&startTab, "tab", "", "tab to open: devices, schedules, logs or diagnostics")
	rootCmd.Flags().StringVar(&prefsPath, "prefs", "", "preferences file (default ~/.config/relaydash/prefs.toml)")
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "relaydash: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig resolves file, .env and environment, then applies flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(backendURL); v != "" {
		cfg.BackendURL = v
	}
	if v := strings.TrimSpace(logLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openCore builds the sync core for headless commands, logging to stderr.
func openCore(cmd *cobra.Command) (*app.Core, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.NewCore(cfg, app.CoreOptions{LogOutput: cmd.ErrOrStderr()})
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return app.Run(cmd.Context(), cfg, app.Options{
		PrefsPath: prefsPath,
		Theme:     themeName,
		StartTab:  startTab,
	})
}
