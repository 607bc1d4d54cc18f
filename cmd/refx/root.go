package main

import (
	"log/slog"

	"refx/internal/config"
	"refx/internal/logging"
	"refx/internal/version"

	"github.com/spf13/cobra"
)

var (
	rootFlag      string
	logLevelFlag  string
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "refx",
	Short: "refx - C# analysis and refactoring server",
	Long: `refx is a codebase analysis and refactoring server for C# workspaces,
driven by a tool-calling client over stdio JSON-RPC. Analysis degrades through
semantic, syntax, and text tiers depending on whether the workspace builds;
refactorings validate the build before touching files.`,
	Version: version.Info(),
}

func init() {
	rootCmd.SetVersionTemplate("refx version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", ".", "Workspace root directory")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Log format: json or text (overrides config)")
}

// loadConfig reads the workspace config and applies CLI overrides.
// Precedence: CLI flag > REFX_* env var > refx.toml > defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootFlag)
	if err != nil {
		return nil, err
	}
	if logLevelFlag != "" {
		cfg.Logging.Level = logLevelFlag
	}
	if logFormatFlag != "" {
		cfg.Logging.Format = logFormatFlag
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.NewLogger(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  cfg.Logging.Level,
	})
}
