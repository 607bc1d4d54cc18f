package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"refx/internal/audit"
	"refx/internal/buildgate"
	"refx/internal/cache"
	"refx/internal/mcp"
	"refx/internal/version"

	"github.com/spf13/cobra"
)

var serveNoBuild bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stdio tool server",
	Long: `Start the refx tool server on stdin/stdout. The server speaks
newline-delimited JSON-RPC 2.0 and exposes analysis and refactoring tools.
Logs go to stderr so stdout stays a clean protocol stream.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoBuild, "no-build", false,
		"Disable build validation; analysis degrades to syntax and text tiers")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	opts := mcp.Options{Config: cfg}

	if !serveNoBuild && cfg.Build.Command != "" {
		runner := buildgate.NewRealRunner(time.Duration(cfg.Build.TimeoutSeconds) * time.Second)
		opts.Gate = buildgate.NewGate(runner, cfg.Build.Command, logger)
	}

	if cfg.Cache.Enabled && opts.Gate != nil {
		path := filepath.Join(cfg.WorkspaceRoot, cfg.Cache.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create cache directory: %w", err)
		}
		bc, err := cache.Open(path)
		if err != nil {
			return fmt.Errorf("open build cache: %w", err)
		}
		defer bc.Close()
		opts.BuildCache = bc
	}

	if cfg.Audit.Enabled {
		path := filepath.Join(cfg.WorkspaceRoot, cfg.Audit.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create audit directory: %w", err)
		}
		log, err := audit.Open(path)
		if err != nil {
			return fmt.Errorf("open audit log: %w", err)
		}
		defer log.Close()
		opts.AuditLog = log
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := mcp.NewServer(version.Version, opts, logger)
	return server.Start(ctx)
}
