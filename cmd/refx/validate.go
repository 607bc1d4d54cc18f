package main

import (
	"fmt"
	"time"

	"refx/internal/buildgate"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Run pre-flight build validation on a workspace",
	Long: `Discover the build target under the given path (defaulting to the
workspace root), run the configured build command, and report the outcome.
Exits non-zero when the build fails.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	path := cfg.WorkspaceRoot
	if len(args) == 1 {
		path = args[0]
	}

	runner := buildgate.NewRealRunner(time.Duration(cfg.Build.TimeoutSeconds) * time.Second)
	gate := buildgate.NewGate(runner, cfg.Build.Command, logger)

	res, err := gate.Validate(cmd.Context(), path)
	if err != nil {
		return err
	}

	fmt.Printf("status: %s\n", res.Status)
	if res.ChosenTarget != "" {
		fmt.Printf("target: %s\n", res.ChosenTarget)
	}
	if res.ErrorCount > 0 {
		fmt.Printf("errors: %d\n", res.ErrorCount)
		fmt.Println(res.ErrorSummary)
	}
	for _, p := range res.FailedProjects {
		fmt.Printf("failed: %s\n", p)
	}

	if res.Status == buildgate.StatusFailure {
		return fmt.Errorf("build validation failed with %d error(s)", res.ErrorCount)
	}
	return nil
}
