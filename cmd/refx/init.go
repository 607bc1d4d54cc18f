package main

import (
	"fmt"
	"os"
	"path/filepath"

	"refx/internal/config"

	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default refx.toml to the workspace root",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing refx.toml")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := filepath.Join(rootFlag, config.FileName)
	if _, err := os.Stat(path); err == nil && !initForce {
		// Idempotent: already initialized is success.
		fmt.Printf("Configuration already exists at %s\n", path)
		fmt.Println("Run 'refx init --force' to overwrite.")
		return nil
	}

	cfg := config.Default()
	cfg.WorkspaceRoot = rootFlag
	if err := cfg.Save(rootFlag); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
