package main

import (
	"os"

	"refx/internal/logging"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger := logging.NewLogger(logging.Config{Format: logging.TextFormat, Level: "info"})
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
