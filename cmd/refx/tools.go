package main

import (
	"encoding/json"
	"fmt"
	"os"

	"refx/internal/logging"
	"refx/internal/mcp"
	"refx/internal/version"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var toolsFormat string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the tool definitions the server exposes",
	Long:  "Prints the name, description, and input schema of every tool, for client integration and review.",
	RunE:  runTools,
}

func init() {
	toolsCmd.Flags().StringVar(&toolsFormat, "format", "json", "Output format: json or yaml")
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	server := mcp.NewServer(version.Version, mcp.Options{}, logging.Discard())
	defs := server.ToolDefinitions()

	switch toolsFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(defs)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(defs)
	default:
		return fmt.Errorf("unknown format %q: want json or yaml", toolsFormat)
	}
}
