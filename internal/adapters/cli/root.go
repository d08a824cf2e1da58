package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shuttleplan",
		Short: "ShuttlePlan - employee shuttle route planning",
		Long: `ShuttlePlan plans employee shuttle routes for facility pickups and
dropoffs: it partitions riders into zones, groups them under deviation
and duration limits, assigns vehicles, places night-shift guards and
produces per-stop ETAs.

Examples:
  shuttleplan plan --input request.json --output routes.json
  shuttleplan plan < request.json > routes.json
  shuttleplan serve --config configs/config.yaml
  shuttleplan version`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: search ., ./configs, /etc/shuttleplan)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	rootCmd.AddCommand(NewPlanCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
