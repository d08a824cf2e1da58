package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version is stamped at build time via -ldflags.
	Version = "dev"
	// Commit is the git revision stamped at build time.
	Commit = "none"
)

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("shuttleplan %s (%s)\n", Version, Commit)
		},
	}
}
