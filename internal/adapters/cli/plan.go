package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/transitops/shuttleplan-go/internal/application/common"
	"github.com/transitops/shuttleplan-go/internal/application/planner"
)

// NewPlanCommand creates the plan command
func NewPlanCommand() *cobra.Command {
	var (
		inputPath  string
		outputPath string
		pretty     bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan shuttle routes for one request",
		Long: `Run the planning pipeline on a single JSON plan request.

Reads the request from --input (or stdin) and writes the route envelope to
--output (or stdout). The command exits non-zero when planning fails; the
envelope is still written so callers always see every employee accounted
for.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContainer(configPath)
			if err != nil {
				return err
			}

			data, err := readInput(inputPath)
			if err != nil {
				return err
			}

			var req planner.PlanRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("failed to parse plan request: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx = common.WithLogger(ctx, c.Logger)

			resp, planErr := c.Planner.Plan(ctx, &req)

			if resp != nil {
				if err := writeOutput(outputPath, resp, pretty); err != nil {
					return err
				}
			}
			if planErr != nil {
				return fmt.Errorf("planning failed: %w", planErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Request JSON file (default: stdin)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Envelope JSON file (default: stdout)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the JSON output")

	return cmd
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request: %w", err)
	}
	return data, nil
}

func writeOutput(path string, resp *planner.PlanResponse, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(resp, "", "  ")
	} else {
		data, err = json.Marshal(resp)
	}
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}
	data = append(data, '\n')

	if path == "" || path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write envelope: %w", err)
	}
	return nil
}
