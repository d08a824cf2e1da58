// Package ortools runs the vehicle routing solver as a subprocess and
// exchanges problems and solutions as JSON over stdin and stdout.
package ortools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/transitops/shuttleplan-go/internal/domain/shared"
	"github.com/transitops/shuttleplan-go/internal/domain/solver"
)

const (
	defaultSolveTimeout = 120 * time.Second
	defaultPoolSize     = 4
	stderrTailBytes     = 2048
)

// Options configures the subprocess client. Zero fields take defaults.
type Options struct {
	Binary   string
	Args     []string
	Timeout  time.Duration
	PoolSize int
}

// Client implements solver.Client by launching the solver binary once per
// problem. Concurrent invocations are bounded by a slot pool.
type Client struct {
	binary  string
	args    []string
	timeout time.Duration
	pool    *pool
}

// NewClient creates a subprocess solver client.
func NewClient(opts Options) (*Client, error) {
	if opts.Binary == "" {
		return nil, fmt.Errorf("solver binary is required")
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultSolveTimeout
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = defaultPoolSize
	}
	return &Client{
		binary:  opts.Binary,
		args:    opts.Args,
		timeout: opts.Timeout,
		pool:    newPool(opts.PoolSize),
	}, nil
}

// Solve writes the problem to the solver's stdin and decodes the last
// well-formed JSON object it prints on stdout. Progress lines and other
// diagnostics interleaved with the solution are skipped.
func (c *Client) Solve(ctx context.Context, problem *solver.Problem) (*solver.Solution, error) {
	payload, err := json.Marshal(problem)
	if err != nil {
		return nil, shared.NewSolverError("failed to encode problem", "", err)
	}

	if err := c.pool.acquire(ctx); err != nil {
		return nil, shared.NewSolverError("cancelled while waiting for a solver slot", "", err)
	}
	defer c.pool.release()

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.binary, c.args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, shared.NewSolverError("timed out", tail(stderr.String()), runCtx.Err())
		}
		return nil, shared.NewSolverError("exited with error", tail(stderr.String()), err)
	}

	solution, ok := lastSolution(stdout.Bytes())
	if !ok {
		return nil, shared.NewSolverError("no solution object on stdout", tail(stderr.String()), nil)
	}
	if solution.Error != "" {
		return nil, shared.NewSolverError(solution.Error, tail(stderr.String()), nil)
	}
	return solution, nil
}

// lastSolution decodes the last well-formed top-level JSON object in raw.
// Candidates whose fields do not match the solution shape are skipped.
func lastSolution(raw []byte) (*solver.Solution, bool) {
	objects := jsonObjects(raw)
	for i := len(objects) - 1; i >= 0; i-- {
		var solution solver.Solution
		if err := json.Unmarshal(objects[i], &solution); err == nil {
			return &solution, true
		}
	}
	return nil, false
}

// jsonObjects returns every well-formed top-level JSON object in raw, in
// order. Anything between objects, including stray braces inside log
// lines, is skipped.
func jsonObjects(raw []byte) []json.RawMessage {
	var objects []json.RawMessage
	for i := 0; i < len(raw); {
		start := bytes.IndexByte(raw[i:], '{')
		if start < 0 {
			break
		}
		start += i

		dec := json.NewDecoder(bytes.NewReader(raw[start:]))
		var msg json.RawMessage
		if err := dec.Decode(&msg); err != nil {
			i = start + 1
			continue
		}
		objects = append(objects, msg)
		i = start + int(dec.InputOffset())
	}
	return objects
}

// tail keeps the end of the solver's stderr so errors stay readable.
func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= stderrTailBytes {
		return s
	}
	return "..." + s[len(s)-stderrTailBytes:]
}
