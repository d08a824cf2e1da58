package helpers

import (
	"context"
	"sync"

	"github.com/transitops/shuttleplan-go/internal/domain/solver"
)

// MockSolver is a test double for solver.Client. The default behavior
// returns a single route visiting every customer node in input order,
// which keeps routes stable for assertions. Tests can script drops, force
// errors, or take over the call with SolveFunc.
type MockSolver struct {
	mu sync.Mutex

	// SolveFunc takes over the call entirely when set.
	SolveFunc func(ctx context.Context, p *solver.Problem) (*solver.Solution, error)

	// Err is returned by every Solve call when set.
	Err error

	// DropNodes marks matrix node indices to report as dropped instead of
	// routed (applies to the default behavior only).
	DropNodes []int

	problems []*solver.Problem
}

// NewMockSolver creates a solver mock with identity-order behavior.
func NewMockSolver() *MockSolver {
	return &MockSolver{}
}

// Solve records the problem and returns the scripted or default solution.
func (m *MockSolver) Solve(ctx context.Context, p *solver.Problem) (*solver.Solution, error) {
	m.mu.Lock()
	m.problems = append(m.problems, p)
	solveFunc := m.SolveFunc
	err := m.Err
	drops := make(map[int]bool, len(m.DropNodes))
	for _, n := range m.DropNodes {
		drops[n] = true
	}
	m.mu.Unlock()

	if solveFunc != nil {
		return solveFunc(ctx, p)
	}
	if err != nil {
		return nil, err
	}

	n := len(p.DistanceMatrix)
	var visit []int
	var dropped []int
	for node := 1; node < n; node++ {
		if node == p.DepotIndex {
			continue
		}
		if drops[node] {
			dropped = append(dropped, node)
			continue
		}
		visit = append(visit, node)
	}
	return &solver.Solution{Routes: [][]int{visit}, DroppedNodeIndices: dropped}, nil
}

// Problems returns a copy of every problem submitted so far.
func (m *MockSolver) Problems() []*solver.Problem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*solver.Problem, len(m.problems))
	copy(out, m.problems)
	return out
}

// LastProblem returns the most recent problem, or nil when none were run.
func (m *MockSolver) LastProblem() *solver.Problem {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.problems) == 0 {
		return nil
	}
	return m.problems[len(m.problems)-1]
}
