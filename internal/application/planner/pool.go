package planner

import "github.com/transitops/shuttleplan-go/internal/domain/employee"

// unroutedPool accumulates employees that fell out of the pipeline, in
// first-entry order and deduplicated by employee code. Every stage that
// gives up on an employee pushes here; the recovery pass drains it.
type unroutedPool struct {
	order []*employee.Employee
	seen  map[string]bool
}

func newUnroutedPool() *unroutedPool {
	return &unroutedPool{seen: make(map[string]bool)}
}

func (p *unroutedPool) add(e *employee.Employee) {
	if e == nil || p.seen[e.EmpCode] {
		return
	}
	p.seen[e.EmpCode] = true
	p.order = append(p.order, e)
}

func (p *unroutedPool) addAll(emps []*employee.Employee) {
	for _, e := range emps {
		p.add(e)
	}
}

// drain returns the pooled employees and resets the pool so that recovered
// employees are not reported twice.
func (p *unroutedPool) drain() []*employee.Employee {
	out := p.order
	p.order = nil
	p.seen = make(map[string]bool)
	return out
}

func (p *unroutedPool) size() int {
	return len(p.order)
}
