package tick

import (
	"sort"
	"time"
)

// Runner holds a fixed set of Systems and runs them in Phase order
// every tick. Grounded on the teacher's internal/core/system.Runner.
type Runner struct {
	systems []System
	sorted  bool
}

// NewRunner builds a Runner with no systems registered yet.
func NewRunner() *Runner {
	return &Runner{}
}

// Register adds a system, marking the runner for re-sort on next Tick.
func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick lazily sorts by phase then calls Update(dt) on each system in
// order.
func (r *Runner) Tick(dt time.Duration) {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
	for _, s := range r.systems {
		s.Update(dt)
	}
}
