// Package opt is a small 0/1 integer optimization backend: a linear model
// builder and a depth-first branch-and-bound search with bound propagation.
package opt

import (
	"context"
	"time"
)

// Backend solves a Model. Implementations must not retain or mutate the model.
type Backend interface {
	Solve(ctx context.Context, m *Model, opts Options) Result
}

// Status is the outcome class of a search.
type Status string

const (
	// StatusOptimal: the search completed and Values is a proven optimum.
	StatusOptimal Status = "optimal"
	// StatusFeasible: the budget ran out; Values is the best incumbent found.
	StatusFeasible Status = "feasible"
	// StatusInfeasible: the search completed without any feasible assignment.
	StatusInfeasible Status = "infeasible"
	// StatusUnknown: the budget ran out before any incumbent was found.
	StatusUnknown Status = "unknown"
)

// HasSolution reports whether a Result with this status carries Values.
func (s Status) HasSolution() bool { return s == StatusOptimal || s == StatusFeasible }

// Options bound a search. Zero values mean unlimited.
type Options struct {
	TimeBudget  time.Duration
	NodeLimit   int
	OnIncumbent func(Incumbent) // called synchronously from the search
}

// Incumbent describes an improving solution found during search.
type Incumbent struct {
	Objective int64
	Values    []bool
	Nodes     int
	Elapsed   time.Duration
}

// Result of Backend.Solve. Values is nil unless Status.HasSolution.
type Result struct {
	Status    Status
	Values    []bool
	Objective int64
	Bound     int64 // root lower bound on the objective
	Metrics   Metrics
}

// Metrics are search counters.
type Metrics struct {
	Nodes      int
	Conflicts  int
	Incumbents int
	Elapsed    time.Duration
	Stopped    string // "", "deadline", "nodes", "canceled"
}
