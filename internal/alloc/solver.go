package alloc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"linebalance/internal/opt"
)

// Status aliases the backend status values.
type Status = opt.Status

const (
	StatusOptimal    = opt.StatusOptimal
	StatusFeasible   = opt.StatusFeasible
	StatusInfeasible = opt.StatusInfeasible
	StatusUnknown    = opt.StatusUnknown
)

// Progress is reported for every improving assignment found during a solve.
type Progress struct {
	TotalWorkers  int
	PreferredUsed int
	Objective     int64
	Nodes         int
	Elapsed       time.Duration
}

// Outcome is the typed result of a solve. Solution is set only for
// StatusOptimal and StatusFeasible.
type Outcome struct {
	Status   Status
	Solution *Solution
	// Reasons explains an infeasible outcome.
	Reasons []string
	Bound   int64
	Metrics opt.Metrics
}

// Err maps non-solution outcomes to ErrInfeasible or ErrNoSolution.
func (o Outcome) Err() error {
	switch o.Status {
	case StatusInfeasible:
		if len(o.Reasons) == 0 {
			return ErrInfeasible
		}
		return fmt.Errorf("%w: %s", ErrInfeasible, strings.Join(o.Reasons, "; "))
	case StatusUnknown:
		return ErrNoSolution
	}
	return nil
}

// Solver runs allocation solves. The zero value uses the branch-and-bound
// backend with no budget.
type Solver struct {
	Backend        opt.Backend
	MaxDenominator int64
	TimeBudget     time.Duration
	NodeLimit      int
	OnProgress     func(Progress)
}

// Solve builds a fresh model for p and solves it. The returned error is an
// *InputError or *rational.PrecisionError for malformed input; infeasibility
// and budget expiry are reported through the Outcome.
func (s Solver) Solve(ctx context.Context, p Problem) (Outcome, error) {
	plan, err := Build(p, s.MaxDenominator)
	if err != nil {
		return Outcome{}, err
	}
	if len(plan.Reasons) > 0 {
		return Outcome{Status: StatusInfeasible, Reasons: plan.Reasons}, nil
	}
	backend := s.Backend
	if backend == nil {
		backend = opt.BranchAndBound{}
	}
	opts := opt.Options{TimeBudget: s.TimeBudget, NodeLimit: s.NodeLimit}
	if s.OnProgress != nil {
		opts.OnIncumbent = func(inc opt.Incumbent) {
			pr := Progress{Objective: inc.Objective, Nodes: inc.Nodes, Elapsed: inc.Elapsed}
			for w, u := range plan.used {
				if u >= 0 && inc.Values[u] {
					pr.TotalWorkers++
					if p.Workers[w].Preferred {
						pr.PreferredUsed++
					}
				}
			}
			s.OnProgress(pr)
		}
	}
	res := backend.Solve(ctx, plan.Model, opts)
	out := Outcome{Status: res.Status, Bound: res.Bound, Metrics: res.Metrics}
	switch res.Status {
	case StatusInfeasible:
		out.Reasons = []string{"no assignment satisfies the pace, skill and crew constraints together"}
	case StatusOptimal, StatusFeasible:
		if err := plan.Model.Check(res.Values); err != nil {
			return Outcome{}, fmt.Errorf("alloc: backend returned invalid assignment: %w", err)
		}
		sol, err := plan.decode(res.Values)
		if err != nil {
			return Outcome{}, err
		}
		sol.Optimal = res.Status == StatusOptimal
		out.Solution = sol
	}
	return out, nil
}
