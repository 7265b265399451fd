package opt

import (
	"context"
	"errors"
	"time"
)

const defaultCheckEvery = 64

// BranchAndBound is a depth-first branch-and-bound Backend. Each node
// propagates bounds, prunes on the cover-based lower bound, and branches on a
// variable of the most constrained violated row.
type BranchAndBound struct {
	// CheckEvery is the number of nodes between cancellation and deadline
	// checks. Zero selects a default.
	CheckEvery int
}

type search struct {
	st       *state
	m        *Model
	ctx      context.Context
	opts     Options
	start    time.Time
	deadline time.Time
	every    int

	metrics Metrics
	have    bool
	best    int64
	values  []bool
}

// Solve runs the search to completion or until ctx, the time budget, or the
// node limit stops it.
func (bb BranchAndBound) Solve(ctx context.Context, m *Model, opts Options) Result {
	sr := &search{
		st:    newState(m),
		m:     m,
		ctx:   ctx,
		opts:  opts,
		start: time.Now(),
		every: bb.CheckEvery,
	}
	if sr.every <= 0 {
		sr.every = defaultCheckEvery
	}
	if opts.TimeBudget > 0 {
		sr.deadline = sr.start.Add(opts.TimeBudget)
	}
	res := Result{Bound: noCutoff}
	for r := range sr.st.rows {
		sr.st.enqueue(r)
	}
	if sr.st.propagate() {
		res.Bound = sr.st.lowerBound()
		if res.Bound < noCutoff {
			sr.dfs()
		}
	} else {
		sr.metrics.Conflicts++
	}
	sr.metrics.Elapsed = time.Since(sr.start)
	res.Metrics = sr.metrics
	switch {
	case sr.have && sr.metrics.Stopped == "":
		res.Status = StatusOptimal
	case sr.have:
		res.Status = StatusFeasible
	case sr.metrics.Stopped == "":
		res.Status = StatusInfeasible
	default:
		res.Status = StatusUnknown
	}
	if sr.have {
		res.Values = sr.values
		res.Objective = sr.best
	}
	return res
}

func (sr *search) dfs() {
	if sr.halted() {
		return
	}
	sr.metrics.Nodes++
	st := sr.st
	lb := st.lowerBound()
	if lb >= noCutoff || (sr.have && lb >= sr.best) {
		return
	}
	r := st.pickRow()
	if r < 0 {
		sr.record()
		return
	}
	cands := st.candidates(r)
	if len(cands) == 0 {
		sr.metrics.Conflicts++
		return
	}
	pick := st.choose(cands)
	for _, b := range [2]int8{pick.val, 1 - pick.val} {
		mark := len(st.trail)
		st.assign(pick.v, b)
		st.enqueue(st.objRow)
		if st.propagate() {
			sr.dfs()
		} else {
			sr.metrics.Conflicts++
		}
		st.undo(mark)
		if sr.metrics.Stopped != "" {
			return
		}
	}
}

// record stores the default completion of the current node, which is the
// cheapest completion and satisfies every row.
func (sr *search) record() {
	values := sr.st.completion()
	obj := sr.m.Evaluate(values)
	if sr.have && obj >= sr.best {
		return
	}
	sr.have = true
	sr.best = obj
	sr.values = values
	sr.metrics.Incumbents++
	sr.st.setCutoff(obj - 1)
	if sr.opts.OnIncumbent != nil {
		sr.opts.OnIncumbent(Incumbent{
			Objective: obj,
			Values:    append([]bool(nil), values...),
			Nodes:     sr.metrics.Nodes,
			Elapsed:   time.Since(sr.start),
		})
	}
}

func (sr *search) halted() bool {
	if sr.metrics.Stopped != "" {
		return true
	}
	if sr.opts.NodeLimit > 0 && sr.metrics.Nodes >= sr.opts.NodeLimit {
		sr.metrics.Stopped = "nodes"
		return true
	}
	if sr.metrics.Nodes%sr.every != 0 {
		return false
	}
	if sr.ctx != nil {
		if err := sr.ctx.Err(); err != nil {
			sr.metrics.Stopped = "canceled"
			if errors.Is(err, context.DeadlineExceeded) {
				sr.metrics.Stopped = "deadline"
			}
			return true
		}
	}
	if !sr.deadline.IsZero() && time.Now().After(sr.deadline) {
		sr.metrics.Stopped = "deadline"
		return true
	}
	return false
}
