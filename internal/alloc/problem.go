// Package alloc assigns workers to manual line tasks so every task keeps pace
// with the slowest automated station, using as few workers as possible and,
// among equally small crews, as many preferred workers as possible.
package alloc

import (
	"errors"
	"fmt"

	"linebalance/internal/rational"
)

// AutomatedTask is a machine station. The largest cycle time sets the line's
// bottleneck pace.
type AutomatedTask struct {
	ID        string
	CycleTime string // decimal literal, for example "4.5"
}

// ManualTask is a station staffed by workers. With N workers assigned its
// effective time is BaseTime * Repetitions / N.
type ManualTask struct {
	ID          string
	BaseTime    string // decimal literal; ignored when Unpaced
	Repetitions int    // units handled per cycle; 0 means 1
	MinWorkers  int    // 0 means 1
	// Unpaced tasks do not follow the bottleneck; they get exactly MinWorkers workers.
	Unpaced bool
	// Shared tasks do not count against OneTaskPerWorker.
	Shared bool
}

// Worker is a line worker and the manual tasks they are qualified for.
type Worker struct {
	ID        string
	Preferred bool
	Skills    []string // ManualTask IDs
}

// Pairing requires at least one worker assigned to both tasks.
type Pairing struct {
	First  string
	Second string
}

// Problem is one allocation instance. It is treated as immutable by the solver.
type Problem struct {
	AutomatedTasks []AutomatedTask
	ManualTasks    []ManualTask
	Workers        []Worker
	Pairings       []Pairing
	// OneTaskPerWorker limits each worker to a single non-shared task.
	OneTaskPerWorker bool
}

func (t ManualTask) repetitions() int64 {
	if t.Repetitions <= 0 {
		return 1
	}
	return int64(t.Repetitions)
}

func (t ManualTask) minWorkers() int64 {
	if t.MinWorkers <= 0 {
		return 1
	}
	return int64(t.MinWorkers)
}

// ErrInfeasible is matched by Outcome.Err when no assignment exists.
var ErrInfeasible = errors.New("alloc: no feasible assignment")

// ErrNoSolution is matched by Outcome.Err when the budget ran out before any
// assignment was found.
var ErrNoSolution = errors.New("alloc: no assignment found within budget")

// InputError reports a malformed Problem. It is returned before any solve.
type InputError struct {
	Field  string
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid input: %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error { return e.Err }

func inputErr(field, format string, args ...any) *InputError {
	return &InputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks structure and positivity. Precision limits are checked
// later by the normalizer.
func (p Problem) Validate() error {
	if len(p.AutomatedTasks) == 0 {
		return inputErr("automatedTasks", "at least one automated task is required")
	}
	if len(p.ManualTasks) == 0 {
		return inputErr("manualTasks", "at least one manual task is required")
	}
	if len(p.Workers) == 0 {
		return inputErr("workers", "at least one worker is required")
	}
	seen := map[string]bool{}
	for i, a := range p.AutomatedTasks {
		field := fmt.Sprintf("automatedTasks[%d]", i)
		if a.ID == "" {
			return inputErr(field, "id is required")
		}
		if seen[a.ID] {
			return inputErr(field, "duplicate id %q", a.ID)
		}
		seen[a.ID] = true
		if err := positive(field+".cycleTime", a.CycleTime); err != nil {
			return err
		}
	}
	tasks := map[string]bool{}
	for i, t := range p.ManualTasks {
		field := fmt.Sprintf("manualTasks[%d]", i)
		if t.ID == "" {
			return inputErr(field, "id is required")
		}
		if tasks[t.ID] {
			return inputErr(field, "duplicate id %q", t.ID)
		}
		tasks[t.ID] = true
		if t.Repetitions < 0 {
			return inputErr(field+".repetitions", "must be >= 0")
		}
		if t.MinWorkers < 0 {
			return inputErr(field+".minWorkers", "must be >= 0")
		}
		if t.Unpaced {
			continue
		}
		if err := positive(field+".baseTime", t.BaseTime); err != nil {
			return err
		}
	}
	workers := map[string]bool{}
	for i, w := range p.Workers {
		field := fmt.Sprintf("workers[%d]", i)
		if w.ID == "" {
			return inputErr(field, "id is required")
		}
		if workers[w.ID] {
			return inputErr(field, "duplicate id %q", w.ID)
		}
		workers[w.ID] = true
		for _, s := range w.Skills {
			if !tasks[s] {
				return inputErr(field+".skills", "unknown manual task %q", s)
			}
		}
	}
	for i, pr := range p.Pairings {
		field := fmt.Sprintf("pairings[%d]", i)
		if !tasks[pr.First] {
			return inputErr(field, "unknown manual task %q", pr.First)
		}
		if !tasks[pr.Second] {
			return inputErr(field, "unknown manual task %q", pr.Second)
		}
		if pr.First == pr.Second {
			return inputErr(field, "task %q paired with itself", pr.First)
		}
	}
	return nil
}

func positive(field, literal string) error {
	r, err := rational.Parse(literal)
	if err != nil {
		var pe *rational.PrecisionError
		if errors.As(err, &pe) {
			return err
		}
		return &InputError{Field: field, Reason: "not a number", Err: err}
	}
	if r.Sign() <= 0 {
		return inputErr(field, "must be > 0, got %s", literal)
	}
	return nil
}
