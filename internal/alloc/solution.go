package alloc

import (
	"fmt"

	"linebalance/internal/rational"
)

// Solution is one allocation. It is created per solve and never shared.
type Solution struct {
	Bottleneck    rational.Rational
	TotalWorkers  int
	PreferredUsed int
	Weight        int64
	Objective     int64
	// Optimal is false when the time budget expired before proof.
	Optimal bool
	Tasks   []TaskAssignment
	Workers []WorkerUsage
}

// TaskAssignment is the crew of one manual task.
type TaskAssignment struct {
	TaskID   string
	Workers  []string
	Count    int
	Required int
	Paced    bool
	BaseTime rational.Rational
	// EffectiveTime is BaseTime * Repetitions / Count. Zero for unpaced tasks.
	EffectiveTime rational.Rational
}

// WorkerUsage reports whether a worker is part of the crew.
type WorkerUsage struct {
	WorkerID  string
	Used      bool
	Preferred bool
	Tasks     []string
}

// Task returns the assignment for id.
func (s *Solution) Task(id string) (TaskAssignment, bool) {
	for _, t := range s.Tasks {
		if t.TaskID == id {
			return t, true
		}
	}
	return TaskAssignment{}, false
}

// Worker returns the usage record for id.
func (s *Solution) Worker(id string) (WorkerUsage, bool) {
	for _, w := range s.Workers {
		if w.WorkerID == id {
			return w, true
		}
	}
	return WorkerUsage{}, false
}

// decode reads a full variable assignment back into a Solution and checks the
// pace rule on exact rationals.
func (pl *Plan) decode(values []bool) (*Solution, error) {
	p := pl.problem
	sol := &Solution{
		Bottleneck: pl.Bottleneck,
		Weight:     pl.Weight,
		Tasks:      make([]TaskAssignment, len(p.ManualTasks)),
		Workers:    make([]WorkerUsage, len(p.Workers)),
	}
	for w, wk := range p.Workers {
		sol.Workers[w] = WorkerUsage{WorkerID: wk.ID, Preferred: wk.Preferred}
		if u := pl.used[w]; u >= 0 && values[u] {
			sol.Workers[w].Used = true
		}
	}
	for t, task := range p.ManualTasks {
		ta := TaskAssignment{
			TaskID:   task.ID,
			Required: int(pl.Required[t]),
			Paced:    !task.Unpaced,
			BaseTime: pl.base[t],
		}
		for _, c := range pl.cells[t] {
			if !values[c.v] {
				continue
			}
			wid := p.Workers[c.worker].ID
			if !sol.Workers[c.worker].Used {
				return nil, fmt.Errorf("alloc: worker %q assigned to %q but not marked used", wid, task.ID)
			}
			ta.Workers = append(ta.Workers, wid)
			sol.Workers[c.worker].Tasks = append(sol.Workers[c.worker].Tasks, task.ID)
		}
		ta.Count = len(ta.Workers)
		if int64(ta.Count) < pl.Required[t] {
			return nil, fmt.Errorf("alloc: task %q has %d workers, needs %d", task.ID, ta.Count, pl.Required[t])
		}
		if ta.Paced {
			ta.EffectiveTime = pl.base[t].MulInt(task.repetitions()).DivInt(int64(ta.Count))
			if ta.EffectiveTime.Cmp(pl.Bottleneck) > 0 {
				return nil, fmt.Errorf("alloc: task %q effective time %s exceeds bottleneck %s", task.ID, ta.EffectiveTime, pl.Bottleneck)
			}
		}
		sol.Tasks[t] = ta
	}
	for w := range sol.Workers {
		wu := &sol.Workers[w]
		if wu.Used && len(wu.Tasks) == 0 {
			return nil, fmt.Errorf("alloc: worker %q marked used without tasks", wu.WorkerID)
		}
		if wu.Used {
			sol.TotalWorkers++
			if wu.Preferred {
				sol.PreferredUsed++
			}
		}
	}
	sol.Objective = pl.Weight*int64(sol.TotalWorkers) - int64(sol.PreferredUsed)
	return sol, nil
}
