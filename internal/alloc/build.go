package alloc

import (
	"fmt"

	"linebalance/internal/opt"
	"linebalance/internal/rational"
)

// cell is an eligible (task, worker) pair and its assignment variable.
type cell struct {
	worker int
	v      opt.Var
}

// Plan is the immutable model for one Problem plus what is needed to read a
// solution back. A Plan with Reasons has no Model: the instance was shown
// infeasible while building.
type Plan struct {
	Model   *opt.Model
	Reasons []string

	Bottleneck rational.Rational
	Scale      int64
	// Weight separates the two objective levels. It is the worker count plus
	// one, so one fewer worker always outweighs any number of preferred ones.
	Weight int64
	// Required is the minimum crew per manual task.
	Required []int64

	problem Problem
	base    []rational.Rational // per manual task; zero for unpaced
	cells   [][]cell            // per manual task, in worker order
	used    []opt.Var           // per worker; -1 when the worker has no skills
}

// Build normalizes the times of p and constructs its model. Errors are input
// or precision errors; infeasibility is reported through Plan.Reasons.
func Build(p Problem, maxDenominator int64) (*Plan, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	// automated times first, then paced base times
	literals := make([]string, 0, len(p.AutomatedTasks)+len(p.ManualTasks))
	for _, a := range p.AutomatedTasks {
		literals = append(literals, a.CycleTime)
	}
	for _, t := range p.ManualTasks {
		if !t.Unpaced {
			literals = append(literals, t.BaseTime)
		}
	}
	norm, err := rational.Normalize(literals, maxDenominator)
	if err != nil {
		return nil, err
	}
	var bottleneck int64
	bi := 0
	for i := range p.AutomatedTasks {
		if norm.Scaled[i] > bottleneck {
			bottleneck, bi = norm.Scaled[i], i
		}
	}

	plan := &Plan{
		Bottleneck: norm.Values[bi],
		Scale:      norm.Scale,
		Weight:     int64(len(p.Workers)) + 1,
		Required:   make([]int64, len(p.ManualTasks)),
		problem:    p,
		base:       make([]rational.Rational, len(p.ManualTasks)),
		cells:      make([][]cell, len(p.ManualTasks)),
		used:       make([]opt.Var, len(p.Workers)),
	}

	taskIdx := make(map[string]int, len(p.ManualTasks))
	for i, t := range p.ManualTasks {
		taskIdx[t.ID] = i
	}
	skilled := make([][]bool, len(p.Workers))
	for w, wk := range p.Workers {
		skilled[w] = make([]bool, len(p.ManualTasks))
		for _, s := range wk.Skills {
			skilled[w][taskIdx[s]] = true
		}
	}

	demand := make([]int64, len(p.ManualTasks))
	next := len(p.AutomatedTasks)
	for i, t := range p.ManualTasks {
		if t.Unpaced {
			plan.Required[i] = t.minWorkers()
			continue
		}
		plan.base[i] = norm.Values[next]
		d := norm.Scaled[next] * t.repetitions()
		if d/t.repetitions() != norm.Scaled[next] {
			return nil, &rational.PrecisionError{Value: t.BaseTime, Denominator: fmt.Sprint(norm.Scale), Overflow: true}
		}
		next++
		demand[i] = d
		k := rational.CeilDiv(d, bottleneck)
		if m := t.minWorkers(); m > k {
			k = m
		}
		plan.Required[i] = k
	}

	plan.Reasons = diagnose(p, skilled, plan.Required)
	if len(plan.Reasons) > 0 {
		return plan, nil
	}

	b := opt.NewBuilder()
	for w, wk := range p.Workers {
		plan.used[w] = -1
		for t := range p.ManualTasks {
			if skilled[w][t] {
				plan.used[w] = b.Bool("used[" + wk.ID + "]")
				break
			}
		}
	}
	for t, task := range p.ManualTasks {
		for w, wk := range p.Workers {
			if skilled[w][t] {
				v := b.Bool("x[" + task.ID + "," + wk.ID + "]")
				plan.cells[t] = append(plan.cells[t], cell{worker: w, v: v})
			}
		}
	}

	var allUsed []opt.Var
	for _, u := range plan.used {
		if u >= 0 {
			allUsed = append(allUsed, u)
		}
	}

	var maxK, exclusiveK int64
	for t, task := range p.ManualTasks {
		xs := make([]opt.Var, len(plan.cells[t]))
		us := make([]opt.Var, len(plan.cells[t]))
		for i, c := range plan.cells[t] {
			xs[i] = c.v
			us[i] = plan.used[c.worker]
			b.Add("link:"+task.ID+","+p.Workers[c.worker].ID, []opt.Term{{Var: c.v, Coef: 1}, {Var: us[i], Coef: -1}}, opt.LE, 0)
		}
		k := plan.Required[t]
		if task.Unpaced {
			b.Add("exact:"+task.ID, opt.Sum(xs...), opt.EQ, k)
		} else {
			// base * reps <= n * bottleneck, all on the common scale
			b.Add("pace:"+task.ID, opt.Scale(opt.Sum(xs...), bottleneck), opt.GE, demand[t])
			b.Add("cover:"+task.ID, opt.Sum(xs...), opt.GE, k)
		}
		b.Add("cut:"+task.ID, opt.Sum(us...), opt.GE, k)
		if k > maxK {
			maxK = k
		}
		if !task.Shared {
			exclusiveK += k
		}
	}

	for w, wk := range p.Workers {
		u := plan.used[w]
		if u < 0 {
			continue
		}
		active := []opt.Term{{Var: u, Coef: 1}}
		var exclusive []opt.Var
		for t, task := range p.ManualTasks {
			for _, c := range plan.cells[t] {
				if c.worker != w {
					continue
				}
				active = append(active, opt.Term{Var: c.v, Coef: -1})
				if !task.Shared {
					exclusive = append(exclusive, c.v)
				}
			}
		}
		b.Add("active:"+wk.ID, active, opt.LE, 0)
		if p.OneTaskPerWorker && len(exclusive) > 1 {
			b.Add("single:"+wk.ID, opt.Sum(exclusive...), opt.LE, 1)
		}
	}

	for _, pr := range p.Pairings {
		a, c := taskIdx[pr.First], taskIdx[pr.Second]
		name := pr.First + "+" + pr.Second
		var ys []opt.Var
		for w, wk := range p.Workers {
			if !skilled[w][a] || !skilled[w][c] {
				continue
			}
			y := b.Bool("pair[" + name + "," + wk.ID + "]")
			ys = append(ys, y)
			b.Add("pair:"+name+","+wk.ID+":first", []opt.Term{{Var: y, Coef: 1}, {Var: plan.cellVar(a, w), Coef: -1}}, opt.LE, 0)
			b.Add("pair:"+name+","+wk.ID+":second", []opt.Term{{Var: y, Coef: 1}, {Var: plan.cellVar(c, w), Coef: -1}}, opt.LE, 0)
		}
		b.Add("pair:"+name, opt.Sum(ys...), opt.GE, 1)
	}

	b.Add("cut:crew", opt.Sum(allUsed...), opt.GE, maxK)
	if p.OneTaskPerWorker {
		b.Add("cut:exclusive", opt.Sum(allUsed...), opt.GE, exclusiveK)
	}

	// minimize Weight*sum(used) - sum(used*preferred)
	var objective []opt.Term
	for w, wk := range p.Workers {
		if plan.used[w] < 0 {
			continue
		}
		coef := plan.Weight
		if wk.Preferred {
			coef--
		}
		objective = append(objective, opt.Term{Var: plan.used[w], Coef: coef})
	}
	b.Minimize(objective)

	m, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("alloc: build model: %w", err)
	}
	plan.Model = m
	return plan, nil
}

func (pl *Plan) cellVar(task, worker int) opt.Var {
	for _, c := range pl.cells[task] {
		if c.worker == worker {
			return c.v
		}
	}
	panic(fmt.Sprintf("alloc: worker %d not eligible for task %d", worker, task))
}

// diagnose finds infeasibility that is visible without search.
func diagnose(p Problem, skilled [][]bool, required []int64) []string {
	var reasons []string
	for t, task := range p.ManualTasks {
		var n int64
		for w := range p.Workers {
			if skilled[w][t] {
				n++
			}
		}
		switch {
		case n == 0:
			reasons = append(reasons, fmt.Sprintf("task %q has no qualified workers", task.ID))
		case n < required[t]:
			reasons = append(reasons, fmt.Sprintf("task %q needs %d workers, only %d qualified", task.ID, required[t], n))
		}
	}
	for _, pr := range p.Pairings {
		var a, c int
		for t, task := range p.ManualTasks {
			if task.ID == pr.First {
				a = t
			}
			if task.ID == pr.Second {
				c = t
			}
		}
		common := false
		for w := range p.Workers {
			if skilled[w][a] && skilled[w][c] {
				common = true
				break
			}
		}
		if !common {
			reasons = append(reasons, fmt.Sprintf("no worker is qualified for both %q and %q", pr.First, pr.Second))
		}
	}
	if p.OneTaskPerWorker {
		var need, avail int64
		for t, task := range p.ManualTasks {
			if !task.Shared {
				need += required[t]
			}
		}
		for w := range p.Workers {
			for t, task := range p.ManualTasks {
				if skilled[w][t] && !task.Shared {
					avail++
					break
				}
			}
		}
		if need > avail {
			reasons = append(reasons, fmt.Sprintf("exclusive tasks need %d workers, only %d can staff them", need, avail))
		}
	}
	return reasons
}
