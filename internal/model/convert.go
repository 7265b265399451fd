package model

import (
    "linebalance/internal/alloc"
)

// Problem converts the wire form to a solver instance.
func (l LineSpec) Problem() alloc.Problem {
    p := alloc.Problem{OneTaskPerWorker: l.OneTaskPerWorker}
    for _, a := range l.AutomatedTasks {
        p.AutomatedTasks = append(p.AutomatedTasks, alloc.AutomatedTask{ID: a.ID, CycleTime: string(a.CycleTime)})
    }
    for _, t := range l.ManualTasks {
        p.ManualTasks = append(p.ManualTasks, alloc.ManualTask{
            ID:          t.ID,
            BaseTime:    string(t.BaseTime),
            Repetitions: t.Repetitions,
            MinWorkers:  t.MinWorkers,
            Unpaced:     t.Unpaced,
            Shared:      t.Shared,
        })
    }
    for _, w := range l.Workers {
        p.Workers = append(p.Workers, alloc.Worker{ID: w.ID, Preferred: w.Preferred, Skills: append([]string(nil), w.Skills...)})
    }
    for _, pr := range l.Pairings {
        p.Pairings = append(p.Pairings, alloc.Pairing{First: pr.First, Second: pr.Second})
    }
    return p
}

// Apply returns a copy of l with the overrides in r: excluded workers are
// dropped and, when r.Preferred is set, it replaces the saved flags.
func (r LineSolveRequest) Apply(l LineSpec) LineSpec {
    out := l
    out.Workers = nil
    drop := make(map[string]bool, len(r.Exclude))
    for _, id := range r.Exclude { drop[id] = true }
    var pref map[string]bool
    if r.Preferred != nil {
        pref = make(map[string]bool, len(r.Preferred))
        for _, id := range r.Preferred { pref[id] = true }
    }
    for _, w := range l.Workers {
        if drop[w.ID] { continue }
        if pref != nil { w.Preferred = pref[w.ID] }
        out.Workers = append(out.Workers, w)
    }
    return out
}

// NewSolveResponse renders an outcome for the wire.
func NewSolveResponse(out alloc.Outcome) SolveResponse {
    resp := SolveResponse{
        Status:  string(out.Status),
        Reasons: out.Reasons,
        Stats: SolveStats{
            Nodes:      out.Metrics.Nodes,
            Conflicts:  out.Metrics.Conflicts,
            Incumbents: out.Metrics.Incumbents,
            ElapsedMs:  out.Metrics.Elapsed.Milliseconds(),
            Stopped:    out.Metrics.Stopped,
        },
    }
    sol := out.Solution
    if sol == nil { return resp }
    resp.Optimal = sol.Optimal
    resp.Bottleneck = sol.Bottleneck.Decimal()
    resp.BottleneckExact = sol.Bottleneck.String()
    resp.TotalWorkers = sol.TotalWorkers
    resp.PreferredUsed = sol.PreferredUsed
    resp.Objective = sol.Objective
    for _, t := range sol.Tasks {
        tr := TaskResult{
            TaskID:   t.TaskID,
            Workers:  t.Workers,
            Count:    t.Count,
            Required: t.Required,
            Paced:    t.Paced,
        }
        if tr.Workers == nil { tr.Workers = []string{} }
        if t.Paced {
            tr.BaseTime = t.BaseTime.Decimal()
            tr.EffectiveTime = t.EffectiveTime.Decimal()
            tr.EffectiveTimeExact = t.EffectiveTime.String()
        }
        resp.Tasks = append(resp.Tasks, tr)
    }
    for _, w := range sol.Workers {
        resp.Workers = append(resp.Workers, WorkerResult{WorkerID: w.WorkerID, Used: w.Used, Preferred: w.Preferred, Tasks: w.Tasks})
    }
    return resp
}

// NewProgressEvent renders solver progress for the wire.
func NewProgressEvent(p alloc.Progress) ProgressEvent {
    return ProgressEvent{
        TotalWorkers:  p.TotalWorkers,
        PreferredUsed: p.PreferredUsed,
        Objective:     p.Objective,
        Nodes:         p.Nodes,
        ElapsedMs:     p.Elapsed.Milliseconds(),
    }
}
