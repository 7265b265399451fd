package api

import (
    "context"
    "errors"
    "log"
    "net/http"
    "time"

    "linebalance/internal/alloc"
    "linebalance/internal/config"
    "linebalance/internal/events"
    "linebalance/internal/metrics"
    "linebalance/internal/model"
    "linebalance/internal/rational"
)

// solveJob is one solve request after decoding.
type solveJob struct {
    tenant  string
    lineID  string // empty for inline instances
    version int
    spec    model.LineSpec

    timeBudgetMs int
    nodeLimit    int
    onProgress   func(model.ProgressEvent)
}

// effectiveSolverConfig overlays the tenant's stored config on process defaults.
func (s *Server) effectiveSolverConfig(ctx context.Context, tenant string) model.SolverConfig {
    sc := s.Config.Solver
    tc, err := s.Store.GetSolverConfig(ctx, tenant)
    if err != nil {
        log.Printf("solver config for %s: %v", tenant, err)
        return sc
    }
    if tc != nil { sc = sc.Merge(*tc) }
    return sc
}

// runSolve solves job synchronously. Events are published for saved lines.
// The returned error is an input or precision error, or a backend failure.
func (s *Server) runSolve(ctx context.Context, job solveJob) (model.SolveResponse, error) {
    sc := s.effectiveSolverConfig(ctx, job.tenant).Merge(model.SolverConfig{TimeBudgetMs: job.timeBudgetMs, NodeLimit: job.nodeLimit})
    topic := ""
    if job.lineID != "" {
        topic = events.LineTopic(job.lineID)
        s.Broker.Publish(topic, events.Event{Type: "solve.started", Data: map[string]any{"lineId": job.lineID, "lineVersion": job.version}})
    }
    solver := alloc.Solver{
        Backend:        s.Backend,
        MaxDenominator: sc.MaxDenominator,
        TimeBudget:     config.TimeBudget(sc),
        NodeLimit:      sc.NodeLimit,
        OnProgress: func(p alloc.Progress) {
            pe := model.NewProgressEvent(p)
            if job.onProgress != nil { job.onProgress(pe) }
            if topic != "" {
                s.Broker.Publish(topic, events.Event{Type: "solve.incumbent", Data: map[string]any{
                    "lineId": job.lineID, "totalWorkers": pe.TotalWorkers, "preferredUsed": pe.PreferredUsed,
                    "objective": pe.Objective, "nodes": pe.Nodes, "elapsedMs": pe.ElapsedMs,
                }})
            }
        },
    }
    start := time.Now()
    out, err := solver.Solve(ctx, job.spec.Problem())
    if err != nil {
        metrics.Solves.WithLabelValues("error").Inc()
        log.Printf("solve tenant=%s line=%s error=%q", job.tenant, job.lineID, err)
        if topic != "" {
            data := map[string]any{"lineId": job.lineID, "error": err.Error()}
            s.Broker.Publish(topic, events.Event{Type: "solve.failed", Data: data})
            if s.Hooks != nil { s.Hooks.Emit(job.tenant, "solve.failed", data) }
        }
        return model.SolveResponse{}, err
    }
    resp := model.NewSolveResponse(out)
    workers := -1
    if out.Solution != nil { workers = out.Solution.TotalWorkers }
    metrics.ObserveSolve(resp.Status, time.Since(start), out.Metrics.Nodes, workers)
    log.Printf("solve tenant=%s line=%s status=%s workers=%d nodes=%d stopped=%q dur=%v",
        job.tenant, job.lineID, resp.Status, resp.TotalWorkers, out.Metrics.Nodes, out.Metrics.Stopped, time.Since(start))
    if topic != "" {
        s.results.put(job.tenant, job.lineID, job.version, resp)
        data := map[string]any{"lineId": job.lineID, "lineVersion": job.version, "result": resp}
        s.Broker.Publish(topic, events.Event{Type: "solve.finished", Data: data})
        if s.Hooks != nil { s.Hooks.Emit(job.tenant, "solve.finished", data) }
    }
    return resp, nil
}

// solveProblem maps a solve error to an RFC 7807 document.
func solveProblem(err error, instance string) Problem {
    var ie *alloc.InputError
    var pe *rational.PrecisionError
    switch {
    case errors.As(err, &ie):
        return Problem{Type: "about:blank", Title: "Invalid input", Status: http.StatusBadRequest, Detail: ie.Error(), Instance: instance, Field: ie.Field}
    case errors.As(err, &pe):
        return Problem{Type: "about:blank", Title: "Precision overflow", Status: http.StatusBadRequest, Detail: pe.Error(), Instance: instance}
    }
    return Problem{Type: "about:blank", Title: "Solve failed", Status: http.StatusInternalServerError, Detail: err.Error(), Instance: instance}
}

func writeSolveError(w http.ResponseWriter, r *http.Request, err error) {
    pr := solveProblem(err, r.URL.Path)
    writeJSON(w, pr.Status, pr)
}

// writeSolveResponse sends 422 for proven infeasibility and 200 otherwise,
// including budget expiry without a solution.
func writeSolveResponse(w http.ResponseWriter, resp model.SolveResponse) {
    status := http.StatusOK
    if resp.Status == string(alloc.StatusInfeasible) { status = http.StatusUnprocessableEntity }
    writeJSON(w, status, resp)
}
