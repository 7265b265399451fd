package api

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strconv"
    "strings"
    "time"

    "linebalance/internal/events"
    "linebalance/internal/model"
    "linebalance/internal/store"
)

// SolveHandler handles POST /v1/solve with an inline line.
func (s *Server) SolveHandler(w http.ResponseWriter, r *http.Request) {
    if r.URL.Path != "/v1/solve" { writeProblem(w, 404, "Not Found", "", r.URL.Path); return }
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    p := s.getPrincipal(r)
    if !p.CanPlan() { writeProblem(w, 403, "Forbidden", "planner or admin required", r.URL.Path); return }
    if !s.limits.allow(p.Tenant) { writeProblem(w, http.StatusTooManyRequests, "Too Many Requests", "solve rate limit exceeded", r.URL.Path); return }
    var req model.SolveRequest
    if err := decodeJSON(w, r, &req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    if err := validateSolveRequest(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid solve request", err.Error(), r.URL.Path)
        return
    }
    resp, err := s.runSolve(r.Context(), solveJob{tenant: p.Tenant, spec: req.LineSpec, timeBudgetMs: req.TimeBudgetMs, nodeLimit: req.NodeLimit})
    if err != nil { writeSolveError(w, r, err); return }
    writeSolveResponse(w, resp)
}

// LinesHandler handles POST/GET /v1/lines
func (s *Server) LinesHandler(w http.ResponseWriter, r *http.Request) {
    p := s.getPrincipal(r)
    switch r.Method {
    case http.MethodPost:
        if !p.CanPlan() { writeProblem(w, 403, "Forbidden", "planner or admin required", r.URL.Path); return }
        in, ok := s.decodeLineInput(w, r)
        if !ok { return }
        ln, err := s.Store.CreateLine(r.Context(), p.Tenant, in)
        if err != nil {
            writeProblem(w, http.StatusInternalServerError, "Create line failed", err.Error(), r.URL.Path)
            return
        }
        writeJSON(w, http.StatusCreated, ln)
    case http.MethodGet:
        if !p.CanRead() { writeProblem(w, 403, "Forbidden", "unknown role", r.URL.Path); return }
        cursor := r.URL.Query().Get("cursor")
        limit := 100
        if v := r.URL.Query().Get("limit"); v != "" {
            n, err := strconv.Atoi(v)
            if err != nil || n <= 0 { writeProblem(w, 400, "Invalid limit", "limit must be a positive integer", r.URL.Path); return }
            limit = n
        }
        items, next, err := s.Store.ListLines(r.Context(), p.Tenant, cursor, limit)
        if err != nil {
            writeProblem(w, http.StatusInternalServerError, "List lines failed", err.Error(), r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// decodeLineInput reads and checks a line body, writing the problem on failure.
func (s *Server) decodeLineInput(w http.ResponseWriter, r *http.Request) (model.LineInput, bool) {
    var in model.LineInput
    if err := decodeJSON(w, r, &in); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return in, false
    }
    if err := validateLineInput(&in); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid line", err.Error(), r.URL.Path)
        return in, false
    }
    if err := in.Spec.Problem().Validate(); err != nil {
        writeSolveError(w, r, err)
        return in, false
    }
    return in, true
}

// LineByIDHandler handles GET/PUT/DELETE /v1/lines/{id}, POST /v1/lines/{id}/solve,
// GET /v1/lines/{id}/solution and GET /v1/lines/{id}/events/stream
func (s *Server) LineByIDHandler(w http.ResponseWriter, r *http.Request) {
    path := r.URL.Path
    rest := strings.TrimPrefix(path, "/v1/lines/")
    if rest == path || rest == "" {
        writeProblem(w, http.StatusNotFound, "Not Found", "missing id", path)
        return
    }
    parts := strings.Split(rest, "/")
    id := parts[0]
    p := s.getPrincipal(r)
    if !p.CanRead() { writeProblem(w, 403, "Forbidden", "unknown role", path); return }
    switch {
    case len(parts) == 1:
        s.lineResource(w, r, p, id)
    case len(parts) == 2 && parts[1] == "solve":
        s.solveLine(w, r, p, id)
    case len(parts) == 2 && parts[1] == "solution":
        if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
        if _, err := s.Store.GetLine(r.Context(), p.Tenant, id); err != nil { s.lineError(w, r, err); return }
        lr, ok := s.results.get(p.Tenant, id)
        if !ok { writeProblem(w, 404, "No solution", "line has not been solved on this server", path); return }
        writeJSON(w, 200, lr)
    case len(parts) == 3 && parts[1] == "events" && parts[2] == "stream":
        s.streamLineEvents(w, r, p, id)
    default:
        writeProblem(w, http.StatusNotFound, "Not Found", "", path)
    }
}

func (s *Server) lineError(w http.ResponseWriter, r *http.Request, err error) {
    if errors.Is(err, store.ErrNotFound) { writeProblem(w, 404, "Line not found", "", r.URL.Path); return }
    writeProblem(w, http.StatusInternalServerError, "Line lookup failed", err.Error(), r.URL.Path)
}

func (s *Server) lineResource(w http.ResponseWriter, r *http.Request, p Principal, id string) {
    switch r.Method {
    case http.MethodGet:
        ln, err := s.Store.GetLine(r.Context(), p.Tenant, id)
        if err != nil { s.lineError(w, r, err); return }
        writeJSON(w, 200, ln)
    case http.MethodPut:
        if !p.CanPlan() { writeProblem(w, 403, "Forbidden", "planner or admin required", r.URL.Path); return }
        in, ok := s.decodeLineInput(w, r)
        if !ok { return }
        ln, err := s.Store.UpdateLine(r.Context(), p.Tenant, id, in)
        if err != nil { s.lineError(w, r, err); return }
        s.results.drop(p.Tenant, id)
        writeJSON(w, 200, ln)
    case http.MethodDelete:
        if !p.CanPlan() { writeProblem(w, 403, "Forbidden", "planner or admin required", r.URL.Path); return }
        if err := s.Store.DeleteLine(r.Context(), p.Tenant, id); err != nil { s.lineError(w, r, err); return }
        s.results.drop(p.Tenant, id)
        w.WriteHeader(http.StatusNoContent)
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

func (s *Server) solveLine(w http.ResponseWriter, r *http.Request, p Principal, id string) {
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
    if !p.CanPlan() { writeProblem(w, 403, "Forbidden", "planner or admin required", r.URL.Path); return }
    if !s.limits.allow(p.Tenant) { writeProblem(w, http.StatusTooManyRequests, "Too Many Requests", "solve rate limit exceeded", r.URL.Path); return }
    ln, err := s.Store.GetLine(r.Context(), p.Tenant, id)
    if err != nil { s.lineError(w, r, err); return }
    var req model.LineSolveRequest
    if r.ContentLength != 0 {
        if err := decodeJSON(w, r, &req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
    }
    if err := validateLineSolveRequest(&req, ln.Spec); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid solve request", err.Error(), r.URL.Path)
        return
    }
    resp, err := s.runSolve(r.Context(), solveJob{
        tenant:       p.Tenant,
        lineID:       ln.ID,
        version:      ln.Version,
        spec:         req.Apply(ln.Spec),
        timeBudgetMs: req.TimeBudgetMs,
        nodeLimit:    req.NodeLimit,
    })
    if err != nil { writeSolveError(w, r, err); return }
    writeSolveResponse(w, resp)
}

// heartbeatEvery spaces SSE heartbeats; a var so tests can shorten it.
var heartbeatEvery = 15 * time.Second

func (s *Server) streamLineEvents(w http.ResponseWriter, r *http.Request, p Principal, id string) {
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    if _, err := s.Store.GetLine(r.Context(), p.Tenant, id); err != nil { s.lineError(w, r, err); return }
    flusher, ok := w.(http.Flusher)
    if !ok { writeProblem(w, 500, "Streaming unsupported", "", r.URL.Path); return }
    w.Header().Set("Content-Type", "text/event-stream")
    w.Header().Set("Cache-Control", "no-cache")
    w.Header().Set("Connection", "keep-alive")
    topic := events.LineTopic(id)
    ch := s.Broker.Subscribe(topic)
    defer s.Broker.Unsubscribe(topic, ch)
    heartbeat := func() {
        fmt.Fprintf(w, "event: heartbeat\n")
        fmt.Fprintf(w, "data: {\"lineId\":%q,\"ts\":%q}\n\n", id, time.Now().Format(time.RFC3339))
        flusher.Flush()
    }
    heartbeat()
    ticker := time.NewTicker(heartbeatEvery)
    defer ticker.Stop()
    notify := r.Context().Done()
    for {
        select {
        case <-notify:
            return
        case evt, ok := <-ch:
            if !ok { return }
            b, _ := json.Marshal(evt.Data)
            fmt.Fprintf(w, "event: %s\n", evt.Type)
            fmt.Fprintf(w, "data: %s\n\n", string(b))
            flusher.Flush()
        case <-ticker.C:
            heartbeat()
        }
    }
}

// SolverConfigHandler returns the effective solver configuration for the caller's tenant.
func (s *Server) SolverConfigHandler(w http.ResponseWriter, r *http.Request) {
    if r.URL.Path != "/v1/solver/config" || r.Method != http.MethodGet { writeProblem(w, 404, "Not Found", "", r.URL.Path); return }
    p := s.getPrincipal(r)
    if !p.CanRead() { writeProblem(w, 403, "Forbidden", "unknown role", r.URL.Path); return }
    writeJSON(w, 200, map[string]any{
        "defaults":  s.Config.Solver,
        "effective": s.effectiveSolverConfig(r.Context(), p.Tenant),
    })
}

// AdminSolverConfigHandler gets or sets the tenant solver config.
func (s *Server) AdminSolverConfigHandler(w http.ResponseWriter, r *http.Request) {
    if r.URL.Path != "/v1/admin/solver/config" { writeProblem(w, 404, "Not Found", "", r.URL.Path); return }
    p := s.getPrincipal(r)
    if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
    switch r.Method {
    case http.MethodGet:
        cfg, err := s.Store.GetSolverConfig(r.Context(), p.Tenant)
        if err != nil { writeProblem(w, 500, "Load failed", err.Error(), r.URL.Path); return }
        if cfg == nil { cfg = &model.SolverConfig{} }
        writeJSON(w, 200, map[string]any{"config": cfg})
    case http.MethodPut:
        var body struct{ Config *model.SolverConfig `json:"config"` }
        if err := decodeJSON(w, r, &body); err != nil { writeProblem(w, 400, "Invalid JSON", err.Error(), r.URL.Path); return }
        if body.Config == nil { writeProblem(w, 400, "Missing config", "", r.URL.Path); return }
        if err := validateSolverConfig(*body.Config); err != nil { writeProblem(w, 400, "Invalid config", err.Error(), r.URL.Path); return }
        if err := s.Store.SaveSolverConfig(r.Context(), p.Tenant, *body.Config); err != nil { writeProblem(w, 500, "Save failed", err.Error(), r.URL.Path); return }
        writeJSON(w, 200, map[string]bool{"ok": true})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, 200, map[string]string{"status": "ok"})
}

// ReadyHandler checks the database and broker when they are remote.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
    type pinger interface{ Ping(ctx context.Context) error }
    for name, dep := range map[string]any{"store": s.Store, "broker": s.Broker} {
        pg, ok := dep.(pinger)
        if !ok { continue }
        ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
        err := pg.Ping(ctx)
        cancel()
        if err != nil { writeProblem(w, 503, "Not Ready", name+": "+err.Error(), r.URL.Path); return }
    }
    writeJSON(w, 200, map[string]string{"status": "ready"})
}
