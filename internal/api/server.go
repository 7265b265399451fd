package api

import (
    "log"
    "net/http"
    "strings"

    "linebalance/internal/auth"
    "linebalance/internal/config"
    "linebalance/internal/events"
    "linebalance/internal/opt"
    "linebalance/internal/store"
    "linebalance/internal/webhooks"
)

type Server struct {
    Store   store.Store
    Broker  events.Broker
    Config  config.Config
    Auth    *auth.Verifier
    // Hooks receives solve.finished and solve.failed for saved lines; nil disables.
    Hooks   *webhooks.Notifier
    // Backend overrides the solver backend; nil selects branch and bound.
    Backend opt.Backend

    limits  *tenantLimiter
    results *resultCache
}

// NewServer wires a Server from cfg. If DatabaseURL is unset, uses the in-memory store.
func NewServer(cfg config.Config) (*Server, error) {
    var s store.Store
    if strings.TrimSpace(cfg.DatabaseURL) == "" {
        s = store.NewMemory()
    } else {
        sp, err := store.NewPostgres(cfg.DatabaseURL)
        if err != nil {
            return nil, err
        }
        if cfg.Migrate {
            if err := sp.MigrateDir(cfg.MigrationDir); err != nil {
                return nil, err
            }
        }
        s = sp
    }
    // Broker selection
    var broker events.Broker = events.NewMemory()
    if cfg.RedisURL != "" {
        if rb, err := events.NewRedis(cfg.RedisURL); err == nil {
            broker = rb
        } else {
            log.Printf("redis broker unavailable, using in-memory: %v", err)
        }
    }
    return New(s, broker, cfg), nil
}

// New builds a Server over explicit dependencies.
func New(s store.Store, b events.Broker, cfg config.Config) *Server {
    srv := &Server{
        Store:   s,
        Broker:  b,
        Config:  cfg,
        Auth:    auth.NewVerifier(cfg.Auth),
        limits:  newTenantLimiter(cfg.RateRPS, cfg.RateBurst),
        results: newResultCache(),
    }
    if cfg.Webhook.URL != "" {
        srv.Hooks = webhooks.NewNotifier(cfg.Webhook.URL, cfg.Webhook.Secret, cfg.Webhook.MaxAttempts)
    }
    return srv
}

// Routes registers every endpoint on a new mux.
func (s *Server) Routes() *http.ServeMux {
    mux := http.NewServeMux()

    // Solving
    mux.HandleFunc("/v1/solve", s.SolveHandler)
    mux.HandleFunc("/v1/solve/ws", s.SolveWSHandler)
    mux.HandleFunc("/v1/solver/config", s.SolverConfigHandler)
    mux.HandleFunc("/v1/admin/solver/config", s.AdminSolverConfigHandler)

    // Saved lines
    mux.HandleFunc("/v1/lines", s.LinesHandler)
    mux.HandleFunc("/v1/lines/", s.LineByIDHandler) // includes /solve, /solution, /events/stream

    // Docs
    mux.HandleFunc("/openapi.yaml", s.OpenAPIHandler)
    mux.HandleFunc("/docs", s.DocsHandler)

    // Health
    mux.HandleFunc("/healthz", s.HealthHandler)
    mux.HandleFunc("/readyz", s.ReadyHandler)
    mux.HandleFunc("/debug/info", s.DebugJSON)
    return mux
}

// RouteLabel maps a request path to a metrics label without ids.
func RouteLabel(r *http.Request) string {
    p := r.URL.Path
    rest, ok := strings.CutPrefix(p, "/v1/lines/")
    if !ok || rest == "" {
        return p
    }
    parts := strings.SplitN(rest, "/", 2)
    if len(parts) == 1 {
        return "/v1/lines/{id}"
    }
    return "/v1/lines/{id}/" + parts[1]
}
