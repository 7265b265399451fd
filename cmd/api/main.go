package main

import (
    "context"
    "errors"
    "io"
    "log"
    "net/http"
    "os/signal"
    "syscall"
    "time"

    "linebalance/internal/api"
    "linebalance/internal/buildinfo"
    "linebalance/internal/config"
    "linebalance/internal/metrics"
)

func main() {
    cfg, err := config.Load()
    if err != nil {
        log.Fatalf("config: %v", err)
    }
    srvDeps, err := api.NewServer(cfg)
    if err != nil {
        log.Fatalf("failed to init server: %v", err)
    }

    metrics.RegisterDefault()
    mux := srvDeps.Routes()
    mux.Handle("/metrics", metrics.Handler())

    srv := &http.Server{
        Addr:              cfg.Addr(),
        Handler:           logMiddleware(metrics.Instrument(mux, api.RouteLabel)),
        ReadHeaderTimeout: 5 * time.Second,
    }

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    go func() {
        <-ctx.Done()
        shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        if err := srv.Shutdown(shutdownCtx); err != nil {
            log.Printf("shutdown: %v", err)
        }
    }()

    if srvDeps.Hooks != nil {
        srvDeps.Hooks.Start()
        defer srvDeps.Hooks.Stop()
    }

    bi := buildinfo.Info()
    log.Printf("API listening on %s (version %s, commit %s)", srv.Addr, bi["version"], bi["commit"])
    if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
        log.Fatalf("server error: %v", err)
    }
    for _, dep := range []any{srvDeps.Store, srvDeps.Broker} {
        if c, ok := dep.(io.Closer); ok { _ = c.Close() }
    }
    log.Printf("API stopped")
}

func logMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        next.ServeHTTP(w, r)
        dur := time.Since(start)
        log.Printf("%s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, dur)
    })
}
