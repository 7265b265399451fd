package api

import (
    "encoding/json"
    "net/http"
    "time"

    "linebalance/internal/buildinfo"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
    info := map[string]any{
        "build": buildinfo.Info(),
        "time":  time.Now().UTC().Format(time.RFC3339),
        "config": map[string]any{
            "PORT":             s.Config.Port,
            "RATE_RPS":         s.Config.RateRPS,
            "RATE_BURST":       s.Config.RateBurst,
            "DB_MIGRATE":       s.Config.Migrate,
            "SOLVER":           s.Config.Solver,
            "HAS_DATABASE_URL": s.Config.DatabaseURL != "",
            "HAS_REDIS_URL":    s.Config.RedisURL != "",
            "AUTH_MODE":        s.Config.Auth.Mode,
            "HAS_WEBHOOK_URL":  s.Config.Webhook.URL != "",
        },
    }
    w.Header().Set("Content-Type", "application/json")
    _ = json.NewEncoder(w).Encode(info)
}
