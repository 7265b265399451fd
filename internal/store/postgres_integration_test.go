//go:build postgres_integration

package store

import (
    "errors"
    "os"
    "testing"

    "linebalance/internal/model"
)

func TestPostgresConnectivityAndMigrate(t *testing.T) {
    dsn := os.Getenv("DATABASE_URL")
    if dsn == "" { t.Skip("DATABASE_URL not set; skipping integration test") }
    p, err := NewPostgres(dsn)
    if err != nil { t.Fatalf("NewPostgres: %v", err) }
    defer p.Close()
    if err := p.Ping(t.Context()); err != nil { t.Fatalf("Ping: %v", err) }
    if err := p.MigrateDir("../../db/migrations"); err != nil { t.Fatalf("MigrateDir: %v", err) }
    // second run is a no-op
    if err := p.MigrateDir("../../db/migrations"); err != nil { t.Fatalf("MigrateDir again: %v", err) }

    in := model.LineInput{Name: "it", Spec: model.LineSpec{
        AutomatedTasks: []model.AutomatedTask{{ID: "press", CycleTime: "4.8"}},
        ManualTasks:    []model.ManualTask{{ID: "T", BaseTime: "9/2"}},
        Workers:        []model.Worker{{ID: "A", Skills: []string{"T"}}},
    }}
    ln, err := p.CreateLine(t.Context(), "t_it", in)
    if err != nil { t.Fatalf("CreateLine: %v", err) }
    got, err := p.GetLine(t.Context(), "t_it", ln.ID)
    if err != nil { t.Fatalf("GetLine: %v", err) }
    if got.Spec.AutomatedTasks[0].CycleTime != "4.8" || got.Spec.ManualTasks[0].BaseTime != "9/2" {
        t.Fatalf("literals not preserved: %+v", got.Spec)
    }
    in.Name = "renamed"
    up, err := p.UpdateLine(t.Context(), "t_it", ln.ID, in)
    if err != nil || up.Version != 2 { t.Fatalf("UpdateLine: %v %+v", err, up) }
    if _, err := p.GetLine(t.Context(), "t_other", ln.ID); !errors.Is(err, ErrNotFound) { t.Fatalf("tenant isolation: %v", err) }
    if err := p.DeleteLine(t.Context(), "t_it", ln.ID); err != nil { t.Fatalf("DeleteLine: %v", err) }
    if err := p.DeleteLine(t.Context(), "t_it", ln.ID); !errors.Is(err, ErrNotFound) { t.Fatalf("second delete: %v", err) }

    if err := p.SaveSolverConfig(t.Context(), "t_it", model.SolverConfig{NodeLimit: 9}); err != nil { t.Fatalf("SaveSolverConfig: %v", err) }
    cfg, err := p.GetSolverConfig(t.Context(), "t_it")
    if err != nil || cfg == nil || cfg.NodeLimit != 9 { t.Fatalf("GetSolverConfig: %v %+v", err, cfg) }
}
