package store

import (
	"context"
	"errors"
	"testing"

	"linebalance/internal/model"
)

func sampleLine(name string) model.LineInput {
	return model.LineInput{Name: name, Spec: model.LineSpec{
		AutomatedTasks: []model.AutomatedTask{{ID: "press", CycleTime: "10"}},
		ManualTasks:    []model.ManualTask{{ID: "T", BaseTime: "25"}},
		Workers:        []model.Worker{{ID: "A", Skills: []string{"T"}}},
	}}
}

func TestMemoryLineCRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	ln, err := m.CreateLine(ctx, "t1", sampleLine("solar"))
	if err != nil {
		t.Fatalf("CreateLine: %v", err)
	}
	if ln.ID == "" || ln.Version != 1 {
		t.Fatalf("bad line: %+v", ln)
	}
	got, err := m.GetLine(ctx, "t1", ln.ID)
	if err != nil || got.Name != "solar" {
		t.Fatalf("GetLine: %v %+v", err, got)
	}
	if _, err := m.GetLine(ctx, "t2", ln.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other tenant should not see line, got %v", err)
	}
	up, err := m.UpdateLine(ctx, "t1", ln.ID, sampleLine("solar-b"))
	if err != nil || up.Version != 2 || up.Name != "solar-b" {
		t.Fatalf("UpdateLine: %v %+v", err, up)
	}
	if err := m.DeleteLine(ctx, "t1", ln.ID); err != nil {
		t.Fatalf("DeleteLine: %v", err)
	}
	if err := m.DeleteLine(ctx, "t1", ln.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
	items, _, _ := m.ListLines(ctx, "t1", "", 10)
	if len(items) != 0 {
		t.Fatalf("expected empty list, got %d", len(items))
	}
}

func TestMemoryListPaging(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for i := 0; i < 5; i++ {
		if _, err := m.CreateLine(ctx, "t1", sampleLine("l")); err != nil {
			t.Fatal(err)
		}
	}
	page, next, err := m.ListLines(ctx, "t1", "", 2)
	if err != nil || len(page) != 2 || next == "" {
		t.Fatalf("page 1: %v %d %q", err, len(page), next)
	}
	seen := len(page)
	for next != "" {
		page, next, err = m.ListLines(ctx, "t1", next, 2)
		if err != nil {
			t.Fatal(err)
		}
		seen += len(page)
	}
	if seen != 5 {
		t.Fatalf("paged %d lines, want 5", seen)
	}
}

func TestMemorySolverConfig(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	cfg, err := m.GetSolverConfig(ctx, "t1")
	if err != nil || cfg != nil {
		t.Fatalf("expected no config, got %+v %v", cfg, err)
	}
	if err := m.SaveSolverConfig(ctx, "t1", model.SolverConfig{TimeBudgetMs: 250}); err != nil {
		t.Fatal(err)
	}
	cfg, _ = m.GetSolverConfig(ctx, "t1")
	if cfg == nil || cfg.TimeBudgetMs != 250 {
		t.Fatalf("config not saved: %+v", cfg)
	}
}
