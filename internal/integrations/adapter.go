// Package integrations connects line profiles to external planning data.
package integrations

import (
    "context"
    "fmt"

    "linebalance/internal/model"
)

// RosterSource supplies the worker roster of a line, for example a skill
// matrix exported from a spreadsheet or an HR system.
type RosterSource interface {
    Name() string
    Workers(ctx context.Context) ([]model.Worker, error)
}

// ApplyRoster replaces the workers of spec with those from src. Skills must
// name manual tasks of spec.
func ApplyRoster(ctx context.Context, spec model.LineSpec, src RosterSource) (model.LineSpec, error) {
    workers, err := src.Workers(ctx)
    if err != nil { return spec, fmt.Errorf("%s: %w", src.Name(), err) }
    tasks := make(map[string]bool, len(spec.ManualTasks))
    for _, t := range spec.ManualTasks { tasks[t.ID] = true }
    for _, w := range workers {
        for _, sk := range w.Skills {
            if !tasks[sk] { return spec, fmt.Errorf("%s: worker %s: unknown manual task %q", src.Name(), w.ID, sk) }
        }
    }
    spec.Workers = workers
    return spec, nil
}
