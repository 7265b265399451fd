package store

import (
    "context"
    "errors"

    "linebalance/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
    // Line profiles
    CreateLine(ctx context.Context, tenantID string, in model.LineInput) (model.Line, error)
    ListLines(ctx context.Context, tenantID, cursor string, limit int) ([]model.Line, string, error)
    GetLine(ctx context.Context, tenantID, id string) (model.Line, error)
    UpdateLine(ctx context.Context, tenantID, id string, in model.LineInput) (model.Line, error)
    DeleteLine(ctx context.Context, tenantID, id string) error

    // Solver config per tenant; nil when the tenant has none
    GetSolverConfig(ctx context.Context, tenantID string) (*model.SolverConfig, error)
    SaveSolverConfig(ctx context.Context, tenantID string, cfg model.SolverConfig) error
}

var ErrNotFound = errors.New("not found")

const (
    defaultPageSize = 100
    maxPageSize     = 500
)

func pageLimit(limit int) int {
    if limit <= 0 || limit > maxPageSize { return defaultPageSize }
    return limit
}
