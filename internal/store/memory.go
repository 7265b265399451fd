package store

import (
    "context"
    "sync"
    "time"

    "github.com/google/uuid"
    "linebalance/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
    mu     sync.Mutex
    lines  map[string]model.Line          // id -> line
    byTen  map[string][]string            // tenant -> line ids, in creation order
    cfg    map[string]model.SolverConfig  // tenant -> config
    now    func() time.Time
}

func NewMemory() *Memory {
    return &Memory{
        lines: map[string]model.Line{},
        byTen: map[string][]string{},
        cfg:   map[string]model.SolverConfig{},
        now:   func() time.Time { return time.Now().UTC() },
    }
}

func (m *Memory) CreateLine(ctx context.Context, tenantID string, in model.LineInput) (model.Line, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    ts := m.now()
    ln := model.Line{ID: uuid.New().String(), TenantID: tenantID, Name: in.Name, Version: 1, Spec: in.Spec, CreatedAt: ts, UpdatedAt: ts}
    m.lines[ln.ID] = ln
    m.byTen[tenantID] = append(m.byTen[tenantID], ln.ID)
    return ln, nil
}

func (m *Memory) ListLines(ctx context.Context, tenantID, cursor string, limit int) ([]model.Line, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    ids := m.byTen[tenantID]
    start := 0
    if cursor != "" {
        for i, id := range ids {
            if id == cursor { start = i + 1; break }
        }
    }
    limit = pageLimit(limit)
    out := []model.Line{}
    var next string
    for i := start; i < len(ids) && len(out) < limit; i++ {
        out = append(out, m.lines[ids[i]])
        next = ids[i]
    }
    if len(out) < limit || start+len(out) == len(ids) { next = "" }
    return out, next, nil
}

func (m *Memory) GetLine(ctx context.Context, tenantID, id string) (model.Line, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    ln, ok := m.lines[id]
    if !ok || ln.TenantID != tenantID { return model.Line{}, ErrNotFound }
    return ln, nil
}

func (m *Memory) UpdateLine(ctx context.Context, tenantID, id string, in model.LineInput) (model.Line, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    ln, ok := m.lines[id]
    if !ok || ln.TenantID != tenantID { return model.Line{}, ErrNotFound }
    ln.Name = in.Name
    ln.Spec = in.Spec
    ln.Version++
    ln.UpdatedAt = m.now()
    m.lines[id] = ln
    return ln, nil
}

func (m *Memory) DeleteLine(ctx context.Context, tenantID, id string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    ln, ok := m.lines[id]
    if !ok || ln.TenantID != tenantID { return ErrNotFound }
    delete(m.lines, id)
    ids := m.byTen[tenantID]
    for i, x := range ids {
        if x == id {
            m.byTen[tenantID] = append(ids[:i:i], ids[i+1:]...)
            break
        }
    }
    return nil
}

func (m *Memory) GetSolverConfig(ctx context.Context, tenantID string) (*model.SolverConfig, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if cfg, ok := m.cfg[tenantID]; ok { return &cfg, nil }
    return nil, nil
}

func (m *Memory) SaveSolverConfig(ctx context.Context, tenantID string, cfg model.SolverConfig) error {
    m.mu.Lock(); defer m.mu.Unlock()
    m.cfg[tenantID] = cfg
    return nil
}
