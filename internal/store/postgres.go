package store

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "sort"
    "strings"
    "time"

    "github.com/google/uuid"
    _ "github.com/jackc/pgx/v5/stdlib"

    "linebalance/internal/model"
)

type Postgres struct {
    db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil {
        return nil, err
    }
    if err := db.Ping(); err != nil {
        return nil, err
    }
    return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

// MigrateDir applies every *.sql file in dir that has not been applied yet, in
// name order, each in its own transaction.
func (p *Postgres) MigrateDir(dir string) error {
    ctx := context.Background()
    if _, err := p.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (name text PRIMARY KEY, applied_at timestamptz NOT NULL DEFAULT now())`); err != nil {
        return fmt.Errorf("migrate: %w", err)
    }
    files, err := migrationFiles(dir)
    if err != nil { return err }
    for _, f := range files {
        name := filepath.Base(f)
        var done bool
        if err := p.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name=$1)`, name).Scan(&done); err != nil {
            return fmt.Errorf("migrate %s: %w", name, err)
        }
        if done { continue }
        body, err := os.ReadFile(f)
        if err != nil { return err }
        tx, err := p.db.BeginTx(ctx, nil)
        if err != nil { return err }
        if _, err := tx.ExecContext(ctx, string(body)); err != nil {
            _ = tx.Rollback()
            return fmt.Errorf("migrate %s: %w", name, err)
        }
        if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
            _ = tx.Rollback()
            return fmt.Errorf("migrate %s: %w", name, err)
        }
        if err := tx.Commit(); err != nil { return err }
    }
    return nil
}

func migrationFiles(dir string) ([]string, error) {
    entries, err := os.ReadDir(dir)
    if err != nil { return nil, fmt.Errorf("migrate: %w", err) }
    var out []string
    for _, e := range entries {
        if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") { continue }
        out = append(out, filepath.Join(dir, e.Name()))
    }
    sort.Strings(out)
    return out, nil
}

const lineColumns = `id::text, name, version, spec, created_at, updated_at`

func scanLine(row interface{ Scan(...any) error }, tenantID string) (model.Line, error) {
    var ln model.Line
    var js []byte
    if err := row.Scan(&ln.ID, &ln.Name, &ln.Version, &js, &ln.CreatedAt, &ln.UpdatedAt); err != nil {
        if errors.Is(err, sql.ErrNoRows) { return ln, ErrNotFound }
        return ln, err
    }
    if err := json.Unmarshal(js, &ln.Spec); err != nil { return ln, fmt.Errorf("line %s: decode spec: %w", ln.ID, err) }
    ln.TenantID = tenantID
    return ln, nil
}

func (p *Postgres) CreateLine(ctx context.Context, tenantID string, in model.LineInput) (model.Line, error) {
    js, err := json.Marshal(in.Spec)
    if err != nil { return model.Line{}, err }
    id := uuid.New().String()
    now := time.Now().UTC()
    row := p.db.QueryRowContext(ctx, `INSERT INTO lines (id, tenant_id, name, version, spec, created_at, updated_at) VALUES ($1,$2,$3,1,$4,$5,$5)
        RETURNING `+lineColumns, id, tenantID, in.Name, js, now)
    return scanLine(row, tenantID)
}

func (p *Postgres) ListLines(ctx context.Context, tenantID, cursor string, limit int) ([]model.Line, string, error) {
    limit = pageLimit(limit)
    var rows *sql.Rows
    var err error
    if cursor != "" {
        rows, err = p.db.QueryContext(ctx, `SELECT `+lineColumns+` FROM lines WHERE tenant_id=$1 AND id::text > $2 ORDER BY id LIMIT $3`, tenantID, cursor, limit)
    } else {
        rows, err = p.db.QueryContext(ctx, `SELECT `+lineColumns+` FROM lines WHERE tenant_id=$1 ORDER BY id LIMIT $2`, tenantID, limit)
    }
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []model.Line{}
    var last string
    for rows.Next() {
        ln, err := scanLine(rows, tenantID)
        if err != nil { return nil, "", err }
        out = append(out, ln)
        last = ln.ID
    }
    if err := rows.Err(); err != nil { return nil, "", err }
    next := ""
    if len(out) == limit { next = last }
    return out, next, nil
}

func (p *Postgres) GetLine(ctx context.Context, tenantID, id string) (model.Line, error) {
    if _, err := uuid.Parse(id); err != nil { return model.Line{}, ErrNotFound }
    row := p.db.QueryRowContext(ctx, `SELECT `+lineColumns+` FROM lines WHERE tenant_id=$1 AND id=$2`, tenantID, id)
    return scanLine(row, tenantID)
}

func (p *Postgres) UpdateLine(ctx context.Context, tenantID, id string, in model.LineInput) (model.Line, error) {
    if _, err := uuid.Parse(id); err != nil { return model.Line{}, ErrNotFound }
    js, err := json.Marshal(in.Spec)
    if err != nil { return model.Line{}, err }
    row := p.db.QueryRowContext(ctx, `UPDATE lines SET name=$1, spec=$2, version=version+1, updated_at=now()
        WHERE tenant_id=$3 AND id=$4 RETURNING `+lineColumns, in.Name, js, tenantID, id)
    return scanLine(row, tenantID)
}

func (p *Postgres) DeleteLine(ctx context.Context, tenantID, id string) error {
    if _, err := uuid.Parse(id); err != nil { return ErrNotFound }
    res, err := p.db.ExecContext(ctx, `DELETE FROM lines WHERE tenant_id=$1 AND id=$2`, tenantID, id)
    if err != nil { return err }
    if n, err := res.RowsAffected(); err == nil && n == 0 { return ErrNotFound }
    return nil
}

func (p *Postgres) GetSolverConfig(ctx context.Context, tenantID string) (*model.SolverConfig, error) {
    row := p.db.QueryRowContext(ctx, `SELECT config FROM solver_config WHERE tenant_id=$1`, tenantID)
    var js []byte
    if err := row.Scan(&js); err != nil {
        if errors.Is(err, sql.ErrNoRows) { return nil, nil }
        return nil, err
    }
    var cfg model.SolverConfig
    if err := json.Unmarshal(js, &cfg); err != nil { return nil, err }
    return &cfg, nil
}

func (p *Postgres) SaveSolverConfig(ctx context.Context, tenantID string, cfg model.SolverConfig) error {
    js, err := json.Marshal(cfg)
    if err != nil { return err }
    _, err = p.db.ExecContext(ctx, `INSERT INTO solver_config (tenant_id, config, updated_at) VALUES ($1, $2, now())
        ON CONFLICT (tenant_id) DO UPDATE SET config=$2, updated_at=now()`, tenantID, js)
    return err
}
