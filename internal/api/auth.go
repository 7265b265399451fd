// Package api implements HTTP handlers and helpers for the line balancing service.
package api

import (
    "log"
    "net/http"
    "strings"

    "linebalance/internal/auth"
)

const (
    RoleAdmin   = "admin"
    RolePlanner = "planner"
    RoleViewer  = "viewer"
)

type Principal struct {
    Tenant string
    Role   string // admin, planner, viewer
}

// getPrincipal extracts tenant and role.
// - If Authorization: Bearer is present, uses the configured verifier (dev/hmac/jwks).
// - In dev mode, falls back to the X-Tenant-Id and X-Role headers.
// - Otherwise the principal has no role and every guarded handler refuses it.
func (s *Server) getPrincipal(r *http.Request) Principal {
    authz := r.Header.Get("Authorization")
    if strings.HasPrefix(strings.ToLower(authz), "bearer ") && s.Auth != nil {
        tok := strings.TrimSpace(authz[len("Bearer "):])
        pr, err := s.Auth.Verify(tok)
        if err == nil { return Principal{Tenant: pr.Tenant, Role: pr.Role} }
        log.Printf("auth: rejected bearer token: %v", err)
        return Principal{}
    }
    if s.Auth != nil && s.Auth.Mode() != auth.ModeDev { return Principal{} }
    tenant := strings.TrimSpace(r.Header.Get("X-Tenant-Id"))
    role := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Role")))
    if tenant == "" {
        tenant = "t_demo"
    }
    if role == "" {
        role = RoleAdmin
    }
    return Principal{Tenant: tenant, Role: role}
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// CanPlan reports whether the principal may run solves and edit lines.
func (p Principal) CanPlan() bool { return p.Role == RoleAdmin || p.Role == RolePlanner }

// CanRead reports whether the role is known at all.
func (p Principal) CanRead() bool { return p.CanPlan() || p.Role == RoleViewer }
