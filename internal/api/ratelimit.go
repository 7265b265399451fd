package api

import (
    "sync"

    "golang.org/x/time/rate"
)

// tenantLimiter hands out one token bucket per tenant. A zero rate disables limiting.
type tenantLimiter struct {
    mu    sync.Mutex
    rps   rate.Limit
    burst int
    m     map[string]*rate.Limiter
}

func newTenantLimiter(rps float64, burst int) *tenantLimiter {
    if burst <= 0 { burst = 1 }
    return &tenantLimiter{rps: rate.Limit(rps), burst: burst, m: map[string]*rate.Limiter{}}
}

func (t *tenantLimiter) allow(tenant string) bool {
    if t == nil || t.rps <= 0 { return true }
    t.mu.Lock()
    l := t.m[tenant]
    if l == nil {
        l = rate.NewLimiter(t.rps, t.burst)
        t.m[tenant] = l
    }
    t.mu.Unlock()
    return l.Allow()
}
