package api

import (
	"sync"
	"time"

	"linebalance/internal/model"
)

// LatestResult is the last finished solve of a saved line on this replica.
type LatestResult struct {
	LineID      string              `json:"lineId"`
	LineVersion int                 `json:"lineVersion"`
	FinishedAt  string              `json:"finishedAt"`
	Result      model.SolveResponse `json:"result"`
}

// resultCache keeps the latest result per tenant and line. It is process
// memory only and is lost on restart.
type resultCache struct {
	mu sync.Mutex
	// key: tenant|lineId
	m map[string]LatestResult
}

func newResultCache() *resultCache { return &resultCache{m: map[string]LatestResult{}} }

func (c *resultCache) key(tenant, lineID string) string { return tenant + "|" + lineID }

func (c *resultCache) put(tenant, lineID string, version int, res model.SolveResponse) LatestResult {
	lr := LatestResult{LineID: lineID, LineVersion: version, FinishedAt: time.Now().UTC().Format(time.RFC3339), Result: res}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[c.key(tenant, lineID)] = lr
	return lr
}

func (c *resultCache) get(tenant, lineID string) (LatestResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lr, ok := c.m[c.key(tenant, lineID)]
	return lr, ok
}

func (c *resultCache) drop(tenant, lineID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, c.key(tenant, lineID))
}
