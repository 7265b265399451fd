package webhooks

import (
    "bytes"
    "context"
    "fmt"
    "log"
    "net/http"
    "time"

    "linebalance/internal/metrics"
)

// Start runs the delivery loop until Stop.
func (n *Notifier) Start() {
    n.stop = make(chan struct{})
    n.done = make(chan struct{})
    go func() {
        defer close(n.done)
        ticker := time.NewTicker(1 * time.Second)
        defer ticker.Stop()
        for {
            select {
            case <-n.stop:
                return
            case <-ticker.C:
                n.processOnce()
            }
        }
    }()
}

// Stop ends the loop started by Start and waits for it.
func (n *Notifier) Stop() {
    if n.stop == nil { return }
    close(n.stop)
    <-n.done
    n.stop = nil
}

// due removes and returns deliveries whose retry time has come.
func (n *Notifier) due(now time.Time) []*Delivery {
    n.mu.Lock()
    defer n.mu.Unlock()
    var out []*Delivery
    rest := n.pending[:0]
    for _, d := range n.pending {
        if !d.NextAt.After(now) {
            out = append(out, d)
        } else {
            rest = append(rest, d)
        }
    }
    n.pending = rest
    return out
}

func (n *Notifier) requeue(d *Delivery) {
    n.mu.Lock()
    n.pending = append(n.pending, d)
    n.mu.Unlock()
}

func (n *Notifier) processOnce() {
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    for _, d := range n.due(time.Now()) {
        code, err := n.send(ctx, d)
        d.Attempts++
        if err == nil {
            metrics.WebhookDeliveries.WithLabelValues("ok").Inc()
            continue
        }
        d.LastError = err.Error()
        if d.Attempts >= n.MaxAttempts {
            metrics.WebhookDeliveries.WithLabelValues("failed").Inc()
            log.Printf("webhook %s %s failed after %d attempts: code=%d err=%s", d.EventType, d.ID, d.Attempts, code, d.LastError)
            continue
        }
        metrics.WebhookDeliveries.WithLabelValues("retry").Inc()
        d.NextAt = time.Now().Add(nextBackoff(d.Attempts - 1))
        n.requeue(d)
    }
}

func (n *Notifier) send(ctx context.Context, d *Delivery) (int, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(d.Payload))
    if err != nil { return 0, err }
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("X-Event-Type", d.EventType)
    req.Header.Set("X-Event-Id", d.ID)
    if n.Secret != "" {
        req.Header.Set("X-Signature", SignHMAC(n.Secret, d.Payload))
    }
    resp, err := n.HTTP.Do(req)
    if err != nil { return 0, err }
    _ = resp.Body.Close()
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        return resp.StatusCode, fmt.Errorf("status %d", resp.StatusCode)
    }
    return resp.StatusCode, nil
}

func nextBackoff(attempts int) time.Duration {
    if attempts < 0 { attempts = 0 }
    if attempts > 10 { attempts = 10 }
    base := time.Second * time.Duration(1<<attempts)
    if base > time.Hour { base = time.Hour }
    return base
}
