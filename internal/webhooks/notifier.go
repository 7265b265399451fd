// Package webhooks delivers signed solve notifications to an external
// endpoint with retry.
package webhooks

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Delivery is one pending notification.
type Delivery struct {
	ID        string
	EventType string
	Payload   []byte
	Attempts  int
	NextAt    time.Time
	LastError string
}

// Notifier queues notifications in memory and a worker posts them. Pending
// deliveries are lost on restart.
type Notifier struct {
	URL         string
	Secret      string
	HTTP        *http.Client
	MaxAttempts int
	// MaxPending caps the queue; Emit drops the event when it is full.
	MaxPending int

	mu      sync.Mutex
	pending []*Delivery
	stop    chan struct{}
	done    chan struct{}
}

func NewNotifier(url, secret string, maxAttempts int) *Notifier {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Notifier{
		URL:         url,
		Secret:      secret,
		HTTP:        &http.Client{Timeout: 5 * time.Second},
		MaxAttempts: maxAttempts,
		MaxPending:  1000,
	}
}

// Emit queues eventType with data for delivery.
func (n *Notifier) Emit(tenantID, eventType string, data any) {
	payload := map[string]any{
		"id":       "evt_" + uuid.NewString(),
		"type":     eventType,
		"tenantId": tenantID,
		"ts":       time.Now().UTC().Format(time.RFC3339),
		"data":     data,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("webhook %s: encode: %v", eventType, err)
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.MaxPending > 0 && len(n.pending) >= n.MaxPending {
		log.Printf("webhook %s dropped: %d deliveries pending", eventType, len(n.pending))
		return
	}
	n.pending = append(n.pending, &Delivery{ID: payload["id"].(string), EventType: eventType, Payload: body, NextAt: time.Now()})
}

// Pending reports the number of queued deliveries.
func (n *Notifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}
