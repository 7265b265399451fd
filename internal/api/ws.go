package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"linebalance/internal/model"
)

// Solve over WebSocket: the client sends {"type":"solve","payload":<SolveRequest>},
// the server streams "incumbent" messages, then one "result" or "error".
// {"type":"cancel"} stops the running solve; the result still arrives with
// the best assignment found so far.

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const wsReadTimeout = 60 * time.Second

// SolveWSHandler handles /v1/solve/ws
func (s *Server) SolveWSHandler(w http.ResponseWriter, r *http.Request) {
	p := s.getPrincipal(r)
	if !p.CanPlan() {
		writeProblem(w, 403, "Forbidden", "planner or admin required", r.URL.Path)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxBodyBytes)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error { _ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout)); return nil })

	// gorilla connections allow one concurrent writer
	var wmu sync.Mutex
	write := func(typ, id string, v any) error {
		var payload json.RawMessage
		if v != nil {
			b, err := json.Marshal(v)
			if err != nil {
				return err
			}
			payload = b
		}
		wmu.Lock()
		defer wmu.Unlock()
		return conn.WriteJSON(wsMessage{Type: typ, ID: id, Payload: payload})
	}

	ctx, cancelAll := context.WithCancel(r.Context())
	var (
		mu      sync.Mutex
		running = map[string]context.CancelFunc{}
		wg      sync.WaitGroup
	)
	defer func() {
		cancelAll()
		wg.Wait()
	}()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		switch msg.Type {
		case "ping":
			_ = write("pong", msg.ID, nil)
		case "solve":
			var req model.SolveRequest
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				_ = write("error", msg.ID, Problem{Type: "about:blank", Title: "Invalid JSON", Status: 400, Detail: err.Error()})
				continue
			}
			if err := validateSolveRequest(&req); err != nil {
				_ = write("error", msg.ID, Problem{Type: "about:blank", Title: "Invalid solve request", Status: 400, Detail: err.Error()})
				continue
			}
			if !s.limits.allow(p.Tenant) {
				_ = write("error", msg.ID, Problem{Type: "about:blank", Title: "Too Many Requests", Status: 429})
				continue
			}
			mu.Lock()
			if _, busy := running[msg.ID]; busy {
				mu.Unlock()
				_ = write("error", msg.ID, Problem{Type: "about:blank", Title: "Duplicate id", Status: 409, Detail: "a solve with this id is running"})
				continue
			}
			sctx, cancel := context.WithCancel(ctx)
			running[msg.ID] = cancel
			mu.Unlock()
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				defer func() {
					mu.Lock()
					delete(running, id)
					mu.Unlock()
					cancel()
				}()
				resp, err := s.runSolve(sctx, solveJob{
					tenant:       p.Tenant,
					spec:         req.LineSpec,
					timeBudgetMs: req.TimeBudgetMs,
					nodeLimit:    req.NodeLimit,
					onProgress:   func(pe model.ProgressEvent) { _ = write("incumbent", id, pe) },
				})
				if err != nil {
					_ = write("error", id, solveProblem(err, r.URL.Path))
					return
				}
				_ = write("result", id, resp)
			}(msg.ID)
		case "cancel":
			mu.Lock()
			if cancel, ok := running[msg.ID]; ok {
				cancel()
			}
			mu.Unlock()
		default:
			_ = write("error", msg.ID, Problem{Type: "about:blank", Title: "Unknown message type", Status: 400, Detail: msg.Type})
		}
	}
}
