// Package main runs a demo WebSocket client that solves a line and prints
// incumbents as they arrive.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"linebalance/internal/model"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	file := flag.String("f", "examples/solar_line.yaml", "line file (YAML or JSON)")
	cancelAfter := flag.Duration("cancel-after", 0, "send a cancel after this long (0 = never)")
	flag.Parse()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	req, err := model.ReadSolveRequest(*file)
	if err != nil {
		log.Fatal(err)
	}
	pl, err := json.Marshal(req)
	if err != nil {
		log.Fatal(err)
	}

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/solve/ws"}
	hdr := http.Header{}
	hdr.Set("X-Tenant-Id", "t_demo")
	hdr.Set("X-Role", "planner")
	c, _, err := websocket.DefaultDialer.Dial(u.String(), hdr)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	if err := c.WriteJSON(wsMessage{Type: "solve", ID: "1", Payload: pl}); err != nil {
		log.Fatal(err)
	}
	if *cancelAfter > 0 {
		go func() {
			time.Sleep(*cancelAfter)
			log.Printf("WS -> cancel")
			_ = c.WriteJSON(wsMessage{Type: "cancel", ID: "1"})
		}()
	}

	for {
		var m wsMessage
		if err := c.ReadJSON(&m); err != nil {
			log.Printf("read: %v", err)
			return
		}
		log.Printf("WS <- %s: %s", m.Type, string(m.Payload))
		if m.Type == "result" || m.Type == "error" {
			return
		}
	}
}
