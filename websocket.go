package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WebSocket struct {
	monitor  *Monitor
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewWebSocketListener(monitor *Monitor, log *zap.Logger) *WebSocket {
	return &WebSocket{
		monitor: monitor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: log,
	}
}

// Register installs the live feed and status endpoints on the mux.
func (ws *WebSocket) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ws", ws.serveFeed)
	mux.HandleFunc("/api/reading", ws.serveReading)
	mux.HandleFunc("/healthz", ws.serveHealth)
}

// serveFeed streams each new reading to the client as JSON.
func (ws *WebSocket) serveFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates := make(chan ReadingUpdate, 10)
	ws.monitor.AddListener(updates)
	defer ws.monitor.RemoveListener(updates)

	// Send the latest reading up front so a client doesn't wait a full
	// poll cycle for its first value.
	if update, ok := ws.monitor.Latest(); ok {
		if err := conn.WriteJSON(update); err != nil {
			return
		}
	}

	for {
		select {
		case update := <-updates:
			if err := conn.WriteJSON(update); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func (ws *WebSocket) serveReading(w http.ResponseWriter, r *http.Request) {
	update, ok := ws.monitor.Latest()
	if !ok {
		http.Error(w, "no reading collected yet", http.StatusServiceUnavailable)
		return
	}

	resp := struct {
		ReadingUpdate
		Age   string `json:"age"`
		Awake bool   `json:"awake"`
	}{
		ReadingUpdate: update,
		Age:           time.Since(update.At).Truncate(time.Millisecond).String(),
		Awake:         ws.monitor.Awake(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (ws *WebSocket) serveHealth(w http.ResponseWriter, r *http.Request) {
	if !ws.monitor.Healthy() {
		http.Error(w, "sensor unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}
