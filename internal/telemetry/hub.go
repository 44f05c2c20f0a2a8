// Package telemetry serves the control loop's samples to websocket clients.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/kmmndr/motion_player/internal/motion"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = (pongWait * 9) / 10
	queueSize = 64
)

type Hub struct {
	upgrader websocket.Upgrader
	logger   logrus.FieldLogger

	mu      sync.Mutex
	clients map[*websocket.Conn]*sync.Mutex

	// historyMu is never held while writing to a client.
	historyMu sync.Mutex
	history   []motion.Sample
	limit     int
	dropped   uint64

	messages chan motion.Sample
}

// NewHub keeps the last historyLength samples for /status.
func NewHub(historyLength int, logger logrus.FieldLogger) *Hub {
	if historyLength < 1 {
		historyLength = 1
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:   logger,
		clients:  make(map[*websocket.Conn]*sync.Mutex),
		limit:    historyLength,
		messages: make(chan motion.Sample, queueSize),
	}
}

// Observe never blocks; samples are dropped when the broadcaster falls behind.
func (h *Hub) Observe(s motion.Sample) error {
	h.historyMu.Lock()
	defer h.historyMu.Unlock()

	h.history = append(h.history, s)
	if len(h.history) > h.limit {
		h.history = h.history[len(h.history)-h.limit:]
	}

	select {
	case h.messages <- s:
	default:
		h.dropped++
	}
	return nil
}

func (h *Hub) History() []motion.Sample {
	h.historyMu.Lock()
	defer h.historyMu.Unlock()
	out := make([]motion.Sample, len(h.history))
	copy(out, h.history)
	return out
}

func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/status", h.handleStatus)
	return mux
}

// Run serves until ctx is done.
func (h *Hub) Run(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return h.Serve(ctx, listener)
}

func (h *Hub) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	go h.broadcast(ctx)

	h.logger.WithField("addr", listener.Addr().String()).Info("Telemetry listening")
	err := httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	writeMu := &sync.Mutex{}
	h.mu.Lock()
	h.clients[conn] = writeMu
	h.mu.Unlock()

	go func() {
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(pingEvery)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if err := h.writeMessage(conn, writeMu, websocket.PingMessage, nil); err != nil {
						_ = conn.Close()
						return
					}
				}
			}
		}()
		defer close(done)
		defer h.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type status struct {
	Clients int             `json:"ws_clients"`
	Dropped uint64          `json:"dropped"`
	History []motion.Sample `json:"history"`
}

func (h *Hub) handleStatus(w http.ResponseWriter, _ *http.Request) {
	payload := status{Clients: h.ClientCount(), History: h.History()}
	h.historyMu.Lock()
	payload.Dropped = h.dropped
	h.historyMu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *Hub) broadcast(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sample := <-h.messages:
			payload, err := json.Marshal(sample)
			if err != nil {
				continue
			}
			for conn, writeMu := range h.snapshot() {
				if err := h.writeMessage(conn, writeMu, websocket.TextMessage, payload); err != nil {
					h.removeClient(conn)
				}
			}
		}
	}
}

func (h *Hub) snapshot() map[*websocket.Conn]*sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := make(map[*websocket.Conn]*sync.Mutex, len(h.clients))
	for conn, writeMu := range h.clients {
		clients[conn] = writeMu
	}
	return clients
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

func (h *Hub) writeMessage(conn *websocket.Conn, writeMu *sync.Mutex, messageType int, payload []byte) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(messageType, payload)
}
