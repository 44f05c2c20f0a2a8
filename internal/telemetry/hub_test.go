package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/kmmndr/motion_player/internal/motion"
)

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func dialClient(t *testing.T, srv *httptest.Server, h *Hub) *websocket.Conn {
	t.Helper()
	before := h.ClientCount()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() == before {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestHistoryIsBounded(t *testing.T) {
	h := NewHub(3, discardLogger())
	for i := 0; i < 10; i++ {
		_ = h.Observe(motion.Sample{Iteration: i})
	}
	hist := h.History()
	if len(hist) != 3 {
		t.Fatalf("history length %d", len(hist))
	}
	if hist[0].Iteration != 7 || hist[2].Iteration != 9 {
		t.Fatalf("unexpected history %+v", hist)
	}
}

func TestObserveNeverBlocks(t *testing.T) {
	h := NewHub(1, discardLogger())
	done := make(chan struct{})
	go func() {
		for i := 0; i < queueSize*4; i++ {
			_ = h.Observe(motion.Sample{Iteration: i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Observe blocked without a broadcaster")
	}
}

func TestBroadcastToWebsocket(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(10, discardLogger())
	go h.broadcast(ctx)
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	conn := dialClient(t, srv, h)
	defer conn.Close()

	_ = h.Observe(motion.Sample{Iteration: 4, FrameSkip: 37, Cursor: 80})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got motion.Sample
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatal(err)
	}
	if got.Iteration != 4 || got.FrameSkip != 37 || got.Cursor != 80 {
		t.Fatalf("unexpected sample %+v", got)
	}
}

func TestStatusAndHealth(t *testing.T) {
	h := NewHub(5, discardLogger())
	_ = h.Observe(motion.Sample{Iteration: 1, FrameSkip: 2})
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var st status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if len(st.History) != 1 || st.History[0].FrameSkip != 2 || st.Clients != 0 {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestObserveDoesNotWaitForSlowClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(10, discardLogger())
	go h.broadcast(ctx)
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	// The client never reads.
	conn := dialClient(t, srv, h)
	defer conn.Close()

	// Hold the client's write lock, as a write stuck on a full socket would.
	var stuck *sync.Mutex
	h.mu.Lock()
	for _, writeMu := range h.clients {
		stuck = writeMu
	}
	h.mu.Unlock()
	stuck.Lock()
	defer stuck.Unlock()

	start := time.Now()
	for i := 0; i < queueSize*4; i++ {
		_ = h.Observe(motion.Sample{Iteration: i})
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Observe took %v behind a stalled client", elapsed)
	}
	if hist := h.History(); len(hist) != 10 || hist[9].Iteration != queueSize*4-1 {
		t.Fatalf("unexpected history %+v", hist)
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("status while a client is stalled: %v", err)
	}
	defer resp.Body.Close()
	var st status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.Clients != 1 || st.Dropped == 0 {
		t.Fatalf("unexpected status %+v", st)
	}
}
