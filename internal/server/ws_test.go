package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestStateHandler_Broadcast(t *testing.T) {
	status := &fakeStatus{enabled: true, frames: 7}
	h := NewStateHandler(status)
	defer h.Close()

	ts := httptest.NewServer(h)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var got Status
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if !got.Enabled || got.Engine.Frames != 7 {
		t.Errorf("status = %+v, want enabled with 7 frames", got)
	}
}

func TestStateHandler_Close(t *testing.T) {
	h := NewStateHandler(&fakeStatus{})

	ts := httptest.NewServer(h)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for h.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.Clients() != 1 {
		t.Fatalf("Clients() = %d, want 1", h.Clients())
	}

	h.Close()
	h.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	deadline = time.Now().Add(time.Second)
	for h.Clients() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.Clients() != 0 {
		t.Errorf("Clients() after Close = %d, want 0", h.Clients())
	}
}

func TestStateHandler_RejectsPlainHTTP(t *testing.T) {
	h := NewStateHandler(&fakeStatus{})
	defer h.Close()

	req := httptest.NewRequest("GET", "/api/state", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Errorf("expected status 400 for non-upgrade request, got %d", rec.Code)
	}
}
