package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestFrameBuffer_Next(t *testing.T) {
	b := NewFrameBuffer()

	if jpeg, seq := b.Latest(); jpeg != nil || seq != 0 {
		t.Errorf("Latest() on empty buffer = %v, %d", jpeg, seq)
	}

	b.Publish([]byte("one"))
	jpeg, seq, err := b.Next(context.Background(), 0)
	if err != nil || string(jpeg) != "one" || seq != 1 {
		t.Fatalf("Next(0) = %q, %d, %v; want one, 1, nil", jpeg, seq, err)
	}

	got := make(chan string, 1)
	go func() {
		jpeg, _, err := b.Next(context.Background(), seq)
		if err != nil {
			got <- err.Error()
			return
		}
		got <- string(jpeg)
	}()

	select {
	case v := <-got:
		t.Fatalf("Next returned %q before a new frame was published", v)
	case <-time.After(20 * time.Millisecond):
	}

	b.Publish([]byte("two"))

	select {
	case v := <-got:
		if v != "two" {
			t.Errorf("Next() = %q, want two", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Next did not wake after Publish")
	}
}

func TestFrameBuffer_NextCancelled(t *testing.T) {
	b := NewFrameBuffer()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, seq, err := b.Next(ctx, 0)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Next() error = %v, want DeadlineExceeded", err)
	}
	if seq != 0 {
		t.Errorf("Next() seq = %d, want 0", seq)
	}
}

func TestStreamHandler(t *testing.T) {
	frames := NewFrameBuffer()
	frames.Publish([]byte("\xff\xd8fake-jpeg\xff\xd9"))

	ts := httptest.NewServer(NewStreamHandler(frames))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL, nil)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "multipart/x-mixed-replace; boundary=frame" {
		t.Errorf("Content-Type = %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	if err != nil || line != "--frame\r\n" {
		t.Fatalf("boundary = %q, %v", line, err)
	}
	if line, _ = r.ReadString('\n'); line != "Content-Type: image/jpeg\r\n" {
		t.Errorf("part content type = %q", line)
	}

	line, _ = r.ReadString('\n')
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Content-Length:")))
	if err != nil {
		t.Fatalf("bad Content-Length line %q", line)
	}
	r.ReadString('\n')

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}
	if string(body) != "\xff\xd8fake-jpeg\xff\xd9" {
		t.Errorf("frame = %q", body)
	}
}

func TestStreamHandler_MethodNotAllowed(t *testing.T) {
	h := NewStreamHandler(NewFrameBuffer())

	req := httptest.NewRequest(http.MethodPost, "/api/stream", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
