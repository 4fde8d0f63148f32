package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// streamInterval caps the MJPEG stream at about 15 fps.
const streamInterval = 66 * time.Millisecond

// FrameBuffer holds the most recent JPEG-encoded feedback frame. The frame
// loop publishes into it and stream clients wait on it.
type FrameBuffer struct {
	mu    sync.Mutex
	jpeg  []byte
	seq   uint64
	ready chan struct{}
}

// NewFrameBuffer creates an empty FrameBuffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{ready: make(chan struct{})}
}

// Publish stores jpeg as the latest frame and wakes waiting clients. The
// buffer keeps jpeg; callers must not modify it afterwards.
func (b *FrameBuffer) Publish(jpeg []byte) {
	b.mu.Lock()
	b.jpeg = jpeg
	b.seq++
	close(b.ready)
	b.ready = make(chan struct{})
	b.mu.Unlock()
}

// Latest returns the latest frame and its sequence number. Sequence 0 means
// nothing has been published.
func (b *FrameBuffer) Latest() ([]byte, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.jpeg, b.seq
}

// Next blocks until a frame newer than after is available or ctx is done.
func (b *FrameBuffer) Next(ctx context.Context, after uint64) ([]byte, uint64, error) {
	for {
		b.mu.Lock()
		if b.seq > after {
			jpeg, seq := b.jpeg, b.seq
			b.mu.Unlock()
			return jpeg, seq, nil
		}
		ready := b.ready
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, after, ctx.Err()
		case <-ready:
		}
	}
}

// StreamHandler serves the feedback frames as MJPEG.
type StreamHandler struct {
	frames *FrameBuffer
}

// NewStreamHandler creates a new StreamHandler reading from frames.
func NewStreamHandler(frames *FrameBuffer) *StreamHandler {
	return &StreamHandler{frames: frames}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	ctx := r.Context()
	var seq uint64
	for {
		jpeg, next, err := h.frames.Next(ctx, seq)
		if err != nil {
			return
		}
		seq = next

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(jpeg))
		if _, err := w.Write(jpeg); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(streamInterval):
		}
	}
}
