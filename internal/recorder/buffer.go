package recorder

import (
	"sync"

	"github.com/clickreel/clickreel/internal/reel"
)

// FrameBuffer holds the active reel's frames in memory for fast access
// during a session, avoiding read-through to storage while recording.
//
// Append order equals durable append order: the recorder only appends to
// the buffer after the store has committed the frame.
type FrameBuffer struct {
	mu     sync.Mutex
	frames []reel.Frame
}

// NewFrameBuffer returns an empty buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Append adds a committed frame.
func (b *FrameBuffer) Append(f reel.Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, f)
}

// Frames returns a copy of the buffered frames in append order.
func (b *FrameBuffer) Frames() []reel.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]reel.Frame, len(b.frames))
	copy(out, b.frames)
	return out
}

// Len returns the number of buffered frames.
func (b *FrameBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frames)
}

// Reset discards all buffered frames.
func (b *FrameBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = nil
}
