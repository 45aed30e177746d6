// Package recorder implements the capture control core: an explicit
// state machine governing when capture may occur, and an orchestrator
// that serializes capture and durable append so sequence indexes are
// assigned race-free.
package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/clickreel/clickreel/internal/capture"
	"github.com/clickreel/clickreel/internal/redact"
	"github.com/clickreel/clickreel/internal/reel"
)

// Storage is the durable surface the recorder writes through.
// Implemented by *store.Store in production and by fakes in tests.
type Storage interface {
	CreateReel(ctx context.Context, r *reel.Reel) error
	AppendFrame(ctx context.Context, f *reel.Frame) error
	FinalizeReel(ctx context.Context, reelID string, endedAt time.Time) error
}

// Recorder drives one recording session at a time over a capture source
// and a durable store.
//
// Thread-safety model:
//   - all public methods are safe from any goroutine
//   - captureMu serializes start, capture+append, and stop per recorder,
//     so at most one capture is in flight, appends commit in capture
//     order, and session boundaries never interleave
//   - mu guards observable state; never held across capture or storage
//     calls
//
// Lock order: captureMu before mu.
//
// INVARIANTS:
//   - at most one active reel per recorder (enforced by the state machine)
//   - Stop waits for any in-flight capture to durably append before
//     finalizing; no frame is dropped or appended after finalization
//   - a failed capture consumes no sequence index
type Recorder struct {
	captureMu sync.Mutex // serializes start/capture+append/stop; FIFO per sync.Mutex
	mu        sync.Mutex

	state  State
	active *reel.Reel
	buffer *FrameBuffer

	storage    Storage
	source     capture.Source
	obfuscator *redact.Obfuscator

	capturing bool
	saving    bool
	encoding  bool
	lastError string

	subs      map[int]Subscriber
	nextSubID int

	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithObfuscator installs a redaction filter applied to every captured
// frame before persistence.
func WithObfuscator(o *redact.Obfuscator) Option {
	return func(r *Recorder) { r.obfuscator = o }
}

// WithClock substitutes the time source. Used by tests for deterministic
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// WithIDGenerator substitutes the reel/frame ID source. Used by tests for
// deterministic IDs.
func WithIDGenerator(newID func() string) Option {
	return func(r *Recorder) { r.newID = newID }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

// New creates an idle Recorder over the given storage and capture source.
func New(storage Storage, source capture.Source, opts ...Option) *Recorder {
	r := &Recorder{
		state:   StateIdle,
		buffer:  NewFrameBuffer(),
		storage: storage,
		source:  source,
		subs:    make(map[int]Subscriber),
		now:     time.Now,
		newID:   func() string { return uuid.Must(uuid.NewV7()).String() },
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current control state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Buffer returns the in-memory frames of the active session.
func (r *Recorder) Buffer() *FrameBuffer { return r.buffer }

// Start creates a new active reel and moves to the recording state.
// Titles are NFC-normalized so equal-looking titles compare equal.
//
// Start holds the capture lock so concurrent Start calls serialize: the
// loser observes the committed recording state and fails the transition
// instead of persisting a second reel.
func (r *Recorder) Start(ctx context.Context, title string) error {
	r.captureMu.Lock()
	defer r.captureMu.Unlock()

	r.mu.Lock()
	next, _, err := Transition(r.state, EventStart)
	if err != nil {
		r.mu.Unlock()
		return err
	}

	newReel := &reel.Reel{
		ID:        r.newID(),
		Title:     norm.NFC.String(title),
		StartedAt: r.now(),
		Status:    reel.StatusActive,
	}
	r.mu.Unlock()

	if err := r.storage.CreateReel(ctx, newReel); err != nil {
		r.recordError(err)
		return err
	}

	r.mu.Lock()
	r.state = next
	r.active = newReel
	r.buffer.Reset()
	r.lastError = ""
	notify := r.notifyLocked()
	r.mu.Unlock()
	notify()

	r.logger.Info("recording started", "reel", newReel.ID, "title", newReel.Title)
	return nil
}

// Arm enables one-shot capture on the next qualifying interaction.
func (r *Recorder) Arm() error {
	return r.transition(EventArm)
}

// Disarm reverts to plain recording without capturing.
func (r *Recorder) Disarm() error {
	return r.transition(EventDisarm)
}

// transition applies a side-effect-free event.
func (r *Recorder) transition(ev Event) error {
	r.mu.Lock()
	next, _, err := Transition(r.state, ev)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.state = next
	notify := r.notifyLocked()
	r.mu.Unlock()
	notify()
	return nil
}

// AddFrame captures one frame and durably appends it to the active reel.
//
// Concurrent calls queue on the capture lock: each completes exactly one
// capture and append, and sequence indexes stay unique and contiguous.
func (r *Recorder) AddFrame(ctx context.Context, event *reel.EventMetadata) error {
	r.captureMu.Lock()
	defer r.captureMu.Unlock()

	r.mu.Lock()
	if _, _, err := Transition(r.state, EventAddFrame); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	return r.captureAndAppend(ctx, event)
}

// Click reports a qualifying interaction. While armed it captures exactly
// one frame and reverts to recording; in any other state it is a no-op
// (captured=false, nil error), since unarmed clicks do not qualify.
//
// The armed state reverts before the capture resolves, so a second click
// arriving during the capture never qualifies: armed is strictly one-shot.
func (r *Recorder) Click(ctx context.Context, event *reel.EventMetadata) (captured bool, err error) {
	r.captureMu.Lock()
	defer r.captureMu.Unlock()

	r.mu.Lock()
	if r.state != StateArmed {
		r.mu.Unlock()
		return false, nil
	}
	next, _, err := Transition(r.state, EventClick)
	if err != nil {
		r.mu.Unlock()
		return false, err
	}
	r.state = next
	notify := r.notifyLocked()
	r.mu.Unlock()
	notify()

	if err := r.captureAndAppend(ctx, event); err != nil {
		return false, err
	}
	return true, nil
}

// Stop finalizes the active reel and returns its metadata. It queues
// behind any in-flight capture, so every committed frame precedes the end
// time and nothing appends after finalization.
func (r *Recorder) Stop(ctx context.Context) (*reel.Reel, error) {
	r.captureMu.Lock()
	defer r.captureMu.Unlock()

	r.mu.Lock()
	next, _, err := Transition(r.state, EventStop)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	stopped := r.active
	r.mu.Unlock()

	endedAt := r.now()
	if err := r.storage.FinalizeReel(ctx, stopped.ID, endedAt); err != nil {
		r.recordError(err)
		return nil, err
	}

	r.mu.Lock()
	r.state = next
	r.active = nil
	stopped.EndedAt = endedAt
	stopped.Status = reel.StatusFinalized
	r.lastError = ""
	notify := r.notifyLocked()
	r.mu.Unlock()
	notify()

	r.logger.Info("recording stopped", "reel", stopped.ID, "frames", stopped.FrameCount)
	return stopped, nil
}

// BeginEncode and EndEncode bracket an encode/export run for the
// observable busy flag. Encoding reads finalized reels only, so it runs
// outside the capture lock and may overlap a new recording session.
func (r *Recorder) BeginEncode() { r.setFlag(func() { r.encoding = true }) }

// EndEncode clears the encoding flag.
func (r *Recorder) EndEncode() { r.setFlag(func() { r.encoding = false }) }

// captureAndAppend runs one capture-redact-append cycle. Callers hold
// captureMu; the active reel cannot change underneath it.
func (r *Recorder) captureAndAppend(ctx context.Context, event *reel.EventMetadata) error {
	r.mu.Lock()
	active := r.active
	r.capturing = true
	notify := r.notifyLocked()
	r.mu.Unlock()
	notify()

	img, err := r.source.Capture(ctx)

	r.mu.Lock()
	r.capturing = false
	r.mu.Unlock()

	if err != nil {
		// Recording continues in its prior state; no sequence index is
		// consumed and no partial frame exists.
		r.recordError(err)
		return err
	}

	if r.obfuscator.Enabled() {
		img = r.obfuscator.Apply(img)
	}

	frame := &reel.Frame{
		ID:         r.newID(),
		ReelID:     active.ID,
		CapturedAt: r.now(),
		Image:      img,
		Event:      event,
	}

	r.setFlag(func() { r.saving = true })
	err = r.storage.AppendFrame(ctx, frame)
	r.setFlag(func() { r.saving = false })
	if err != nil {
		// The active recording stays in memory; future appends fail until
		// the durable layer recovers.
		r.recordError(err)
		return err
	}

	r.buffer.Append(*frame)

	r.mu.Lock()
	active.FrameCount = frame.Seq + 1
	r.lastError = ""
	notify = r.notifyLocked()
	r.mu.Unlock()
	notify()

	r.logger.Debug("frame appended", "reel", active.ID, "seq", frame.Seq)
	return nil
}

// setFlag mutates a busy flag under the lock and notifies subscribers.
func (r *Recorder) setFlag(mutate func()) {
	r.mu.Lock()
	mutate()
	notify := r.notifyLocked()
	r.mu.Unlock()
	notify()
}

// recordError publishes a failure to observers without changing control
// state.
func (r *Recorder) recordError(err error) {
	r.mu.Lock()
	r.lastError = err.Error()
	notify := r.notifyLocked()
	r.mu.Unlock()
	notify()
	r.logger.Error("recorder operation failed", "err", err)
}
