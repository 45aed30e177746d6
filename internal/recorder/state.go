package recorder

// Snapshot is the externally observable recorder state: control state,
// active reel summary, busy flags, and the last error message. UI layers
// render snapshots; they never reach into the recorder's internals.
type Snapshot struct {
	State State

	// Active reel summary; zero values when idle.
	ReelID     string
	ReelTitle  string
	FrameCount int

	// Busy flags for long-latency operations.
	Capturing bool
	Saving    bool
	Encoding  bool

	// LastError is the message of the most recent failure, cleared by the
	// next successful operation.
	LastError string
}

// Subscriber receives a snapshot after every observable state change.
// Callbacks run synchronously on the mutating goroutine; keep them cheap.
type Subscriber func(Snapshot)

// Subscribe registers fn for change notification and returns an
// unsubscribe function. Explicit subscription replaces any ambient
// shared-state pattern: state flows only through snapshots.
func (r *Recorder) Subscribe(fn Subscriber) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextSubID
	r.nextSubID++
	r.subs[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, id)
	}
}

// Snapshot returns the current observable state.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// snapshotLocked builds a Snapshot. Callers hold r.mu.
func (r *Recorder) snapshotLocked() Snapshot {
	s := Snapshot{
		State:     r.state,
		Capturing: r.capturing,
		Saving:    r.saving,
		Encoding:  r.encoding,
		LastError: r.lastError,
	}
	if r.active != nil {
		s.ReelID = r.active.ID
		s.ReelTitle = r.active.Title
		s.FrameCount = r.active.FrameCount
	}
	return s
}

// notifyLocked snapshots under r.mu and schedules subscriber callbacks.
// Callbacks run after the lock is released via the returned func; the
// recorder always invokes it.
func (r *Recorder) notifyLocked() func() {
	snap := r.snapshotLocked()
	subs := make([]Subscriber, 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	return func() {
		for _, fn := range subs {
			fn(snap)
		}
	}
}
