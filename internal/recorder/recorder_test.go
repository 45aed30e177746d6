package recorder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clickreel/clickreel/internal/reel"
	"github.com/clickreel/clickreel/internal/testutil"
)

// fakeStorage implements Storage in memory, assigning sequence indexes
// the way the durable store does: seq equals the reel's committed frame
// count at append time.
type fakeStorage struct {
	mu        sync.Mutex
	reels     map[string]*reel.Reel
	frames    map[string][]reel.Frame
	ops       []string
	appendErr error

	// When set, CreateReel blocks until a value is sent. Lets tests hold
	// a session start inside the storage write.
	createGate chan struct{}
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		reels:  make(map[string]*reel.Reel),
		frames: make(map[string][]reel.Frame),
	}
}

func (s *fakeStorage) CreateReel(ctx context.Context, r *reel.Reel) error {
	if s.createGate != nil {
		<-s.createGate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.reels[r.ID] = &cp
	s.ops = append(s.ops, "create "+r.ID)
	return nil
}

func (s *fakeStorage) AppendFrame(ctx context.Context, f *reel.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	r, ok := s.reels[f.ReelID]
	if !ok {
		return reel.NewReelError(reel.ErrCodeNotFound, f.ReelID, "reel not found")
	}
	f.Seq = r.FrameCount
	r.FrameCount++
	s.frames[f.ReelID] = append(s.frames[f.ReelID], *f)
	s.ops = append(s.ops, "append")
	return nil
}

func (s *fakeStorage) FinalizeReel(ctx context.Context, reelID string, endedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reels[reelID]
	if !ok {
		return reel.NewReelError(reel.ErrCodeNotFound, reelID, "reel not found")
	}
	r.Status = reel.StatusFinalized
	r.EndedAt = endedAt
	s.ops = append(s.ops, "finalize")
	return nil
}

func (s *fakeStorage) opLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.ops))
	copy(out, s.ops)
	return out
}

func newTestRecorder(t *testing.T, captures int) (*Recorder, *fakeStorage, *testutil.ScriptedSource) {
	t.Helper()
	storage := newFakeStorage()
	source := testutil.NewScriptedSource(testutil.SolidCaptures(captures, 8, 6)...)
	clock := testutil.NewDeterministicClock(time.Unix(1700000000, 0).UTC(), 100*time.Millisecond)
	rec := New(storage, source,
		WithClock(clock.Now),
		WithIDGenerator(testutil.SequentialIDs("id")),
	)
	return rec, storage, source
}

func TestRecorder_StartStop(t *testing.T) {
	rec, storage, _ := newTestRecorder(t, 0)
	ctx := context.Background()

	require.NoError(t, rec.Start(ctx, "checkout flow"))
	assert.Equal(t, StateRecording, rec.State())

	stopped, err := rec.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, rec.State())
	assert.Equal(t, "checkout flow", stopped.Title)
	assert.Equal(t, reel.StatusFinalized, stopped.Status)
	assert.Equal(t, 0, stopped.FrameCount)
	assert.True(t, stopped.EndedAt.After(stopped.StartedAt))

	assert.Equal(t, []string{"create " + stopped.ID, "finalize"}, storage.opLog())
}

func TestRecorder_StartWhileActive(t *testing.T) {
	rec, _, _ := newTestRecorder(t, 0)
	ctx := context.Background()

	require.NoError(t, rec.Start(ctx, "first"))
	err := rec.Start(ctx, "second")
	require.Error(t, err)
	assert.True(t, reel.IsCode(err, reel.ErrCodeInvalidStateTransition))
	assert.Equal(t, StateRecording, rec.State())
}

func TestRecorder_Start_ConcurrentStartsCreateOneReel(t *testing.T) {
	storage := newFakeStorage()
	storage.createGate = make(chan struct{})
	rec := New(storage, testutil.NewScriptedSource(), WithIDGenerator(testutil.SequentialIDs("id")))
	ctx := context.Background()

	errs := make(chan error, 2)
	go func() { errs <- rec.Start(ctx, "racer a") }()
	go func() { errs <- rec.Start(ctx, "racer b") }()

	// Hold the winning Start inside the storage write; the competing
	// Start must wait for the commit instead of persisting a second reel.
	storage.createGate <- struct{}{}
	select {
	case storage.createGate <- struct{}{}:
		t.Fatal("a second Start reached storage before the first committed")
	case <-time.After(50 * time.Millisecond):
	}

	var started, rejected int
	for i := 0; i < 2; i++ {
		if err := <-errs; err == nil {
			started++
		} else {
			assert.True(t, reel.IsCode(err, reel.ErrCodeInvalidStateTransition))
			rejected++
		}
	}
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, StateRecording, rec.State())

	storage.mu.Lock()
	persisted := len(storage.reels)
	storage.mu.Unlock()
	assert.Equal(t, 1, persisted, "the losing Start must not persist a reel")
}

func TestRecorder_StopWhileIdle(t *testing.T) {
	rec, _, _ := newTestRecorder(t, 0)

	_, err := rec.Stop(context.Background())
	require.Error(t, err)
	assert.True(t, reel.IsCode(err, reel.ErrCodeNoActiveRecording))
}

func TestRecorder_TitleNormalization(t *testing.T) {
	rec, _, _ := newTestRecorder(t, 0)
	ctx := context.Background()

	// "é" as combining sequence; NFC folds it to the precomposed form.
	require.NoError(t, rec.Start(ctx, "café"))
	stopped, err := rec.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "café", stopped.Title)
}

func TestRecorder_AddFrame_SequencesContiguous(t *testing.T) {
	rec, storage, _ := newTestRecorder(t, 3)
	ctx := context.Background()

	require.NoError(t, rec.Start(ctx, "seq"))
	for i := 0; i < 3; i++ {
		require.NoError(t, rec.AddFrame(ctx, nil))
	}

	frames := rec.Buffer().Frames()
	require.Len(t, frames, 3)
	for i, f := range frames {
		assert.Equal(t, i, f.Seq)
	}

	stopped, err := rec.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stopped.FrameCount)
	assert.Len(t, storage.frames[stopped.ID], 3)
}

func TestRecorder_AddFrame_WhileIdle(t *testing.T) {
	rec, _, source := newTestRecorder(t, 1)

	err := rec.AddFrame(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, reel.IsCode(err, reel.ErrCodeInvalidStateTransition))
	assert.Equal(t, 0, source.Calls(), "no capture may run without an active recording")
}

func TestRecorder_AddFrame_EventMetadataPersisted(t *testing.T) {
	rec, storage, _ := newTestRecorder(t, 1)
	ctx := context.Background()

	require.NoError(t, rec.Start(ctx, "meta"))
	ev := &reel.EventMetadata{X: 10, Y: 20, Target: "button#buy", Value: "Buy"}
	require.NoError(t, rec.AddFrame(ctx, ev))
	stopped, err := rec.Stop(ctx)
	require.NoError(t, err)

	frames := storage.frames[stopped.ID]
	require.Len(t, frames, 1)
	require.NotNil(t, frames[0].Event)
	assert.Equal(t, *ev, *frames[0].Event)
}

func TestRecorder_CaptureFailure_NoSeqConsumed(t *testing.T) {
	storage := newFakeStorage()
	boom := errors.New("surface lost")
	source := testutil.NewScriptedSource(
		testutil.Capture{Err: boom},
		testutil.SolidCaptures(1, 8, 6)[0],
	)
	rec := New(storage, source, WithIDGenerator(testutil.SequentialIDs("id")))
	ctx := context.Background()

	require.NoError(t, rec.Start(ctx, "flaky"))

	err := rec.AddFrame(ctx, nil)
	require.Error(t, err)
	assert.True(t, reel.IsCode(err, reel.ErrCodeCaptureFailure))
	assert.Equal(t, StateRecording, rec.State(), "recording continues after a failed capture")
	assert.Equal(t, 0, rec.Buffer().Len())
	assert.Contains(t, rec.Snapshot().LastError, "surface lost")

	// The next successful capture takes the first sequence index.
	require.NoError(t, rec.AddFrame(ctx, nil))
	frames := rec.Buffer().Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, 0, frames[0].Seq)
	assert.Empty(t, rec.Snapshot().LastError, "success clears the last error")
}

func TestRecorder_AppendFailure_KeepsRecording(t *testing.T) {
	rec, storage, _ := newTestRecorder(t, 2)
	ctx := context.Background()

	require.NoError(t, rec.Start(ctx, "full disk"))
	storage.appendErr = reel.NewError(reel.ErrCodeStorageQuotaExceeded, "database or disk is full")

	err := rec.AddFrame(ctx, nil)
	require.Error(t, err)
	assert.True(t, reel.IsQuotaExceeded(err))
	assert.Equal(t, StateRecording, rec.State())
	assert.Equal(t, 0, rec.Buffer().Len(), "failed appends never reach the buffer")

	storage.appendErr = nil
	require.NoError(t, rec.AddFrame(ctx, nil))
	assert.Equal(t, 1, rec.Buffer().Len())
}

func TestRecorder_ArmDisarm(t *testing.T) {
	rec, _, _ := newTestRecorder(t, 0)
	ctx := context.Background()

	require.NoError(t, rec.Start(ctx, "arm"))
	require.NoError(t, rec.Arm())
	assert.Equal(t, StateArmed, rec.State())

	require.NoError(t, rec.Disarm())
	assert.Equal(t, StateRecording, rec.State())

	err := rec.Disarm()
	require.Error(t, err)
	assert.True(t, reel.IsCode(err, reel.ErrCodeInvalidStateTransition))
}

func TestRecorder_Click_UnarmedIsNoOp(t *testing.T) {
	rec, _, source := newTestRecorder(t, 1)
	ctx := context.Background()

	// Idle: clicks never qualify.
	captured, err := rec.Click(ctx, nil)
	require.NoError(t, err)
	assert.False(t, captured)

	// Recording but not armed: still a no-op.
	require.NoError(t, rec.Start(ctx, "clicks"))
	captured, err = rec.Click(ctx, nil)
	require.NoError(t, err)
	assert.False(t, captured)
	assert.Equal(t, 0, source.Calls())
}

func TestRecorder_Click_ArmedCapturesOnce(t *testing.T) {
	rec, _, source := newTestRecorder(t, 2)
	ctx := context.Background()

	require.NoError(t, rec.Start(ctx, "one shot"))
	require.NoError(t, rec.Arm())

	captured, err := rec.Click(ctx, &reel.EventMetadata{X: 3, Y: 4})
	require.NoError(t, err)
	assert.True(t, captured)
	assert.Equal(t, StateRecording, rec.State(), "armed reverts after one capture")
	assert.Equal(t, 1, rec.Buffer().Len())

	// A second click without re-arming captures nothing.
	captured, err = rec.Click(ctx, nil)
	require.NoError(t, err)
	assert.False(t, captured)
	assert.Equal(t, 1, source.Calls())
}

func TestRecorder_Click_OneShotDuringInFlightCapture(t *testing.T) {
	storage := newFakeStorage()
	source := testutil.NewScriptedSource(testutil.SolidCaptures(2, 8, 6)...)
	source.Gate = make(chan struct{})
	rec := New(storage, source, WithIDGenerator(testutil.SequentialIDs("id")))
	ctx := context.Background()

	require.NoError(t, rec.Start(ctx, "in flight"))
	require.NoError(t, rec.Arm())

	done := make(chan error, 1)
	var captured bool
	go func() {
		var err error
		captured, err = rec.Click(ctx, nil)
		done <- err
	}()

	// The armed state reverts before the capture resolves, so a second
	// click arriving mid-capture does not qualify.
	require.Eventually(t, func() bool {
		return rec.State() == StateRecording
	}, time.Second, time.Millisecond)

	source.Gate <- struct{}{}
	require.NoError(t, <-done)
	assert.True(t, captured)

	captured2, err := rec.Click(ctx, nil)
	require.NoError(t, err)
	assert.False(t, captured2)
	assert.Equal(t, 1, rec.Buffer().Len())
}

func TestRecorder_ConcurrentAddFrames(t *testing.T) {
	const n = 16
	rec, storage, _ := newTestRecorder(t, n)
	ctx := context.Background()

	require.NoError(t, rec.Start(ctx, "concurrent"))

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- rec.AddFrame(ctx, nil)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stopped, err := rec.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, stopped.FrameCount)

	seen := make(map[int]bool)
	for _, f := range storage.frames[stopped.ID] {
		assert.False(t, seen[f.Seq], "seq %d assigned twice", f.Seq)
		seen[f.Seq] = true
		assert.Less(t, f.Seq, n)
	}
	assert.Len(t, seen, n, "sequence indexes must be unique and contiguous")
}

func TestRecorder_StopWaitsForInFlightCapture(t *testing.T) {
	storage := newFakeStorage()
	source := testutil.NewScriptedSource(testutil.SolidCaptures(1, 8, 6)...)
	source.Gate = make(chan struct{})
	rec := New(storage, source, WithIDGenerator(testutil.SequentialIDs("id")))
	ctx := context.Background()

	require.NoError(t, rec.Start(ctx, "stop waits"))

	addDone := make(chan error, 1)
	go func() { addDone <- rec.AddFrame(ctx, nil) }()

	require.Eventually(t, func() bool {
		return rec.Snapshot().Capturing
	}, time.Second, time.Millisecond)

	stopDone := make(chan *reel.Reel, 1)
	go func() {
		stopped, err := rec.Stop(ctx)
		require.NoError(t, err)
		stopDone <- stopped
	}()

	// Stop is queued behind the in-flight capture.
	select {
	case <-stopDone:
		t.Fatal("Stop() finished before the in-flight capture committed")
	case <-time.After(50 * time.Millisecond):
	}

	source.Gate <- struct{}{}
	require.NoError(t, <-addDone)
	stopped := <-stopDone

	assert.Equal(t, 1, stopped.FrameCount, "the in-flight frame must commit before finalization")
	ops := storage.opLog()
	require.Len(t, ops, 3)
	assert.Equal(t, "append", ops[1])
	assert.Equal(t, "finalize", ops[2])
}

func TestRecorder_SnapshotAndSubscribe(t *testing.T) {
	rec, _, _ := newTestRecorder(t, 1)
	ctx := context.Background()

	var mu sync.Mutex
	var states []State
	unsubscribe := rec.Subscribe(func(s Snapshot) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	})

	require.NoError(t, rec.Start(ctx, "observed"))
	snap := rec.Snapshot()
	assert.Equal(t, StateRecording, snap.State)
	assert.Equal(t, "observed", snap.ReelTitle)
	assert.NotEmpty(t, snap.ReelID)

	require.NoError(t, rec.AddFrame(ctx, nil))
	assert.Equal(t, 1, rec.Snapshot().FrameCount)

	_, err := rec.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, rec.Snapshot().State)

	mu.Lock()
	received := len(states)
	first, last := states[0], states[len(states)-1]
	mu.Unlock()
	assert.GreaterOrEqual(t, received, 3)
	assert.Equal(t, StateRecording, first)
	assert.Equal(t, StateIdle, last)

	unsubscribe()
	rec.BeginEncode()
	mu.Lock()
	afterUnsub := len(states)
	mu.Unlock()
	assert.Equal(t, received, afterUnsub, "unsubscribed observers receive nothing")
	rec.EndEncode()
}

func TestRecorder_EncodeFlag(t *testing.T) {
	rec, _, _ := newTestRecorder(t, 0)

	assert.False(t, rec.Snapshot().Encoding)
	rec.BeginEncode()
	assert.True(t, rec.Snapshot().Encoding)
	rec.EndEncode()
	assert.False(t, rec.Snapshot().Encoding)
}
