package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/clickreel/clickreel/internal/reel"
)

func TestLoadInventory_Empty(t *testing.T) {
	s := createTestStore(t)

	entries, err := s.LoadInventory(context.Background())
	if err != nil {
		t.Fatalf("LoadInventory() failed: %v", err)
	}
	if entries == nil {
		t.Fatal("LoadInventory() returned nil, want empty slice")
	}
	if len(entries) != 0 {
		t.Errorf("entries = %d, want 0", len(entries))
	}
}

func TestLoadInventory_OrderedByStart(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Insert out of chronological order.
	starts := map[string]int64{
		"reel-b": 1700000002000,
		"reel-a": 1700000001000,
		"reel-c": 1700000003000,
	}
	for id, ms := range starts {
		r := &reel.Reel{ID: id, Title: id, StartedAt: time.UnixMilli(ms).UTC(), Status: reel.StatusActive}
		if err := s.CreateReel(ctx, r); err != nil {
			t.Fatalf("CreateReel(%s) failed: %v", id, err)
		}
	}

	entries, err := s.LoadInventory(ctx)
	if err != nil {
		t.Fatalf("LoadInventory() failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	wantOrder := []string{"reel-a", "reel-b", "reel-c"}
	for i, want := range wantOrder {
		if entries[i].ID != want {
			t.Errorf("entries[%d].ID = %q, want %q", i, entries[i].ID, want)
		}
	}
}

func TestGetReel_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	r := createTestReel(t, s, "reel-1", "round trip")
	ctx := context.Background()

	got, err := s.GetReel(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetReel() failed: %v", err)
	}
	if got.ID != r.ID {
		t.Errorf("id = %q, want %q", got.ID, r.ID)
	}
	if got.Title != r.Title {
		t.Errorf("title = %q, want %q", got.Title, r.Title)
	}
	if !got.StartedAt.Equal(r.StartedAt) {
		t.Errorf("started_at = %v, want %v", got.StartedAt, r.StartedAt)
	}
	if got.Status != reel.StatusActive {
		t.Errorf("status = %q, want active", got.Status)
	}
	if !got.EndedAt.IsZero() {
		t.Errorf("ended_at = %v, want zero for active reel", got.EndedAt)
	}
}

func TestGetReel_Missing(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetReel(context.Background(), "no-such-reel")
	if !reel.IsNotFound(err) {
		t.Fatalf("GetReel() error = %v, want NOT_FOUND", err)
	}
}

func TestLoadReel_FramesOrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	r := createTestReel(t, s, "reel-1", "frames")
	ctx := context.Background()

	event := &reel.EventMetadata{X: 12, Y: 34, Target: "input#email", Value: "a@b.c"}
	for i := 0; i < 3; i++ {
		var ev *reel.EventMetadata
		if i == 1 {
			ev = event
		}
		f := testFrame(fmt.Sprintf("frame-%d", i), r.ID, time.UnixMilli(int64(1700000000000+250*i)).UTC(), ev)
		if err := s.AppendFrame(ctx, f); err != nil {
			t.Fatalf("AppendFrame(%d) failed: %v", i, err)
		}
	}

	loaded, err := s.LoadReel(ctx, r.ID)
	if err != nil {
		t.Fatalf("LoadReel() failed: %v", err)
	}
	if len(loaded.Frames) != 3 {
		t.Fatalf("frames = %d, want 3", len(loaded.Frames))
	}

	for i, f := range loaded.Frames {
		if f.Seq != i {
			t.Errorf("frames[%d].Seq = %d, want %d", i, f.Seq, i)
		}
		if f.Image == nil {
			t.Fatalf("frames[%d].Image is nil", i)
		}
		want := testImage(6, 4, f.Image.RGBAAt(2, 2))
		if f.Image.Bounds() != want.Bounds() {
			t.Errorf("frames[%d] bounds = %v, want %v", i, f.Image.Bounds(), want.Bounds())
		}
	}

	// Pixel-exact round-trip of the stored payload.
	original := testFrame("x", r.ID, time.Now(), nil)
	got := loaded.Frames[0].Image
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			if got.RGBAAt(x, y) != original.Image.RGBAAt(x, y) {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got.RGBAAt(x, y), original.Image.RGBAAt(x, y))
			}
		}
	}

	if loaded.Frames[0].Event != nil {
		t.Errorf("frames[0].Event = %+v, want nil", loaded.Frames[0].Event)
	}
	if loaded.Frames[1].Event == nil {
		t.Fatal("frames[1].Event is nil, want metadata")
	}
	if *loaded.Frames[1].Event != *event {
		t.Errorf("frames[1].Event = %+v, want %+v", *loaded.Frames[1].Event, *event)
	}
}

func TestInfo_Aggregates(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	r1 := createTestReel(t, s, "reel-1", "one")
	createTestReel(t, s, "reel-2", "two")
	for i := 0; i < 2; i++ {
		if err := s.AppendFrame(ctx, testFrame(fmt.Sprintf("f-%d", i), r1.ID, time.Now(), nil)); err != nil {
			t.Fatalf("AppendFrame() failed: %v", err)
		}
	}

	info, err := s.Info(ctx)
	if err != nil {
		t.Fatalf("Info() failed: %v", err)
	}
	if info.Reels != 2 {
		t.Errorf("Reels = %d, want 2", info.Reels)
	}
	if info.Frames != 2 {
		t.Errorf("Frames = %d, want 2", info.Frames)
	}
	if info.EstimatedBytes <= 0 {
		t.Errorf("EstimatedBytes = %d, want > 0", info.EstimatedBytes)
	}
}
