package store

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"testing"
	"time"

	"github.com/clickreel/clickreel/internal/reel"
)

// createTestStore creates a file-backed store under a test temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reels.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestReel inserts an active reel and returns it.
func createTestReel(t *testing.T, s *Store, id, title string) *reel.Reel {
	t.Helper()
	r := &reel.Reel{
		ID:        id,
		Title:     title,
		StartedAt: time.UnixMilli(1700000000000).UTC(),
		Status:    reel.StatusActive,
	}
	if err := s.CreateReel(context.Background(), r); err != nil {
		t.Fatalf("CreateReel() failed: %v", err)
	}
	return r
}

// testImage builds a small image with a deterministic pixel pattern so
// storage round-trips can be verified pixel-exact.
func testImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	img.SetRGBA(0, 0, color.RGBA{A: 0xff}) // corner marker
	return img
}

// testFrame builds a frame ready for AppendFrame. Seq is assigned by the
// store.
func testFrame(id, reelID string, capturedAt time.Time, event *reel.EventMetadata) *reel.Frame {
	return &reel.Frame{
		ID:         id,
		ReelID:     reelID,
		CapturedAt: capturedAt,
		Image:      testImage(6, 4, color.RGBA{R: 0x80, G: 0x40, B: 0x20, A: 0xff}),
		Event:      event,
	}
}
