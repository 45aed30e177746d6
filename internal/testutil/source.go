package testutil

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/clickreel/clickreel/internal/reel"
)

// Capture scripts one result of a ScriptedSource: either an image or a
// failure.
type Capture struct {
	Image *image.RGBA
	Err   error
}

// ScriptedSource is a deterministic capture source producing scripted
// images, decoupling engine tests from any real rendering surface.
//
// When Gate is set, every Capture call first receives from it, letting a
// test hold a capture in flight while it issues competing operations.
type ScriptedSource struct {
	mu     sync.Mutex
	script []Capture
	calls  int
	Gate   chan struct{}
}

// NewScriptedSource returns a source that replays the given captures in
// order. Calls past the end of the script fail.
func NewScriptedSource(script ...Capture) *ScriptedSource {
	return &ScriptedSource{script: script}
}

// Calls returns how many captures have been requested.
func (s *ScriptedSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Capture implements capture.Source.
func (s *ScriptedSource) Capture(ctx context.Context) (*image.RGBA, error) {
	if s.Gate != nil {
		select {
		case <-s.Gate:
		case <-ctx.Done():
			return nil, reel.WrapError(reel.ErrCodeCaptureFailure, "", ctx.Err(), "capture cancelled")
		}
	}

	s.mu.Lock()
	idx := s.calls
	s.calls++
	s.mu.Unlock()

	if idx >= len(s.script) {
		return nil, reel.NewError(reel.ErrCodeCaptureFailure, fmt.Sprintf("scripted source exhausted at call %d", idx))
	}
	c := s.script[idx]
	if c.Err != nil {
		return nil, reel.WrapError(reel.ErrCodeCaptureFailure, "", c.Err, "scripted capture failure")
	}
	return c.Image, nil
}

// Close implements capture.Source.
func (s *ScriptedSource) Close() error { return nil }

// SolidImage builds a w x h image filled with one color.
func SolidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

// SolidCaptures scripts n solid-color captures of the same dimensions,
// varying the red channel so consecutive frames differ.
func SolidCaptures(n, w, h int) []Capture {
	out := make([]Capture, n)
	for i := range out {
		out[i] = Capture{Image: SolidImage(w, h, color.RGBA{R: uint8(20 * i), G: 0x40, B: 0x80, A: 0xff})}
	}
	return out
}

// SequentialIDs returns an ID generator producing prefix-0001,
// prefix-0002, ... for deterministic reel and frame identifiers.
func SequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%04d", prefix, n)
	}
}
