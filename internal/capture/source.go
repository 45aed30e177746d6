// Package capture abstracts the visual surface being recorded.
//
// The engine never touches a live rendering surface directly; it asks a
// Source for a still image on demand. This keeps the engine's correctness
// independent of any particular surface and lets tests substitute a
// deterministic scripted source.
package capture

import (
	"context"
	"image"
	"image/draw"

	"github.com/clickreel/clickreel/internal/reel"
)

// Source produces a still image of the current visual surface on demand.
//
// Capture failures are reported as CAPTURE_FAILURE errors and must not
// corrupt recorder state: a failed capture consumes no sequence index and
// leaves no partial frame behind.
type Source interface {
	// Capture renders the current surface to a pixel buffer. Dimensions
	// are deterministic per source; content it has no permission to read
	// is omitted, never fabricated.
	Capture(ctx context.Context) (*image.RGBA, error)

	// Close releases any resources held by the source.
	Close() error
}

// ToRGBA returns img as *image.RGBA with origin (0,0), copying only when
// the underlying representation differs.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// failure builds a typed capture error.
func failure(err error, message string) error {
	return reel.WrapError(reel.ErrCodeCaptureFailure, "", err, message)
}
