package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/clickreel/clickreel/internal/reel"
)

// marshalImage converts frame pixels to a PNG-compressed BLOB.
// PNG is lossless, so the stored payload round-trips pixel-exact while
// staying far smaller than raw RGBA at rest.
func marshalImage(img *image.RGBA) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("marshal image: nil image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("marshal image: %w", err)
	}
	return buf.Bytes(), nil
}

// unmarshalImage decodes a stored BLOB back to RGBA pixels.
func unmarshalImage(blob []byte) (*image.RGBA, error) {
	img, err := png.Decode(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("unmarshal image: %w", err)
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba, nil
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst, nil
}

// marshalEvent converts optional event metadata to JSON TEXT, or nil for
// frames without a triggering event.
func marshalEvent(ev *reel.EventMetadata) (any, error) {
	if ev == nil {
		return nil, nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return string(data), nil
}

// unmarshalEvent parses stored event JSON; a NULL column yields nil.
func unmarshalEvent(raw *string) (*reel.EventMetadata, error) {
	if raw == nil {
		return nil, nil
	}
	var ev reel.EventMetadata
	if err := json.Unmarshal([]byte(*raw), &ev); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return &ev, nil
}
