package encode

import (
	"fmt"
	"image/color"
	"sort"
	"time"

	"github.com/clickreel/clickreel/internal/reel"
)

// Format selects the output container.
type Format string

const (
	// FormatGIF produces an animated GIF with quantized palettes.
	FormatGIF Format = "gif"

	// FormatAPNG produces an animated PNG (acTL/fcTL/fdAT chunks).
	FormatAPNG Format = "apng"
)

// NormalizeMode selects how frames of differing dimensions are unified.
type NormalizeMode string

const (
	// NormalizePad places each frame on a fill-color canvas sized to the
	// largest frame.
	NormalizePad NormalizeMode = "pad"

	// NormalizeScale rescales every frame to the first frame's dimensions.
	NormalizeScale NormalizeMode = "scale"
)

// Options configures an encode run.
type Options struct {
	// PaletteSize is the GIF color table target, at most 256.
	PaletteSize int

	// MinDelay clamps per-frame durations so back-to-back captures never
	// produce zero or negative delays.
	MinDelay time.Duration

	// LastFrameHold is the display duration of the final frame, which has
	// no successor to derive a delta from.
	LastFrameHold time.Duration

	// LoopCount is the animation repeat count; 0 loops forever.
	LoopCount int

	// Normalize selects dimension unification for mixed-size sequences.
	Normalize NormalizeMode

	// FillColor pads normalized frames and backs disposed GIF frames.
	FillColor color.RGBA

	// Cumulative marks sequences whose frames build on one another; the
	// GIF disposal method is then "none" instead of restore-to-background.
	Cumulative bool
}

// DefaultOptions returns the options used when a caller passes zero values.
func DefaultOptions() Options {
	return Options{
		PaletteSize:   256,
		MinDelay:      20 * time.Millisecond,
		LastFrameHold: time.Second,
		LoopCount:     0,
		Normalize:     NormalizePad,
		FillColor:     color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	}
}

// withDefaults fills unset fields from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.PaletteSize <= 0 || o.PaletteSize > 256 {
		o.PaletteSize = def.PaletteSize
	}
	if o.MinDelay <= 0 {
		o.MinDelay = def.MinDelay
	}
	if o.LastFrameHold <= 0 {
		o.LastFrameHold = def.LastFrameHold
	}
	if o.Normalize == "" {
		o.Normalize = def.Normalize
	}
	if o.FillColor == (color.RGBA{}) {
		o.FillColor = def.FillColor
	}
	return o
}

// Encode produces the animated binary for the given format.
//
// Frames are sorted by sequence index first; validation then rejects any
// gap or duplicate. Encoding is fail-fast: one bad frame aborts the whole
// run and no partial output is returned.
func Encode(frames []reel.Frame, format Format, opts Options) ([]byte, error) {
	opts = opts.withDefaults()

	ordered, err := Ordered(frames)
	if err != nil {
		return nil, err
	}

	delays := Delays(ordered, opts)
	normalized, err := normalize(ordered, opts)
	if err != nil {
		return nil, err
	}

	reelID := ordered[0].ReelID
	switch format {
	case FormatGIF:
		return encodeGIF(reelID, normalized, delays, opts)
	case FormatAPNG:
		return encodeAPNG(reelID, normalized, delays, opts)
	default:
		return nil, reel.NewReelError(reel.ErrCodeEncodingFailure, reelID, fmt.Sprintf("unsupported format %q", format))
	}
}

// Ordered returns frames sorted by Seq after validating that the
// indexes form the contiguous range 0..len-1 and every image is present.
func Ordered(frames []reel.Frame) ([]reel.Frame, error) {
	if len(frames) == 0 {
		return nil, reel.NewError(reel.ErrCodeInvalidFrameSequence, "no frames to encode")
	}

	ordered := make([]reel.Frame, len(frames))
	copy(ordered, frames)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	for i, f := range ordered {
		if f.Seq != i {
			kind := "gap"
			if i > 0 && f.Seq == ordered[i-1].Seq {
				kind = "duplicate"
			}
			return nil, reel.NewSeqError(reel.ErrCodeInvalidFrameSequence, f.ReelID, f.Seq,
				fmt.Sprintf("%s in sequence: expected index %d", kind, i))
		}
		if f.Image == nil || f.Image.Bounds().Dx() <= 0 || f.Image.Bounds().Dy() <= 0 {
			return nil, reel.NewSeqError(reel.ErrCodeEncodingFailure, f.ReelID, f.Seq, "frame has no decodable image")
		}
	}
	return ordered, nil
}

// Delays computes one display duration per frame from capture timestamp
// deltas, clamped to opts.MinDelay. The last frame uses
// opts.LastFrameHold. Frames must already be in sequence order.
func Delays(ordered []reel.Frame, opts Options) []time.Duration {
	opts = opts.withDefaults()
	delays := make([]time.Duration, len(ordered))
	for i := range ordered {
		if i == len(ordered)-1 {
			delays[i] = opts.LastFrameHold
			continue
		}
		d := ordered[i+1].CapturedAt.Sub(ordered[i].CapturedAt)
		if d < opts.MinDelay {
			d = opts.MinDelay
		}
		delays[i] = d
	}
	return delays
}
