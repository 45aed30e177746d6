package encode

import (
	"bytes"
	"image"
	"image/gif"
	"time"

	"github.com/clickreel/clickreel/internal/reel"
)

// encodeGIF writes an animated GIF with a per-frame local color table.
//
// Each frame is quantized independently (median cut, opts.PaletteSize
// colors) and LZW-compressed by the standard encoder. Delays are in
// centiseconds per the GIF spec, rounded to the nearest unit with a
// floor of 1 so no frame collapses to a zero delay.
func encodeGIF(reelID string, frames []*image.RGBA, delays []time.Duration, opts Options) ([]byte, error) {
	disposal := byte(gif.DisposalBackground)
	if opts.Cumulative {
		disposal = gif.DisposalNone
	}

	anim := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		Disposal:  make([]byte, len(frames)),
		LoopCount: opts.LoopCount,
	}

	for i, frame := range frames {
		pal := quantizePalette(frame, opts.PaletteSize)
		anim.Image[i] = palettize(frame, pal)
		anim.Delay[i] = centiseconds(delays[i])
		anim.Disposal[i] = disposal
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, reel.WrapError(reel.ErrCodeEncodingFailure, reelID, err, "gif encode")
	}
	return buf.Bytes(), nil
}

// centiseconds converts a duration to GIF delay units, minimum 1.
func centiseconds(d time.Duration) int {
	cs := int((d + 5*time.Millisecond) / (10 * time.Millisecond))
	if cs < 1 {
		cs = 1
	}
	return cs
}
