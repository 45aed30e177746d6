package encode

import (
	"image"
	stddraw "image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/clickreel/clickreel/internal/reel"
)

// normalize unifies frame dimensions: encoders require a uniform canvas.
//
// NormalizePad draws each frame at the top-left of a fill-color canvas
// sized to the largest frame in the sequence. NormalizeScale rescales
// every frame to the first frame's dimensions with Catmull-Rom
// interpolation. Sequences that are already uniform pass through
// untouched in pad mode.
func normalize(ordered []reel.Frame, opts Options) ([]*image.RGBA, error) {
	out := make([]*image.RGBA, len(ordered))

	switch opts.Normalize {
	case NormalizeScale:
		target := ordered[0].Image.Bounds()
		for i, f := range ordered {
			if f.Image.Bounds() == target {
				out[i] = f.Image
				continue
			}
			dst := image.NewRGBA(image.Rect(0, 0, target.Dx(), target.Dy()))
			xdraw.CatmullRom.Scale(dst, dst.Bounds(), f.Image, f.Image.Bounds(), xdraw.Src, nil)
			out[i] = dst
		}

	default: // NormalizePad
		var w, h int
		for _, f := range ordered {
			if dx := f.Image.Bounds().Dx(); dx > w {
				w = dx
			}
			if dy := f.Image.Bounds().Dy(); dy > h {
				h = dy
			}
		}
		for i, f := range ordered {
			b := f.Image.Bounds()
			if b.Dx() == w && b.Dy() == h && b.Min == (image.Point{}) {
				out[i] = f.Image
				continue
			}
			dst := image.NewRGBA(image.Rect(0, 0, w, h))
			stddraw.Draw(dst, dst.Bounds(), &image.Uniform{opts.FillColor}, image.Point{}, stddraw.Src)
			stddraw.Draw(dst, image.Rect(0, 0, b.Dx(), b.Dy()), f.Image, b.Min, stddraw.Src)
			out[i] = dst
		}
	}

	return out, nil
}
