// Package redact masks sensitive regions of a captured image before it
// is persisted or encoded. Redaction is a pure transform: it never does
// I/O and never mutates its input, so raw un-redacted pixels cannot
// reach durable storage once the filter is in the capture path.
package redact

import (
	"image"
	"image/color"
	"image/draw"
)

// Mode selects how a region is masked.
type Mode string

const (
	// ModeSolid fills the region with a solid color.
	ModeSolid Mode = "solid"

	// ModeBlur replaces the region with a box blur of its own pixels.
	ModeBlur Mode = "blur"
)

// Region is one rectangle to mask, in surface pixel coordinates.
type Region struct {
	X    int  `yaml:"x" json:"x"`
	Y    int  `yaml:"y" json:"y"`
	W    int  `yaml:"w" json:"w"`
	H    int  `yaml:"h" json:"h"`
	Mode Mode `yaml:"mode" json:"mode"`
}

// DefaultBlurRadius is the box blur radius used by ModeBlur.
const DefaultBlurRadius = 8

// Obfuscator applies a fixed set of redaction regions.
type Obfuscator struct {
	regions []Region
	fill    color.RGBA
	radius  int
}

// New creates an Obfuscator for the given regions. Fill color applies to
// ModeSolid regions.
func New(regions []Region, fill color.RGBA) *Obfuscator {
	return &Obfuscator{regions: regions, fill: fill, radius: DefaultBlurRadius}
}

// Enabled reports whether the obfuscator has any regions to apply.
func (o *Obfuscator) Enabled() bool {
	return o != nil && len(o.regions) > 0
}

// Apply returns a copy of img with every configured region masked.
// Regions outside the image bounds are clipped; an empty region list
// returns img unchanged.
func (o *Obfuscator) Apply(img *image.RGBA) *image.RGBA {
	if !o.Enabled() {
		return img
	}

	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)

	for _, r := range o.regions {
		rect := image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H).Intersect(out.Bounds())
		if rect.Empty() {
			continue
		}
		switch r.Mode {
		case ModeBlur:
			boxBlur(out, rect, o.radius)
		default:
			draw.Draw(out, rect, &image.Uniform{o.fill}, image.Point{}, draw.Src)
		}
	}
	return out
}

// boxBlur replaces rect in img with a box-blurred copy of itself.
// Two passes (horizontal then vertical) over an intermediate buffer give
// a separable blur in O(radius) per pixel.
func boxBlur(img *image.RGBA, rect image.Rectangle, radius int) {
	if radius < 1 {
		radius = 1
	}

	tmp := image.NewRGBA(rect)
	// Horizontal pass: img -> tmp
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			var rs, gs, bs, as, n int
			for dx := -radius; dx <= radius; dx++ {
				sx := x + dx
				if sx < rect.Min.X || sx >= rect.Max.X {
					continue
				}
				c := img.RGBAAt(sx, y)
				rs += int(c.R)
				gs += int(c.G)
				bs += int(c.B)
				as += int(c.A)
				n++
			}
			tmp.SetRGBA(x, y, color.RGBA{
				R: uint8(rs / n),
				G: uint8(gs / n),
				B: uint8(bs / n),
				A: uint8(as / n),
			})
		}
	}
	// Vertical pass: tmp -> img
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			var rs, gs, bs, as, n int
			for dy := -radius; dy <= radius; dy++ {
				sy := y + dy
				if sy < rect.Min.Y || sy >= rect.Max.Y {
					continue
				}
				c := tmp.RGBAAt(x, sy)
				rs += int(c.R)
				gs += int(c.G)
				bs += int(c.B)
				as += int(c.A)
				n++
			}
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(rs / n),
				G: uint8(gs / n),
				B: uint8(bs / n),
				A: uint8(as / n),
			})
		}
	}
}
