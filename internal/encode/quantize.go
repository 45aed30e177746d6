package encode

import (
	"image"
	"image/color"
	"sort"
)

// quantizePalette reduces an image to at most size colors using median
// cut: pixels are repeatedly partitioned along the channel with the
// widest spread, and each final partition contributes its mean color.
//
// Images that already fit within size colors keep their exact colors.
func quantizePalette(img *image.RGBA, size int) color.Palette {
	// Collect distinct colors first: many captured surfaces are flat UI
	// with far fewer distinct colors than pixels.
	seen := make(map[color.RGBA]struct{})
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			seen[img.RGBAAt(x, y)] = struct{}{}
		}
	}

	colors := make([]color.RGBA, 0, len(seen))
	for c := range seen {
		colors = append(colors, c)
	}
	// Map iteration order is random; sort for deterministic palettes.
	sort.Slice(colors, func(i, j int) bool {
		a, b := colors[i], colors[j]
		if a.R != b.R {
			return a.R < b.R
		}
		if a.G != b.G {
			return a.G < b.G
		}
		return a.B < b.B
	})

	if len(colors) <= size {
		pal := make(color.Palette, len(colors))
		for i, c := range colors {
			pal[i] = c
		}
		return pal
	}

	boxes := [][]color.RGBA{colors}
	for len(boxes) < size {
		// Split the box with the widest channel spread.
		best, bestSpread := -1, -1
		for i, box := range boxes {
			if len(box) < 2 {
				continue
			}
			if _, spread := widestChannel(box); spread > bestSpread {
				best, bestSpread = i, spread
			}
		}
		if best < 0 {
			break
		}

		box := boxes[best]
		ch, _ := widestChannel(box)
		sort.Slice(box, func(i, j int) bool {
			return channel(box[i], ch) < channel(box[j], ch)
		})
		mid := len(box) / 2
		boxes[best] = box[:mid]
		boxes = append(boxes, box[mid:])
	}

	pal := make(color.Palette, len(boxes))
	for i, box := range boxes {
		pal[i] = meanColor(box)
	}
	return pal
}

// widestChannel returns the channel index (0=R, 1=G, 2=B) with the
// largest value spread in the box, and that spread.
func widestChannel(box []color.RGBA) (int, int) {
	var minC, maxC [3]int
	for i := range minC {
		minC[i] = 255
	}
	for _, c := range box {
		for ch, v := range [3]int{int(c.R), int(c.G), int(c.B)} {
			if v < minC[ch] {
				minC[ch] = v
			}
			if v > maxC[ch] {
				maxC[ch] = v
			}
		}
	}
	best, bestSpread := 0, maxC[0]-minC[0]
	for ch := 1; ch < 3; ch++ {
		if spread := maxC[ch] - minC[ch]; spread > bestSpread {
			best, bestSpread = ch, spread
		}
	}
	return best, bestSpread
}

func channel(c color.RGBA, ch int) uint8 {
	switch ch {
	case 0:
		return c.R
	case 1:
		return c.G
	default:
		return c.B
	}
}

// meanColor averages a box into its palette entry.
func meanColor(box []color.RGBA) color.RGBA {
	if len(box) == 0 {
		return color.RGBA{A: 0xff}
	}
	var r, g, b int
	for _, c := range box {
		r += int(c.R)
		g += int(c.G)
		b += int(c.B)
	}
	n := len(box)
	return color.RGBA{R: uint8(r / n), G: uint8(g / n), B: uint8(b / n), A: 0xff}
}

// palettize maps an RGBA frame onto pal, caching nearest-color lookups
// since captured surfaces repeat colors heavily.
func palettize(img *image.RGBA, pal color.Palette) *image.Paletted {
	b := img.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), pal)
	cache := make(map[color.RGBA]uint8)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			idx, ok := cache[c]
			if !ok {
				idx = uint8(pal.Index(c))
				cache[c] = idx
			}
			dst.SetColorIndex(x-b.Min.X, y-b.Min.Y, idx)
		}
	}
	return dst
}
