package ocr

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// hsv converts an 8-bit RGB triple to hue on a 0-180 scale and saturation and
// value on 0-255, the layout used by common vision libraries for 8-bit images.
func hsv(r, g, b uint8) (h, s, v uint8) {
	maxc := max(r, g, b)
	minc := min(r, g, b)
	v = maxc
	if maxc == 0 {
		return 0, 0, 0
	}
	diff := float64(maxc) - float64(minc)
	s = uint8(math.Round(diff * 255 / float64(maxc)))
	if diff == 0 {
		return 0, s, v
	}
	var deg float64
	switch maxc {
	case r:
		deg = 60 * (float64(g) - float64(b)) / diff
	case g:
		deg = 120 + 60*(float64(b)-float64(r))/diff
	default:
		deg = 240 + 60*(float64(r)-float64(g))/diff
	}
	if deg < 0 {
		deg += 360
	}
	hh := math.Round(deg / 2)
	if hh >= 180 {
		hh -= 180
	}
	return uint8(hh), s, v
}

// inHueRanges reports whether a pixel is saturated and bright enough and its
// hue falls in any configured range.
func inHueRanges(h, s, v uint8, cfg SuppressionConfig) bool {
	if s < cfg.SaturationMin || v < cfg.ValueMin {
		return false
	}
	for _, r := range cfg.HueRanges {
		if h >= r.Min && h <= r.Max {
			return true
		}
	}
	return false
}

// colorMask marks the pixels of img whose color matches cfg. The mask is
// row-major with the dimensions of img.
func colorMask(img *image.NRGBA, cfg SuppressionConfig) []bool {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	mask := make([]bool, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			hh, ss, vv := hsv(row[x*4], row[x*4+1], row[x*4+2])
			mask[y*w+x] = inHueRanges(hh, ss, vv, cfg)
		}
	}
	return mask
}

// dilateMask grows mask with a 3x3 square structuring element, iterations times.
func dilateMask(mask []bool, w, h, iterations int) []bool {
	cur := mask
	for it := 0; it < iterations; it++ {
		next := make([]bool, len(cur))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				hit := false
				for dy := -1; dy <= 1 && !hit; dy++ {
					y2 := y + dy
					if y2 < 0 || y2 >= h {
						continue
					}
					for dx := -1; dx <= 1; dx++ {
						x2 := x + dx
						if x2 < 0 || x2 >= w {
							continue
						}
						if cur[y2*w+x2] {
							hit = true
							break
						}
					}
				}
				next[y*w+x] = hit
			}
		}
		cur = next
	}
	return cur
}

// Suppress returns a copy of img in which every pixel matching the configured
// hue ranges, plus a one-pass 3x3 halo around them, is painted with the fill
// color. All other pixels are copied unchanged.
func Suppress(img image.Image, cfg SuppressionConfig) *image.NRGBA {
	out := imaging.Clone(img)
	w, h := out.Rect.Dx(), out.Rect.Dy()
	if w == 0 || h == 0 {
		return out
	}
	mask := dilateMask(colorMask(out, cfg), w, h, cfg.DilateIterations)
	fill := cfg.Fill.NRGBA()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !mask[y*w+x] {
				continue
			}
			i := y*out.Stride + x*4
			out.Pix[i] = fill.R
			out.Pix[i+1] = fill.G
			out.Pix[i+2] = fill.B
			out.Pix[i+3] = fill.A
		}
	}
	return out
}
