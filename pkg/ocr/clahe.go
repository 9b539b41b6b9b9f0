package ocr

import (
	"image"
	"math"
)

const histBins = 256

// clipHistogram caps every bin at limit and spreads the clipped excess evenly
// across all bins, the remainder going one count at a time over a fixed
// stride. The histogram total is preserved.
func clipHistogram(hist *[histBins]int, limit int) {
	if limit < 1 {
		limit = 1
	}
	excess := 0
	for i := range hist {
		if hist[i] > limit {
			excess += hist[i] - limit
			hist[i] = limit
		}
	}
	if excess == 0 {
		return
	}
	batch := excess / histBins
	residual := excess - batch*histBins
	for i := range hist {
		hist[i] += batch
	}
	if residual > 0 {
		step := histBins / residual
		if step < 1 {
			step = 1
		}
		for i := 0; i < histBins && residual > 0; i += step {
			hist[i]++
			residual--
		}
	}
}

// tileLUT builds the equalization lookup table of one tile.
func tileLUT(src *image.Gray, r image.Rectangle, clip float64) [histBins]uint8 {
	var hist [histBins]int
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := src.Pix[y*src.Stride:]
		for x := r.Min.X; x < r.Max.X; x++ {
			hist[row[x]]++
		}
	}
	area := r.Dx() * r.Dy()
	clipHistogram(&hist, int(clip*float64(area)/histBins))

	var lut [histBins]uint8
	scale := float64(histBins-1) / float64(area)
	sum := 0
	for i := range hist {
		sum += hist[i]
		v := math.Round(float64(sum) * scale)
		if v > 255 {
			v = 255
		}
		lut[i] = uint8(v)
	}
	return lut
}

// equalizeCLAHE applies contrast limited adaptive histogram equalization on a
// tiles x tiles grid. Each pixel is mapped through the lookup tables of the
// four nearest tile centers and bilinearly blended.
func equalizeCLAHE(src *image.Gray, tiles int, clip float64) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}
	tilesX, tilesY := min(tiles, w), min(tiles, h)
	if tilesX < 1 {
		tilesX = 1
	}
	if tilesY < 1 {
		tilesY = 1
	}
	tileW := (w + tilesX - 1) / tilesX
	tileH := (h + tilesY - 1) / tilesY
	// Ceil division can leave trailing tiles empty on small inputs.
	tilesX = (w + tileW - 1) / tileW
	tilesY = (h + tileH - 1) / tileH

	norm := src
	if src.Rect.Min != (image.Point{}) {
		norm = image.NewGray(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			copy(norm.Pix[y*norm.Stride:y*norm.Stride+w], src.Pix[y*src.Stride:y*src.Stride+w])
		}
	}

	luts := make([][histBins]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			r := image.Rect(tx*tileW, ty*tileH, min((tx+1)*tileW, w), min((ty+1)*tileH, h))
			luts[ty*tilesX+tx] = tileLUT(norm, r, clip)
		}
	}

	for y := 0; y < h; y++ {
		fy := (float64(y)+0.5)/float64(tileH) - 0.5
		ty1 := int(math.Floor(fy))
		ya := fy - float64(ty1)
		ty2 := ty1 + 1
		if ty1 < 0 {
			ty1 = 0
		}
		if ty2 > tilesY-1 {
			ty2 = tilesY - 1
		}
		if ty1 > tilesY-1 {
			ty1 = tilesY - 1
		}
		srcRow := norm.Pix[y*norm.Stride:]
		dstRow := dst.Pix[y*dst.Stride:]
		for x := 0; x < w; x++ {
			fx := (float64(x)+0.5)/float64(tileW) - 0.5
			tx1 := int(math.Floor(fx))
			xa := fx - float64(tx1)
			tx2 := tx1 + 1
			if tx1 < 0 {
				tx1 = 0
			}
			if tx2 > tilesX-1 {
				tx2 = tilesX - 1
			}
			if tx1 > tilesX-1 {
				tx1 = tilesX - 1
			}
			v := srcRow[x]
			top := float64(luts[ty1*tilesX+tx1][v])*(1-xa) + float64(luts[ty1*tilesX+tx2][v])*xa
			bot := float64(luts[ty2*tilesX+tx1][v])*(1-xa) + float64(luts[ty2*tilesX+tx2][v])*xa
			out := math.Round(top*(1-ya) + bot*ya)
			if out < 0 {
				out = 0
			} else if out > 255 {
				out = 255
			}
			dstRow[x] = uint8(out)
		}
	}
	return dst
}
