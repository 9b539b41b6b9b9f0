package ocr

import (
	"image"

	"github.com/disintegration/imaging"
)

// scaledSize returns the target dimensions for a uniform upscale, truncated
// toward zero and clamped to at least one pixel and at most maxDim on either
// side.
func scaledSize(w, h int, factor float64, maxDim int) (int, int) {
	if factor <= 0 {
		factor = 1
	}
	nw := int(float64(w) * factor)
	nh := int(float64(h) * factor)
	if maxDim > 0 && max(nw, nh) > maxDim {
		if w >= h {
			nw, nh = maxDim, h*maxDim/w
		} else {
			nw, nh = w*maxDim/h, maxDim
		}
	}
	return max(nw, 1), max(nh, 1)
}

// upscale resizes img by the configured factor with bicubic (Catmull-Rom)
// interpolation.
func upscale(img image.Image, cfg EnhancementConfig) *image.NRGBA {
	b := img.Bounds()
	w, h := scaledSize(b.Dx(), b.Dy(), cfg.Scale, cfg.MaxDimension)
	return imaging.Resize(img, w, h, imaging.CatmullRom)
}

// pad surrounds img with a border of the background color on all sides.
func pad(img image.Image, border int, bg RGB) *image.NRGBA {
	if border < 0 {
		border = 0
	}
	b := img.Bounds()
	out := imaging.New(b.Dx()+2*border, b.Dy()+2*border, bg.NRGBA())
	return imaging.Paste(out, img, image.Pt(border, border))
}

// toGray reduces img to a single luminance channel.
func toGray(img image.Image) *image.Gray {
	g := imaging.Grayscale(img)
	w, h := g.Rect.Dx(), g.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := g.Pix[y*g.Stride:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < w; x++ {
			dst[x] = src[x*4]
		}
	}
	return out
}

// sharpen runs one pass of a 3x3 convolution kernel over a gray image.
func sharpen(img *image.Gray, kernel [9]float64) *image.Gray {
	conv := imaging.Convolve3x3(img, kernel, nil)
	return toGray(conv)
}

// Enhance turns a color image into a single-channel image tuned for the
// recognizer: upscale, pad, grayscale, CLAHE, then one soft sharpen pass.
// It is deterministic and accepts its own output.
func Enhance(img image.Image, cfg EnhancementConfig) *image.Gray {
	scaled := upscale(img, cfg)
	padded := pad(scaled, cfg.Border, cfg.Background)
	gray := toGray(padded)
	eq := equalizeCLAHE(gray, cfg.CLAHETiles, cfg.CLAHEClip)
	return sharpen(eq, cfg.SharpenKernel)
}
