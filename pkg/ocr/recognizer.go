package ocr

import (
	"context"
	"image"
)

// Point is a corner of a detection box in pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Detection is one text fragment reported by a Recognizer. Box holds the
// four corners of the region starting with the top-left one.
type Detection struct {
	Box        [4]Point `json:"box"`
	Text       string   `json:"text"`
	Confidence float64  `json:"confidence"`
}

// RectBox returns the corners of r in top-left, top-right, bottom-right,
// bottom-left order.
func RectBox(r image.Rectangle) [4]Point {
	return [4]Point{
		{X: float64(r.Min.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Max.Y)},
		{X: float64(r.Min.X), Y: float64(r.Max.Y)},
	}
}

// Recognizer is the character recognition engine boundary. An empty result
// is valid and means no text regions were found; failures are reported as
// errors wrapping ErrRecognition. Implementations must be safe for
// concurrent use or document otherwise.
type Recognizer interface {
	Recognize(ctx context.Context, img *image.Gray) ([]Detection, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, img *image.Gray) ([]Detection, error)

// Recognize calls f.
func (f RecognizerFunc) Recognize(ctx context.Context, img *image.Gray) ([]Detection, error) {
	return f(ctx, img)
}
