package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func det(x float64, text string) Detection {
	return Detection{Box: [4]Point{{X: x}, {X: x + 10}, {X: x + 10, Y: 10}, {X: x, Y: 10}}, Text: text, Confidence: 0.9}
}

func TestSequenceDigitsOrderIndependent(t *testing.T) {
	orders := [][]Detection{
		{det(50, "3"), det(10, "1"), det(30, "2")},
		{det(10, "1"), det(30, "2"), det(50, "3")},
		{det(30, "2"), det(50, "3"), det(10, "1")},
	}
	for _, dets := range orders {
		assert.Equal(t, "123", SequenceDigits(dets))
	}
}

func TestSequenceDigitsStripsNonDigits(t *testing.T) {
	dets := []Detection{det(40, "2.5"), det(0, "0O4"), det(90, " m3")}
	assert.Equal(t, "04253", SequenceDigits(dets))
}

func TestSequenceDigitsEmpty(t *testing.T) {
	assert.Equal(t, "", SequenceDigits(nil))
	assert.Equal(t, "", SequenceDigits([]Detection{det(0, "..."), det(5, "ab")}))
}

func TestSortDetectionsStableOnTies(t *testing.T) {
	in := []Detection{det(20, "b"), det(10, "a"), det(20, "c")}
	got := SortDetections(in)
	assert.Equal(t, []string{"a", "b", "c"}, detectionTexts(got))
	// input untouched
	assert.Equal(t, "b", in[0].Text)
}
