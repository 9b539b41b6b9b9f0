package ocr

import (
	"sort"
	"strings"
)

// SortDetections returns a copy of dets ordered left to right by the x
// coordinate of each box's first corner. Equal keys keep recognizer order.
func SortDetections(dets []Detection) []Detection {
	out := append([]Detection(nil), dets...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Box[0].X < out[j].Box[0].X
	})
	return out
}

// SequenceDigits concatenates the text of dets in left-to-right order and
// keeps only ASCII digits.
func SequenceDigits(dets []Detection) string {
	var sb strings.Builder
	for _, d := range SortDetections(dets) {
		sb.WriteString(d.Text)
	}
	return onlyDigits(sb.String())
}
