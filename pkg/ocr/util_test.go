package ocr

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSnippet(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"12345", 10, "12345"},
		{"12345", 3, "123…"},
		{"ab€cd", 3, "ab…"}, // € is 3 bytes starting at index 2
		{"ab€cd", 5, "ab€…"},
		{"€€", 1, "…"},
	}
	for _, tt := range tests {
		got := snippet(tt.in, tt.max)
		assert.Equal(t, tt.want, got, "%q/%d", tt.in, tt.max)
		assert.True(t, utf8.ValidString(got), got)
	}
}

func TestOnlyDigits(t *testing.T) {
	assert.Equal(t, "0425", onlyDigits("0 4.2,5m³"))
	assert.Empty(t, onlyDigits("٣٤")) // non-ASCII digits are dropped
}
