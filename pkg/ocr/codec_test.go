package ocr

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeaderOnly returns a PNG signature plus a valid IHDR chunk declaring a
// w x h 8-bit grayscale image and no pixel data.
func pngHeaderOnly(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth, color type 0 (gray)
	chunk := append([]byte("IHDR"), ihdr...)
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDecodeImageRejectsOversizedHeader(t *testing.T) {
	data := pngHeaderOnly(16000, 16000)
	require.Less(t, len(data), 64)

	img, err := DecodeImage(data, DefaultConfig().Input.MaxPixels)
	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.Contains(t, err.Error(), "16000x16000")
}

func TestDecodeImageMaxPixels(t *testing.T) {
	data := pngPhoto(t) // 40x20

	_, err := DecodeImage(data, 799)
	assert.ErrorIs(t, err, ErrInvalidImage)

	img, err := DecodeImage(data, 800)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 20), img.Bounds())

	img, err = DecodeImage(data, 0)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
}

func TestValidateRejectsOversizedBeforeRecognition(t *testing.T) {
	rec, calls := fixedRecognizer(det(0, "1"))
	obs := &recordingObserver{}
	v, err := NewValidator(rec, DefaultConfig(), WithObserver(obs))
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), pngHeaderOnly(20000, 9000), "1")
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.Zero(t, *calls)
	assert.Equal(t, []string{FailureInvalidImage}, obs.failures)
}

func TestDataURI(t *testing.T) {
	assert.Empty(t, DataURI(nil))
	assert.Equal(t, "data:image/jpeg;base64,/9g=", DataURI([]byte{0xFF, 0xD8}))
}
