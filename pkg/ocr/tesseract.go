package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// DigitWhitelist restricts Tesseract to the characters a meter shows.
const DigitWhitelist = "0123456789"

// TesseractOptions configures the client pool.
type TesseractOptions struct {
	// Workers is the number of clients; one request holds one client.
	Workers   int
	Languages []string
	Whitelist string
	// PageSegMode defaults to sparse text, which suits spaced dial digits.
	PageSegMode gosseract.PageSegMode
}

// Tesseract is a Recognizer backed by a fixed pool of gosseract clients.
// A client is never used by two requests at once, so Tesseract is safe for
// concurrent use with at most Workers recognitions in flight.
type Tesseract struct {
	clients chan *gosseract.Client
	all     []*gosseract.Client
	once    sync.Once
}

// NewTesseract creates and configures opts.Workers clients up front.
func NewTesseract(opts TesseractOptions) (*Tesseract, error) {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if len(opts.Languages) == 0 {
		opts.Languages = []string{"eng"}
	}
	if opts.Whitelist == "" {
		opts.Whitelist = DigitWhitelist
	}
	if opts.PageSegMode == 0 {
		opts.PageSegMode = gosseract.PSM_SPARSE_TEXT
	}
	t := &Tesseract{clients: make(chan *gosseract.Client, opts.Workers)}
	for i := 0; i < opts.Workers; i++ {
		c := gosseract.NewClient()
		if err := configureClient(c, opts); err != nil {
			_ = c.Close()
			t.Close()
			return nil, fmt.Errorf("configure tesseract client: %w", err)
		}
		t.all = append(t.all, c)
		t.clients <- c
	}
	return t, nil
}

func configureClient(c *gosseract.Client, opts TesseractOptions) error {
	if err := c.SetLanguage(opts.Languages...); err != nil {
		return err
	}
	if err := c.SetWhitelist(opts.Whitelist); err != nil {
		return err
	}
	return c.SetPageSegMode(opts.PageSegMode)
}

// Recognize runs word-level recognition on img with a pooled client.
func (t *Tesseract) Recognize(ctx context.Context, img *image.Gray) ([]Detection, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecognition, err)
	}
	var c *gosseract.Client
	select {
	case c = <-t.clients:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: waiting for engine: %w", ErrRecognition, ctx.Err())
	}

	type outcome struct {
		dets []Detection
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		// The cgo call cannot be interrupted; the client goes back to the
		// pool only once it has finished.
		defer func() { t.clients <- c }()
		dets, err := recognizeWithClient(c, data)
		done <- outcome{dets, err}
	}()

	select {
	case o := <-done:
		return o.dets, o.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrRecognition, ctx.Err())
	}
}

func recognizeWithClient(c *gosseract.Client, data []byte) ([]Detection, error) {
	if err := c.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: set image: %v", ErrRecognition, err)
	}
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("%w: bounding boxes: %v", ErrRecognition, err)
	}
	dets := make([]Detection, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		dets = append(dets, Detection{
			Box:        RectBox(b.Box),
			Text:       text,
			Confidence: b.Confidence / 100.0,
		})
	}
	return dets, nil
}

// Close releases every client. Call it only after in-flight recognitions
// have returned.
func (t *Tesseract) Close() error {
	var errs []error
	t.once.Do(func() {
		for _, c := range t.all {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

// Name identifies the backend in status output.
func (t *Tesseract) Name() string { return "tesseract" }
