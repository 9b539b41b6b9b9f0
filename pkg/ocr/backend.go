package ocr

import (
	"fmt"
	"net/http"
	"time"
)

const (
	BackendTesseract = "tesseract"
	BackendRemote    = "remote"
)

// BackendOptions selects and configures a Recognizer implementation.
type BackendOptions struct {
	Backend   string
	RemoteURL string
	// RemoteTimeout bounds one sidecar round trip; zero means no limit
	// beyond the request context.
	RemoteTimeout time.Duration
	Tesseract     TesseractOptions
}

// NamedRecognizer is a Recognizer that can report which engine it runs and
// release its resources.
type NamedRecognizer interface {
	Recognizer
	Name() string
	Close() error
}

// Close is a no-op; the sidecar owns its engine.
func (r *Remote) Close() error { return nil }

// NewBackend builds the recognizer named by opts.Backend.
func NewBackend(opts BackendOptions) (NamedRecognizer, error) {
	switch opts.Backend {
	case BackendTesseract, "":
		t, err := NewTesseract(opts.Tesseract)
		if err != nil {
			return nil, err
		}
		return t, nil
	case BackendRemote:
		r, err := NewRemote(opts.RemoteURL, &http.Client{Timeout: opts.RemoteTimeout})
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: unknown recognizer backend %q", ErrInvalidConfig, opts.Backend)
	}
}
