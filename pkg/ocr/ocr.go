package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"meterocr/pkg/log"
)

// Failure kinds passed to Observer.ObserveFailure.
const (
	FailureInvalidImage = "invalid_image"
	FailureRecognition  = "recognition"
)

// Observer receives per-validation outcomes, typically for metrics.
type Observer interface {
	ObserveValidation(ctx context.Context, tier Tier, elapsed time.Duration)
	ObserveFailure(ctx context.Context, kind string)
}

type nopObserver struct{}

func (nopObserver) ObserveValidation(context.Context, Tier, time.Duration) {}
func (nopObserver) ObserveFailure(context.Context, string)                 {}

// Option configures a Validator.
type Option func(*Validator)

// WithObserver reports outcomes to o.
func WithObserver(o Observer) Option {
	return func(v *Validator) {
		if o != nil {
			v.obs = o
		}
	}
}

// Result is everything one validation produced.
type Result struct {
	ObservedDigits string
	Claimed        string
	Match          MatchResult
	// Detections are sorted left to right.
	Detections []Detection
	// Enhanced is the single-channel image handed to the recognizer.
	Enhanced *image.Gray
	// Preview is Enhanced as JPEG, nil when previews are disabled or
	// encoding failed.
	Preview []byte
	Elapsed time.Duration
}

// RawTexts lists the recognized fragments in reading order.
func (r *Result) RawTexts() []string {
	return detectionTexts(r.Detections)
}

// Validator runs suppress, enhance, recognize, sequence and match for one
// image at a time. It holds no per-request state and is safe for concurrent
// use when its Recognizer is.
type Validator struct {
	cfg Config
	rec Recognizer
	obs Observer
}

// NewValidator checks cfg and binds it to rec.
func NewValidator(rec Recognizer, cfg Config, opts ...Option) (*Validator, error) {
	if rec == nil {
		return nil, errors.New("nil recognizer")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	v := &Validator{cfg: cfg, rec: rec, obs: nopObserver{}}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Config returns the pipeline configuration in use.
func (v *Validator) Config() Config { return v.cfg }

// Prepare runs the deterministic image stages: color suppression then
// enhancement.
func (v *Validator) Prepare(img image.Image) *image.Gray {
	return Enhance(Suppress(img, v.cfg.Suppression), v.cfg.Enhancement)
}

// Validate decodes data and validates it against claimed. Undecodable or
// oversized input fails with ErrInvalidImage before any stage runs.
func (v *Validator) Validate(ctx context.Context, data []byte, claimed string) (*Result, error) {
	img, err := DecodeImage(data, v.cfg.Input.MaxPixels)
	if err != nil {
		v.obs.ObserveFailure(ctx, FailureInvalidImage)
		return nil, err
	}
	return v.ValidateImage(ctx, img, claimed)
}

// ValidateImage validates an already decoded image. Only recognition can
// fail; an empty claim or zero detections yield a REJECT result.
func (v *Validator) ValidateImage(ctx context.Context, img image.Image, claimed string) (*Result, error) {
	start := time.Now()
	enhanced := v.Prepare(img)

	dets, err := v.rec.Recognize(ctx, enhanced)
	if err != nil {
		v.obs.ObserveFailure(ctx, FailureRecognition)
		if !errors.Is(err, ErrRecognition) {
			err = fmt.Errorf("%w: %w", ErrRecognition, err)
		}
		return nil, err
	}

	sorted := SortDetections(dets)
	observed := SequenceDigits(sorted)
	match := Match(observed, claimed, v.cfg.Scoring)

	res := &Result{
		ObservedDigits: observed,
		Claimed:        claimed,
		Match:          match,
		Detections:     sorted,
		Enhanced:       enhanced,
	}
	if v.cfg.Preview.Enabled {
		if jpg, err := EncodeJPEG(enhanced, v.cfg.Preview.JPEGQuality); err == nil {
			res.Preview = jpg
		} else {
			log.Warnf("preview encode failed: %v", err)
		}
	}
	res.Elapsed = time.Since(start)

	log.Debugf("OCR validate raw=%q observed=%q claimed=%q matched=%d score=%.2f tier=%s elapsed=%s",
		snippet(fmt.Sprint(res.RawTexts()), 160), observed, claimed, match.MatchCount, match.Score, match.Tier, res.Elapsed)
	v.obs.ObserveValidation(ctx, match.Tier, res.Elapsed)
	return res, nil
}
