package ocr

import "errors"

// ErrInvalidImage is returned when the submitted bytes cannot be decoded as a raster image.
var ErrInvalidImage = errors.New("invalid image")

// ErrRecognition is returned when the recognition engine fails or times out.
var ErrRecognition = errors.New("recognition failed")

// ErrInvalidConfig is returned by Config.Validate for unusable tunables.
var ErrInvalidConfig = errors.New("invalid pipeline config")
