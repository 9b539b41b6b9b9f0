package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"meterocr/pkg/log"
	"meterocr/pkg/ocr"
)

const (
	serviceName    = "meterocr"
	serviceVersion = "1.0.0"
)

// server holds what the handlers share. It is built once at startup.
type server struct {
	validator *ocr.Validator
	backend   string
	timeout   time.Duration
	maxUpload int64
	jwtSecret []byte
}

type validateResponse struct {
	Detected          string   `json:"detected"`
	BestMatch         string   `json:"best_match"`
	UserInput         string   `json:"user_input"`
	SimilarityPercent float64  `json:"similarity_percent"`
	MatchCount        int      `json:"match_count"`
	Tier              ocr.Tier `json:"tier"`
	Status            string   `json:"status"`
	RawDetections     []string `json:"raw_detections"`
	DebugImage        string   `json:"debug_image,omitempty"`
	RequestID         string   `json:"request_id"`
	ElapsedMS         int64    `json:"elapsed_ms"`
}

func newEngine(s *server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog())
	setupRoutes(r, s)
	return r
}

func setupRoutes(r *gin.Engine, s *server) {
	r.GET("/status", s.statusHandler)
	group := r.Group("")
	if len(s.jwtSecret) > 0 {
		group.Use(jwtAuthMiddleware(s.jwtSecret))
	}
	group.POST("/validate", s.validateHandler)
}

func (s *server) statusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"service": serviceName,
		"version": serviceVersion,
		"backend": s.backend,
	})
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}

func (s *server) validateHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
	file, err := c.FormFile("image")
	if err != nil {
		if isBodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file missing"})
		return
	}
	claimed := strings.TrimSpace(c.PostForm("user_input"))

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read image"})
		return
	}
	data, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read image"})
		return
	}

	reqID := c.GetString(ctxRequestID)
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()
	res, err := s.validator.Validate(ctx, data, claimed)
	if err != nil {
		status, msg := validationErrorStatus(err)
		log.Warnf("validate failed request_id=%s file=%q status=%d: %v", reqID, file.Filename, status, err)
		c.JSON(status, gin.H{"error": msg, "request_id": reqID})
		return
	}

	raw := res.RawTexts()
	if raw == nil {
		raw = []string{}
	}
	c.JSON(http.StatusOK, validateResponse{
		Detected:          res.ObservedDigits,
		BestMatch:         res.Match.MatchedText,
		UserInput:         claimed,
		SimilarityPercent: res.Match.Score,
		MatchCount:        res.Match.MatchCount,
		Tier:              res.Match.Tier,
		Status:            res.Match.Tier.Status(),
		RawDetections:     raw,
		DebugImage:        ocr.DataURI(res.Preview),
		RequestID:         reqID,
		ElapsedMS:         res.Elapsed.Milliseconds(),
	})
}

func validationErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ocr.ErrInvalidImage):
		return http.StatusBadRequest, "invalid image"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "recognition timed out"
	case errors.Is(err, ocr.ErrRecognition):
		return http.StatusBadGateway, "recognition failed"
	default:
		return http.StatusInternalServerError, "validation failed"
	}
}
