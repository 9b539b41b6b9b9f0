package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/otiai10/gosseract/v2"
	"github.com/rs/cors"

	"meterocr/pkg/log"
	"meterocr/pkg/metrics"
	"meterocr/pkg/ocr"
)

func main() {
	// Auto-load ./.env if present before reading vars
	loadDotEnv(".env")
	if err := run(); err != nil {
		log.Fatalf("%v", err)
	}
}

// run returns instead of exiting so deferred cleanup (recognizer, metrics
// flush) always happens.
func run() error {
	cfg, err := loadAppConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log.SetLevel(cfg.LogLevel)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	pipeline, err := ocr.LoadConfig(cfg.PipelineConfig)
	if err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec, err := newRecognizer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("recognizer: %w", err)
	}
	defer func() {
		if err := rec.Close(); err != nil {
			log.Errorf("close recognizer: %v", err)
		}
	}()

	recorder, shutdownMetrics, err := metrics.Start(ctx, cfg.OTLPEndpoint, serviceVersion, 0)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(flushCtx); err != nil {
			log.Errorf("metrics shutdown: %v", err)
		}
	}()

	validator, err := ocr.NewValidator(rec, pipeline, ocr.WithObserver(recorder))
	if err != nil {
		return fmt.Errorf("validator: %w", err)
	}

	engine := newEngine(&server{
		validator: validator,
		backend:   rec.Name(),
		timeout:   cfg.ValidateTimeout,
		maxUpload: cfg.MaxUploadBytes,
		jwtSecret: cfg.JWTSecret,
	})
	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", headerRequestID},
		ExposedHeaders: []string{headerRequestID},
	}).Handler(engine)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Infof("listening on %s backend=%s workers=%d auth=%t", srv.Addr, rec.Name(), cfg.Workers, len(cfg.JWTSecret) > 0)
	return serve(ctx, srv, cfg.ValidateTimeout+5*time.Second)
}

// serve runs srv until ctx is done, then drains in-flight requests for at
// most grace. A listener failure is returned without waiting for ctx.
func serve(ctx context.Context, srv *http.Server, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// newRecognizer builds the configured engine once and health-checks a remote
// sidecar so a misconfigured URL shows up in the startup log.
func newRecognizer(ctx context.Context, cfg appConfig) (ocr.NamedRecognizer, error) {
	rec, err := ocr.NewBackend(ocr.BackendOptions{
		Backend:       cfg.Backend,
		RemoteURL:     cfg.RemoteURL,
		RemoteTimeout: cfg.ValidateTimeout,
		Tesseract: ocr.TesseractOptions{
			Workers:     cfg.Workers,
			Languages:   cfg.Languages,
			PageSegMode: gosseract.PageSegMode(cfg.PageSegMode),
		},
	})
	if err != nil {
		return nil, err
	}
	if remote, ok := rec.(*ocr.Remote); ok {
		healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := remote.CheckHealth(healthCtx); err != nil {
			log.Warnf("remote recognizer not healthy yet: %v", err)
		}
	}
	return rec, nil
}
