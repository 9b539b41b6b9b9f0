package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"meterocr/pkg/ocr"
)

// appConfig is the process configuration read from the environment.
type appConfig struct {
	Port            string
	Backend         string
	RemoteURL       string
	Workers         int
	Languages       []string
	PageSegMode     int
	PipelineConfig  string
	ValidateTimeout time.Duration
	MaxUploadBytes  int64
	JWTSecret       []byte
	CORSOrigins     []string
	LogLevel        string
	OTLPEndpoint    string
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func loadAppConfig() (appConfig, error) {
	cfg := appConfig{
		Port:           getEnv("PORT", "5000"),
		Backend:        strings.ToLower(getEnv("OCR_BACKEND", ocr.BackendTesseract)),
		RemoteURL:      getEnv("OCR_REMOTE_URL", ""),
		Languages:      splitList(getEnv("OCR_LANG", "eng")),
		PipelineConfig: getEnv("PIPELINE_CONFIG", ""),
		JWTSecret:      []byte(getEnv("API_JWT_SECRET", "")),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", ""),
	}

	var err error
	if cfg.Workers, err = getEnvInt("OCR_WORKERS", runtime.NumCPU()); err != nil {
		return cfg, err
	}
	if cfg.Workers < 1 {
		return cfg, fmt.Errorf("OCR_WORKERS must be >= 1, got %d", cfg.Workers)
	}
	if cfg.PageSegMode, err = getEnvInt("OCR_PSM", 11); err != nil {
		return cfg, err
	}
	if cfg.PageSegMode < 0 || cfg.PageSegMode > 13 {
		return cfg, fmt.Errorf("OCR_PSM must be 0-13, got %d", cfg.PageSegMode)
	}
	if cfg.ValidateTimeout, err = time.ParseDuration(getEnv("VALIDATE_TIMEOUT", "30s")); err != nil {
		return cfg, fmt.Errorf("VALIDATE_TIMEOUT: %w", err)
	}
	if cfg.ValidateTimeout <= 0 {
		return cfg, fmt.Errorf("VALIDATE_TIMEOUT must be positive")
	}
	mb, err := getEnvInt("MAX_UPLOAD_MB", 10)
	if err != nil {
		return cfg, err
	}
	if mb < 1 {
		return cfg, fmt.Errorf("MAX_UPLOAD_MB must be >= 1, got %d", mb)
	}
	cfg.MaxUploadBytes = int64(mb) << 20

	switch cfg.Backend {
	case ocr.BackendTesseract:
	case ocr.BackendRemote:
		if cfg.RemoteURL == "" {
			return cfg, fmt.Errorf("OCR_REMOTE_URL is required when OCR_BACKEND=remote")
		}
	default:
		return cfg, fmt.Errorf("unknown OCR_BACKEND %q (want tesseract or remote)", cfg.Backend)
	}
	return cfg, nil
}

// loadDotEnv loads key=value pairs from a local .env file into the environment
// without overwriting variables that are already set. Lines starting with # are ignored.
func loadDotEnv(path string) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return // no .env file
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		// split on first '='
		if eq := strings.IndexByte(line, '='); eq > 0 {
			key := strings.TrimSpace(line[:eq])
			val := strings.Trim(strings.TrimSpace(line[eq+1:]), `"'`)
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, val)
			}
		}
	}
}
