package main

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meterocr/pkg/ocr"
)

var appEnvKeys = []string{
	"PORT", "OCR_BACKEND", "OCR_REMOTE_URL", "OCR_WORKERS", "OCR_LANG", "OCR_PSM",
	"PIPELINE_CONFIG", "VALIDATE_TIMEOUT", "MAX_UPLOAD_MB", "API_JWT_SECRET",
	"CORS_ORIGINS", "LOG_LEVEL", "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT",
}

func clearAppEnv(t *testing.T) {
	for _, k := range appEnvKeys {
		t.Setenv(k, "")
	}
}

func TestLoadAppConfigDefaults(t *testing.T) {
	clearAppEnv(t)
	cfg, err := loadAppConfig()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, ocr.BackendTesseract, cfg.Backend)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, []string{"eng"}, cfg.Languages)
	assert.Equal(t, 11, cfg.PageSegMode)
	assert.Equal(t, 30*time.Second, cfg.ValidateTimeout)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Empty(t, cfg.JWTSecret)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadAppConfigOverrides(t *testing.T) {
	clearAppEnv(t)
	t.Setenv("OCR_BACKEND", "Remote")
	t.Setenv("OCR_REMOTE_URL", "http://easyocr:8000")
	t.Setenv("OCR_WORKERS", "3")
	t.Setenv("OCR_LANG", "eng, deu")
	t.Setenv("VALIDATE_TIMEOUT", "2s")
	t.Setenv("MAX_UPLOAD_MB", "4")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	cfg, err := loadAppConfig()
	require.NoError(t, err)
	assert.Equal(t, ocr.BackendRemote, cfg.Backend)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, []string{"eng", "deu"}, cfg.Languages)
	assert.Equal(t, 2*time.Second, cfg.ValidateTimeout)
	assert.Equal(t, int64(4<<20), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadAppConfigInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"backend":       {"OCR_BACKEND": "paddle"},
		"remote no url": {"OCR_BACKEND": "remote"},
		"workers":       {"OCR_WORKERS": "0"},
		"workers nan":   {"OCR_WORKERS": "many"},
		"psm":           {"OCR_PSM": "14"},
		"timeout":       {"VALIDATE_TIMEOUT": "soon"},
		"timeout zero":  {"VALIDATE_TIMEOUT": "0s"},
		"upload":        {"MAX_UPLOAD_MB": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearAppEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := loadAppConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nMETEROCR_A=from-file\nexport METEROCR_B=\"quoted\"\nMETEROCR_C=kept\nbroken line\n"), 0o600))
	t.Setenv("METEROCR_C", "from-env")
	t.Cleanup(func() {
		os.Unsetenv("METEROCR_A")
		os.Unsetenv("METEROCR_B")
	})
	loadDotEnv(path)
	assert.Equal(t, "from-file", os.Getenv("METEROCR_A"))
	assert.Equal(t, "quoted", os.Getenv("METEROCR_B"))
	assert.Equal(t, "from-env", os.Getenv("METEROCR_C"))
}
