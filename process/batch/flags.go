package batch

import (
	"flag"
	"runtime"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"meterocr/pkg/ocr"
)

// EngineFlags are the recognizer and pipeline flags shared by the tools.
type EngineFlags struct {
	Backend   string
	RemoteURL string
	Workers   int
	Lang      string
	PSM       int
	Config    string
	Timeout   time.Duration
}

// Register binds the flags on fs.
func (f *EngineFlags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Backend, "backend", ocr.BackendTesseract, "recognizer backend: tesseract or remote")
	fs.StringVar(&f.RemoteURL, "remote-url", "", "base URL of the remote recognizer")
	fs.IntVar(&f.Workers, "workers", runtime.NumCPU(), "engine pool and worker count")
	fs.StringVar(&f.Lang, "lang", "eng", "comma separated tesseract languages")
	fs.IntVar(&f.PSM, "psm", int(gosseract.PSM_SPARSE_TEXT), "tesseract page segmentation mode")
	fs.StringVar(&f.Config, "config", "", "pipeline YAML overriding the defaults")
	fs.DurationVar(&f.Timeout, "timeout", 30*time.Second, "per-file validation timeout")
}

// PipelineConfig loads -config over the defaults.
func (f *EngineFlags) PipelineConfig() (ocr.Config, error) {
	return ocr.LoadConfig(f.Config)
}

// Build constructs the recognizer and a Validator on top of it. The caller
// closes the recognizer.
func (f *EngineFlags) Build() (*ocr.Validator, ocr.NamedRecognizer, error) {
	cfg, err := f.PipelineConfig()
	if err != nil {
		return nil, nil, err
	}
	rec, err := ocr.NewBackend(ocr.BackendOptions{
		Backend:       f.Backend,
		RemoteURL:     f.RemoteURL,
		RemoteTimeout: f.Timeout,
		Tesseract: ocr.TesseractOptions{
			Workers:     f.Workers,
			Languages:   strings.Split(f.Lang, ","),
			PageSegMode: gosseract.PageSegMode(f.PSM),
		},
	})
	if err != nil {
		return nil, nil, err
	}
	v, err := ocr.NewValidator(rec, cfg)
	if err != nil {
		_ = rec.Close()
		return nil, nil, err
	}
	return v, rec, nil
}
