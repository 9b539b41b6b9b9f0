// Package batch validates directories of meter photos whose claimed reading
// is encoded in the filename.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"meterocr/pkg/log"
	"meterocr/pkg/ocr"
)

// claimRE matches "<anything>_<digits>.<ext>" and "<digits>.<ext>".
var claimRE = regexp.MustCompile(`^(?:.*_)?(\d+)\.[A-Za-z0-9]+$`)

// ClaimFromFilename extracts the claimed reading from a file name.
func ClaimFromFilename(name string) (string, bool) {
	m := claimRE.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsSupportedExt reports whether name looks like a decodable photo.
func IsSupportedExt(name string) bool {
	// ignore debug artefacts written next to the inputs
	if strings.Contains(name, ".enhanced.") || strings.Contains(name, ".suppressed.") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tif", ".tiff":
		return true
	}
	return false
}

// ListImageFiles returns the supported files directly under dir, sorted.
func ListImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// Options configures Run.
type Options struct {
	Dir string
	// ProcessedDir receives each file after validation when set.
	ProcessedDir string
	// Workers sizes the pool; it should not exceed the recognizer's pool.
	Workers int
	// Timeout bounds one validation.
	Timeout time.Duration
	// Watch keeps running after the initial scan until ctx is done.
	Watch bool
	// Output receives one JSON record per file. Nil means os.Stdout.
	Output io.Writer
}

// Record is one line of batch output.
type Record struct {
	File      string   `json:"file"`
	RequestID string   `json:"request_id"`
	Observed  string   `json:"observed"`
	Claimed   string   `json:"claimed"`
	Score     float64  `json:"score"`
	Tier      ocr.Tier `json:"tier,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Summary counts outcomes of a run.
type Summary struct {
	Processed int `json:"processed"`
	Accepted  int `json:"accepted"`
	Partial   int `json:"partial"`
	Rejected  int `json:"rejected"`
	Failed    int `json:"failed"`
}

type runner struct {
	v    *ocr.Validator
	opts Options
	pool *ants.PoolWithFunc
	wg   sync.WaitGroup

	mu  sync.Mutex
	enc *json.Encoder
	// inflight holds names queued or being validated; a name leaves it when
	// its record is written so a later file with the same name runs again.
	inflight map[string]bool
	summary  Summary
}

// Run validates every supported file in opts.Dir on a worker pool, then
// optionally watches for new files. It returns once all submitted files are
// done.
func Run(ctx context.Context, v *ocr.Validator, opts Options) (Summary, error) {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ProcessedDir != "" {
		if err := os.MkdirAll(opts.ProcessedDir, 0o755); err != nil {
			return Summary{}, fmt.Errorf("create processed dir: %w", err)
		}
	}
	// The watcher is armed before the scan so a file landing in between is
	// seen by one or the other.
	var w *fsnotify.Watcher
	if opts.Watch {
		var err error
		if w, err = newDirWatcher(opts.Dir); err != nil {
			return Summary{}, fmt.Errorf("watch %s: %w", opts.Dir, err)
		}
		defer w.Close()
	}
	files, err := ListImageFiles(opts.Dir)
	if err != nil {
		return Summary{}, fmt.Errorf("scan %s: %w", opts.Dir, err)
	}

	r := &runner{v: v, opts: opts, enc: json.NewEncoder(opts.Output), inflight: map[string]bool{}}
	r.pool, err = ants.NewPoolWithFunc(opts.Workers, func(args any) {
		name, ok := args.(string)
		if !ok {
			panic("batch pool args type error")
		}
		defer r.wg.Done()
		defer r.release(name)
		if rec, ok := r.process(ctx, name); ok {
			r.emit(rec)
		}
	})
	if err != nil {
		return Summary{}, fmt.Errorf("create batch pool: %w", err)
	}
	defer r.pool.Release()

	log.Infof("scanning %d files in %s (workers=%d)", len(files), opts.Dir, opts.Workers)
	for _, name := range files {
		r.submit(name)
	}
	if w != nil {
		err = r.watch(ctx, w)
	}
	r.wg.Wait()
	return r.summary, err
}

// submit queues name unless it is already in flight; Invoke blocks while
// all workers are busy.
func (r *runner) submit(name string) {
	r.mu.Lock()
	if r.inflight[name] {
		r.mu.Unlock()
		return
	}
	r.inflight[name] = true
	r.mu.Unlock()

	r.wg.Add(1)
	if err := r.pool.Invoke(name); err != nil {
		r.wg.Done()
		r.emit(Record{File: name, Error: fmt.Sprintf("submit: %v", err)})
		r.release(name)
	}
}

func (r *runner) release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, name)
}

// process validates one file. It reports false when the file vanished
// before it could be read, e.g. a watch event for a file the scan already
// moved to ProcessedDir.
func (r *runner) process(ctx context.Context, name string) (Record, bool) {
	rec := Record{File: name, RequestID: uuid.NewString()}
	claimed, ok := ClaimFromFilename(name)
	if !ok {
		rec.Error = "no claimed reading in file name"
		return rec, true
	}
	rec.Claimed = claimed

	path := filepath.Join(r.opts.Dir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debugf("skip %s: no longer in %s", name, r.opts.Dir)
		return rec, false
	}
	if err != nil {
		rec.Error = err.Error()
		return rec, true
	}
	vctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	res, err := r.v.Validate(vctx, data, claimed)
	cancel()
	if err != nil {
		rec.Error = err.Error()
		return rec, true
	}
	rec.Observed = res.ObservedDigits
	rec.Score = res.Match.Score
	rec.Tier = res.Match.Tier
	log.Debugf("validated %s observed=%s claimed=%s tier=%s", name, rec.Observed, claimed, rec.Tier)

	if r.opts.ProcessedDir != "" {
		if err := moveToProcessed(path, filepath.Join(r.opts.ProcessedDir, name)); err != nil {
			log.Warnf("move %s to processed: %v", name, err)
		}
	}
	return rec, true
}

func (r *runner) emit(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.Processed++
	switch {
	case rec.Error != "":
		r.summary.Failed++
	case rec.Tier == ocr.TierAccept:
		r.summary.Accepted++
	case rec.Tier == ocr.TierPartial:
		r.summary.Partial++
	default:
		r.summary.Rejected++
	}
	if err := r.enc.Encode(rec); err != nil {
		log.Errorf("write record for %s: %v", rec.File, err)
	}
}
