// Package trace records every frame crossing the serial link to CSV files
// with automatic rotation, for offline protocol debugging.
package trace

import (
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/openlowpan/rcpd/internal/spinel"
)

// Config holds trace configuration.
type Config struct {
	Enabled bool   `yaml:"enabled" json:"enabled" env:"RCPD_TRACE_ENABLED"`
	Path    string `yaml:"path" json:"path" env:"RCPD_TRACE_PATH"`
}

const maxRowsPerFile = 100_000 // rotate well before files become unwieldy

var csvHeader = []string{
	"timestamp", "dir", "tid", "command", "property", "len", "payload",
}

// Tracer writes one CSV row per frame. Safe for concurrent use.
type Tracer struct {
	mu      sync.Mutex
	dir     string
	enabled bool
	log     zerolog.Logger

	file   *os.File
	writer *csv.Writer
	rows   int
}

func New(cfg Config, log zerolog.Logger) *Tracer {
	if cfg.Path == "" {
		cfg.Path = "/var/log/rcpd"
	}
	return &Tracer{
		dir:     cfg.Path,
		enabled: cfg.Enabled,
		log:     log,
	}
}

// SetEnabled toggles tracing at runtime.
func (t *Tracer) SetEnabled(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = on
	if !on && t.file != nil {
		t.closeFile()
	}
}

// IsEnabled returns whether tracing is active.
func (t *Tracer) IsEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// Record writes one frame. dir is "out" for host-to-device, "in" for
// device-to-host.
func (t *Tracer) Record(dir string, f spinel.Frame) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled {
		return
	}

	if t.writer == nil || t.rows >= maxRowsPerFile {
		if err := t.rotateFile(time.Now()); err != nil {
			t.log.Warn().Err(err).Msg("trace rotate failed")
			return
		}
	}

	if err := t.writer.Write(buildRow(time.Now(), dir, f)); err != nil {
		t.log.Warn().Err(err).Msg("trace write failed")
		return
	}
	t.writer.Flush()
	t.rows++
}

// Close flushes and closes the current trace file.
func (t *Tracer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeFile()
}

func (t *Tracer) rotateFile(now time.Time) error {
	t.closeFile()

	if err := os.MkdirAll(t.dir, 0755); err != nil {
		return fmt.Errorf("trace: mkdir %s: %w", t.dir, err)
	}

	path := filepath.Join(t.dir, fmt.Sprintf("rcpd_%s.csv", now.Format("2006-01-02_150405")))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("trace: create %s: %w", path, err)
	}

	t.file = f
	t.writer = csv.NewWriter(f)
	t.rows = 0

	if err := t.writer.Write(csvHeader); err != nil {
		return err
	}
	t.writer.Flush()

	t.log.Info().Str("path", path).Msg("opened trace file")
	return nil
}

func (t *Tracer) closeFile() {
	if t.writer != nil {
		t.writer.Flush()
		t.writer = nil
	}
	if t.file != nil {
		t.file.Close()
		t.file = nil
	}
}

func buildRow(ts time.Time, dir string, f spinel.Frame) []string {
	prop := ""
	if p, ok := f.Property(); ok {
		prop = p.Name()
	}
	return []string{
		ts.Format(time.RFC3339Nano),
		dir,
		strconv.Itoa(int(f.TID)),
		f.Command.Name(),
		prop,
		strconv.Itoa(len(f.Payload)),
		hex.EncodeToString(f.Payload),
	}
}
