package trace

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/openlowpan/rcpd/internal/spinel"
)

func TestRecordWritesRows(t *testing.T) {
	dir := t.TempDir()
	tr := New(Config{Enabled: true, Path: dir}, zerolog.Nop())
	defer tr.Close()

	f, err := spinel.NewPropertyGetFrame(3, spinel.PropPhyChan)
	if err != nil {
		t.Fatalf("build frame: %v", err)
	}
	tr.Record("out", f)
	tr.Close()

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("trace files: %v, err=%v", entries, err)
	}

	file, err := os.Open(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: got %d, want header plus one", len(rows))
	}

	row := rows[1]
	if row[1] != "out" || row[2] != "3" {
		t.Fatalf("dir/tid: got %q %q", row[1], row[2])
	}
	if row[3] != "PROP_VALUE_GET" {
		t.Fatalf("command: got %q", row[3])
	}
	if row[4] != "PROP_PHY_CHAN" {
		t.Fatalf("property: got %q", row[4])
	}
	if !strings.EqualFold(row[6], "21") {
		t.Fatalf("payload hex: got %q", row[6])
	}
}

func TestDisabledTracerWritesNothing(t *testing.T) {
	dir := t.TempDir()
	tr := New(Config{Enabled: false, Path: dir}, zerolog.Nop())
	defer tr.Close()

	f, _ := spinel.NewNoopFrame(0)
	tr.Record("out", f)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no trace files, found %d", len(entries))
	}
}

func TestToggleClosesFile(t *testing.T) {
	dir := t.TempDir()
	tr := New(Config{Enabled: true, Path: dir}, zerolog.Nop())
	defer tr.Close()

	f, _ := spinel.NewNoopFrame(1)
	tr.Record("out", f)
	tr.SetEnabled(false)
	if tr.IsEnabled() {
		t.Fatal("tracer still enabled")
	}
	tr.Record("out", f)
	tr.SetEnabled(true)
	tr.Record("in", f)
	tr.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("trace files: got %d, want 2 after reopen", len(entries))
	}
}
