package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/sph/config"
)

// CSVLog appends gocsv-tagged rows to a file, writing the header with the
// first batch only.
type CSVLog struct {
	f           *os.File
	wroteHeader bool
}

// CreateCSVLog creates (or truncates) path.
func CreateCSVLog(path string) (*CSVLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	return &CSVLog{f: f}, nil
}

// Write appends rows, which must be a slice of gocsv-tagged structs.
func (l *CSVLog) Write(rows any) error {
	var err error
	if l.wroteHeader {
		err = gocsv.MarshalWithoutHeaders(rows, l.f)
	} else {
		err = gocsv.Marshal(rows, l.f)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(l.f.Name()), err)
	}
	l.wroteHeader = true
	return nil
}

// Close closes the underlying file.
func (l *CSVLog) Close() error {
	return l.f.Close()
}

// OutputManager owns a run's output directory: telemetry.csv, perf.csv, the
// config copy and snapshots. A nil *OutputManager means output is disabled;
// every method is then a no-op.
type OutputManager struct {
	dir       string
	telemetry *CSVLog
	perf      *CSVLog
}

// NewOutputManager creates dir and opens the CSV logs in it.
// Returns nil if dir is empty.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	telemetry, err := CreateCSVLog(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		return nil, err
	}
	perf, err := CreateCSVLog(filepath.Join(dir, "perf.csv"))
	if err != nil {
		telemetry.Close()
		return nil, err
	}

	return &OutputManager{dir: dir, telemetry: telemetry, perf: perf}, nil
}

// WriteConfig saves the run configuration as config.yaml.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry appends a window to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.telemetry.Write([]WindowStats{stats})
}

// WritePerf appends a perf row to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int64, particles int) error {
	if om == nil {
		return nil
	}
	return om.perf.Write([]PerfStatsCSV{stats.ToCSV(windowEnd, particles)})
}

// WriteSnapshot saves a particle snapshot into the output directory.
// Returns the path written, or "" when output is disabled.
func (om *OutputManager) WriteSnapshot(snapshot *Snapshot) (string, error) {
	if om == nil {
		return "", nil
	}
	return SaveSnapshot(snapshot, om.dir)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes both CSV logs.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	return errors.Join(om.telemetry.Close(), om.perf.Close())
}
