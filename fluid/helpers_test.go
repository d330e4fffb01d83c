package fluid

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph/config"
)

// testConfig returns the embedded defaults with a fixed seed.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Seeding.Seed = 1
	return cfg
}

func testParams(t *testing.T) Params {
	t.Helper()
	p, err := ParamsFromConfig(testConfig())
	if err != nil {
		t.Fatalf("ParamsFromConfig: %v", err)
	}
	return p
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSolver(t *testing.T, cfg *config.Config, opts ...Option) *Solver {
	t.Helper()
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	s, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

// storeOf builds a store holding particles at the given positions.
func storeOf(positions ...r2.Vec) *Store {
	s := NewStore(len(positions) + 8)
	for _, p := range positions {
		s.Add(p)
	}
	return s
}

func vecFinite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
