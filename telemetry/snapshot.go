package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph/config"
	"github.com/pthm-cable/sph/fluid"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// ErrSnapshotVersion is returned when loading a snapshot written by an
// incompatible version.
var ErrSnapshotVersion = errors.New("telemetry: unsupported snapshot version")

// Snapshot holds the particle state needed to resume a run.
type Snapshot struct {
	Version int    `json:"version"`
	Seed    int64  `json:"seed"`
	Reason  string `json:"reason,omitempty"` // "manual", "step_error", ...

	DomainWidth  float64 `json:"domain_width"`
	DomainHeight float64 `json:"domain_height"`

	Tick int64 `json:"tick"`

	Particles []ParticleState `json:"particles"`
}

// ParticleState holds one particle's state. Forces are not stored; they are
// recomputed from scratch by the next step. Non-finite values survive a
// save/load roundtrip.
type ParticleState struct {
	X, Y       float64
	VelX, VelY float64
	Density    float64
	Pressure   float64
}

// snapshotFloat encodes NaN and ±Inf as the JSON strings "NaN", "+Inf" and
// "-Inf". A snapshot taken after a failed step usually holds them.
type snapshotFloat float64

func (f snapshotFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (f *snapshotFloat) UnmarshalJSON(data []byte) error {
	text := string(data)
	if text == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(text); err == nil {
		switch unquoted {
		case "NaN", "+Inf", "-Inf":
			text = unquoted
		default:
			return fmt.Errorf("invalid snapshot number %s", text)
		}
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("invalid snapshot number %s: %w", text, err)
	}
	*f = snapshotFloat(v)
	return nil
}

// particleStateJSON is the on-disk form of ParticleState.
type particleStateJSON struct {
	X        snapshotFloat `json:"x"`
	Y        snapshotFloat `json:"y"`
	VelX     snapshotFloat `json:"vel_x"`
	VelY     snapshotFloat `json:"vel_y"`
	Density  snapshotFloat `json:"density"`
	Pressure snapshotFloat `json:"pressure"`
}

func (p ParticleState) MarshalJSON() ([]byte, error) {
	return json.Marshal(particleStateJSON{
		X:        snapshotFloat(p.X),
		Y:        snapshotFloat(p.Y),
		VelX:     snapshotFloat(p.VelX),
		VelY:     snapshotFloat(p.VelY),
		Density:  snapshotFloat(p.Density),
		Pressure: snapshotFloat(p.Pressure),
	})
}

func (p *ParticleState) UnmarshalJSON(data []byte) error {
	var s particleStateJSON
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*p = ParticleState{
		X:        float64(s.X),
		Y:        float64(s.Y),
		VelX:     float64(s.VelX),
		VelY:     float64(s.VelY),
		Density:  float64(s.Density),
		Pressure: float64(s.Pressure),
	}
	return nil
}

// NewSnapshot captures particles at the given tick.
func NewSnapshot(cfg *config.Config, tick int64, ps []fluid.Particle, reason string) *Snapshot {
	states := make([]ParticleState, len(ps))
	for i, p := range ps {
		states[i] = ParticleState{
			X:        p.Pos.X,
			Y:        p.Pos.Y,
			VelX:     p.Vel.X,
			VelY:     p.Vel.Y,
			Density:  p.Density,
			Pressure: p.Pressure,
		}
	}
	return &Snapshot{
		Version:      SnapshotVersion,
		Seed:         cfg.Seeding.Seed,
		Reason:       reason,
		DomainWidth:  cfg.Domain.Width,
		DomainHeight: cfg.Domain.Height,
		Tick:         tick,
		Particles:    states,
	}
}

// FluidParticles converts the stored states back to solver particles.
func (s *Snapshot) FluidParticles() []fluid.Particle {
	ps := make([]fluid.Particle, len(s.Particles))
	for i, st := range s.Particles {
		ps[i] = fluid.Particle{
			Pos:      r2.Vec{X: st.X, Y: st.Y},
			Vel:      r2.Vec{X: st.VelX, Y: st.VelY},
			Density:  st.Density,
			Pressure: st.Pressure,
		}
	}
	return ps
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Reason != "" {
		sanitized := strings.ReplaceAll(snapshot.Reason, " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrSnapshotVersion, snapshot.Version)
	}

	return &snapshot, nil
}
