package telemetry

import (
	"math"
	"testing"
)

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.0},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.0},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Quantile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Quantile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeDistribution(t *testing.T) {
	values := []float64{1.0, 0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2, 0.1}
	d, scratch := ComputeDistribution(values, nil)

	if math.Abs(d.Mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", d.Mean)
	}
	if d.Min != 0.1 || d.Max != 1.0 {
		t.Errorf("range = [%v, %v], want [0.1, 1]", d.Min, d.Max)
	}
	if d.P50 != 0.5 {
		t.Errorf("p50 = %v, want 0.5", d.P50)
	}
	if d.P90 != 0.9 {
		t.Errorf("p90 = %v, want 0.9", d.P90)
	}

	// Input order is preserved; the sorted copy lives in scratch
	if values[0] != 1.0 {
		t.Error("input slice was reordered")
	}
	if len(scratch) != len(values) || scratch[0] != 0.1 {
		t.Errorf("scratch = %v", scratch)
	}
}

func TestComputeDistributionEmpty(t *testing.T) {
	d, _ := ComputeDistribution(nil, nil)
	if d != (Distribution{}) {
		t.Errorf("empty input should return zero distribution, got %+v", d)
	}
}
