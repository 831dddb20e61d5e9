package statistics

import (
	"math"
	"testing"
)

func TestPassRate(t *testing.T) {
	tests := []struct {
		name   string
		passes []bool
		want   float64
	}{
		{"empty", nil, 0.0},
		{"all passed", []bool{true, true, true}, 1.0},
		{"none passed", []bool{false, false}, 0.0},
		{"half passed", []bool{true, false, true, false}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PassRate(tt.passes); got != tt.want {
				t.Errorf("PassRate(%v) = %f, want %f", tt.passes, got, tt.want)
			}
		})
	}
}

func TestFlaky(t *testing.T) {
	tests := []struct {
		successful, total int
		want              bool
	}{
		{0, 3, false},
		{3, 3, false},
		{1, 3, true},
		{2, 3, true},
		{0, 0, false},
	}

	for _, tt := range tests {
		if got := Flaky(tt.successful, tt.total); got != tt.want {
			t.Errorf("Flaky(%d, %d) = %v, want %v", tt.successful, tt.total, got, tt.want)
		}
	}
}

func TestBinarySamples(t *testing.T) {
	got := BinarySamples([]bool{true, false, true})
	want := []float64{1.0, 0.0, 1.0}
	if len(got) != len(want) {
		t.Fatalf("BinarySamples() length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestBootstrapCI_FewerThanTwoSamples(t *testing.T) {
	ci := BootstrapCI(nil, 0.95)
	if ci.Mean != 0.0 || ci.Lower != 0.0 || ci.Upper != 0.0 {
		t.Errorf("expected zero CI for empty input, got %+v", ci)
	}

	ci = BootstrapCI([]float64{0.75}, 0.95)
	if ci.Mean != 0.75 || ci.Lower != 0.75 || ci.Upper != 0.75 {
		t.Errorf("expected degenerate CI for single value, got %+v", ci)
	}
}

func TestBootstrapCI_IdenticalValues(t *testing.T) {
	ci := BootstrapCIWithSeed([]float64{0.5, 0.5, 0.5, 0.5}, 0.95, 42)
	if math.Abs(ci.Lower-0.5) > 1e-9 || math.Abs(ci.Upper-0.5) > 1e-9 {
		t.Errorf("expected CI [0.5, 0.5] for identical values, got [%f, %f]", ci.Lower, ci.Upper)
	}
}

func TestBootstrapCI_MixedOutcomes(t *testing.T) {
	samples := BinarySamples([]bool{true, true, false, true, false, true, true, true, false, true})
	ci := BootstrapCIWithSeed(samples, 0.95, 42)

	if math.Abs(ci.Mean-0.7) > 1e-9 {
		t.Errorf("mean = %f, want 0.7", ci.Mean)
	}
	if ci.Lower >= ci.Upper {
		t.Errorf("expected a non-degenerate interval, got [%f, %f]", ci.Lower, ci.Upper)
	}
	if ci.Lower < 0 || ci.Upper > 1.0 {
		t.Errorf("CI must stay within [0, 1], got [%f, %f]", ci.Lower, ci.Upper)
	}
	if ci.Resamples != DefaultResamples {
		t.Errorf("resamples = %d, want %d", ci.Resamples, DefaultResamples)
	}
}

func TestBootstrapCI_Reproducible(t *testing.T) {
	samples := []float64{0.1, 0.4, 0.6, 0.9}
	a := BootstrapCIWithSeed(samples, 0.95, 7)
	b := BootstrapCIWithSeed(samples, 0.95, 7)
	if a.Lower != b.Lower || a.Upper != b.Upper {
		t.Errorf("same seed produced different intervals: %+v vs %+v", a, b)
	}
}
