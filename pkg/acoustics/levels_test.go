package acoustics

import (
	"math"
	"testing"
)

func TestEnergyAverage(t *testing.T) {
	tests := []struct {
		name     string
		levels   []float64
		expected float64
		epsilon  float64
	}{
		{
			name:     "single level",
			levels:   []float64{85.0},
			expected: 85.0,
			epsilon:  1e-9,
		},
		{
			name:     "identical levels",
			levels:   []float64{90.0, 90.0, 90.0},
			expected: 90.0,
			epsilon:  1e-9,
		},
		{
			name:     "ten dB apart",
			levels:   []float64{80.0, 90.0},
			expected: 87.40,
			epsilon:  0.01,
		},
		{
			name:     "three task samples",
			levels:   []float64{85.0, 86.0, 87.0},
			expected: 86.08,
			epsilon:  0.01,
		},
		{
			name:     "five job samples",
			levels:   []float64{82, 83, 84, 85, 86},
			expected: 84.23,
			epsilon:  0.01,
		},
		{
			name:     "very high levels do not overflow",
			levels:   []float64{3000, 3000},
			expected: 3000,
			epsilon:  1e-6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EnergyAverage(tt.levels)
			if !ok {
				t.Fatalf("expected a result for %v", tt.levels)
			}
			if math.Abs(got-tt.expected) > tt.epsilon {
				t.Errorf("EnergyAverage(%v) = %.4f, expected %.4f ± %.4f", tt.levels, got, tt.expected, tt.epsilon)
			}
		})
	}
}

func TestEnergyAverageIsNotArithmetic(t *testing.T) {
	got, _ := EnergyAverage([]float64{80, 90})
	arithmetic := 85.0
	if math.Abs(90-got) >= math.Abs(90-arithmetic) {
		t.Errorf("energy average %.2f should sit closer to 90 dB than the arithmetic mean", got)
	}
}

func TestEnergyAverageEmpty(t *testing.T) {
	got, ok := EnergyAverage(nil)
	if ok {
		t.Fatal("expected no result for an empty input")
	}
	if !math.IsInf(got, -1) {
		t.Errorf("expected -Inf sentinel, got %v", got)
	}
}

func TestEnergyAverageMonotonic(t *testing.T) {
	base := []float64{78.2, 81.5, 84.0, 79.9}
	avg, _ := EnergyAverage(base)

	for _, extra := range []float64{avg + 0.01, avg + 1, avg + 10, avg + 40} {
		levels := append(append([]float64{}, base...), extra)
		got, _ := EnergyAverage(levels)
		if got < avg {
			t.Errorf("adding %.2f lowered the average from %.4f to %.4f", extra, avg, got)
		}
	}
}

func TestEnergySum(t *testing.T) {
	got, ok := EnergySum([]float64{90, 90})
	if !ok {
		t.Fatal("expected a result")
	}
	if math.Abs(got-93.01) > 0.01 {
		t.Errorf("EnergySum(90, 90) = %.3f, expected 93.01", got)
	}

	if _, ok := EnergySum([]float64{}); ok {
		t.Error("expected no result for an empty input")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		level    float64
		hours    float64
		expected float64
		ok       bool
	}{
		{"full shift", 85.0, 8, 85.0, true},
		{"one hour", 86.08, 1, 77.05, true},
		{"double shift", 85.0, 16, 88.01, true},
		{"zero duration", 85.0, 0, math.Inf(-1), false},
		{"negative duration", 85.0, -1, math.Inf(-1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.level, tt.hours, ReferenceDurationHours)
			if ok != tt.ok {
				t.Fatalf("ok = %v, expected %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if math.Abs(got-tt.expected) > 0.01 {
				t.Errorf("Normalize(%.2f, %.1f) = %.3f, expected %.2f", tt.level, tt.hours, got, tt.expected)
			}
		})
	}
}

func TestPowerRoundTrip(t *testing.T) {
	for _, l := range []float64{0, 42.5, 85, 140} {
		if got := FromPower(ToPower(l)); math.Abs(got-l) > 1e-9 {
			t.Errorf("FromPower(ToPower(%v)) = %v", l, got)
		}
	}
	if !math.IsInf(FromPower(0), -1) {
		t.Error("FromPower(0) should be -Inf")
	}
}

func TestSpread(t *testing.T) {
	if got := Spread([]float64{84.1}); got != 0 {
		t.Errorf("Spread of one value = %v, expected 0", got)
	}
	if got := Spread([]float64{84, 89.5, 86}); math.Abs(got-5.5) > 1e-9 {
		t.Errorf("Spread = %v, expected 5.5", got)
	}
}
