// Package acoustics provides sound level arithmetic in the energy (power) domain.
// Levels in dB are never averaged arithmetically; every aggregate goes through
// 10^(L/10) and back.
package acoustics

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ReferenceDurationHours is the nominal shift length used to normalise daily exposure.
const ReferenceDurationHours = 8.0

// dBPerNeper converts between 10*log10 and the natural log: L = dBPerNeper * ln(p)
var dBPerNeper = 10 / math.Ln10

// ToPower converts a level in dB to a relative power (10^(L/10)).
func ToPower(level float64) float64 {
	return math.Pow(10, level/10)
}

// FromPower converts a relative power back to dB. Non-positive powers yield -Inf.
func FromPower(power float64) float64 {
	if power <= 0 || math.IsNaN(power) {
		return math.Inf(-1)
	}
	return 10 * math.Log10(power)
}

// EnergySum returns the level of the summed powers of levels.
// The second return value is false when levels is empty.
func EnergySum(levels []float64) (float64, bool) {
	if len(levels) == 0 {
		return math.Inf(-1), false
	}

	// Work in natural-log units so LogSumExp can factor out the largest term
	scaled := make([]float64, len(levels))
	for i, l := range levels {
		scaled[i] = l / dBPerNeper
	}
	sum := dBPerNeper * floats.LogSumExp(scaled)
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return math.Inf(-1), false
	}
	return sum, true
}

// EnergyAverage returns the power-domain mean of levels in dB.
// An empty input yields (-Inf, false) rather than an error.
func EnergyAverage(levels []float64) (float64, bool) {
	sum, ok := EnergySum(levels)
	if !ok {
		return sum, false
	}
	return sum - 10*math.Log10(float64(len(levels))), true
}

// Normalize scales a level measured over hours to its equivalent over referenceHours:
// level + 10*log10(hours/referenceHours).
func Normalize(level, hours, referenceHours float64) (float64, bool) {
	if hours <= 0 || referenceHours <= 0 || math.IsInf(level, 0) || math.IsNaN(level) {
		return math.Inf(-1), false
	}
	return level + 10*math.Log10(hours/referenceHours), true
}

// Spread returns max-min of levels, or 0 for fewer than two values.
func Spread(levels []float64) float64 {
	if len(levels) < 2 {
		return 0
	}
	return floats.Max(levels) - floats.Min(levels)
}
