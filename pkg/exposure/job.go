package exposure

import (
	"gonum.org/v1/gonum/stat"

	"github.com/workplace-hygiene/noiseexposure/pkg/acoustics"
)

// MinJobSamples is the minimum number of samples for a job or full-day result.
const MinJobSamples = 3

type jobOutcome struct {
	laeq         float64
	lex          float64
	stdDev       float64
	measurements []Measurement
}

// jobStrategy energy-averages every sample of the group and scales the result
// to the effective working day.
func (s *snapshot) jobStrategy(g Group) (jobOutcome, bool) {
	var out jobOutcome

	out.measurements = s.groupMeasurements(g.ID)
	if len(out.measurements) < MinJobSamples {
		return out, false
	}

	values := levels(out.measurements)
	laeq, ok := acoustics.EnergyAverage(values)
	if !ok {
		return out, false
	}

	hours := g.EffectiveDurationHours
	if hours <= 0 {
		hours = acoustics.ReferenceDurationHours
	}
	lex, ok := acoustics.Normalize(laeq, hours, acoustics.ReferenceDurationHours)
	if !ok {
		return out, false
	}

	out.laeq = laeq
	out.lex = lex
	out.stdDev = stat.StdDev(values, nil)
	return out, true
}
