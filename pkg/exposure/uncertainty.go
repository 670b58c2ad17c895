package exposure

import "math"

const (
	// PositionUncertainty is u3, the microphone position uncertainty in dB.
	PositionUncertainty = 1.0

	// CoverageFactor gives a one-sided 95 % confidence interval.
	CoverageFactor = 1.65

	// PlanRevisionThreshold is the c1*u1 above which the measurement plan should be revised.
	PlanRevisionThreshold = 3.5

	// DefaultFallbackInstrumentUncertainty applies when no instrument is linked (class 2).
	DefaultFallbackInstrumentUncertainty = 1.5
)

// Uncertainty holds the components of the combined standard uncertainty. Each
// component is already multiplied by its sensitivity coefficient, so
// Combined² = Sampling² + Duration² + Instrument² + Position².
type Uncertainty struct {
	Sampling   float64 `json:"sampling" msgpack:"sampling"`
	Duration   float64 `json:"duration" msgpack:"duration"`
	Instrument float64 `json:"instrument" msgpack:"instrument"`
	Position   float64 `json:"position" msgpack:"position"`
	Combined   float64 `json:"combined" msgpack:"combined"`
	Expanded   float64 `json:"expanded" msgpack:"expanded"`
}

// composeTask combines per-task uncertainties:
// u² = Σ c_m² (u1a,m² + u_dur,m² + u2,m² + u3²).
func composeTask(tasks []TaskContribution) Uncertainty {
	var sampling, duration, instrument, position float64
	for _, tc := range tasks {
		c2 := tc.Sensitivity * tc.Sensitivity
		sampling += c2 * tc.SamplingUncertainty * tc.SamplingUncertainty
		duration += c2 * tc.DurationUncertainty * tc.DurationUncertainty
		instrument += c2 * tc.InstrumentUncertainty * tc.InstrumentUncertainty
		position += c2 * PositionUncertainty * PositionUncertainty
	}
	return finish(Uncertainty{
		Sampling:   math.Sqrt(sampling),
		Duration:   math.Sqrt(duration),
		Instrument: math.Sqrt(instrument),
		Position:   math.Sqrt(position),
	})
}

// composeJob combines the table contribution c1*u1 with u2 and u3.
func composeJob(c1u1, instrument float64) Uncertainty {
	return finish(Uncertainty{
		Sampling:   c1u1,
		Instrument: instrument,
		Position:   PositionUncertainty,
	})
}

func finish(u Uncertainty) Uncertainty {
	u.Combined = math.Sqrt(u.Sampling*u.Sampling + u.Duration*u.Duration +
		u.Instrument*u.Instrument + u.Position*u.Position)
	u.Expanded = CoverageFactor * u.Combined
	return u
}
