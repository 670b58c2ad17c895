package exposure

import "math"

// DefaultCalibrationDriftTolerance is the largest allowed difference in dB between
// the field calibration checks of a series.
const DefaultCalibrationDriftTolerance = 0.5

// CalibrationDrift returns the largest pairwise difference between the
// calibration checks recorded on s, and false when fewer than two were recorded.
func (s Series) CalibrationDrift() (float64, bool) {
	var checks []float64
	for _, c := range []*float64{s.CalibrationBefore, s.CalibrationMid, s.CalibrationAfter} {
		if c != nil {
			checks = append(checks, *c)
		}
	}
	if len(checks) < 2 {
		return 0, false
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range checks {
		lo = math.Min(lo, c)
		hi = math.Max(hi, c)
	}
	return hi - lo, true
}

// snapshot indexes an Investigation for lookups during one calculation.
type snapshot struct {
	inv         *Investigation
	opts        Options
	series      map[string]Series
	instruments map[string]Instrument
}

func newSnapshot(inv *Investigation, opts Options) *snapshot {
	s := &snapshot{
		inv:         inv,
		opts:        opts,
		series:      make(map[string]Series, len(inv.Series)),
		instruments: make(map[string]Instrument, len(inv.Instruments)),
	}
	for _, sr := range inv.Series {
		s.series[sr.ID] = sr
	}
	for _, in := range inv.Instruments {
		s.instruments[in.ID] = in
	}
	return s
}

// eligible reports whether m may contribute to any aggregate.
func (s *snapshot) eligible(m Measurement) bool {
	if m.Excluded || math.IsNaN(m.LAeq) || math.IsInf(m.LAeq, 0) {
		return false
	}
	if sr, ok := s.series[m.SeriesID]; ok {
		if drift, ok := sr.CalibrationDrift(); ok && drift > s.opts.CalibrationDriftTolerance {
			return false
		}
	}
	return true
}

// groupMeasurements returns the eligible measurements of a group in snapshot
// order.
func (s *snapshot) groupMeasurements(groupID string) []Measurement {
	return s.filter(func(m Measurement) bool { return m.GroupID == groupID })
}

// taskMeasurements returns the eligible measurements recorded against one task.
func (s *snapshot) taskMeasurements(groupID, taskID string) []Measurement {
	return s.filter(func(m Measurement) bool { return m.GroupID == groupID && m.TaskID == taskID })
}

func (s *snapshot) filter(match func(Measurement) bool) []Measurement {
	var out []Measurement
	for _, m := range s.inv.Measurements {
		if match(m) && s.eligible(m) {
			out = append(out, m)
		}
	}
	return out
}

// tasks returns the tasks of a group in snapshot order.
func (s *snapshot) tasks(groupID string) []Task {
	var out []Task
	for _, t := range s.inv.Tasks {
		if t.GroupID == groupID {
			out = append(out, t)
		}
	}
	return out
}

// instrumentUncertainty is the worst u2 across the instruments behind ms.
func (s *snapshot) instrumentUncertainty(ms []Measurement) float64 {
	worst := math.Inf(-1)
	for _, m := range ms {
		sr, ok := s.series[m.SeriesID]
		if !ok {
			continue
		}
		in, ok := s.instruments[sr.InstrumentID]
		if !ok {
			continue
		}
		worst = math.Max(worst, in.Uncertainty())
	}
	if math.IsInf(worst, -1) {
		return s.opts.FallbackInstrumentUncertainty
	}
	return worst
}

func levels(ms []Measurement) []float64 {
	out := make([]float64, len(ms))
	for i, m := range ms {
		out[i] = m.LAeq
	}
	return out
}
