package exposure

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/workplace-hygiene/noiseexposure/pkg/acoustics"
)

const (
	// MinTaskSamples is the number of measurements per task below which a task is flagged.
	MinTaskSamples = 3

	// SpreadLimitSingleWorker and SpreadLimitMultipleWorkers bound max-min of a task's samples.
	SpreadLimitSingleWorker    = 3.0
	SpreadLimitMultipleWorkers = 5.0

	// durationMismatchHours is how far the summed task durations may drift from
	// the group's effective duration before a warning is raised.
	durationMismatchHours = 0.25
)

// TaskContribution is the per-task breakdown of a task-based result.
type TaskContribution struct {
	TaskID                string  `json:"task_id" msgpack:"task_id"`
	TaskName              string  `json:"task_name" msgpack:"task_name"`
	DurationHours         float64 `json:"duration_hours" msgpack:"duration_hours"`
	SampleCount           int     `json:"sample_count" msgpack:"sample_count"`
	LAeq                  float64 `json:"laeq" msgpack:"laeq"`
	LEX8h                 float64 `json:"lex_8h" msgpack:"lex_8h"`
	Spread                float64 `json:"spread" msgpack:"spread"`
	SamplingUncertainty   float64 `json:"sampling_uncertainty" msgpack:"sampling_uncertainty"`
	DurationUncertainty   float64 `json:"duration_uncertainty" msgpack:"duration_uncertainty"`
	InstrumentUncertainty float64 `json:"instrument_uncertainty" msgpack:"instrument_uncertainty"`
	Sensitivity           float64 `json:"sensitivity" msgpack:"sensitivity"`
}

type taskOutcome struct {
	lex          float64
	tasks        []TaskContribution
	measurements []Measurement
	warnings     []Warning
}

// taskStrategy sums the per-task contributions of a task-based group.
func (s *snapshot) taskStrategy(g Group) (taskOutcome, bool) {
	var out taskOutcome

	spreadLimit := SpreadLimitMultipleWorkers
	if g.WorkerCount == 1 {
		spreadLimit = SpreadLimitSingleWorker
	}

	var totalHours float64
	for _, t := range s.tasks(g.ID) {
		if t.ID == "" {
			out.warnings = append(out.warnings, warnf(WarnTaskWithoutID, "",
				"task %q has no identifier and was skipped", t.Name))
			continue
		}
		if t.DurationHours <= 0 || math.IsNaN(t.DurationHours) {
			out.warnings = append(out.warnings, warnf(WarnInvalidTaskDuration, t.ID,
				"task %q has no positive duration and was skipped", t.Name))
			continue
		}

		ms := s.taskMeasurements(g.ID, t.ID)
		if len(ms) == 0 {
			out.warnings = append(out.warnings, warnf(WarnTaskWithoutMeasurements, t.ID,
				"task %q has no valid measurements and was skipped", t.Name))
			continue
		}

		values := levels(ms)
		laeq, ok := acoustics.EnergyAverage(values)
		if !ok {
			continue
		}
		contribution, ok := acoustics.Normalize(laeq, t.DurationHours, acoustics.ReferenceDurationHours)
		if !ok {
			continue
		}

		tc := TaskContribution{
			TaskID:                t.ID,
			TaskName:              t.Name,
			DurationHours:         t.DurationHours,
			SampleCount:           len(ms),
			LAeq:                  laeq,
			LEX8h:                 contribution,
			Spread:                acoustics.Spread(values),
			SamplingUncertainty:   standardError(values),
			DurationUncertainty:   durationUncertainty(t),
			InstrumentUncertainty: s.instrumentUncertainty(ms),
		}

		if tc.SampleCount < MinTaskSamples {
			out.warnings = append(out.warnings, warnf(WarnInsufficientSamples, t.ID,
				"task %q has %d valid measurements, at least %d are required", t.Name, tc.SampleCount, MinTaskSamples))
		}
		if tc.SampleCount >= 2 && tc.Spread > spreadLimit {
			out.warnings = append(out.warnings, warnf(WarnExcessiveSpread, t.ID,
				"task %q spread of %.1f dB exceeds %.0f dB", t.Name, tc.Spread, spreadLimit))
		}

		totalHours += t.DurationHours
		out.tasks = append(out.tasks, tc)
		out.measurements = append(out.measurements, ms...)
	}

	if len(out.tasks) == 0 {
		return out, false
	}

	contributions := make([]float64, len(out.tasks))
	for i, tc := range out.tasks {
		contributions[i] = tc.LEX8h
	}
	lex, ok := acoustics.EnergySum(contributions)
	if !ok {
		return out, false
	}
	out.lex = lex

	for i := range out.tasks {
		out.tasks[i].Sensitivity = sensitivity(out.tasks[i], lex)
	}

	if g.EffectiveDurationHours > 0 && math.Abs(totalHours-g.EffectiveDurationHours) > durationMismatchHours {
		out.warnings = append(out.warnings, warnf(WarnTaskDurationMismatch, "",
			"task durations add up to %.2f h but the effective working day is %.2f h", totalHours, g.EffectiveDurationHours))
	}

	return out, true
}

// sensitivity is c1a,m = (T_m/T_0) * 10^(0.1*(L_p,m - L_EX,8h)).
func sensitivity(tc TaskContribution, lex float64) float64 {
	return tc.DurationHours / acoustics.ReferenceDurationHours * math.Pow(10, 0.1*(tc.LAeq-lex))
}

// standardError is the standard uncertainty of the mean of the dB values.
func standardError(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil) / math.Sqrt(float64(len(values)))
}

// durationUncertainty converts a task's duration range into dB:
// (10/ln10) * (max-min) / (2*sqrt(3)*T).
func durationUncertainty(t Task) float64 {
	if t.MinDurationHours == nil || t.MaxDurationHours == nil || t.DurationHours <= 0 {
		return 0
	}
	span := *t.MaxDurationHours - *t.MinDurationHours
	if span <= 0 {
		return 0
	}
	return 10 / math.Ln10 * span / (2 * math.Sqrt(3) * t.DurationHours)
}
