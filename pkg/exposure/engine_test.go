package exposure

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/workplace-hygiene/noiseexposure/pkg/acoustics"
	"github.com/workplace-hygiene/noiseexposure/pkg/hearingprotection"
)

func f(v float64) *float64 { return &v }

func measurementsFor(group, task, series string, values ...float64) []Measurement {
	out := make([]Measurement, len(values))
	for i, v := range values {
		out[i] = Measurement{
			ID:       fmt.Sprintf("%s-%s-%d", group, task, i),
			GroupID:  group,
			TaskID:   task,
			SeriesID: series,
			LAeq:     v,
		}
	}
	return out
}

func singleTaskInvestigation() *Investigation {
	return &Investigation{
		ID:           "inv-a",
		Groups:       []Group{{ID: "welders", Name: "Welders", Strategy: StrategyTask, WorkerCount: 4}},
		Tasks:        []Task{{ID: "grinding", GroupID: "welders", Name: "Grinding", DurationHours: 1}},
		Measurements: measurementsFor("welders", "grinding", "", 85, 86, 87),
	}
}

func jobInvestigation() *Investigation {
	return &Investigation{
		ID:           "inv-b",
		Groups:       []Group{{ID: "press", Name: "Press line", Strategy: StrategyJob, EffectiveDurationHours: 8}},
		Measurements: measurementsFor("press", "", "s1", 82, 83, 84, 85, 86),
		Series:       []Series{{ID: "s1", InstrumentID: "slm1", CalibrationBefore: f(94.0), CalibrationAfter: f(94.1)}},
		Instruments:  []Instrument{{ID: "slm1", Kind: KindSoundLevelMeter, Class: 1}},
	}
}

func TestSingleTaskScenario(t *testing.T) {
	st, ok := ComputeStatisticsForGroup(singleTaskInvestigation(), "welders")
	if !ok {
		t.Fatal("expected a result")
	}

	if len(st.Tasks) != 1 {
		t.Fatalf("expected 1 task contribution, got %d", len(st.Tasks))
	}
	task := st.Tasks[0]
	if math.Abs(task.LAeq-86.08) > 0.01 {
		t.Errorf("task LAeq = %.3f, expected 86.08", task.LAeq)
	}
	if math.Abs(task.LEX8h-77.05) > 0.01 {
		t.Errorf("task contribution = %.3f, expected 77.05", task.LEX8h)
	}
	if math.Abs(st.LEX8h-task.LEX8h) > 1e-9 {
		t.Errorf("group LEX8h = %.3f, expected the single task contribution %.3f", st.LEX8h, task.LEX8h)
	}
	if math.Abs(task.Sensitivity-1) > 1e-9 {
		t.Errorf("sensitivity of the only task = %.6f, expected 1", task.Sensitivity)
	}

	// u1a = 1/sqrt(3), no instrument linked so u2 = 1.5, u3 = 1
	if math.Abs(st.Uncertainty.Combined-1.8930) > 1e-3 {
		t.Errorf("combined uncertainty = %.4f, expected 1.8930", st.Uncertainty.Combined)
	}
	if math.Abs(st.Uncertainty.Expanded-1.65*st.Uncertainty.Combined) > 1e-12 {
		t.Errorf("expanded uncertainty = %.4f, expected 1.65 × combined", st.Uncertainty.Expanded)
	}
	if math.Abs(st.LEX8hUpper-80.17) > 0.01 {
		t.Errorf("upper bound = %.3f, expected 80.17", st.LEX8hUpper)
	}
	if st.Verdict != VerdictLowerAction {
		t.Errorf("verdict = %q, expected %q", st.Verdict, VerdictLowerAction)
	}
	if st.LAeq != nil || st.StandardDeviation != nil {
		t.Error("task-based results carry no group LAeq or standard deviation")
	}
	if len(st.Warnings) != 0 {
		t.Errorf("unexpected warnings: %+v", st.Warnings)
	}
}

func TestJobScenario(t *testing.T) {
	st, ok := ComputeStatisticsForGroup(jobInvestigation(), "press")
	if !ok {
		t.Fatal("expected a result")
	}

	if st.LAeq == nil || math.Abs(*st.LAeq-84.23) > 0.01 {
		t.Fatalf("LAeq = %v, expected 84.23", st.LAeq)
	}
	if math.Abs(st.LEX8h-*st.LAeq) > 1e-9 {
		t.Errorf("LEX8h = %.4f should equal LAeq for an 8 h day", st.LEX8h)
	}
	if st.StandardDeviation == nil || math.Abs(*st.StandardDeviation-1.58) > 0.005 {
		t.Errorf("standard deviation = %v, expected 1.58", st.StandardDeviation)
	}
	if math.Abs(st.Uncertainty.Sampling-1.7298) > 1e-3 {
		t.Errorf("c1u1 = %.4f, expected 1.7298", st.Uncertainty.Sampling)
	}
	if st.Uncertainty.Instrument != 0.7 {
		t.Errorf("instrument uncertainty = %.2f, expected 0.7 for a class 1 meter", st.Uncertainty.Instrument)
	}
	if math.Abs(st.Uncertainty.Combined-2.1171) > 1e-3 {
		t.Errorf("combined uncertainty = %.4f, expected 2.1171", st.Uncertainty.Combined)
	}
	if math.Abs(st.LEX8hUpper-87.72) > 0.01 {
		t.Errorf("upper bound = %.3f, expected 87.72", st.LEX8hUpper)
	}
	if st.Verdict != VerdictAboveLimit {
		t.Errorf("verdict = %q, expected %q", st.Verdict, VerdictAboveLimit)
	}
	if st.SampleCount != 5 {
		t.Errorf("sample count = %d, expected 5", st.SampleCount)
	}
}

func TestJobDurationScaling(t *testing.T) {
	inv := jobInvestigation()
	inv.Groups[0].EffectiveDurationHours = 4
	inv.Groups[0].Strategy = StrategyFullDay

	st, ok := ComputeStatisticsForGroup(inv, "press")
	if !ok {
		t.Fatal("expected a result")
	}
	if math.Abs(st.LEX8h-(*st.LAeq-3.0103)) > 1e-3 {
		t.Errorf("LEX8h = %.4f, expected LAeq - 3.01 dB", st.LEX8h)
	}
}

func TestNoResult(t *testing.T) {
	tests := []struct {
		name  string
		inv   *Investigation
		group string
	}{
		{
			name: "all task measurements excluded",
			inv: func() *Investigation {
				inv := singleTaskInvestigation()
				for i := range inv.Measurements {
					inv.Measurements[i].Excluded = true
				}
				return inv
			}(),
			group: "welders",
		},
		{
			name: "task group without tasks",
			inv: &Investigation{
				Groups:       []Group{{ID: "g", Strategy: StrategyTask}},
				Measurements: measurementsFor("g", "", "", 80, 81, 82),
			},
			group: "g",
		},
		{
			name: "job with two samples",
			inv: &Investigation{
				Groups:       []Group{{ID: "g", Strategy: StrategyJob}},
				Measurements: measurementsFor("g", "", "", 80, 81),
			},
			group: "g",
		},
		{
			name: "job with excluded third sample",
			inv: func() *Investigation {
				inv := &Investigation{
					Groups:       []Group{{ID: "g", Strategy: StrategyJob}},
					Measurements: measurementsFor("g", "", "", 80, 81, 82),
				}
				inv.Measurements[2].Excluded = true
				return inv
			}(),
			group: "g",
		},
		{
			name:  "unknown group",
			inv:   jobInvestigation(),
			group: "nope",
		},
		{
			name: "unknown strategy",
			inv: &Investigation{
				Groups:       []Group{{ID: "g", Strategy: "hybrid"}},
				Measurements: measurementsFor("g", "", "", 80, 81, 82),
			},
			group: "g",
		},
		{
			name:  "nil investigation",
			group: "g",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ok := ComputeStatisticsForGroup(tt.inv, tt.group)
			if ok || st != nil {
				t.Errorf("expected no result, got %+v", st)
			}
		})
	}
}

func TestComputeAllStatisticsOmitsAbsentGroups(t *testing.T) {
	inv := &Investigation{
		Groups: []Group{
			{ID: "b", Strategy: StrategyJob},
			{ID: "empty", Strategy: StrategyJob},
			{ID: "a", Strategy: StrategyJob},
		},
		Measurements: append(
			measurementsFor("b", "", "", 90, 91, 92),
			measurementsFor("a", "", "", 70, 71, 72)...,
		),
	}

	results := ComputeAllStatistics(inv)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].GroupID != "b" || results[1].GroupID != "a" {
		t.Errorf("results not in group order: %s, %s", results[0].GroupID, results[1].GroupID)
	}
}

func TestIdempotence(t *testing.T) {
	inv := jobInvestigation()
	inv.Groups = append(inv.Groups, singleTaskInvestigation().Groups...)
	inv.Tasks = singleTaskInvestigation().Tasks
	inv.Measurements = append(inv.Measurements, singleTaskInvestigation().Measurements...)
	inv.Groups[0].Protectors = []hearingprotection.Protector{{Rating: hearingprotection.SNR{Value: 25}}}

	first := ComputeAllStatistics(inv)
	second := ComputeAllStatistics(inv)
	if !reflect.DeepEqual(first, second) {
		t.Error("two computations over the same snapshot differ")
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 results, got %d", len(first))
	}
}

func TestTaskAverageMonotonic(t *testing.T) {
	inv := singleTaskInvestigation()
	base, _ := ComputeStatisticsForGroup(inv, "welders")

	inv.Measurements = append(inv.Measurements, Measurement{
		ID: "extra", GroupID: "welders", TaskID: "grinding", LAeq: base.Tasks[0].LAeq + 0.5,
	})
	raised, _ := ComputeStatisticsForGroup(inv, "welders")

	if raised.Tasks[0].LAeq < base.Tasks[0].LAeq {
		t.Errorf("task LAeq dropped from %.4f to %.4f", base.Tasks[0].LAeq, raised.Tasks[0].LAeq)
	}
	if raised.LEX8h < base.LEX8h {
		t.Errorf("group LEX8h dropped from %.4f to %.4f", base.LEX8h, raised.LEX8h)
	}
}

func TestTaskStrategyMultipleTasks(t *testing.T) {
	inv := &Investigation{
		Groups: []Group{{ID: "g", Strategy: StrategyTask, EffectiveDurationHours: 8}},
		Tasks: []Task{
			{ID: "loud", GroupID: "g", Name: "Loud", DurationHours: 2, MinDurationHours: f(1), MaxDurationHours: f(3)},
			{ID: "quiet", GroupID: "g", Name: "Quiet", DurationHours: 6},
		},
		Measurements: append(
			measurementsFor("g", "loud", "", 90, 91, 92),
			measurementsFor("g", "quiet", "", 75, 76, 77, 78)...,
		),
	}

	st, ok := ComputeStatisticsForGroup(inv, "g")
	if !ok {
		t.Fatal("expected a result")
	}
	if math.Abs(st.LEX8h-85.5015) > 1e-3 {
		t.Errorf("LEX8h = %.4f, expected 85.5015", st.LEX8h)
	}

	loud, quiet := st.Tasks[0], st.Tasks[1]
	if math.Abs(loud.Sensitivity-0.90246) > 1e-4 || math.Abs(quiet.Sensitivity-0.09754) > 1e-4 {
		t.Errorf("sensitivities = %.5f, %.5f, expected 0.90246, 0.09754", loud.Sensitivity, quiet.Sensitivity)
	}
	if math.Abs(loud.Sensitivity+quiet.Sensitivity-1) > 1e-9 {
		t.Errorf("sensitivities of tasks filling the day should sum to 1, got %.6f", loud.Sensitivity+quiet.Sensitivity)
	}
	if math.Abs(loud.DurationUncertainty-1.2537) > 1e-3 {
		t.Errorf("duration uncertainty = %.4f, expected 1.2537", loud.DurationUncertainty)
	}
	if quiet.DurationUncertainty != 0 {
		t.Errorf("task without a duration range should have no duration uncertainty, got %.4f", quiet.DurationUncertainty)
	}

	var expected float64
	for _, tc := range st.Tasks {
		expected += tc.Sensitivity * tc.Sensitivity * (tc.SamplingUncertainty*tc.SamplingUncertainty +
			tc.DurationUncertainty*tc.DurationUncertainty +
			tc.InstrumentUncertainty*tc.InstrumentUncertainty +
			PositionUncertainty*PositionUncertainty)
	}
	if math.Abs(st.Uncertainty.Combined-math.Sqrt(expected)) > 1e-9 {
		t.Errorf("combined uncertainty = %.6f, expected %.6f", st.Uncertainty.Combined, math.Sqrt(expected))
	}
	if st.HasWarning(WarnTaskDurationMismatch) {
		t.Error("durations add up to the working day; no mismatch expected")
	}
}

func TestTaskWarnings(t *testing.T) {
	inv := &Investigation{
		Groups: []Group{{ID: "g", Strategy: StrategyTask, WorkerCount: 1, EffectiveDurationHours: 8}},
		Tasks: []Task{
			{ID: "few", GroupID: "g", Name: "Few", DurationHours: 2},
			{ID: "wide", GroupID: "g", Name: "Wide", DurationHours: 2},
			{ID: "none", GroupID: "g", Name: "None", DurationHours: 2},
			{ID: "zero", GroupID: "g", Name: "Zero", DurationHours: 0},
		},
		Measurements: append(append(
			measurementsFor("g", "few", "", 80, 81),
			measurementsFor("g", "wide", "", 80, 82, 84)...),
			measurementsFor("g", "zero", "", 99, 99, 99)...,
		),
	}

	st, ok := ComputeStatisticsForGroup(inv, "g")
	if !ok {
		t.Fatal("expected a result")
	}

	byTask := map[string][]WarningCode{}
	for _, w := range st.Warnings {
		byTask[w.TaskID] = append(byTask[w.TaskID], w.Code)
	}

	expect := map[string][]WarningCode{
		"few":  {WarnInsufficientSamples},
		"wide": {WarnExcessiveSpread},
		"none": {WarnTaskWithoutMeasurements},
		"zero": {WarnInvalidTaskDuration},
		"":     {WarnTaskDurationMismatch},
	}
	if !reflect.DeepEqual(byTask, expect) {
		t.Errorf("warnings = %v, expected %v", byTask, expect)
	}
	if len(st.Tasks) != 2 {
		t.Errorf("expected 2 contributing tasks, got %d", len(st.Tasks))
	}
	if st.SampleCount != 5 {
		t.Errorf("sample count = %d, expected 5", st.SampleCount)
	}
}

func TestSpreadLimitDependsOnWorkerCount(t *testing.T) {
	build := func(workers int) *Investigation {
		return &Investigation{
			Groups:       []Group{{ID: "g", Strategy: StrategyTask, WorkerCount: workers}},
			Tasks:        []Task{{ID: "t", GroupID: "g", Name: "T", DurationHours: 8}},
			Measurements: measurementsFor("g", "t", "", 80, 84, 82),
		}
	}

	single, _ := ComputeStatisticsForGroup(build(1), "g")
	if !single.HasWarning(WarnExcessiveSpread) {
		t.Error("4 dB spread should be flagged for a single worker")
	}

	multiple, _ := ComputeStatisticsForGroup(build(6), "g")
	if multiple.HasWarning(WarnExcessiveSpread) {
		t.Error("4 dB spread should not be flagged for several workers")
	}
}

func TestTaskWithoutIDIsSkipped(t *testing.T) {
	inv := &Investigation{
		Groups: []Group{{ID: "g", Strategy: StrategyTask, WorkerCount: 2}},
		Tasks: []Task{
			{GroupID: "g", Name: "Unnamed", DurationHours: 4},
			{ID: "b", GroupID: "g", Name: "B", DurationHours: 4},
		},
		Measurements: measurementsFor("g", "b", "", 90, 90, 90),
	}

	st, ok := ComputeStatisticsForGroup(inv, "g")
	if !ok {
		t.Fatal("expected a result")
	}
	if len(st.Tasks) != 1 || st.Tasks[0].TaskID != "b" {
		t.Fatalf("tasks = %+v, expected only task b", st.Tasks)
	}
	if math.Abs(st.LEX8h-86.99) > 0.01 {
		t.Errorf("LEX,8h = %.2f, expected 86.99", st.LEX8h)
	}
	if !st.HasWarning(WarnTaskWithoutID) {
		t.Errorf("expected a %s warning, got %v", WarnTaskWithoutID, st.Warnings)
	}
}

func TestMeasurementPlanRevision(t *testing.T) {
	inv := &Investigation{
		Groups:       []Group{{ID: "g", Strategy: StrategyJob}},
		Measurements: measurementsFor("g", "", "", 70, 80, 90),
	}

	st, ok := ComputeStatisticsForGroup(inv, "g")
	if !ok {
		t.Fatal("expected a result")
	}
	if st.Uncertainty.Sampling != 19.1 {
		t.Errorf("c1u1 = %.2f, expected the clamped corner 19.1", st.Uncertainty.Sampling)
	}
	if !st.HasWarning(WarnMeasurementPlanRevision) {
		t.Error("expected a measurement plan revision warning")
	}
}

func TestCalibrationDriftDisqualifiesSeries(t *testing.T) {
	inv := jobInvestigation()
	inv.Series = append(inv.Series, Series{
		ID: "drifted", InstrumentID: "slm2",
		CalibrationBefore: f(94.0), CalibrationMid: f(94.2), CalibrationAfter: f(94.6),
	})
	inv.Instruments = append(inv.Instruments, Instrument{ID: "slm2", Kind: KindDosimeter})
	inv.Measurements = append(inv.Measurements, measurementsFor("press", "x", "drifted", 120, 121, 122)...)

	st, ok := ComputeStatisticsForGroup(inv, "press")
	if !ok {
		t.Fatal("expected a result")
	}
	if st.SampleCount != 5 {
		t.Errorf("sample count = %d, the drifted series should be disqualified", st.SampleCount)
	}
	if st.Uncertainty.Instrument != 0.7 {
		t.Errorf("instrument uncertainty = %.2f, the drifted series' dosimeter must not count", st.Uncertainty.Instrument)
	}

	loose := NewCalculator(Options{CalibrationDriftTolerance: 1.0}, nil)
	st, _ = loose.ComputeStatisticsForGroup(inv, "press")
	if st.SampleCount != 8 {
		t.Errorf("sample count = %d with a 1 dB tolerance, expected 8", st.SampleCount)
	}
	if st.Uncertainty.Instrument != 1.5 {
		t.Errorf("instrument uncertainty = %.2f, expected the worst instrument (1.5)", st.Uncertainty.Instrument)
	}
}

func TestSeriesCalibrationDrift(t *testing.T) {
	if _, ok := (Series{CalibrationBefore: f(94)}).CalibrationDrift(); ok {
		t.Error("a single check has no drift")
	}
	drift, ok := Series{CalibrationBefore: f(94), CalibrationMid: f(93.7), CalibrationAfter: f(94.1)}.CalibrationDrift()
	if !ok || math.Abs(drift-0.4) > 1e-9 {
		t.Errorf("drift = %v, expected 0.4", drift)
	}
}

func TestInstrumentUncertainty(t *testing.T) {
	tests := []struct {
		name       string
		instrument Instrument
		expected   float64
	}{
		{"class 1 meter", Instrument{Kind: KindSoundLevelMeter, Class: 1}, 0.7},
		{"class 2 meter", Instrument{Kind: KindSoundLevelMeter, Class: 2}, 1.5},
		{"dosimeter", Instrument{Kind: KindDosimeter, Class: 1}, 1.5},
		{"explicit", Instrument{Class: 2, UncertaintyDB: f(1.1)}, 1.1},
	}
	for _, tt := range tests {
		if got := tt.instrument.Uncertainty(); got != tt.expected {
			t.Errorf("%s: Uncertainty() = %.2f, expected %.2f", tt.name, got, tt.expected)
		}
	}
}

func TestPeakVerdict(t *testing.T) {
	inv := jobInvestigation()
	if st, _ := ComputeStatisticsForGroup(inv, "press"); st.PeakMax != nil || st.PeakVerdict != nil {
		t.Error("no peak data should leave the peak verdict absent")
	}

	inv.Measurements[1].LCPeak = f(131)
	inv.Measurements[3].LCPeak = f(137)
	inv.Measurements = append(inv.Measurements, Measurement{GroupID: "press", LAeq: 84, LCPeak: f(150), Excluded: true})

	st, _ := ComputeStatisticsForGroup(inv, "press")
	if st.PeakMax == nil || *st.PeakMax != 137 {
		t.Fatalf("peak = %v, expected 137 (the excluded 150 must not count)", st.PeakMax)
	}
	if *st.PeakVerdict != VerdictUpperAction {
		t.Errorf("peak verdict = %q, expected %q", *st.PeakVerdict, VerdictUpperAction)
	}
}

func TestProtection(t *testing.T) {
	hml := func(m float64) hearingprotection.Protector {
		return hearingprotection.Protector{Rating: hearingprotection.HML{H: m + 6, M: m, L: m - 6, Character: hearingprotection.CharacterMedium}}
	}

	t.Run("double hml", func(t *testing.T) {
		inv := jobInvestigation()
		inv.Groups[0].Protectors = []hearingprotection.Protector{hml(22), hml(20)}

		st, _ := ComputeStatisticsForGroup(inv, "press")
		p := st.Protection
		if p == nil || !p.Assessed {
			t.Fatalf("expected an assessed protection, got %+v", p)
		}
		if p.Method != hearingprotection.MethodDoubleHML || p.Attenuation != 16 || p.Capped {
			t.Errorf("unexpected combination %+v", p.Result)
		}
		if math.Abs(p.ProtectedLEX8h-(st.LEX8hUpper-16)) > 1e-9 {
			t.Errorf("protected LEX8h = %.3f, expected %.3f", p.ProtectedLEX8h, st.LEX8hUpper-16)
		}
		if !p.Compliant || p.Rating != hearingprotection.RatingGood {
			t.Errorf("compliant = %v, rating = %q", p.Compliant, p.Rating)
		}
	})

	t.Run("unknown attenuation", func(t *testing.T) {
		inv := jobInvestigation()
		inv.Groups[0].Protectors = []hearingprotection.Protector{{Name: "new muff", Unknown: true}}

		st, _ := ComputeStatisticsForGroup(inv, "press")
		if st.Protection == nil || st.Protection.Assessed || st.Protection.Method != hearingprotection.MethodUnknown {
			t.Fatalf("unexpected protection %+v", st.Protection)
		}
		if !st.HasWarning(WarnAttenuationUnknown) {
			t.Error("expected an unknown attenuation warning")
		}
	})

	t.Run("octave without spectrum", func(t *testing.T) {
		inv := jobInvestigation()
		inv.Groups[0].Protectors = []hearingprotection.Protector{{Rating: hearingprotection.OctaveBands{}}}

		st, _ := ComputeStatisticsForGroup(inv, "press")
		if st.Protection.Assessed || !st.HasWarning(WarnNoProtectionData) {
			t.Errorf("expected an unassessed protection with a warning, got %+v", st.Protection)
		}
	})

	t.Run("octave with group spectrum", func(t *testing.T) {
		inv := jobInvestigation()
		spectrum := acoustics.Spectrum{80, 82, 84, 86, 85, 83, 80, 76}
		for i := range inv.Measurements {
			inv.Measurements[i].Spectrum = &spectrum
		}
		band := hearingprotection.OctaveBands{
			Mean:   [8]float64{20, 22, 25, 28, 30, 32, 34, 34},
			StdDev: [8]float64{4, 4, 4, 4, 4, 4, 4, 4},
		}
		inv.Groups[0].Protectors = []hearingprotection.Protector{{Rating: band}, {Rating: band}}

		st, _ := ComputeStatisticsForGroup(inv, "press")
		if st.Spectrum == nil {
			t.Fatal("expected a group spectrum")
		}
		for i := range spectrum {
			if math.Abs(st.Spectrum[i]-spectrum[i]) > 1e-9 {
				t.Fatalf("group spectrum = %v, expected %v", *st.Spectrum, spectrum)
			}
		}
		single := hearingprotection.Combine([]hearingprotection.Protector{{Rating: band}}, &spectrum)
		if st.Protection.Method != hearingprotection.MethodDoubleOctave {
			t.Fatalf("method = %q, expected double_octave", st.Protection.Method)
		}
		if math.Abs(st.Protection.Attenuation-single.Attenuation) > 1e-9 {
			t.Errorf("two identical devices should match one device per band: %.3f vs %.3f",
				st.Protection.Attenuation, single.Attenuation)
		}
	})

	t.Run("more than two protectors", func(t *testing.T) {
		inv := jobInvestigation()
		inv.Groups[0].Protectors = []hearingprotection.Protector{hml(22), hml(20), hml(30)}

		st, _ := ComputeStatisticsForGroup(inv, "press")
		if !st.HasWarning(WarnTooManyProtectors) || st.Protection.Attenuation != 16 {
			t.Errorf("expected the first two protectors only, got %+v", st.Protection)
		}
	})
}
