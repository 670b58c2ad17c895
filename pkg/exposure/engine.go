package exposure

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/workplace-hygiene/noiseexposure/pkg/acoustics"
	"github.com/workplace-hygiene/noiseexposure/pkg/hearingprotection"
)

// ErrGroupNotFound is returned by callers that resolve a group ID before computing.
var ErrGroupNotFound = errors.New("exposure group not found")

// Options tunes the policy values of a Calculator. Zero fields take their defaults.
type Options struct {
	// CalibrationDriftTolerance disqualifies a whole series when its field
	// calibration checks differ by more than this many dB.
	CalibrationDriftTolerance float64

	// FallbackInstrumentUncertainty is u2 when no instrument is linked.
	FallbackInstrumentUncertainty float64
}

// DefaultOptions returns the values prescribed by ISO 9612.
func DefaultOptions() Options {
	return Options{
		CalibrationDriftTolerance:     DefaultCalibrationDriftTolerance,
		FallbackInstrumentUncertainty: DefaultFallbackInstrumentUncertainty,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.CalibrationDriftTolerance <= 0 {
		o.CalibrationDriftTolerance = d.CalibrationDriftTolerance
	}
	if o.FallbackInstrumentUncertainty <= 0 {
		o.FallbackInstrumentUncertainty = d.FallbackInstrumentUncertainty
	}
	return o
}

// Calculator computes group statistics. It holds no state besides its
// options and is safe for concurrent use.
type Calculator struct {
	opts   Options
	logger *zap.SugaredLogger
}

// NewCalculator creates a Calculator. A nil logger discards output.
func NewCalculator(opts Options, logger *zap.SugaredLogger) *Calculator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Calculator{
		opts:   opts.withDefaults(),
		logger: logger,
	}
}

// Options returns the effective options, defaults included.
func (c *Calculator) Options() Options {
	return c.opts
}

var defaultCalculator = NewCalculator(DefaultOptions(), nil)

// ComputeStatisticsForGroup computes one group with the default options.
func ComputeStatisticsForGroup(inv *Investigation, groupID string) (*Statistics, bool) {
	return defaultCalculator.ComputeStatisticsForGroup(inv, groupID)
}

// ComputeAllStatistics computes every group with the default options.
func ComputeAllStatistics(inv *Investigation) []Statistics {
	return defaultCalculator.ComputeAllStatistics(inv)
}

// ComputeAllStatistics returns one result per group in group order. Groups
// without enough data are omitted.
func (c *Calculator) ComputeAllStatistics(inv *Investigation) []Statistics {
	if inv == nil {
		return nil
	}
	snap := newSnapshot(inv, c.opts)

	var out []Statistics
	for _, g := range inv.Groups {
		if st, ok := c.compute(snap, g); ok {
			out = append(out, *st)
		}
	}
	return out
}

// ComputeStatisticsForGroup returns the statistics of one group, or false when
// the group is unknown or lacks the data for a result.
func (c *Calculator) ComputeStatisticsForGroup(inv *Investigation, groupID string) (*Statistics, bool) {
	if inv == nil {
		return nil, false
	}
	g, ok := inv.Group(groupID)
	if !ok {
		return nil, false
	}
	return c.compute(newSnapshot(inv, c.opts), g)
}

func (c *Calculator) compute(snap *snapshot, g Group) (*Statistics, bool) {
	st := &Statistics{
		GroupID:   g.ID,
		GroupName: g.Name,
		Strategy:  g.Strategy,
	}

	var used []Measurement
	switch g.Strategy {
	case StrategyTask:
		out, ok := snap.taskStrategy(g)
		if !ok {
			c.logger.Debugw("no task yielded a result", "group", g.ID)
			return nil, false
		}
		used = out.measurements
		st.LEX8h = out.lex
		st.Tasks = out.tasks
		st.Warnings = append(st.Warnings, out.warnings...)
		st.Uncertainty = composeTask(out.tasks)

	case StrategyJob, StrategyFullDay:
		out, ok := snap.jobStrategy(g)
		if !ok {
			c.logger.Debugw("not enough samples for a job-based result", "group", g.ID, "samples", len(out.measurements))
			return nil, false
		}
		used = out.measurements
		laeq, sd := out.laeq, out.stdDev
		st.LAeq = &laeq
		st.StandardDeviation = &sd
		st.LEX8h = out.lex

		c1u1 := JobSamplingTable.Lookup(float64(len(used)), sd)
		if c1u1 > PlanRevisionThreshold {
			st.Warnings = append(st.Warnings, warnf(WarnMeasurementPlanRevision, "",
				"sampling uncertainty of %.1f dB exceeds %.1f dB; the measurement plan should be revised", c1u1, PlanRevisionThreshold))
		}
		st.Uncertainty = composeJob(c1u1, snap.instrumentUncertainty(used))

	default:
		c.logger.Warnw("unknown sampling strategy", "group", g.ID, "strategy", g.Strategy)
		return nil, false
	}

	if math.IsInf(st.LEX8h, 0) || math.IsNaN(st.LEX8h) {
		return nil, false
	}

	st.SampleCount = len(used)
	st.LEX8hUpper = st.LEX8h + st.Uncertainty.Expanded
	st.Verdict = ClassifyExposure(st.LEX8hUpper)

	// Peaks and spectra come from every eligible measurement of the group,
	// including those on tasks that were skipped.
	all := snap.groupMeasurements(g.ID)
	if peak, ok := maxPeak(all); ok {
		v := ClassifyPeak(peak)
		st.PeakMax = &peak
		st.PeakVerdict = &v
	}

	if spectrum, ok := groupSpectrum(all); ok {
		st.Spectrum = &spectrum
	}

	if len(g.Protectors) > 0 {
		st.Protection = c.protection(g, st)
	}

	c.logger.Debugw("computed group statistics",
		"group", g.ID,
		"strategy", g.Strategy,
		"samples", st.SampleCount,
		"lex_8h", st.LEX8h,
		"expanded_uncertainty", st.Uncertainty.Expanded,
		"verdict", st.Verdict,
	)

	return st, true
}

func (c *Calculator) protection(g Group, st *Statistics) *Protection {
	if len(g.Protectors) > 2 {
		st.Warnings = append(st.Warnings, warnf(WarnTooManyProtectors, "",
			"%d hearing protectors registered; only the first two are assessed", len(g.Protectors)))
	}

	p := &Protection{Result: hearingprotection.Combine(g.Protectors, st.Spectrum)}
	switch {
	case p.Method == hearingprotection.MethodUnknown:
		st.Warnings = append(st.Warnings, warnf(WarnAttenuationUnknown, "",
			"attenuation of the hearing protection is unknown; protected exposure cannot be assessed"))
	case !p.Usable():
		st.Warnings = append(st.Warnings, warnf(WarnNoProtectionData, "",
			"hearing protection data is incomplete; protected exposure cannot be assessed"))
	default:
		p.Assessed = true
		p.ProtectedLEX8h = st.LEX8hUpper - p.Attenuation
		p.Compliant = p.ProtectedLEX8h < ExposureBreakpoints[2]
		p.Rating = hearingprotection.Rate(p.ProtectedLEX8h)
	}
	return p
}

func maxPeak(ms []Measurement) (float64, bool) {
	peak, found := math.Inf(-1), false
	for _, m := range ms {
		if m.LCPeak != nil && !math.IsNaN(*m.LCPeak) {
			peak = math.Max(peak, *m.LCPeak)
			found = true
		}
	}
	return peak, found
}

func groupSpectrum(ms []Measurement) (acoustics.Spectrum, bool) {
	var spectra []acoustics.Spectrum
	for _, m := range ms {
		if m.Spectrum != nil {
			spectra = append(spectra, *m.Spectrum)
		}
	}
	return acoustics.AverageSpectrum(spectra)
}
