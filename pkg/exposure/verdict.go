package exposure

// Verdict is the regulatory band an exposure or peak level falls into.
type Verdict string

const (
	VerdictBelowLowerAction Verdict = "below_lower_action"
	VerdictLowerAction      Verdict = "lower_action"
	VerdictUpperAction      Verdict = "upper_action"
	VerdictAboveLimit       Verdict = "above_limit"
)

// Label returns a short human-readable description.
func (v Verdict) Label() string {
	switch v {
	case VerdictBelowLowerAction:
		return "below lower action value"
	case VerdictLowerAction:
		return "lower action value exceeded"
	case VerdictUpperAction:
		return "upper action value exceeded"
	case VerdictAboveLimit:
		return "limit value exceeded"
	}
	return string(v)
}

// Breakpoints are the lower action, upper action and limit values in dB.
type Breakpoints [3]float64

var (
	// ExposureBreakpoints apply to L_EX,8h in dB(A).
	ExposureBreakpoints = Breakpoints{80, 85, 87}

	// PeakBreakpoints apply to L_Cpeak in dB(C).
	PeakBreakpoints = Breakpoints{135, 137, 140}
)

// Classify maps level onto a band. Intervals are closed-open: a level equal
// to a breakpoint belongs to the higher band.
func (b Breakpoints) Classify(level float64) Verdict {
	switch {
	case level < b[0]:
		return VerdictBelowLowerAction
	case level < b[1]:
		return VerdictLowerAction
	case level < b[2]:
		return VerdictUpperAction
	default:
		return VerdictAboveLimit
	}
}

// ClassifyExposure classifies an upper-bound L_EX,8h.
func ClassifyExposure(level float64) Verdict {
	return ExposureBreakpoints.Classify(level)
}

// ClassifyPeak classifies a peak sound pressure level.
func ClassifyPeak(level float64) Verdict {
	return PeakBreakpoints.Classify(level)
}
