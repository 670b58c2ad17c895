package exposure

import (
	"github.com/workplace-hygiene/noiseexposure/pkg/acoustics"
	"github.com/workplace-hygiene/noiseexposure/pkg/hearingprotection"
)

// Protection is the hearing-protection assessment of a group. When Assessed is
// false the protectors' attenuation could not be established and the protected
// figures are left empty.
type Protection struct {
	hearingprotection.Result
	Assessed       bool                               `json:"assessed" msgpack:"assessed"`
	ProtectedLEX8h float64                            `json:"protected_lex_8h,omitempty" msgpack:"protected_lex_8h,omitempty"`
	Compliant      bool                               `json:"compliant" msgpack:"compliant"`
	Rating         hearingprotection.ProtectionRating `json:"rating,omitempty" msgpack:"rating,omitempty"`
}

// Statistics is the result of one exposure group.
type Statistics struct {
	GroupID           string              `json:"group_id" msgpack:"group_id"`
	GroupName         string              `json:"group_name" msgpack:"group_name"`
	Strategy          Strategy            `json:"strategy" msgpack:"strategy"`
	SampleCount       int                 `json:"sample_count" msgpack:"sample_count"`
	LAeq              *float64            `json:"laeq,omitempty" msgpack:"laeq,omitempty"`
	StandardDeviation *float64            `json:"standard_deviation,omitempty" msgpack:"standard_deviation,omitempty"`
	LEX8h             float64             `json:"lex_8h" msgpack:"lex_8h"`
	Uncertainty       Uncertainty         `json:"uncertainty" msgpack:"uncertainty"`
	LEX8hUpper        float64             `json:"lex_8h_upper" msgpack:"lex_8h_upper"`
	Verdict           Verdict             `json:"verdict" msgpack:"verdict"`
	PeakMax           *float64            `json:"peak_max,omitempty" msgpack:"peak_max,omitempty"`
	PeakVerdict       *Verdict            `json:"peak_verdict,omitempty" msgpack:"peak_verdict,omitempty"`
	Tasks             []TaskContribution  `json:"tasks,omitempty" msgpack:"tasks,omitempty"`
	Spectrum          *acoustics.Spectrum `json:"spectrum,omitempty" msgpack:"spectrum,omitempty"`
	Protection        *Protection         `json:"protection,omitempty" msgpack:"protection,omitempty"`
	Warnings          []Warning           `json:"warnings,omitempty" msgpack:"warnings,omitempty"`
}

// HasWarning reports whether a warning with the given code was raised.
func (s *Statistics) HasWarning(code WarningCode) bool {
	for _, w := range s.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}
