package hearingprotection

import (
	"math"

	"github.com/workplace-hygiene/noiseexposure/pkg/acoustics"
)

const (
	// DoubleProtectionBonus is added to the better device when two are worn.
	DoubleProtectionBonus = 5.0

	// MaxCombinedAttenuation is the bone-conduction limit for two protectors.
	MaxCombinedAttenuation = 35.0
)

// Method identifies how an attenuation figure was obtained.
type Method string

const (
	MethodNone         Method = "none"
	MethodUnknown      Method = "unknown"
	MethodSingle       Method = "single"
	MethodDoubleOctave Method = "double_octave"
	MethodDoubleHML    Method = "double_hml"
	MethodDoubleSNR    Method = "double_snr"
)

// Result is the effective attenuation of the worn protectors.
type Result struct {
	Attenuation float64 `json:"attenuation" msgpack:"attenuation"`
	Method      Method  `json:"method" msgpack:"method"`
	Capped      bool    `json:"capped" msgpack:"capped"`
}

// Usable reports whether the result carries an attenuation figure.
func (r Result) Usable() bool {
	switch r.Method {
	case MethodSingle, MethodDoubleOctave, MethodDoubleHML, MethodDoubleSNR:
		return true
	}
	return false
}

// Combine computes the effective attenuation of up to two protectors. The
// spectrum is the unweighted octave spectrum of the noise and may be nil;
// it is only needed for octave-band ratings. Protectors beyond the second are ignored.
func Combine(protectors []Protector, spectrum *acoustics.Spectrum) Result {
	if len(protectors) > 2 {
		protectors = protectors[:2]
	}
	if len(protectors) == 0 {
		return Result{Method: MethodNone}
	}

	for _, p := range protectors {
		if p.Unknown && p.Attenuation == nil {
			return Result{Method: MethodUnknown}
		}
	}

	if len(protectors) == 1 {
		a, ok := protectors[0].figure(spectrum)
		if !ok {
			return Result{Method: MethodNone}
		}
		return Result{Attenuation: a, Method: MethodSingle}
	}

	return combineDouble(protectors[0], protectors[1], spectrum)
}

func combineDouble(a, b Protector, spectrum *acoustics.Spectrum) Result {
	oa, aOctave := a.Rating.(OctaveBands)
	ob, bOctave := b.Rating.(OctaveBands)
	if aOctave && bOctave && spectrum != nil {
		if att, ok := octaveAttenuation([]OctaveBands{oa, ob}, *spectrum); ok {
			return capped(att, MethodDoubleOctave)
		}
	}

	ha, aHML := a.Rating.(HML)
	hb, bHML := b.Rating.(HML)
	if aHML && bHML {
		return capped(math.Max(ha.Selected()/2, hb.Selected()/2)+DoubleProtectionBonus, MethodDoubleHML)
	}

	fa, okA := a.figure(spectrum)
	fb, okB := b.figure(spectrum)
	if !okA || !okB {
		return Result{Method: MethodNone}
	}
	return capped(math.Max(fa, fb)+DoubleProtectionBonus, MethodDoubleSNR)
}

func capped(attenuation float64, method Method) Result {
	if attenuation > MaxCombinedAttenuation {
		return Result{Attenuation: MaxCombinedAttenuation, Method: method, Capped: true}
	}
	return Result{Attenuation: attenuation, Method: method}
}

// figure returns the device's own attenuation estimate.
func (p Protector) figure(spectrum *acoustics.Spectrum) (float64, bool) {
	if p.Attenuation != nil {
		return *p.Attenuation, true
	}

	switch r := p.Rating.(type) {
	case SNR:
		return r.Value / 2, true
	case HML:
		return r.Selected() / 2, true
	case OctaveBands:
		if spectrum == nil {
			return 0, false
		}
		return octaveAttenuation([]OctaveBands{r}, *spectrum)
	}
	return 0, false
}

// octaveAttenuation applies the octave-band method. For each band the device with
// the lowest protected A-weighted level wins; the winners are energy-summed.
func octaveAttenuation(devices []OctaveBands, spectrum acoustics.Spectrum) (float64, bool) {
	unprotected := spectrum.LevelA()
	if math.IsInf(unprotected, 0) || math.IsNaN(unprotected) {
		return 0, false
	}

	weighted := spectrum.AWeighted()
	protected := make([]float64, acoustics.BandCount)
	for band := range protected {
		protected[band] = math.Inf(1)
		for _, d := range devices {
			apv := d.AssumedProtection()
			protected[band] = math.Min(protected[band], weighted[band]-apv[band])
		}
	}

	level, ok := acoustics.EnergySum(protected)
	if !ok {
		return 0, false
	}
	return unprotected - level, true
}
