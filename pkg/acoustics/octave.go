package acoustics

import "math"

// BandCount is the number of octave bands carried in a Spectrum.
const BandCount = 8

// OctaveBands lists the band centre frequencies in Hz.
var OctaveBands = [BandCount]float64{63, 125, 250, 500, 1000, 2000, 4000, 8000}

// AWeighting holds the A-weighting corrections in dB for each octave band (IEC 61672-1).
var AWeighting = [BandCount]float64{-26.2, -16.1, -8.6, -3.2, 0.0, 1.2, 1.0, -1.1}

// Spectrum is a set of unweighted octave-band levels in dB, 63 Hz to 8 kHz.
type Spectrum [BandCount]float64

// AWeighted returns the spectrum with the A-weighting corrections applied.
func (s Spectrum) AWeighted() Spectrum {
	var out Spectrum
	for i := range s {
		out[i] = s[i] + AWeighting[i]
	}
	return out
}

// LevelA returns the overall A-weighted level of the spectrum.
func (s Spectrum) LevelA() float64 {
	a := s.AWeighted()
	level, ok := EnergySum(a[:])
	if !ok {
		return math.Inf(-1)
	}
	return level
}

// AverageSpectrum energy-averages each band across spectra.
func AverageSpectrum(spectra []Spectrum) (Spectrum, bool) {
	var out Spectrum
	if len(spectra) == 0 {
		return out, false
	}

	band := make([]float64, len(spectra))
	for b := 0; b < BandCount; b++ {
		for i, s := range spectra {
			band[i] = s[b]
		}
		avg, ok := EnergyAverage(band)
		if !ok {
			return out, false
		}
		out[b] = avg
	}
	return out, true
}
