// Package hearingprotection combines the attenuation of one or two worn hearing
// protectors following the EN 458 selection rules.
package hearingprotection

import (
	"encoding/json"
	"fmt"

	"github.com/workplace-hygiene/noiseexposure/pkg/acoustics"
)

// SpectralCharacter selects which HML value applies to the noise being assessed.
type SpectralCharacter string

const (
	CharacterLow    SpectralCharacter = "low"
	CharacterMedium SpectralCharacter = "medium"
	CharacterHigh   SpectralCharacter = "high"
)

// Valid reports whether c is one of the three known characters.
func (c SpectralCharacter) Valid() bool {
	switch c {
	case CharacterLow, CharacterMedium, CharacterHigh:
		return true
	}
	return false
}

// Rating is the data-sheet representation of a protector's attenuation.
// It is one of SNR, HML or OctaveBands.
type Rating interface {
	method() string
}

// SNR is a single-number rating.
type SNR struct {
	Value float64
}

// HML carries the high/medium/low ratings and the spectral character of the noise.
type HML struct {
	H, M, L   float64
	Character SpectralCharacter
}

// OctaveBands carries mean attenuation and its standard deviation per octave band.
type OctaveBands struct {
	Mean   [acoustics.BandCount]float64
	StdDev [acoustics.BandCount]float64
}

func (SNR) method() string         { return "snr" }
func (HML) method() string         { return "hml" }
func (OctaveBands) method() string { return "octave" }

// Selected returns the rating that applies to the declared spectral character.
func (h HML) Selected() float64 {
	switch h.Character {
	case CharacterLow:
		return h.L
	case CharacterHigh:
		return h.H
	default:
		return h.M
	}
}

// AssumedProtection returns mean - standard deviation per band.
func (o OctaveBands) AssumedProtection() [acoustics.BandCount]float64 {
	var apv [acoustics.BandCount]float64
	for i := range apv {
		apv[i] = o.Mean[i] - o.StdDev[i]
	}
	return apv
}

// Protector describes one worn hearing protector.
// Attenuation holds an effective attenuation that has already been established;
// Unknown marks a protector whose data sheet has not been looked up yet.
type Protector struct {
	Name        string
	Rating      Rating
	Attenuation *float64
	Unknown     bool
}

type protectorJSON struct {
	Name        string            `json:"name,omitempty"`
	Method      string            `json:"method,omitempty"`
	SNR         *float64          `json:"snr,omitempty"`
	H           *float64          `json:"h,omitempty"`
	M           *float64          `json:"m,omitempty"`
	L           *float64          `json:"l,omitempty"`
	Character   SpectralCharacter `json:"character,omitempty"`
	Mean        *[8]float64       `json:"mean,omitempty"`
	StdDev      *[8]float64       `json:"std_dev,omitempty"`
	Attenuation *float64          `json:"attenuation,omitempty"`
	Unknown     bool              `json:"unknown,omitempty"`
}

// MarshalJSON encodes the rating with a "method" discriminator.
func (p Protector) MarshalJSON() ([]byte, error) {
	w := protectorJSON{
		Name:        p.Name,
		Attenuation: p.Attenuation,
		Unknown:     p.Unknown,
	}

	switch r := p.Rating.(type) {
	case SNR:
		w.Method = r.method()
		w.SNR = &r.Value
	case HML:
		w.Method = r.method()
		w.H, w.M, w.L = &r.H, &r.M, &r.L
		w.Character = r.Character
	case OctaveBands:
		w.Method = r.method()
		w.Mean, w.StdDev = &r.Mean, &r.StdDev
	}

	return json.Marshal(w)
}

// UnmarshalJSON decodes a protector and rejects incomplete ratings.
func (p *Protector) UnmarshalJSON(data []byte) error {
	var w protectorJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*p = Protector{
		Name:        w.Name,
		Attenuation: w.Attenuation,
		Unknown:     w.Unknown,
	}

	switch w.Method {
	case "":
	case "snr":
		if w.SNR == nil {
			return fmt.Errorf("protector %q: snr method requires an snr value", w.Name)
		}
		p.Rating = SNR{Value: *w.SNR}
	case "hml":
		if w.H == nil || w.M == nil || w.L == nil {
			return fmt.Errorf("protector %q: hml method requires h, m and l values", w.Name)
		}
		if !w.Character.Valid() {
			return fmt.Errorf("protector %q: invalid spectral character %q", w.Name, w.Character)
		}
		p.Rating = HML{H: *w.H, M: *w.M, L: *w.L, Character: w.Character}
	case "octave":
		if w.Mean == nil || w.StdDev == nil {
			return fmt.Errorf("protector %q: octave method requires mean and std_dev bands", w.Name)
		}
		p.Rating = OctaveBands{Mean: *w.Mean, StdDev: *w.StdDev}
	default:
		return fmt.Errorf("protector %q: unknown method %q", w.Name, w.Method)
	}

	return nil
}
