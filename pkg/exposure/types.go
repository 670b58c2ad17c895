// Package exposure determines daily noise exposure (L_EX,8h) and its expanded
// uncertainty for homogeneous exposure groups following NEN-EN-ISO 9612.
//
// The calculations are pure: an Investigation snapshot goes in, a Statistics
// record per group comes out, and nothing is retained between calls.
package exposure

import (
	"github.com/workplace-hygiene/noiseexposure/pkg/acoustics"
	"github.com/workplace-hygiene/noiseexposure/pkg/hearingprotection"
)

// Strategy is the sampling strategy of an exposure group.
type Strategy string

const (
	StrategyTask    Strategy = "task"
	StrategyJob     Strategy = "job"
	StrategyFullDay Strategy = "full_day"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyTask, StrategyJob, StrategyFullDay:
		return true
	}
	return false
}

// InstrumentKind distinguishes sound level meters from personal dosimeters.
type InstrumentKind string

const (
	KindSoundLevelMeter InstrumentKind = "sound_level_meter"
	KindDosimeter       InstrumentKind = "dosimeter"
)

// Measurement is one field reading.
type Measurement struct {
	ID              string              `json:"id"`
	GroupID         string              `json:"group_id"`
	TaskID          string              `json:"task_id,omitempty"`
	SeriesID        string              `json:"series_id,omitempty"`
	LAeq            float64             `json:"laeq"`
	LCPeak          *float64            `json:"lcpeak,omitempty"`
	Spectrum        *acoustics.Spectrum `json:"spectrum,omitempty"`
	Excluded        bool                `json:"excluded,omitempty"`
	ExclusionReason string              `json:"exclusion_reason,omitempty"`
}

// Task is an activity that makes up part of a shift.
type Task struct {
	ID               string   `json:"id"`
	GroupID          string   `json:"group_id"`
	Name             string   `json:"name"`
	DurationHours    float64  `json:"duration_hours"`
	MinDurationHours *float64 `json:"min_duration_hours,omitempty"`
	MaxDurationHours *float64 `json:"max_duration_hours,omitempty"`
}

// Group is a homogeneous exposure group.
type Group struct {
	ID                     string                        `json:"id"`
	Name                   string                        `json:"name"`
	Strategy               Strategy                      `json:"strategy"`
	EffectiveDurationHours float64                       `json:"effective_duration_hours,omitempty"`
	WorkerCount            int                           `json:"worker_count,omitempty"`
	Protectors             []hearingprotection.Protector `json:"protectors,omitempty"`
}

// Instrument is a measuring device with a fixed class uncertainty.
type Instrument struct {
	ID            string         `json:"id"`
	Name          string         `json:"name,omitempty"`
	Kind          InstrumentKind `json:"kind,omitempty"`
	Class         int            `json:"class,omitempty"`
	UncertaintyDB *float64       `json:"uncertainty_db,omitempty"`
}

// Uncertainty returns the standard uncertainty u2 of the instrument in dB.
// An explicit value wins; otherwise class 1 sound level meters give 0.7 dB and
// everything else 1.5 dB.
func (i Instrument) Uncertainty() float64 {
	if i.UncertaintyDB != nil {
		return *i.UncertaintyDB
	}
	if i.Kind != KindDosimeter && i.Class == 1 {
		return 0.7
	}
	return 1.5
}

// Series is a block of measurements bracketed by field calibration checks.
type Series struct {
	ID                string   `json:"id"`
	InstrumentID      string   `json:"instrument_id,omitempty"`
	CalibrationBefore *float64 `json:"calibration_before,omitempty"`
	CalibrationMid    *float64 `json:"calibration_mid,omitempty"`
	CalibrationAfter  *float64 `json:"calibration_after,omitempty"`
}

// Investigation is an immutable snapshot of everything the engine needs.
type Investigation struct {
	ID           string        `json:"id"`
	Name         string        `json:"name,omitempty"`
	Groups       []Group       `json:"groups"`
	Tasks        []Task        `json:"tasks,omitempty"`
	Measurements []Measurement `json:"measurements"`
	Instruments  []Instrument  `json:"instruments,omitempty"`
	Series       []Series      `json:"series,omitempty"`
}

// Group returns the group with the given ID.
func (inv *Investigation) Group(id string) (Group, bool) {
	for _, g := range inv.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}
