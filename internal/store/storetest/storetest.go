// Package storetest provides an in-memory store.Store and a sample
// investigation for tests of packages that depend on a store.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/workplace-hygiene/noiseexposure/internal/store"
	"github.com/workplace-hygiene/noiseexposure/pkg/acoustics"
	"github.com/workplace-hygiene/noiseexposure/pkg/exposure"
	"github.com/workplace-hygiene/noiseexposure/pkg/hearingprotection"
)

func ptr(v float64) *float64 { return &v }

// Investigation returns a snapshot with one task-based group ("press") and
// one job-based group ("assembly").
func Investigation(id string) *exposure.Investigation {
	flat := acoustics.Spectrum{80, 80, 80, 80, 80, 80, 80, 80}
	return &exposure.Investigation{
		ID:   id,
		Name: "Investigation " + id,
		Groups: []exposure.Group{
			{
				ID: "press", Name: "Press operators", Strategy: exposure.StrategyTask, WorkerCount: 4,
				Protectors: []hearingprotection.Protector{
					{Name: "foam plug", Rating: hearingprotection.SNR{Value: 28}},
				},
			},
			{ID: "assembly", Name: "Assembly line", Strategy: exposure.StrategyJob, EffectiveDurationHours: 8},
		},
		Tasks: []exposure.Task{
			{ID: "stamping", GroupID: "press", Name: "Stamping", DurationHours: 6, MinDurationHours: ptr(5.5), MaxDurationHours: ptr(6.5)},
			{ID: "cleaning", GroupID: "press", Name: "Cleaning", DurationHours: 2},
		},
		Instruments: []exposure.Instrument{
			{ID: "slm-1", Name: "Type 2250", Kind: exposure.KindSoundLevelMeter, Class: 1},
			{ID: "dose-1", Kind: exposure.KindDosimeter, Class: 2, UncertaintyDB: ptr(1.5)},
		},
		Series: []exposure.Series{
			{ID: "s1", InstrumentID: "slm-1", CalibrationBefore: ptr(94.0), CalibrationAfter: ptr(94.1)},
			{ID: "s2", InstrumentID: "dose-1"},
		},
		Measurements: []exposure.Measurement{
			{ID: "m1", GroupID: "press", TaskID: "stamping", SeriesID: "s1", LAeq: 88, LCPeak: ptr(128), Spectrum: &flat},
			{ID: "m2", GroupID: "press", TaskID: "stamping", SeriesID: "s1", LAeq: 89},
			{ID: "m3", GroupID: "press", TaskID: "stamping", SeriesID: "s1", LAeq: 87},
			{ID: "m4", GroupID: "press", TaskID: "cleaning", SeriesID: "s1", LAeq: 78},
			{ID: "m5", GroupID: "press", TaskID: "cleaning", SeriesID: "s1", LAeq: 79},
			{ID: "m6", GroupID: "press", TaskID: "cleaning", SeriesID: "s1", LAeq: 80},
			{ID: "m7", GroupID: "press", TaskID: "cleaning", SeriesID: "s1", LAeq: 95, Excluded: true, ExclusionReason: "forklift passed"},
			{ID: "m8", GroupID: "assembly", SeriesID: "s2", LAeq: 82},
			{ID: "m9", GroupID: "assembly", SeriesID: "s2", LAeq: 83},
			{ID: "m10", GroupID: "assembly", SeriesID: "s2", LAeq: 84},
			{ID: "m11", GroupID: "assembly", SeriesID: "s2", LAeq: 85},
			{ID: "m12", GroupID: "assembly", SeriesID: "s2", LAeq: 86},
		},
	}
}

// Memory is a store.Store kept in memory
type Memory struct {
	mu             sync.Mutex
	investigations map[string]*exposure.Investigation
	updated        map[string]time.Time
	runs           map[string][]store.Run
	nextRun        int
}

var _ store.Store = (*Memory)(nil)

// NewMemory returns a store holding the given investigations
func NewMemory(invs ...*exposure.Investigation) *Memory {
	m := &Memory{
		investigations: make(map[string]*exposure.Investigation),
		updated:        make(map[string]time.Time),
		runs:           make(map[string][]store.Run),
	}
	for _, inv := range invs {
		m.investigations[inv.ID] = inv
		m.updated[inv.ID] = time.Now()
	}
	return m
}

func (m *Memory) SaveInvestigation(_ context.Context, inv *exposure.Investigation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.investigations[inv.ID] = inv
	m.updated[inv.ID] = time.Now()
	return nil
}

func (m *Memory) LoadInvestigation(ctx context.Context, id string) (*exposure.Investigation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.investigations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return inv, nil
}

func (m *Memory) ListInvestigations(_ context.Context) ([]store.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summaries := make([]store.Summary, 0, len(m.investigations))
	for id, inv := range m.investigations {
		summaries = append(summaries, store.Summary{ID: id, Name: inv.Name, UpdatedAt: m.updated[id]})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries, nil
}

func (m *Memory) SaveStatistics(_ context.Context, investigationID string, stats []exposure.Statistics) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.investigations[investigationID]; !ok {
		return "", fmt.Errorf("%w: %s", store.ErrNotFound, investigationID)
	}
	m.nextRun++
	run := store.Run{
		ID:              "run-" + strconv.Itoa(m.nextRun),
		InvestigationID: investigationID,
		ComputedAt:      time.Now(),
		Statistics:      stats,
	}
	m.runs[investigationID] = append(m.runs[investigationID], run)
	return run.ID, nil
}

func (m *Memory) LatestRun(_ context.Context, investigationID string) (*store.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	runs := m.runs[investigationID]
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: no statistics for %s", store.ErrNotFound, investigationID)
	}
	run := runs[len(runs)-1]
	return &run, nil
}

// Runs returns how many runs were saved for an investigation
func (m *Memory) Runs(investigationID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs[investigationID])
}

func (m *Memory) Close() error { return nil }
