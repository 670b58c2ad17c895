// Package store defines how investigation snapshots are loaded and how
// computed statistics are persisted.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/workplace-hygiene/noiseexposure/pkg/exposure"
)

// ErrNotFound is returned when an investigation does not exist.
var ErrNotFound = errors.New("investigation not found")

// Summary is a listing entry for an investigation
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Run is one persisted computation of an investigation's statistics
type Run struct {
	ID              string                `json:"id"`
	InvestigationID string                `json:"investigation_id"`
	ComputedAt      time.Time             `json:"computed_at"`
	Statistics      []exposure.Statistics `json:"statistics"`
}

// Store is implemented by every persistence backend
type Store interface {
	// SaveInvestigation inserts or replaces a complete snapshot.
	SaveInvestigation(ctx context.Context, inv *exposure.Investigation) error
	LoadInvestigation(ctx context.Context, id string) (*exposure.Investigation, error)
	ListInvestigations(ctx context.Context) ([]Summary, error)

	// SaveStatistics records a computation run and returns its ID.
	SaveStatistics(ctx context.Context, investigationID string, stats []exposure.Statistics) (string, error)
	LatestRun(ctx context.Context, investigationID string) (*Run, error)

	Close() error
}
