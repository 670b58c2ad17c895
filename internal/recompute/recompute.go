// Package recompute recalculates the statistics of many stored investigations
// with bounded parallelism.
package recompute

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/workplace-hygiene/noiseexposure/internal/store"
	"github.com/workplace-hygiene/noiseexposure/pkg/exposure"
)

// Result is the outcome for one investigation
type Result struct {
	InvestigationID string                `json:"investigation_id"`
	RunID           string                `json:"run_id,omitempty"`
	Statistics      []exposure.Statistics `json:"statistics"`
}

// Recomputer loads investigations, computes and persists their statistics
type Recomputer struct {
	store      store.Store
	calculator *exposure.Calculator
	workers    int
	persist    bool
	logger     *zap.SugaredLogger
}

// New creates a Recomputer. Workers below one run sequentially. When persist
// is false results are returned without being saved.
func New(s store.Store, calc *exposure.Calculator, workers int, persist bool, logger *zap.SugaredLogger) *Recomputer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if workers < 1 {
		workers = 1
	}
	return &Recomputer{store: s, calculator: calc, workers: workers, persist: persist, logger: logger}
}

// One recomputes a single investigation
func (r *Recomputer) One(ctx context.Context, id string) (Result, error) {
	inv, err := r.store.LoadInvestigation(ctx, id)
	if err != nil {
		return Result{}, err
	}

	res := Result{InvestigationID: id, Statistics: r.calculator.ComputeAllStatistics(inv)}
	if r.persist {
		res.RunID, err = r.store.SaveStatistics(ctx, id, res.Statistics)
		if err != nil {
			return Result{}, err
		}
	}

	r.logger.Debugw("recomputed investigation", "investigation", id, "groups", len(res.Statistics), "run", res.RunID)
	return res, nil
}

// Many recomputes the given investigations. Results are in the order of ids.
// The first failure cancels the remaining work.
func (r *Recomputer) Many(ctx context.Context, ids []string) ([]Result, error) {
	results := make([]Result, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, id := range ids {
		g.Go(func() error {
			res, err := r.One(ctx, id)
			if err != nil {
				return fmt.Errorf("recomputing %s: %w", id, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// All recomputes every investigation in the store
func (r *Recomputer) All(ctx context.Context) ([]Result, error) {
	summaries, err := r.store.ListInvestigations(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(summaries))
	for i, s := range summaries {
		ids[i] = s.ID
	}

	r.logger.Infow("recomputing investigations", "count", len(ids), "workers", r.workers)
	return r.Many(ctx, ids)
}
