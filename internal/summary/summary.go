// Package summary builds job reports for the control surface from the
// persisted job and item state.
package summary

import (
	"context"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
	"github.com/kurihiro0119/opendata-harvester/internal/storage"
)

// Reporter summarizes harvest jobs
type Reporter interface {
	// JobReport returns the per-item outcome counts and the failure
	// details for one job.
	JobReport(ctx context.Context, jobID string) (*domain.JobReport, error)
}

// reporter implements Reporter backed by the store
type reporter struct {
	store storage.Store
}

// NewReporter creates a new reporter
func NewReporter(store storage.Store) Reporter {
	return &reporter{store: store}
}

// JobReport builds the report for one job
func (r *reporter) JobReport(ctx context.Context, jobID string) (*domain.JobReport, error) {
	job, err := r.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	items, err := r.store.ListItems(ctx, jobID)
	if err != nil {
		return nil, err
	}

	return domain.BuildJobReport(job, items), nil
}
