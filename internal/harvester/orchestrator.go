package harvester

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kurihiro0119/opendata-harvester/internal/catalog"
	"github.com/kurihiro0119/opendata-harvester/internal/domain"
	apperrors "github.com/kurihiro0119/opendata-harvester/internal/errors"
	"github.com/kurihiro0119/opendata-harvester/internal/harvester/mapper"
	"github.com/kurihiro0119/opendata-harvester/internal/remote"
	"github.com/kurihiro0119/opendata-harvester/internal/storage"
)

const defaultWorkers = 4

// ProgressFunc reports pipeline progress for one job.
type ProgressFunc func(done, total int)

// Orchestrator runs gather, fetch and import for one harvest job end
// to end. The gather stage walks the listing sequentially; fetch and
// import for gathered items run on a bounded worker pool. One item's
// failure never prevents other items from importing.
type Orchestrator struct {
	store   storage.Store
	catalog catalog.Catalog
	workers int
	timeout time.Duration
	logger  *log.Logger

	// Progress, when set, is called after each item completes.
	Progress ProgressFunc
}

// NewOrchestrator creates a pipeline orchestrator.
func NewOrchestrator(store storage.Store, cat catalog.Catalog, workers int, timeout time.Duration) *Orchestrator {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Orchestrator{
		store:   store,
		catalog: cat,
		workers: workers,
		timeout: timeout,
		logger:  log.New(log.Writer(), "[harvest] ", log.LstdFlags),
	}
}

// Run executes the job against src. Cancelling ctx stops dispatching
// new work; in-flight requests finish on their own timeout and the job
// still ends as finished with unattempted items counted.
func (o *Orchestrator) Run(ctx context.Context, job *domain.Job, src *domain.Source) (*domain.JobReport, error) {
	job.Status = domain.JobStatusRunning
	job.StartedAt = time.Now()
	if err := o.store.UpdateJob(ctx, job); err != nil {
		return nil, err
	}

	fieldMapper, err := mapper.ForFormat(src.Format)
	if err != nil {
		return nil, o.failJob(job, apperrors.NewInternalError("no mapper for source format", err))
	}

	client := remote.NewClient(src, o.timeout)

	items, gatherErr := o.gather(ctx, job, src, client)
	if gatherErr != nil && len(items) == 0 {
		// Source entirely unreachable: no items exist to isolate the
		// failure to, so the job itself errors.
		return nil, o.failJob(job, gatherErr)
	}
	if gatherErr != nil {
		o.logger.Printf("job %s: pagination stopped early: %v", job.ID, gatherErr)
		job.Error = gatherErr.Error()
	}

	o.logger.Printf("job %s: gathered %d items from source %s", job.ID, len(items), src.ID)

	fetcher := NewFetcher(src, client)
	reconciler := NewReconciler(o.catalog)

	var (
		wg        sync.WaitGroup
		semaphore = make(chan struct{}, o.workers)
		mu        sync.Mutex
		done      int
	)

	for _, item := range items {
		wg.Add(1)
		go func(it *domain.Item) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			// A cancel between gather and this item's turn leaves it
			// gathered; only items already holding a worker slot run.
			if ctx.Err() != nil {
				return
			}

			// In-flight work finishes on its own bound, not the job's
			// cancel signal.
			itemCtx, cancelItem := context.WithTimeout(context.Background(), o.itemBudget())
			defer cancelItem()

			o.processItem(itemCtx, it, src, fetcher, fieldMapper, reconciler)

			if o.Progress != nil {
				mu.Lock()
				done++
				o.Progress(done, len(items))
				mu.Unlock()
			}
		}(item)
	}

	wg.Wait()

	now := time.Now()
	job.Status = domain.JobStatusFinished
	job.FinishedAt = &now

	report := domain.BuildJobReport(job, items)

	if err := o.store.UpdateJob(context.Background(), job); err != nil {
		return report, err
	}

	o.logger.Printf("job %s: finished (created=%d updated=%d failed=%d not_attempted=%d)",
		job.ID, report.Created, report.Updated, report.Failed, report.NotAttempted)

	return report, nil
}

// gather walks the listing, deduplicates remote identifiers and
// persists one gathered item per identifier. A pagination failure
// returns the items gathered so far together with the error.
func (o *Orchestrator) gather(ctx context.Context, job *domain.Job, src *domain.Source, client *remote.Client) ([]*domain.Item, error) {
	paginator := NewPaginator(src, client)

	var items []*domain.Item
	seen := make(map[string]bool)

	for {
		page, done, err := paginator.Next(ctx)
		if err != nil {
			return items, apperrors.NewPaginationError(
				fmt.Sprintf("source listing failed: %v", err), err)
		}

		for _, summary := range page {
			if seen[summary.ID] {
				continue
			}
			seen[summary.ID] = true

			now := time.Now()
			item := &domain.Item{
				ID:        uuid.New().String(),
				JobID:     job.ID,
				RemoteID:  summary.ID,
				Title:     summary.Title,
				Status:    domain.ItemStatusGathered,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := o.store.CreateItem(ctx, item); err != nil {
				return items, apperrors.NewInternalError("failed to persist gathered item", err)
			}
			items = append(items, item)
		}

		if done {
			return items, nil
		}
	}
}

// processItem takes one gathered item through fetch and import. Stage
// order within the item is strict; a failure marks the item failed
// with the stage it died in.
func (o *Orchestrator) processItem(ctx context.Context, item *domain.Item, src *domain.Source, fetcher *Fetcher, fieldMapper mapper.Mapper, reconciler *Reconciler) {
	payload, err := fetcher.Fetch(ctx, item.RemoteID)
	if err != nil {
		o.failItem(item, domain.StageFetch, err)
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		o.failItem(item, domain.StageFetch, err)
		return
	}
	item.Payload = raw
	item.Status = domain.ItemStatusFetched
	item.UpdatedAt = time.Now()
	if err := o.store.UpdateItem(ctx, item); err != nil {
		o.logger.Printf("warning: failed to persist fetched item %s: %v", item.RemoteID, err)
	}

	ds, err := fieldMapper.Map(item.RemoteID, payload)
	if err != nil {
		o.failItem(item, domain.StageImport, err)
		return
	}
	if src.OwnerOrg != "" {
		ds.OwnerOrg = src.OwnerOrg
	}

	action, datasetID, err := reconciler.Reconcile(ctx, ds)
	if err != nil {
		o.failItem(item, domain.StageImport, err)
		return
	}

	item.Status = domain.ItemStatusImported
	item.Action = action
	item.DatasetID = datasetID
	item.UpdatedAt = time.Now()
	if err := o.store.UpdateItem(ctx, item); err != nil {
		o.logger.Printf("warning: failed to persist imported item %s: %v", item.RemoteID, err)
	}
}

func (o *Orchestrator) failItem(item *domain.Item, fallback domain.Stage, err error) {
	stage := fallback
	var appErr *apperrors.AppError
	if e, ok := err.(*apperrors.AppError); ok {
		appErr = e
	}
	if appErr != nil && appErr.Stage != "" {
		stage = appErr.Stage
	}

	item.Status = domain.ItemStatusFailed
	item.Stage = stage
	item.Error = err.Error()
	item.UpdatedAt = time.Now()

	o.logger.Printf("item %s failed at %s: %v", item.RemoteID, stage, err)

	if err := o.store.UpdateItem(context.Background(), item); err != nil {
		o.logger.Printf("warning: failed to persist failed item %s: %v", item.RemoteID, err)
	}
}

func (o *Orchestrator) failJob(job *domain.Job, err error) error {
	now := time.Now()
	job.Status = domain.JobStatusErrored
	job.Error = err.Error()
	job.FinishedAt = &now

	if updateErr := o.store.UpdateJob(context.Background(), job); updateErr != nil {
		o.logger.Printf("warning: failed to persist errored job %s: %v", job.ID, updateErr)
	}
	return err
}

// itemBudget bounds the time one item may spend in fetch and import
// once a worker picks it up.
func (o *Orchestrator) itemBudget() time.Duration {
	if o.timeout > 0 {
		return o.timeout
	}
	return 30 * time.Second
}
