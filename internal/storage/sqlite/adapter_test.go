package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
	apperrors "github.com/kurihiro0119/opendata-harvester/internal/errors"
	"github.com/kurihiro0119/opendata-harvester/internal/storage"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "harvest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSourceRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Second)
	src := &domain.Source{
		ID:        "src-1",
		Title:     "City models",
		APIBase:   "https://api.example.org/v1",
		Mode:      domain.ModeREST,
		Format:    domain.FormatPlateau,
		PageSize:  50,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.SaveSource(ctx, src))

	got, err := store.GetSource(ctx, "src-1")
	require.NoError(t, err)
	assert.Equal(t, src.Title, got.Title)
	assert.Equal(t, src.PageSize, got.PageSize)

	// saving again with the same id overwrites
	src.Title = "City models v2"
	require.NoError(t, store.SaveSource(ctx, src))

	got, err = store.GetSource(ctx, "src-1")
	require.NoError(t, err)
	assert.Equal(t, "City models v2", got.Title)

	sources, err := store.ListSources(ctx)
	require.NoError(t, err)
	assert.Len(t, sources, 1)

	require.NoError(t, store.DeleteSource(ctx, "src-1"))
	_, err = store.GetSource(ctx, "src-1")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestJobLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := &domain.Job{
		ID:        "job-1",
		SourceID:  "src-1",
		Status:    domain.JobStatusPending,
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateJob(ctx, job))

	job.Status = domain.JobStatusRunning
	job.StartedAt = time.Now()
	require.NoError(t, store.UpdateJob(ctx, job))

	finished := time.Now()
	job.Status = domain.JobStatusFinished
	job.FinishedAt = &finished
	require.NoError(t, store.UpdateJob(ctx, job))

	got, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFinished, got.Status)
	require.NotNil(t, got.FinishedAt)
	assert.False(t, got.StartedAt.IsZero())

	jobs, err := store.ListJobs(ctx, "src-1")
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	_, err = store.GetJob(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestItemLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	item := &domain.Item{
		ID:        "item-1",
		JobID:     "job-1",
		RemoteID:  "a-1",
		Title:     "Dataset A1",
		Status:    domain.ItemStatusGathered,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.CreateItem(ctx, item))

	item.Status = domain.ItemStatusFetched
	item.Payload = []byte(`{"id":"a-1"}`)
	require.NoError(t, store.UpdateItem(ctx, item))

	item.Status = domain.ItemStatusImported
	item.Action = domain.ActionCreated
	item.DatasetID = "uuid-1"
	require.NoError(t, store.UpdateItem(ctx, item))

	items, err := store.ListItems(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.ItemStatusImported, items[0].Status)
	assert.Equal(t, domain.ActionCreated, items[0].Action)
	assert.JSONEq(t, `{"id":"a-1"}`, string(items[0].Payload))

	failed := &domain.Item{
		ID:        "item-2",
		JobID:     "job-1",
		RemoteID:  "a-2",
		Status:    domain.ItemStatusFailed,
		Stage:     domain.StageFetch,
		Error:     "fetch failed",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.CreateItem(ctx, failed))

	failedItems, err := store.ListItemsByStatus(ctx, "job-1", domain.ItemStatusFailed)
	require.NoError(t, err)
	require.Len(t, failedItems, 1)
	assert.Equal(t, "a-2", failedItems[0].RemoteID)
	assert.Equal(t, domain.StageFetch, failedItems[0].Stage)
}
