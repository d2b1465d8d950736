package summary

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
	"github.com/kurihiro0119/opendata-harvester/internal/storage/memory"
)

func seedJob(t *testing.T, status domain.JobStatus) (Reporter, string) {
	t.Helper()
	store := memory.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateJob(ctx, &domain.Job{ID: "job-1", Status: status}))
	require.NoError(t, store.CreateItem(ctx, &domain.Item{
		ID: "i-1", JobID: "job-1", RemoteID: "a-1",
		Status: domain.ItemStatusImported, Action: domain.ActionUpdated,
	}))
	require.NoError(t, store.CreateItem(ctx, &domain.Item{
		ID: "i-2", JobID: "job-1", RemoteID: "a-2",
		Status: domain.ItemStatusGathered,
	}))

	return NewReporter(store), "job-1"
}

func TestJobReportCountsWhileRunning(t *testing.T) {
	reporter, jobID := seedJob(t, domain.JobStatusRunning)

	report, err := reporter.JobReport(context.Background(), jobID)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Gathered)
	assert.Equal(t, 1, report.Updated)
	// pending items on a running job are still in flight
	assert.Zero(t, report.NotAttempted)
}

func TestJobReportCountsAfterFinish(t *testing.T) {
	reporter, jobID := seedJob(t, domain.JobStatusFinished)

	report, err := reporter.JobReport(context.Background(), jobID)
	require.NoError(t, err)

	assert.Equal(t, 1, report.NotAttempted)
}

func TestJobReportUnknownJob(t *testing.T) {
	reporter := NewReporter(memory.NewMemoryStore())
	_, err := reporter.JobReport(context.Background(), "missing")
	assert.Error(t, err)
}
