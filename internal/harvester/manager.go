package harvester

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kurihiro0119/opendata-harvester/internal/catalog"
	"github.com/kurihiro0119/opendata-harvester/internal/domain"
	apperrors "github.com/kurihiro0119/opendata-harvester/internal/errors"
	"github.com/kurihiro0119/opendata-harvester/internal/storage"
)

// Manager starts harvest jobs in the background and answers the
// control surface's start/cancel/status operations. It tracks the
// cancel function of every running job.
type Manager struct {
	store        storage.Store
	orchestrator *Orchestrator
	logger       *log.Logger

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

// NewManager creates a job manager.
func NewManager(store storage.Store, cat catalog.Catalog, workers int, timeout time.Duration) *Manager {
	return &Manager{
		store:        store,
		orchestrator: NewOrchestrator(store, cat, workers, timeout),
		logger:       log.New(log.Writer(), "[manager] ", log.LstdFlags),
		running:      make(map[string]context.CancelFunc),
	}
}

// Start creates a job for the source and runs it in the background.
func (m *Manager) Start(ctx context.Context, sourceID string) (*domain.Job, error) {
	src, err := m.store.GetSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	job := &domain.Job{
		ID:        uuid.New().String(),
		SourceID:  src.ID,
		Status:    domain.JobStatusPending,
		CreatedAt: now,
	}
	if err := m.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.running[job.ID] = cancel
	m.mu.Unlock()

	go func() {
		defer func() {
			m.mu.Lock()
			delete(m.running, job.ID)
			m.mu.Unlock()
			cancel()
		}()

		if _, err := m.orchestrator.Run(runCtx, job, src); err != nil {
			m.logger.Printf("job %s errored: %v", job.ID, err)
		}
	}()

	return job, nil
}

// Cancel stops a running job. Items already in flight finish on their
// own timeout; the rest are left unattempted.
func (m *Manager) Cancel(jobID string) error {
	m.mu.Lock()
	cancel, ok := m.running[jobID]
	m.mu.Unlock()

	if !ok {
		return apperrors.NewNotFoundError("running job " + jobID)
	}
	cancel()
	return nil
}

// IsRunning reports whether the job is still executing.
func (m *Manager) IsRunning(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.running[jobID]
	return ok
}
