package storage

import (
	"context"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
)

// Store is the abstract interface for the persistence layer tracking
// harvest sources, jobs and items.
type Store interface {
	// Source operations
	SaveSource(ctx context.Context, src *domain.Source) error
	GetSource(ctx context.Context, id string) (*domain.Source, error)
	ListSources(ctx context.Context) ([]*domain.Source, error)
	DeleteSource(ctx context.Context, id string) error

	// Job operations
	CreateJob(ctx context.Context, job *domain.Job) error
	UpdateJob(ctx context.Context, job *domain.Job) error
	GetJob(ctx context.Context, id string) (*domain.Job, error)
	ListJobs(ctx context.Context, sourceID string) ([]*domain.Job, error)

	// Item operations
	CreateItem(ctx context.Context, item *domain.Item) error
	UpdateItem(ctx context.Context, item *domain.Item) error
	ListItems(ctx context.Context, jobID string) ([]*domain.Item, error)
	ListItemsByStatus(ctx context.Context, jobID string, status domain.ItemStatus) ([]*domain.Item, error)

	// Migration
	Migrate(ctx context.Context) error

	// Connection management
	Close() error
}
