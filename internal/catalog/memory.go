package catalog

import (
	"context"
	"sync"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
	apperrors "github.com/kurihiro0119/opendata-harvester/internal/errors"
)

// MemoryCatalog is an in-process catalog for tests and dry runs.
type MemoryCatalog struct {
	mu       sync.Mutex
	datasets map[string]*domain.Dataset
	creates  int
	updates  int
}

// NewMemoryCatalog creates an empty in-memory catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		datasets: make(map[string]*domain.Dataset),
	}
}

// Show returns the dataset stored under name.
func (m *MemoryCatalog) Show(_ context.Context, name string) (*domain.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ds, ok := m.datasets[name]
	if !ok {
		return nil, apperrors.NewNotFoundError("dataset " + name)
	}
	clone := *ds
	return &clone, nil
}

// Create stores a new dataset.
func (m *MemoryCatalog) Create(_ context.Context, ds *domain.Dataset) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.datasets[ds.Name]; ok {
		return "", apperrors.NewConflictError("dataset " + ds.Name + " already exists")
	}
	clone := *ds
	m.datasets[ds.Name] = &clone
	m.creates++
	return ds.Name, nil
}

// Update replaces the mapped fields of an existing dataset.
func (m *MemoryCatalog) Update(_ context.Context, ds *domain.Dataset) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.datasets[ds.Name]; !ok {
		return "", apperrors.NewNotFoundError("dataset " + ds.Name)
	}
	clone := *ds
	m.datasets[ds.Name] = &clone
	m.updates++
	return ds.Name, nil
}

// Len returns the number of stored datasets.
func (m *MemoryCatalog) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.datasets)
}

// Writes returns the total create and update counts.
func (m *MemoryCatalog) Writes() (creates, updates int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates, m.updates
}

// Get returns the stored dataset without copy, for test assertions.
func (m *MemoryCatalog) Get(name string) *domain.Dataset {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.datasets[name]
}
