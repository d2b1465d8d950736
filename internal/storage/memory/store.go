// Package memory provides an in-process Store for tests and
// single-shot CLI runs that do not need a database file.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
	apperrors "github.com/kurihiro0119/opendata-harvester/internal/errors"
	"github.com/kurihiro0119/opendata-harvester/internal/storage"
)

type memoryStore struct {
	mu      sync.Mutex
	sources map[string]*domain.Source
	jobs    map[string]*domain.Job
	items   map[string]*domain.Item
	seq     int
	order   map[string]int // item insertion order
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() storage.Store {
	return &memoryStore{
		sources: make(map[string]*domain.Source),
		jobs:    make(map[string]*domain.Job),
		items:   make(map[string]*domain.Item),
		order:   make(map[string]int),
	}
}

func (s *memoryStore) SaveSource(_ context.Context, src *domain.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *src
	s.sources[src.ID] = &clone
	return nil
}

func (s *memoryStore) GetSource(_ context.Context, id string) (*domain.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("source " + id)
	}
	clone := *src
	return &clone, nil
}

func (s *memoryStore) ListSources(_ context.Context) ([]*domain.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Source, 0, len(s.sources))
	for _, src := range s.sources {
		clone := *src
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) DeleteSource(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sources[id]; !ok {
		return apperrors.NewNotFoundError("source " + id)
	}
	delete(s.sources, id)
	return nil
}

func (s *memoryStore) CreateJob(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *job
	s.jobs[job.ID] = &clone
	return nil
}

func (s *memoryStore) UpdateJob(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return apperrors.NewNotFoundError("job " + job.ID)
	}
	clone := *job
	s.jobs[job.ID] = &clone
	return nil
}

func (s *memoryStore) GetJob(_ context.Context, id string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("job " + id)
	}
	clone := *job
	return &clone, nil
}

func (s *memoryStore) ListJobs(_ context.Context, sourceID string) ([]*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Job
	for _, job := range s.jobs {
		if job.SourceID == sourceID {
			clone := *job
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) CreateItem(_ context.Context, item *domain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *item
	s.items[item.ID] = &clone
	s.seq++
	s.order[item.ID] = s.seq
	return nil
}

func (s *memoryStore) UpdateItem(_ context.Context, item *domain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; !ok {
		return apperrors.NewNotFoundError("item " + item.ID)
	}
	clone := *item
	s.items[item.ID] = &clone
	return nil
}

func (s *memoryStore) ListItems(_ context.Context, jobID string) ([]*domain.Item, error) {
	return s.listItems(jobID, "")
}

func (s *memoryStore) ListItemsByStatus(_ context.Context, jobID string, status domain.ItemStatus) ([]*domain.Item, error) {
	return s.listItems(jobID, status)
}

func (s *memoryStore) listItems(jobID string, status domain.ItemStatus) ([]*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Item
	for _, item := range s.items {
		if item.JobID != jobID {
			continue
		}
		if status != "" && item.Status != status {
			continue
		}
		clone := *item
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return s.order[out[i].ID] < s.order[out[j].ID] })
	return out, nil
}

func (s *memoryStore) Migrate(_ context.Context) error { return nil }

func (s *memoryStore) Close() error { return nil }
