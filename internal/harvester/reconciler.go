package harvester

import (
	"context"
	"fmt"
	"sync"

	"github.com/kurihiro0119/opendata-harvester/internal/catalog"
	"github.com/kurihiro0119/opendata-harvester/internal/domain"
	apperrors "github.com/kurihiro0119/opendata-harvester/internal/errors"
)

// Reconciler applies canonical dataset records to the destination
// catalog with upsert semantics: create when the canonical identifier
// is unknown, otherwise overwrite all mapped fields. Reconciliation of
// the same canonical identifier is serialized to avoid lost updates;
// distinct identifiers proceed concurrently.
type Reconciler struct {
	catalog catalog.Catalog

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewReconciler creates a reconciler writing to cat.
func NewReconciler(cat catalog.Catalog) *Reconciler {
	return &Reconciler{
		catalog: cat,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Reconcile upserts one dataset and reports whether it was created or
// updated, along with the persisted identifier.
func (r *Reconciler) Reconcile(ctx context.Context, ds *domain.Dataset) (domain.Action, string, error) {
	lock := r.lockFor(ds.Name)
	lock.Lock()
	defer lock.Unlock()

	_, err := r.catalog.Show(ctx, ds.Name)
	switch {
	case err == nil:
		id, err := r.catalog.Update(ctx, ds)
		if err != nil {
			return "", "", apperrors.NewReconcileError(ds.Name,
				fmt.Sprintf("update rejected: %v", err), err)
		}
		return domain.ActionUpdated, id, nil

	case apperrors.IsNotFound(err):
		id, err := r.catalog.Create(ctx, ds)
		if err != nil {
			return "", "", apperrors.NewReconcileError(ds.Name,
				fmt.Sprintf("create rejected: %v", err), err)
		}
		return domain.ActionCreated, id, nil

	default:
		return "", "", apperrors.NewReconcileError(ds.Name,
			fmt.Sprintf("lookup failed: %v", err), err)
	}
}

func (r *Reconciler) lockFor(name string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[name] = lock
	}
	return lock
}
