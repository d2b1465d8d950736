// Package catalog holds the destination catalog contract the pipeline
// imports datasets into. The pipeline only depends on three operations:
// find by canonical identifier, create, and update.
package catalog

import (
	"context"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
)

// Catalog is the destination for reconciled datasets.
type Catalog interface {
	// Show returns the dataset stored under the canonical identifier,
	// or a NOT_FOUND error when no such dataset exists.
	Show(ctx context.Context, name string) (*domain.Dataset, error)

	// Create persists a new dataset and returns its identifier.
	Create(ctx context.Context, ds *domain.Dataset) (string, error)

	// Update overwrites the mapped fields of an existing dataset and
	// returns its identifier. Destination-side fields outside the
	// mapped set are left untouched.
	Update(ctx context.Context, ds *domain.Dataset) (string, error)
}
