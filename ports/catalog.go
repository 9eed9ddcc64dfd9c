package ports

import (
	"context"

	"gogsea/domain/core"
	"gogsea/domain/geneset"
)

// CatalogPort provides read-only gene set catalogs per species
type CatalogPort interface {
	// Catalog returns the loaded catalog for species. Implementations load
	// lazily, share the result across callers and never mutate it.
	Catalog(ctx context.Context, species core.Species) (*geneset.Catalog, error)

	// Species lists the configured catalog namespaces in stable order.
	Species() []core.Species
}
