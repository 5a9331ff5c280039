package port

import (
	"context"

	"github.com/Cmetankaaa/shop-next/internal/core/domain"
)

type CatalogLookup interface {
	// Find returns the catalog entry for a product id
	Find(id int64) (domain.CatalogEntry, bool)
}

type CatalogSource interface {
	// Products fetches the first catalog page
	Products(ctx context.Context) (domain.Catalog, error)

	// Reviews fetches customer reviews
	Reviews(ctx context.Context) ([]domain.Review, error)
}
