package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Cmetankaaa/shop-next/internal/core/domain"
	"github.com/Cmetankaaa/shop-next/internal/port"
)

// LoadStorefront fetches products and reviews in parallel. A failed fetch is
// logged and yields an empty list so the page can still render.
func LoadStorefront(ctx context.Context, src port.CatalogSource, logger *zap.Logger) (domain.Catalog, []domain.Review) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		wg       sync.WaitGroup
		products domain.Catalog
		reviews  []domain.Review
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		if products, err = src.Products(ctx); err != nil {
			logger.Error("catalog fetch failed", zap.Error(err))
			products = domain.Catalog{}
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if reviews, err = src.Reviews(ctx); err != nil {
			logger.Error("reviews fetch failed", zap.Error(err))
			reviews = []domain.Review{}
		}
	}()
	wg.Wait()

	return products, reviews
}
