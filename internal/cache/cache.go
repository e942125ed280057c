package cache

import (
	"context"
	"time"

	"pdvbalcao/backend/internal/domain"
)

// ProductCache serves the scan-to-add hot path: barcode lookups during cart
// building hit the cache before the store. Writes to a product must invalidate
// its barcode entry.
type ProductCache interface {
	Get(ctx context.Context, barcode string) (*domain.Product, bool, error)
	Set(ctx context.Context, barcode string, product *domain.Product, ttl time.Duration) error
	Delete(ctx context.Context, barcode string) error
}

type NoopProductCache struct{}

func (NoopProductCache) Get(_ context.Context, _ string) (*domain.Product, bool, error) {
	return nil, false, nil
}

func (NoopProductCache) Set(_ context.Context, _ string, _ *domain.Product, _ time.Duration) error {
	return nil
}

func (NoopProductCache) Delete(_ context.Context, _ string) error {
	return nil
}
