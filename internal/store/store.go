package store

import (
	"context"
	"errors"

	"pdvbalcao/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateName     = errors.New("duplicate name")
	ErrDuplicateBarcode  = errors.New("duplicate barcode")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidInput      = errors.New("invalid input")
)

// Repository is the persistence boundary shared by the catalog, sale and
// reporting services. RegisterSale and CancelSale are atomic: either every
// row and stock adjustment lands, or none do. The four dashboard reads are
// independent and read-only; date parameters are inclusive calendar dates in
// "2006-01-02" form, interpreted in local time.
type Repository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)

	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	FindProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	RegisterSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	CancelSale(ctx context.Context, saleID int64) (*domain.Sale, error)
	GetSaleByID(ctx context.Context, saleID int64) (*domain.Sale, error)
	ListSales(ctx context.Context) ([]domain.Sale, error)
	PurgeSales(ctx context.Context) (int64, error)

	GetSalesSummary(ctx context.Context, startDate string, endDate string) (domain.SalesSummary, error)
	GetTopProducts(ctx context.Context, startDate string, endDate string, limit int) ([]domain.ProductSales, error)
	GetRevenueSeries(ctx context.Context, startDate string, endDate string) ([]domain.RevenuePoint, error)
	GetPaymentBreakdown(ctx context.Context, startDate string, endDate string) ([]domain.PaymentMethodCount, error)
}
