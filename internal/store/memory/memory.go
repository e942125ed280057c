package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"pdvbalcao/backend/internal/domain"
	"pdvbalcao/backend/internal/store"
)

// Store is an in-memory Repository used by tests and local experimentation.
// It mirrors the sqlite store's semantics, including all-or-nothing sale
// registration and the cancel no-op on already-cancelled sales.
type Store struct {
	mu             sync.RWMutex
	categories     map[int64]domain.Category
	products       map[int64]domain.Product
	sales          map[int64]domain.Sale
	nextCategoryID int64
	nextProductID  int64
	nextSaleID     int64
	nextItemID     int64
}

func New() *Store {
	return &Store{
		categories: make(map[int64]domain.Category),
		products:   make(map[int64]domain.Product),
		sales:      make(map[int64]domain.Sale),
	}
}

// NewSeeded returns a store preloaded with a small catalog, handy for service
// tests and demos.
func NewSeeded() *Store {
	s := New()
	ctx := context.Background()

	mercearia, _ := s.CreateCategory(ctx, "Mercearia")
	bebidas, _ := s.CreateCategory(ctx, "Bebidas")

	seed := []domain.Product{
		{Name: "Arroz 5kg", PriceCents: 2490, Stock: 40, Barcode: "7891000100103", CategoryID: &mercearia.ID},
		{Name: "Feijao 1kg", PriceCents: 890, Stock: 60, Barcode: "7891000100110", CategoryID: &mercearia.ID},
		{Name: "Cafe 500g", PriceCents: 1790, Stock: 35, Barcode: "7891000100127", CategoryID: &mercearia.ID},
		{Name: "Refrigerante 2L", PriceCents: 990, Stock: 48, Barcode: "7891000100134", CategoryID: &bebidas.ID},
		{Name: "Agua Mineral 500ml", PriceCents: 250, Stock: 120, Barcode: "7891000100141", CategoryID: &bebidas.ID},
	}
	for _, p := range seed {
		_, _ = s.CreateProduct(ctx, p)
	}
	return s
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (s *Store) CreateCategory(_ context.Context, name string) (*domain.Category, error) {
	if name == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if c.Name == name {
			return nil, store.ErrDuplicateName
		}
	}

	s.nextCategoryID++
	category := domain.Category{ID: s.nextCategoryID, Name: name}
	s.categories[category.ID] = category
	return &category, nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, s.withCategoryName(p))
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (s *Store) GetProductByID(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := s.withCategoryName(p)
	return &found, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.PriceCents < 1 || product.Stock < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if product.Barcode != "" {
		for _, p := range s.products {
			if p.Barcode == product.Barcode {
				return nil, store.ErrDuplicateBarcode
			}
		}
	}
	if product.CategoryID != nil {
		if _, ok := s.categories[*product.CategoryID]; !ok {
			return nil, store.ErrNotFound
		}
	}

	s.nextProductID++
	product.ID = s.nextProductID
	s.products[product.ID] = product
	created := s.withCategoryName(product)
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID < 1 || product.Name == "" || product.PriceCents < 1 || product.Stock < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[product.ID]; !ok {
		return nil, store.ErrNotFound
	}
	if product.Barcode != "" {
		for id, p := range s.products {
			if id != product.ID && p.Barcode == product.Barcode {
				return nil, store.ErrDuplicateBarcode
			}
		}
	}
	if product.CategoryID != nil {
		if _, ok := s.categories[*product.CategoryID]; !ok {
			return nil, store.ErrNotFound
		}
	}

	s.products[product.ID] = product
	updated := s.withCategoryName(product)
	return &updated, nil
}

func (s *Store) FindProductByBarcode(_ context.Context, barcode string) (*domain.Product, error) {
	if barcode == "" {
		return nil, store.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.Barcode == barcode {
			found := s.withCategoryName(p)
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.products, id)

	// Equivalent of ON DELETE SET NULL: keep the historical line items but
	// clear their product reference.
	for saleID, sale := range s.sales {
		changed := false
		for i := range sale.Items {
			if sale.Items[i].ProductID != nil && *sale.Items[i].ProductID == id {
				sale.Items[i].ProductID = nil
				changed = true
			}
		}
		if changed {
			s.sales[saleID] = sale
		}
	}
	return nil
}

func (s *Store) RegisterSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	if len(sale.Items) == 0 || sale.TotalCents < 0 {
		return nil, store.ErrInvalidInput
	}
	for _, item := range sale.Items {
		if item.ProductID == nil || item.Qty < 1 || item.Name == "" {
			return nil, store.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate everything up front so a failure on any item leaves no trace,
	// matching the sqlite store's transactional rollback.
	needed := make(map[int64]int, len(sale.Items))
	for _, item := range sale.Items {
		needed[*item.ProductID] += item.Qty
	}
	for productID, qty := range needed {
		p, ok := s.products[productID]
		if !ok {
			return nil, store.ErrNotFound
		}
		if p.Stock < qty {
			return nil, store.ErrInsufficientStock
		}
	}

	if sale.SoldAt.IsZero() {
		sale.SoldAt = time.Now()
	}
	if sale.Status == "" {
		sale.Status = domain.SaleStatusCompleted
	}

	s.nextSaleID++
	sale.ID = s.nextSaleID
	for i := range sale.Items {
		s.nextItemID++
		sale.Items[i].ID = s.nextItemID
		sale.Items[i].SaleID = sale.ID
	}
	for productID, qty := range needed {
		p := s.products[productID]
		p.Stock -= qty
		s.products[productID] = p
	}
	s.sales[sale.ID] = cloneSale(sale)

	registered := cloneSale(sale)
	return &registered, nil
}

func (s *Store) CancelSale(_ context.Context, saleID int64) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[saleID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if sale.Status == domain.SaleStatusCancelled {
		cancelled := cloneSale(sale)
		return &cancelled, nil
	}

	sale.Status = domain.SaleStatusCancelled
	for _, item := range sale.Items {
		if item.ProductID == nil {
			continue
		}
		if p, ok := s.products[*item.ProductID]; ok {
			p.Stock += item.Qty
			s.products[*item.ProductID] = p
		}
	}
	s.sales[saleID] = sale

	cancelled := cloneSale(sale)
	return &cancelled, nil
}

func (s *Store) GetSaleByID(_ context.Context, saleID int64) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[saleID]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := cloneSale(sale)
	return &found, nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		sales = append(sales, cloneSale(sale))
	}
	sort.Slice(sales, func(i, j int) bool {
		if sales[i].SoldAt.Equal(sales[j].SoldAt) {
			return sales[i].ID > sales[j].ID
		}
		return sales[i].SoldAt.After(sales[j].SoldAt)
	})
	return sales, nil
}

func (s *Store) PurgeSales(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := int64(len(s.sales))
	s.sales = make(map[int64]domain.Sale)
	return purged, nil
}

func (s *Store) GetSalesSummary(_ context.Context, startDate string, endDate string) (domain.SalesSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var summary domain.SalesSummary
	for _, sale := range s.sales {
		if !s.inRange(sale, startDate, endDate) {
			continue
		}
		summary.SaleCount++
		summary.RevenueCents += sale.TotalCents
	}
	if summary.SaleCount > 0 {
		summary.AverageTicketCents = summary.RevenueCents / summary.SaleCount
	}
	return summary, nil
}

func (s *Store) GetTopProducts(_ context.Context, startDate string, endDate string, limit int) ([]domain.ProductSales, error) {
	if limit < 1 {
		limit = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]int64)
	for _, sale := range s.sales {
		if !s.inRange(sale, startDate, endDate) {
			continue
		}
		for _, item := range sale.Items {
			totals[item.Name] += int64(item.Qty)
		}
	}

	top := make([]domain.ProductSales, 0, len(totals))
	for name, qty := range totals {
		top = append(top, domain.ProductSales{Name: name, QtySold: qty})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].QtySold == top[j].QtySold {
			return top[i].Name < top[j].Name
		}
		return top[i].QtySold > top[j].QtySold
	})
	if len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

func (s *Store) GetRevenueSeries(_ context.Context, startDate string, endDate string) ([]domain.RevenuePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDay := make(map[string]int64)
	for _, sale := range s.sales {
		if !s.inRange(sale, startDate, endDate) {
			continue
		}
		byDay[sale.SoldAt.Format("2006-01-02")] += sale.TotalCents
	}

	series := make([]domain.RevenuePoint, 0, len(byDay))
	for day, revenue := range byDay {
		series = append(series, domain.RevenuePoint{Day: day, RevenueCents: revenue})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Day < series[j].Day })
	return series, nil
}

func (s *Store) GetPaymentBreakdown(_ context.Context, startDate string, endDate string) ([]domain.PaymentMethodCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, sale := range s.sales {
		if !s.inRange(sale, startDate, endDate) {
			continue
		}
		counts[strings.ToLower(strings.TrimSpace(sale.PaymentMethod))]++
	}

	breakdown := make([]domain.PaymentMethodCount, 0, len(counts))
	for method, count := range counts {
		breakdown = append(breakdown, domain.PaymentMethodCount{Method: method, SaleCount: count})
	}
	sort.Slice(breakdown, func(i, j int) bool { return breakdown[i].Method < breakdown[j].Method })
	return breakdown, nil
}

// inRange matches completed sales whose calendar day falls inside the
// inclusive range. Dates compare lexically in "2006-01-02" form.
func (s *Store) inRange(sale domain.Sale, startDate string, endDate string) bool {
	if sale.Status != domain.SaleStatusCompleted {
		return false
	}
	day := sale.SoldAt.Format("2006-01-02")
	return day >= startDate && day <= endDate
}

func (s *Store) withCategoryName(p domain.Product) domain.Product {
	if p.CategoryID != nil {
		if c, ok := s.categories[*p.CategoryID]; ok {
			p.CategoryName = c.Name
		}
	}
	return p
}

func cloneSale(sale domain.Sale) domain.Sale {
	clone := sale
	clone.Items = make([]domain.SaleItem, len(sale.Items))
	copy(clone.Items, sale.Items)
	return clone
}
