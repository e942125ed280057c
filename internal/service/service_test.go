package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"pdvbalcao/backend/internal/domain"
	"pdvbalcao/backend/internal/receipt"
	"pdvbalcao/backend/internal/store"
	"pdvbalcao/backend/internal/store/memory"
)

type captureReceipts struct {
	mu     sync.Mutex
	fail   bool
	wrote  []int64
	signal chan int64
}

func newCaptureReceipts(fail bool) *captureReceipts {
	return &captureReceipts{fail: fail, signal: make(chan int64, 8)}
}

func (c *captureReceipts) Render(sale domain.Sale, _ int) string {
	return fmt.Sprintf("sale %d", sale.ID)
}

func (c *captureReceipts) WriteArtifact(sale domain.Sale, _ int) (string, error) {
	c.mu.Lock()
	c.wrote = append(c.wrote, sale.ID)
	c.mu.Unlock()
	c.signal <- sale.ID
	if c.fail {
		return "", errors.New("printer on fire")
	}
	return "/tmp/receipt.html", nil
}

func (c *captureReceipts) waitForWrite(t *testing.T) int64 {
	t.Helper()
	select {
	case id := <-c.signal:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("receipt artifact was never written")
		return 0
	}
}

type captureImages struct {
	deleted []string
	fail    bool
}

func (c *captureImages) Save(data []byte, suggestedName string) (string, error) {
	return "img_test" + suggestedName, nil
}

func (c *captureImages) Resolve(name string) (string, error) {
	return "/tmp/" + name, nil
}

func (c *captureImages) Delete(name string) error {
	c.deleted = append(c.deleted, name)
	if c.fail {
		return errors.New("disk detached")
	}
	return nil
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string]*domain.Product
	deleted []string
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]*domain.Product)}
}

func (m *mapCache) Get(_ context.Context, barcode string) (*domain.Product, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.entries[barcode]
	return p, ok, nil
}

func (m *mapCache) Set(_ context.Context, barcode string, product *domain.Product, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[barcode] = product
	return nil
}

func (m *mapCache) Delete(_ context.Context, barcode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, barcode)
	m.deleted = append(m.deleted, barcode)
	return nil
}

func newTestService(repo store.Repository) (*Service, *captureReceipts) {
	receipts := newCaptureReceipts(false)
	return New(repo, receipts, &captureImages{}, newMapCache(), time.Minute), receipts
}

func cents(v int64) *int64 { return &v }

func TestRegisterSaleCashScenario(t *testing.T) {
	repo := memory.New()
	p, err := repo.CreateProduct(context.Background(), domain.Product{Name: "Carne Moida 1kg", PriceCents: 2500, Stock: 10})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	svc, receipts := newTestService(repo)

	// Cash sale of 25.00 paid with 30.00: change is computed, not supplied.
	resp, err := svc.RegisterSale(context.Background(), domain.SaleRegisterRequest{
		Items:               []domain.SaleItemInput{{ProductID: p.ID, Name: p.Name, Qty: 1, UnitPriceCents: 2500}},
		PaymentMethod:       "cash",
		TotalCents:          2500,
		AmountReceivedCents: cents(3000),
	})
	if err != nil {
		t.Fatalf("register sale: %v", err)
	}
	receipts.waitForWrite(t)

	sale, err := repo.GetSaleByID(context.Background(), resp.SaleID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if sale.ChangeCents == nil || *sale.ChangeCents != 500 {
		t.Fatalf("change = %v, want 500", sale.ChangeCents)
	}
	after, _ := repo.GetProductByID(context.Background(), p.ID)
	if after.Stock != 9 {
		t.Fatalf("stock after sale = %d, want 9", after.Stock)
	}

	day := time.Now().Format("2006-01-02")
	data, err := svc.DashboardData(context.Background(), day, day)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if data.Summary.SaleCount != 1 || data.Summary.RevenueCents != 2500 {
		t.Fatalf("dashboard before cancel = %+v", data.Summary)
	}

	if _, err := svc.CancelSale(context.Background(), resp.SaleID); err != nil {
		t.Fatalf("cancel sale: %v", err)
	}
	after, _ = repo.GetProductByID(context.Background(), p.ID)
	if after.Stock != 10 {
		t.Fatalf("stock after cancel = %d, want 10", after.Stock)
	}

	data, err = svc.DashboardData(context.Background(), day, day)
	if err != nil {
		t.Fatalf("dashboard after cancel: %v", err)
	}
	if data.Summary.SaleCount != 0 || data.Summary.RevenueCents != 0 || data.Summary.AverageTicketCents != 0 {
		t.Fatalf("cancelled sale still counted: %+v", data.Summary)
	}
}

func TestRegisterSaleValidation(t *testing.T) {
	repo := memory.NewSeeded()
	svc, _ := newTestService(repo)

	cases := []struct {
		name string
		req  domain.SaleRegisterRequest
	}{
		{"empty cart", domain.SaleRegisterRequest{PaymentMethod: "cash", TotalCents: 100}},
		{"zero qty", domain.SaleRegisterRequest{
			Items:         []domain.SaleItemInput{{ProductID: 1, Name: "Arroz 5kg", Qty: 0, UnitPriceCents: 2490}},
			PaymentMethod: "cash", TotalCents: 0,
		}},
		{"blank item name", domain.SaleRegisterRequest{
			Items:         []domain.SaleItemInput{{ProductID: 1, Name: "   ", Qty: 1, UnitPriceCents: 2490}},
			PaymentMethod: "cash", TotalCents: 2490,
		}},
		{"negative total", domain.SaleRegisterRequest{
			Items:         []domain.SaleItemInput{{ProductID: 1, Name: "Arroz 5kg", Qty: 1, UnitPriceCents: 2490}},
			PaymentMethod: "cash", TotalCents: -1,
		}},
		{"received below total", domain.SaleRegisterRequest{
			Items:               []domain.SaleItemInput{{ProductID: 1, Name: "Arroz 5kg", Qty: 1, UnitPriceCents: 2490}},
			PaymentMethod:       "cash",
			TotalCents:          2490,
			AmountReceivedCents: cents(2000),
		}},
	}
	for _, tc := range cases {
		if _, err := svc.RegisterSale(context.Background(), tc.req); !errors.Is(err, store.ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestRegisterSaleNormalizesPaymentMethod(t *testing.T) {
	repo := memory.NewSeeded()
	svc, _ := newTestService(repo)

	resp, err := svc.RegisterSale(context.Background(), domain.SaleRegisterRequest{
		Items:         []domain.SaleItemInput{{ProductID: 1, Name: "Arroz 5kg", Qty: 1, UnitPriceCents: 2490}},
		PaymentMethod: " Dinheiro ",
		TotalCents:    2490,
	})
	if err != nil {
		t.Fatalf("register sale: %v", err)
	}
	sale, _ := repo.GetSaleByID(context.Background(), resp.SaleID)
	if sale.PaymentMethod != domain.PaymentCash {
		t.Fatalf("payment method = %q, want cash", sale.PaymentMethod)
	}
}

func TestRegisterSaleIgnoresReceivedForNonCash(t *testing.T) {
	repo := memory.NewSeeded()
	svc, _ := newTestService(repo)

	resp, err := svc.RegisterSale(context.Background(), domain.SaleRegisterRequest{
		Items:               []domain.SaleItemInput{{ProductID: 1, Name: "Arroz 5kg", Qty: 1, UnitPriceCents: 2490}},
		PaymentMethod:       "debit",
		TotalCents:          2490,
		AmountReceivedCents: cents(5000),
	})
	if err != nil {
		t.Fatalf("register sale: %v", err)
	}
	sale, _ := repo.GetSaleByID(context.Background(), resp.SaleID)
	if sale.AmountReceivedCents != nil || sale.ChangeCents != nil {
		t.Fatalf("cash fields set on card sale: %+v", sale)
	}
}

func TestReceiptFailureDoesNotAffectSale(t *testing.T) {
	repo := memory.NewSeeded()
	receipts := newCaptureReceipts(true)
	svc := New(repo, receipts, &captureImages{}, newMapCache(), time.Minute)

	resp, err := svc.RegisterSale(context.Background(), domain.SaleRegisterRequest{
		Items:         []domain.SaleItemInput{{ProductID: 1, Name: "Arroz 5kg", Qty: 1, UnitPriceCents: 2490}},
		PaymentMethod: "pix",
		TotalCents:    2490,
	})
	if err != nil {
		t.Fatalf("register sale despite failing printer: %v", err)
	}
	receipts.waitForWrite(t)

	if _, err := repo.GetSaleByID(context.Background(), resp.SaleID); err != nil {
		t.Fatalf("sale missing after receipt failure: %v", err)
	}
}

func TestBarcodeLookupMissIsNotError(t *testing.T) {
	svc, _ := newTestService(memory.NewSeeded())

	resp, err := svc.FindByBarcode(context.Background(), "0000000000000")
	if err != nil {
		t.Fatalf("barcode miss should not error: %v", err)
	}
	if resp.Found || resp.Product != nil {
		t.Fatalf("miss reported as hit: %+v", resp)
	}
}

func TestBarcodeLookupServedFromCache(t *testing.T) {
	repo := memory.New()
	cached := newMapCache()
	cached.entries["789"] = &domain.Product{ID: 7, Name: "Cached Item", PriceCents: 100, Stock: 1, Barcode: "789"}
	svc := New(repo, newCaptureReceipts(false), &captureImages{}, cached, time.Minute)

	// The repo is empty; a hit proves the cache was consulted first.
	resp, err := svc.FindByBarcode(context.Background(), "789")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !resp.Found || resp.Product.Name != "Cached Item" {
		t.Fatalf("cache was bypassed: %+v", resp)
	}
}

func TestDeleteProductReleasesImage(t *testing.T) {
	repo := memory.New()
	p, err := repo.CreateProduct(context.Background(), domain.Product{Name: "Suco 1L", PriceCents: 780, Stock: 2, Image: "img_abc.png", Barcode: "789"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	images := &captureImages{}
	cached := newMapCache()
	svc := New(repo, newCaptureReceipts(false), images, cached, time.Minute)

	if err := svc.DeleteProduct(context.Background(), p.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if len(images.deleted) != 1 || images.deleted[0] != "img_abc.png" {
		t.Fatalf("image not released: %+v", images.deleted)
	}
	if len(cached.deleted) != 1 || cached.deleted[0] != "789" {
		t.Fatalf("barcode cache not invalidated: %+v", cached.deleted)
	}
}

func TestDeleteProductSurvivesImageFailure(t *testing.T) {
	repo := memory.New()
	p, err := repo.CreateProduct(context.Background(), domain.Product{Name: "Suco 1L", PriceCents: 780, Stock: 2, Image: "img_abc.png"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	svc := New(repo, newCaptureReceipts(false), &captureImages{fail: true}, newMapCache(), time.Minute)

	if err := svc.DeleteProduct(context.Background(), p.ID); err != nil {
		t.Fatalf("image failure must not fail the delete: %v", err)
	}
	if _, err := repo.GetProductByID(context.Background(), p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("product survived delete: %v", err)
	}
}

func TestUpdateProductInvalidatesOldBarcode(t *testing.T) {
	repo := memory.New()
	p, err := repo.CreateProduct(context.Background(), domain.Product{Name: "Cafe 500g", PriceCents: 1790, Stock: 5, Barcode: "111"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	cached := newMapCache()
	svc := New(repo, newCaptureReceipts(false), &captureImages{}, cached, time.Minute)

	if _, err := svc.UpdateProduct(context.Background(), p.ID, domain.ProductUpdateRequest{
		Name: "Cafe 500g", PriceCents: 1890, Stock: 5, Barcode: "222",
	}); err != nil {
		t.Fatalf("update product: %v", err)
	}

	invalidated := make(map[string]bool, len(cached.deleted))
	for _, code := range cached.deleted {
		invalidated[code] = true
	}
	if !invalidated["111"] || !invalidated["222"] {
		t.Fatalf("expected both barcodes invalidated, got %+v", cached.deleted)
	}
}

func TestAddProductValidation(t *testing.T) {
	svc, _ := newTestService(memory.New())

	cases := []domain.ProductCreateRequest{
		{Name: "  ", PriceCents: 100, Stock: 1},
		{Name: "Gratis", PriceCents: 0, Stock: 1},
		{Name: "Anti", PriceCents: 100, Stock: -1},
	}
	for _, req := range cases {
		if _, err := svc.AddProduct(context.Background(), req); !errors.Is(err, store.ErrInvalidInput) {
			t.Errorf("%+v: expected ErrInvalidInput, got %v", req, err)
		}
	}
}

func TestAddCategoryTrimsAndValidates(t *testing.T) {
	repo := memory.New()
	svc, _ := newTestService(repo)

	if _, err := svc.AddCategory(context.Background(), domain.CategoryCreateRequest{Name: "  "}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("blank category accepted: %v", err)
	}
	created, err := svc.AddCategory(context.Background(), domain.CategoryCreateRequest{Name: " Padaria "})
	if err != nil {
		t.Fatalf("add category: %v", err)
	}
	if created.Name != "Padaria" {
		t.Fatalf("category name not trimmed: %q", created.Name)
	}
}

func TestDashboardDataValidatesDates(t *testing.T) {
	svc, _ := newTestService(memory.New())

	for _, pair := range [][2]string{
		{"03/01/2024", "2024-03-31"},
		{"2024-03-01", "yesterday"},
		{"", "2024-03-31"},
	} {
		if _, err := svc.DashboardData(context.Background(), pair[0], pair[1]); !errors.Is(err, store.ErrInvalidInput) {
			t.Errorf("dates %q..%q: expected ErrInvalidInput, got %v", pair[0], pair[1], err)
		}
	}
}

func TestGenerateReceiptRendersAndWrites(t *testing.T) {
	repo := memory.NewSeeded()
	formatter, err := receipt.NewFormatter("Mercadinho Central", t.TempDir())
	if err != nil {
		t.Fatalf("new formatter: %v", err)
	}
	svc := New(repo, formatter, &captureImages{}, newMapCache(), time.Minute)

	registered, err := svc.RegisterSale(context.Background(), domain.SaleRegisterRequest{
		Items:         []domain.SaleItemInput{{ProductID: 1, Name: "Arroz 5kg", Qty: 2, UnitPriceCents: 2490}},
		PaymentMethod: "pix",
		TotalCents:    4980,
	})
	if err != nil {
		t.Fatalf("register sale: %v", err)
	}

	resp, err := svc.GenerateReceipt(context.Background(), domain.ReceiptRequest{SaleID: registered.SaleID, PaperMM: receipt.PaperNarrowMM})
	if err != nil {
		t.Fatalf("generate receipt: %v", err)
	}
	if resp.Text == "" || resp.FileName != receipt.FileName(registered.SaleID) {
		t.Fatalf("unexpected receipt response: %+v", resp)
	}
	if resp.ArtifactPath == "" {
		t.Fatal("artifact path missing")
	}
	if _, err := os.Stat(resp.ArtifactPath); err != nil {
		t.Fatalf("artifact not on disk: %v", err)
	}
}

func TestPurgeHistory(t *testing.T) {
	repo := memory.NewSeeded()
	svc, _ := newTestService(repo)

	if _, err := svc.RegisterSale(context.Background(), domain.SaleRegisterRequest{
		Items:         []domain.SaleItemInput{{ProductID: 1, Name: "Arroz 5kg", Qty: 1, UnitPriceCents: 2490}},
		PaymentMethod: "cash",
		TotalCents:    2490,
	}); err != nil {
		t.Fatalf("register sale: %v", err)
	}

	resp, err := svc.PurgeHistory(context.Background())
	if err != nil {
		t.Fatalf("purge history: %v", err)
	}
	if resp.PurgedSales != 1 {
		t.Fatalf("purged = %d, want 1", resp.PurgedSales)
	}
	sales, _ := svc.ListSales(context.Background())
	if len(sales.Sales) != 0 {
		t.Fatalf("sales survived the purge: %+v", sales.Sales)
	}
}
