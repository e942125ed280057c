package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"pdvbalcao/backend/internal/cache"
	"pdvbalcao/backend/internal/domain"
	"pdvbalcao/backend/internal/receipt"
	"pdvbalcao/backend/internal/store"
)

// ReceiptWriter renders a sale into printable documents. Failures are logged
// warnings; they never roll back or invalidate a committed sale.
type ReceiptWriter interface {
	Render(sale domain.Sale, paperMM int) string
	WriteArtifact(sale domain.Sale, paperMM int) (string, error)
}

// ImageStore keeps product image files. The catalog only stores filenames;
// releasing the file after a product delete happens here, after the store
// delete succeeded.
type ImageStore interface {
	Save(data []byte, suggestedName string) (string, error)
	Resolve(name string) (string, error)
	Delete(name string) error
}

type Service struct {
	repo           store.Repository
	receipts       ReceiptWriter
	images         ImageStore
	products       cache.ProductCache
	cacheTTL       time.Duration
	defaultPaperMM int
}

func New(repo store.Repository, receipts ReceiptWriter, images ImageStore, products cache.ProductCache, cacheTTL time.Duration) *Service {
	if products == nil {
		products = cache.NoopProductCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}

	return &Service{
		repo:           repo,
		receipts:       receipts,
		images:         images,
		products:       products,
		cacheTTL:       cacheTTL,
		defaultPaperMM: receipt.PaperWideMM,
	}
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) AddCategory(ctx context.Context, req domain.CategoryCreateRequest) (domain.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Category{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateCategory(ctx, name)
	if err != nil {
		return domain.Category{}, err
	}
	return *created, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) AddProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	product := domain.Product{
		Name:       strings.TrimSpace(req.Name),
		PriceCents: req.PriceCents,
		Stock:      req.Stock,
		Image:      strings.TrimSpace(req.Image),
		Barcode:    strings.TrimSpace(req.Barcode),
		CategoryID: req.CategoryID,
	}
	if product.Name == "" || product.PriceCents < 1 || product.Stock < 0 {
		return domain.Product{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, req domain.ProductUpdateRequest) (domain.Product, error) {
	if id < 1 {
		return domain.Product{}, store.ErrInvalidInput
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	product := domain.Product{
		ID:         id,
		Name:       strings.TrimSpace(req.Name),
		PriceCents: req.PriceCents,
		Stock:      req.Stock,
		Image:      strings.TrimSpace(req.Image),
		Barcode:    strings.TrimSpace(req.Barcode),
		CategoryID: req.CategoryID,
	}
	if product.Name == "" || product.PriceCents < 1 || product.Stock < 0 {
		return domain.Product{}, store.ErrInvalidInput
	}

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateBarcode(ctx, existing.Barcode)
	s.invalidateBarcode(ctx, updated.Barcode)
	return *updated, nil
}

// FindByBarcode backs the scan-to-add workflow. A miss is a normal outcome,
// not an error.
func (s *Service) FindByBarcode(ctx context.Context, barcode string) (domain.BarcodeLookupResponse, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return domain.BarcodeLookupResponse{Found: false}, nil
	}

	if cached, ok, err := s.products.Get(ctx, barcode); err == nil && ok {
		return domain.BarcodeLookupResponse{Found: true, Product: cached}, nil
	} else if err != nil {
		log.Printf("[service] WARN: barcode cache get %s: %v", barcode, err)
	}

	product, err := s.repo.FindProductByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.BarcodeLookupResponse{Found: false}, nil
		}
		return domain.BarcodeLookupResponse{}, err
	}

	if err := s.products.Set(ctx, barcode, product, s.cacheTTL); err != nil {
		log.Printf("[service] WARN: barcode cache set %s: %v", barcode, err)
	}
	return domain.BarcodeLookupResponse{Found: true, Product: product}, nil
}

// DeleteProduct removes the product and then releases its stored image, in
// that order: the image is only deleted once the store delete has succeeded,
// and an image delete failure is a warning, never a rollback.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if id < 1 {
		return store.ErrInvalidInput
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.invalidateBarcode(ctx, existing.Barcode)
	if existing.Image != "" && s.images != nil {
		if err := s.images.Delete(existing.Image); err != nil {
			log.Printf("[service] WARN: failed to delete image %s for product %d: %v", existing.Image, id, err)
		}
	}
	return nil
}

func (s *Service) SaveProductImage(ctx context.Context, req domain.ImageSaveRequest) (domain.ImageSaveResponse, error) {
	if s.images == nil {
		return domain.ImageSaveResponse{}, errors.New("image storage not configured")
	}
	if len(req.Data) == 0 {
		return domain.ImageSaveResponse{}, store.ErrInvalidInput
	}

	name, err := s.images.Save(req.Data, req.FileName)
	if err != nil {
		return domain.ImageSaveResponse{}, err
	}
	path, err := s.images.Resolve(name)
	if err != nil {
		return domain.ImageSaveResponse{}, err
	}
	return domain.ImageSaveResponse{StoredName: name, Path: path}, nil
}

func (s *Service) ResolveProductImage(_ context.Context, name string) (string, error) {
	if s.images == nil {
		return "", errors.New("image storage not configured")
	}
	return s.images.Resolve(name)
}

// RegisterSale validates the cart and hands it to the store as one atomic
// unit. The total is trusted as the caller computed it (price-at-sale comes
// from the cart, never re-derived, so a mid-sale price edit cannot alter an
// in-flight cart). On success the receipt artifact is rendered in the
// background, after commit, so slow disk I/O never holds the transaction.
func (s *Service) RegisterSale(ctx context.Context, req domain.SaleRegisterRequest) (domain.SaleRegisterResponse, error) {
	if len(req.Items) == 0 || req.TotalCents < 0 {
		return domain.SaleRegisterResponse{}, store.ErrInvalidInput
	}

	items := make([]domain.SaleItem, 0, len(req.Items))
	for _, input := range req.Items {
		if input.ProductID < 1 || input.Qty < 1 || input.UnitPriceCents < 0 {
			return domain.SaleRegisterResponse{}, store.ErrInvalidInput
		}
		name := strings.TrimSpace(input.Name)
		if name == "" {
			return domain.SaleRegisterResponse{}, store.ErrInvalidInput
		}
		productID := input.ProductID
		items = append(items, domain.SaleItem{
			ProductID:      &productID,
			Name:           name,
			Qty:            input.Qty,
			UnitPriceCents: input.UnitPriceCents,
		})
	}

	method := domain.NormalizePaymentMethod(req.PaymentMethod)
	sale := domain.Sale{
		SoldAt:        time.Now(),
		TotalCents:    req.TotalCents,
		PaymentMethod: method,
		Status:        domain.SaleStatusCompleted,
		Items:         items,
	}

	if method == domain.PaymentCash && req.AmountReceivedCents != nil {
		received := *req.AmountReceivedCents
		if received < req.TotalCents {
			return domain.SaleRegisterResponse{}, store.ErrInvalidInput
		}
		sale.AmountReceivedCents = &received
		if req.ChangeCents != nil {
			change := *req.ChangeCents
			sale.ChangeCents = &change
		} else {
			change := received - req.TotalCents
			sale.ChangeCents = &change
		}
	}

	registered, err := s.repo.RegisterSale(ctx, sale)
	if err != nil {
		return domain.SaleRegisterResponse{}, err
	}

	s.dispatchReceipt(*registered)

	return domain.SaleRegisterResponse{SaleID: registered.ID}, nil
}

// dispatchReceipt renders the receipt artifact off the request path. The sale
// is already committed; a rendering failure is logged and nothing else.
func (s *Service) dispatchReceipt(sale domain.Sale) {
	if s.receipts == nil {
		return
	}
	go func() {
		if _, err := s.receipts.WriteArtifact(sale, s.defaultPaperMM); err != nil {
			log.Printf("[service] WARN: receipt artifact for sale %d: %v", sale.ID, err)
		}
	}()
}

func (s *Service) CancelSale(ctx context.Context, saleID int64) (domain.Sale, error) {
	if saleID < 1 {
		return domain.Sale{}, store.ErrInvalidInput
	}
	cancelled, err := s.repo.CancelSale(ctx, saleID)
	if err != nil {
		return domain.Sale{}, err
	}
	return *cancelled, nil
}

func (s *Service) ListSales(ctx context.Context) (domain.SaleListResponse, error) {
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return domain.SaleListResponse{}, err
	}
	return domain.SaleListResponse{Sales: sales}, nil
}

// PurgeHistory erases all sale records. Irreversible; confirmation is the
// caller's responsibility, not enforced here.
func (s *Service) PurgeHistory(ctx context.Context) (domain.PurgeHistoryResponse, error) {
	purged, err := s.repo.PurgeSales(ctx)
	if err != nil {
		return domain.PurgeHistoryResponse{}, err
	}
	if actor, ok := ActorFromContext(ctx); ok {
		log.Printf("[service] sale history purged by %s (%d sales)", actor.ClientName, purged)
	}
	return domain.PurgeHistoryResponse{PurgedSales: purged}, nil
}

func (s *Service) GenerateReceipt(ctx context.Context, req domain.ReceiptRequest) (domain.ReceiptResponse, error) {
	if s.receipts == nil {
		return domain.ReceiptResponse{}, errors.New("receipt rendering not configured")
	}
	if req.SaleID < 1 {
		return domain.ReceiptResponse{}, store.ErrInvalidInput
	}

	sale, err := s.repo.GetSaleByID(ctx, req.SaleID)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}

	paperMM := req.PaperMM
	if paperMM == 0 {
		paperMM = s.defaultPaperMM
	}

	resp := domain.ReceiptResponse{
		SaleID:   sale.ID,
		Text:     s.receipts.Render(*sale, paperMM),
		FileName: receipt.FileName(sale.ID),
	}
	if path, err := s.receipts.WriteArtifact(*sale, paperMM); err != nil {
		log.Printf("[service] WARN: receipt artifact for sale %d: %v", sale.ID, err)
	} else {
		resp.ArtifactPath = path
	}
	return resp, nil
}

// DashboardData computes the four read-only aggregates for an inclusive
// calendar-date range. The aggregates are independent, so they run
// concurrently; none mutates state.
func (s *Service) DashboardData(ctx context.Context, startDate string, endDate string) (domain.DashboardData, error) {
	startDate = strings.TrimSpace(startDate)
	endDate = strings.TrimSpace(endDate)
	if _, err := time.Parse("2006-01-02", startDate); err != nil {
		return domain.DashboardData{}, store.ErrInvalidInput
	}
	if _, err := time.Parse("2006-01-02", endDate); err != nil {
		return domain.DashboardData{}, store.ErrInvalidInput
	}

	data := domain.DashboardData{StartDate: startDate, EndDate: endDate}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := s.repo.GetSalesSummary(gctx, startDate, endDate)
		if err != nil {
			return err
		}
		data.Summary = summary
		return nil
	})
	g.Go(func() error {
		top, err := s.repo.GetTopProducts(gctx, startDate, endDate, 5)
		if err != nil {
			return err
		}
		data.TopProducts = top
		return nil
	})
	g.Go(func() error {
		series, err := s.repo.GetRevenueSeries(gctx, startDate, endDate)
		if err != nil {
			return err
		}
		data.RevenueByDay = series
		return nil
	})
	g.Go(func() error {
		breakdown, err := s.repo.GetPaymentBreakdown(gctx, startDate, endDate)
		if err != nil {
			return err
		}
		data.PaymentMethods = breakdown
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.DashboardData{}, err
	}

	return data, nil
}

func (s *Service) invalidateBarcode(ctx context.Context, barcode string) {
	if barcode == "" {
		return
	}
	if err := s.products.Delete(ctx, barcode); err != nil {
		log.Printf("[service] WARN: barcode cache delete %s: %v", barcode, err)
	}
}
