package domain

import (
	"strings"
	"time"
)

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type CategoryCreateRequest struct {
	Name string `json:"name"`
}

type Product struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	PriceCents   int64  `json:"price_cents"`
	Stock        int    `json:"stock"`
	Image        string `json:"image,omitempty"`
	Barcode      string `json:"barcode,omitempty"`
	CategoryID   *int64 `json:"category_id,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
}

type ProductCreateRequest struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
	Image      string `json:"image,omitempty"`
	Barcode    string `json:"barcode,omitempty"`
	CategoryID *int64 `json:"category_id,omitempty"`
}

// ProductUpdateRequest replaces every mutable field, mirroring the edit form
// which always submits the full product.
type ProductUpdateRequest struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
	Image      string `json:"image,omitempty"`
	Barcode    string `json:"barcode,omitempty"`
	CategoryID *int64 `json:"category_id,omitempty"`
}

type BarcodeLookupResponse struct {
	Found   bool     `json:"found"`
	Product *Product `json:"product,omitempty"`
}

// SaleItem is immutable once created. Name and UnitPriceCents are denormalized
// copies taken from the cart at sale time; ProductID becomes nil if the product
// is later deleted.
type SaleItem struct {
	ID             int64  `json:"id"`
	SaleID         int64  `json:"sale_id"`
	ProductID      *int64 `json:"product_id,omitempty"`
	Name           string `json:"name"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type Sale struct {
	ID                  int64      `json:"id"`
	SoldAt              time.Time  `json:"sold_at"`
	TotalCents          int64      `json:"total_cents"`
	PaymentMethod       string     `json:"payment_method"`
	Status              string     `json:"status"`
	AmountReceivedCents *int64     `json:"amount_received_cents,omitempty"`
	ChangeCents         *int64     `json:"change_cents,omitempty"`
	Items               []SaleItem `json:"items"`
}

type SaleItemInput struct {
	ProductID      int64  `json:"product_id"`
	Name           string `json:"name"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// SaleRegisterRequest carries the cart as the client finalized it. TotalCents
// is caller-computed (subtotal minus any sale-level discount) and is trusted;
// the engine never re-derives it from current catalog prices.
type SaleRegisterRequest struct {
	Items               []SaleItemInput `json:"items"`
	PaymentMethod       string          `json:"payment_method"`
	TotalCents          int64           `json:"total_cents"`
	AmountReceivedCents *int64          `json:"amount_received_cents,omitempty"`
	ChangeCents         *int64          `json:"change_cents,omitempty"`
}

type SaleRegisterResponse struct {
	SaleID int64 `json:"sale_id"`
}

type SaleListResponse struct {
	Sales []Sale `json:"sales"`
}

type PurgeHistoryResponse struct {
	PurgedSales int64 `json:"purged_sales"`
}

type SalesSummary struct {
	SaleCount          int64 `json:"sale_count"`
	RevenueCents       int64 `json:"revenue_cents"`
	AverageTicketCents int64 `json:"average_ticket_cents"`
}

type ProductSales struct {
	Name    string `json:"name"`
	QtySold int64  `json:"qty_sold"`
}

type RevenuePoint struct {
	Day          string `json:"day"`
	RevenueCents int64  `json:"revenue_cents"`
}

type PaymentMethodCount struct {
	Method    string `json:"method"`
	SaleCount int64  `json:"sale_count"`
}

type DashboardData struct {
	StartDate      string               `json:"start_date"`
	EndDate        string               `json:"end_date"`
	Summary        SalesSummary         `json:"summary"`
	TopProducts    []ProductSales       `json:"top_products"`
	RevenueByDay   []RevenuePoint       `json:"revenue_by_day"`
	PaymentMethods []PaymentMethodCount `json:"payment_methods"`
}

type ActivationRequest struct {
	ClientName string `json:"client_name"`
	LicenseKey string `json:"license_key"`
}

type ActivationResponse struct {
	AccessToken string `json:"access_token"`
	ClientName  string `json:"client_name"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	ClientName string
}

type ReceiptRequest struct {
	SaleID  int64 `json:"sale_id"`
	PaperMM int   `json:"paper_mm,omitempty"`
}

type ReceiptResponse struct {
	SaleID       int64  `json:"sale_id"`
	Text         string `json:"text"`
	ArtifactPath string `json:"artifact_path,omitempty"`
	FileName     string `json:"file_name"`
}

type ImageSaveRequest struct {
	FileName string `json:"file_name"`
	Data     []byte `json:"data"`
}

type ImageSaveResponse struct {
	StoredName string `json:"stored_name"`
	Path       string `json:"path"`
}

const (
	SaleStatusCompleted = "completed"
	SaleStatusCancelled = "cancelled"
)

const (
	PaymentCash   = "cash"
	PaymentDebit  = "debit"
	PaymentCredit = "credit"
	PaymentPix    = "pix"
	PaymentOther  = "other"
)

// NormalizePaymentMethod collapses free-form payment tags into the closed set
// {cash, debit, credit, pix, other}. Normalizing at the input boundary keeps
// stored values clean; the read side still normalizes defensively because rows
// written by older versions carry arbitrary casing and whitespace.
func NormalizePaymentMethod(method string) string {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case PaymentCash, "dinheiro":
		return PaymentCash
	case PaymentDebit, "debito", "cartao de debito", "debit card":
		return PaymentDebit
	case PaymentCredit, "credito", "cartao de credito", "credit card":
		return PaymentCredit
	case PaymentPix:
		return PaymentPix
	default:
		return PaymentOther
	}
}
