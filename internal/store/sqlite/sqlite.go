package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"pdvbalcao/backend/internal/domain"
	"pdvbalcao/backend/internal/store"
)

// soldAtLayout matches the original installations, which recorded sale
// timestamps as localtime text. DATE() and strftime() work directly on it.
const soldAtLayout = "2006-01-02 15:04:05"

type Store struct {
	db *sql.DB
}

// New opens (or creates) the database file. The connection pool is capped at
// one connection: the application is a single-writer process and serializing
// access through one connection keeps every multi-statement transaction free
// of SQLITE_BUSY surprises.
func New(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Initialize creates missing tables, additively applies missing columns and
// ensures all indexes exist. It is idempotent and safe to run on every
// startup; it never drops or renames anything. A failure here is fatal for
// the process.
func (s *Store) Initialize(ctx context.Context) error {
	creates := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			price_cents INTEGER NOT NULL,
			stock INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sales (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sold_at TEXT NOT NULL,
			total_cents INTEGER NOT NULL,
			payment_method TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sale_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sale_id INTEGER NOT NULL,
			product_id INTEGER,
			name TEXT NOT NULL,
			qty INTEGER NOT NULL,
			unit_price_cents INTEGER NOT NULL,
			FOREIGN KEY (sale_id) REFERENCES sales(id) ON DELETE CASCADE,
			FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE SET NULL
		)`,
	}
	for _, stmt := range creates {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}

	// Columns added after the first release. ALTER TABLE ADD COLUMN only,
	// never drop or rename, so old installations upgrade in place.
	productColumns, err := s.tableColumns(ctx, "products")
	if err != nil {
		return err
	}
	if !productColumns["image"] {
		if _, err := s.db.ExecContext(ctx, `ALTER TABLE products ADD COLUMN image TEXT`); err != nil {
			return fmt.Errorf("migrate products.image: %w", err)
		}
	}
	if !productColumns["barcode"] {
		if _, err := s.db.ExecContext(ctx, `ALTER TABLE products ADD COLUMN barcode TEXT`); err != nil {
			return fmt.Errorf("migrate products.barcode: %w", err)
		}
	}
	if !productColumns["category_id"] {
		if _, err := s.db.ExecContext(ctx, `ALTER TABLE products ADD COLUMN category_id INTEGER REFERENCES categories(id)`); err != nil {
			return fmt.Errorf("migrate products.category_id: %w", err)
		}
	}

	saleColumns, err := s.tableColumns(ctx, "sales")
	if err != nil {
		return err
	}
	if !saleColumns["status"] {
		if _, err := s.db.ExecContext(ctx, `ALTER TABLE sales ADD COLUMN status TEXT NOT NULL DEFAULT 'completed'`); err != nil {
			return fmt.Errorf("migrate sales.status: %w", err)
		}
	}
	if !saleColumns["amount_received_cents"] {
		if _, err := s.db.ExecContext(ctx, `ALTER TABLE sales ADD COLUMN amount_received_cents INTEGER`); err != nil {
			return fmt.Errorf("migrate sales.amount_received_cents: %w", err)
		}
	}
	if !saleColumns["change_cents"] {
		if _, err := s.db.ExecContext(ctx, `ALTER TABLE sales ADD COLUMN change_cents INTEGER`); err != nil {
			return fmt.Errorf("migrate sales.change_cents: %w", err)
		}
	}

	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_products_barcode ON products (barcode)`,
		`CREATE INDEX IF NOT EXISTS idx_products_category_id ON products (category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_sold_at ON sales (sold_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sale_items_sale_id ON sale_items (sale_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sale_items_product_id ON sale_items (product_id)`,
	}
	for _, stmt := range indexes {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create indexes: %w", err)
		}
	}

	return nil
}

func (s *Store) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("inspect %s columns: %w", table, err)
	}
	defer rows.Close()

	columns := make(map[string]bool, 8)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return columns, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name
		FROM categories
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, 16)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	if name == "" {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateName
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &domain.Category{ID: id, Name: name}, nil
}

const productSelect = `
	SELECT p.id, p.name, p.price_cents, p.stock, p.image, p.barcode, p.category_id, c.name
	FROM products p
	LEFT JOIN categories c ON p.category_id = c.id
`

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, productSelect+` ORDER BY p.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, productSelect+` WHERE p.id = ?`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.PriceCents < 1 || product.Stock < 0 {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO products (name, price_cents, stock, image, barcode, category_id)
		VALUES (?,?,?,?,?,?)
	`, product.Name, product.PriceCents, product.Stock, nullIfEmpty(product.Image), nullIfEmpty(product.Barcode), nullInt(product.CategoryID))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateBarcode
		}
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	product.ID = id
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID < 1 || product.Name == "" || product.PriceCents < 1 || product.Stock < 0 {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, price_cents = ?, stock = ?, image = ?, barcode = ?, category_id = ?
		WHERE id = ?
	`, product.Name, product.PriceCents, product.Stock, nullIfEmpty(product.Image), nullIfEmpty(product.Barcode), nullInt(product.CategoryID), product.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateBarcode
		}
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := product
	return &updated, nil
}

func (s *Store) FindProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	if barcode == "" {
		return nil, store.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, productSelect+` WHERE p.barcode = ?`, barcode)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// DeleteProduct removes the product row. Historical sale line items keep their
// denormalized name and price; the ON DELETE SET NULL constraint clears their
// product reference. Releasing any stored image asset is the caller's job.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// RegisterSale persists the sale header, its line items and the matching stock
// decrements as a single transaction. Any failure rolls the whole thing back:
// no partial sale or partial stock change is ever observable. The supplied
// total is trusted; prices are captured from the cart, not re-read.
func (s *Store) RegisterSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if len(sale.Items) == 0 {
		return nil, store.ErrInvalidInput
	}
	for _, item := range sale.Items {
		if item.ProductID == nil || item.Qty < 1 || item.Name == "" {
			return nil, store.ErrInvalidInput
		}
	}
	if sale.TotalCents < 0 {
		return nil, store.ErrInvalidInput
	}

	if sale.SoldAt.IsZero() {
		sale.SoldAt = time.Now()
	}
	if sale.Status == "" {
		sale.Status = domain.SaleStatusCompleted
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO sales (sold_at, total_cents, payment_method, status, amount_received_cents, change_cents)
		VALUES (?,?,?,?,?,?)
	`, sale.SoldAt.In(time.Local).Format(soldAtLayout), sale.TotalCents, sale.PaymentMethod, sale.Status,
		nullInt(sale.AmountReceivedCents), nullInt(sale.ChangeCents))
	if err != nil {
		return nil, fmt.Errorf("register sale header: %w", err)
	}
	saleID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	for i := range sale.Items {
		item := &sale.Items[i]

		itemRes, err := tx.ExecContext(ctx, `
			INSERT INTO sale_items (sale_id, product_id, name, qty, unit_price_cents)
			VALUES (?,?,?,?,?)
		`, saleID, *item.ProductID, item.Name, item.Qty, item.UnitPriceCents)
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, fmt.Errorf("register sale item %q: %w", item.Name, store.ErrNotFound)
			}
			return nil, fmt.Errorf("register sale item %q: %w", item.Name, err)
		}
		item.ID, err = itemRes.LastInsertId()
		if err != nil {
			return nil, err
		}
		item.SaleID = saleID

		var stock int
		err = tx.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = ?`, *item.ProductID).Scan(&stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("register sale item %q: %w", item.Name, store.ErrNotFound)
			}
			return nil, err
		}
		if stock < item.Qty {
			return nil, fmt.Errorf("register sale item %q: %w", item.Name, store.ErrInsufficientStock)
		}

		_, err = tx.ExecContext(ctx, `UPDATE products SET stock = stock - ? WHERE id = ?`, item.Qty, *item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("decrement stock for %q: %w", item.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("register sale: %w", err)
	}

	sale.ID = saleID
	return &sale, nil
}

// CancelSale flips a completed sale to cancelled and restores stock for every
// line item whose product still exists. Cancelling an already-cancelled sale
// is a no-op, not an error: re-running it must never double-restore stock.
func (s *Store) CancelSale(ctx context.Context, saleID int64) (*domain.Sale, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM sales WHERE id = ?`, saleID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status == domain.SaleStatusCancelled {
		_ = tx.Rollback()
		return s.GetSaleByID(ctx, saleID)
	}

	_, err = tx.ExecContext(ctx, `UPDATE sales SET status = ? WHERE id = ?`, domain.SaleStatusCancelled, saleID)
	if err != nil {
		return nil, fmt.Errorf("cancel sale: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT product_id, qty FROM sale_items WHERE sale_id = ?`, saleID)
	if err != nil {
		return nil, err
	}
	type restock struct {
		productID int64
		qty       int
	}
	restocks := make([]restock, 0, 8)
	for rows.Next() {
		var productID sql.NullInt64
		var qty int
		if err := rows.Scan(&productID, &qty); err != nil {
			_ = rows.Close()
			return nil, err
		}
		// Items whose product was deleted have nothing to restore stock to.
		if productID.Valid {
			restocks = append(restocks, restock{productID: productID.Int64, qty: qty})
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for _, r := range restocks {
		_, err := tx.ExecContext(ctx, `UPDATE products SET stock = stock + ? WHERE id = ?`, r.qty, r.productID)
		if err != nil {
			return nil, fmt.Errorf("restore stock: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("cancel sale: %w", err)
	}

	return s.GetSaleByID(ctx, saleID)
}

func (s *Store) GetSaleByID(ctx context.Context, saleID int64) (*domain.Sale, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, sold_at, total_cents, payment_method, status, amount_received_cents, change_cents
		FROM sales
		WHERE id = ?
	`, saleID)
	sale, err := scanSale(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sale_id, product_id, name, qty, unit_price_cents
		FROM sale_items
		WHERE sale_id = ?
		ORDER BY id ASC
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.SaleItem, 0, 8)
	for rows.Next() {
		item, err := scanSaleItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sale.Items = items
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sold_at, total_cents, payment_method, status, amount_received_cents, change_cents
		FROM sales
		ORDER BY sold_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}

	sales := make([]domain.Sale, 0, 64)
	index := make(map[int64]int, 64)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		sale.Items = make([]domain.SaleItem, 0, 4)
		index[sale.ID] = len(sales)
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	itemRows, err := s.db.QueryContext(ctx, `
		SELECT id, sale_id, product_id, name, qty, unit_price_cents
		FROM sale_items
		ORDER BY sale_id ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		item, err := scanSaleItem(itemRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[item.SaleID]; ok {
			sales[i].Items = append(sales[i].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	return sales, nil
}

// PurgeSales erases the whole sale history. Line items go with their sales via
// ON DELETE CASCADE. Stock is deliberately untouched: purging is bookkeeping,
// not an inventory operation.
func (s *Store) PurgeSales(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sales`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) GetSalesSummary(ctx context.Context, startDate string, endDate string) (domain.SalesSummary, error) {
	var summary domain.SalesSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(id), COALESCE(SUM(total_cents), 0)
		FROM sales
		WHERE DATE(sold_at) BETWEEN ? AND ? AND status = ?
	`, startDate, endDate, domain.SaleStatusCompleted).Scan(&summary.SaleCount, &summary.RevenueCents)
	if err != nil {
		return summary, err
	}

	if summary.SaleCount > 0 {
		summary.AverageTicketCents = summary.RevenueCents / summary.SaleCount
	}
	return summary, nil
}

// GetTopProducts ranks by quantity sold, grouped by the denormalized line-item
// name so products deleted after the fact still show up in history.
func (s *Store) GetTopProducts(ctx context.Context, startDate string, endDate string, limit int) ([]domain.ProductSales, error) {
	if limit < 1 {
		limit = 5
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT si.name, SUM(si.qty) AS qty_sold
		FROM sale_items si
		JOIN sales s ON si.sale_id = s.id
		WHERE s.status = ? AND DATE(s.sold_at) BETWEEN ? AND ?
		GROUP BY si.name
		ORDER BY qty_sold DESC, si.name ASC
		LIMIT ?
	`, domain.SaleStatusCompleted, startDate, endDate, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	top := make([]domain.ProductSales, 0, limit)
	for rows.Next() {
		var row domain.ProductSales
		if err := rows.Scan(&row.Name, &row.QtySold); err != nil {
			return nil, err
		}
		top = append(top, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return top, nil
}

func (s *Store) GetRevenueSeries(ctx context.Context, startDate string, endDate string) ([]domain.RevenuePoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m-%d', sold_at) AS day, COALESCE(SUM(total_cents), 0)
		FROM sales
		WHERE DATE(sold_at) BETWEEN ? AND ? AND status = ?
		GROUP BY day
		ORDER BY day ASC
	`, startDate, endDate, domain.SaleStatusCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	series := make([]domain.RevenuePoint, 0, 31)
	for rows.Next() {
		var point domain.RevenuePoint
		if err := rows.Scan(&point.Day, &point.RevenueCents); err != nil {
			return nil, err
		}
		series = append(series, point)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return series, nil
}

// GetPaymentBreakdown groups by LOWER(TRIM(payment_method)). The normalization
// is a hard requirement, not cosmetic: payment methods are free-form input and
// "Pix", "pix" and " PIX " must land in one bucket.
func (s *Store) GetPaymentBreakdown(ctx context.Context, startDate string, endDate string) ([]domain.PaymentMethodCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT LOWER(TRIM(payment_method)) AS method, COUNT(id)
		FROM sales
		WHERE DATE(sold_at) BETWEEN ? AND ? AND status = ?
		GROUP BY LOWER(TRIM(payment_method))
		ORDER BY method ASC
	`, startDate, endDate, domain.SaleStatusCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	breakdown := make([]domain.PaymentMethodCount, 0, 5)
	for rows.Next() {
		var row domain.PaymentMethodCount
		if err := rows.Scan(&row.Method, &row.SaleCount); err != nil {
			return nil, err
		}
		breakdown = append(breakdown, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return breakdown, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	var image sql.NullString
	var barcode sql.NullString
	var categoryID sql.NullInt64
	var categoryName sql.NullString

	err := row.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock, &image, &barcode, &categoryID, &categoryName)
	if err != nil {
		return p, err
	}
	if image.Valid {
		p.Image = image.String
	}
	if barcode.Valid {
		p.Barcode = barcode.String
	}
	if categoryID.Valid {
		id := categoryID.Int64
		p.CategoryID = &id
	}
	if categoryName.Valid {
		p.CategoryName = categoryName.String
	}
	return p, nil
}

func scanSale(row rowScanner) (domain.Sale, error) {
	var sale domain.Sale
	var soldAt string
	var amountReceived sql.NullInt64
	var change sql.NullInt64

	err := row.Scan(&sale.ID, &soldAt, &sale.TotalCents, &sale.PaymentMethod, &sale.Status, &amountReceived, &change)
	if err != nil {
		return sale, err
	}

	parsed, err := time.ParseInLocation(soldAtLayout, soldAt, time.Local)
	if err != nil {
		return sale, fmt.Errorf("parse sold_at %q: %w", soldAt, err)
	}
	sale.SoldAt = parsed

	if amountReceived.Valid {
		v := amountReceived.Int64
		sale.AmountReceivedCents = &v
	}
	if change.Valid {
		v := change.Int64
		sale.ChangeCents = &v
	}
	return sale, nil
}

func scanSaleItem(row rowScanner) (domain.SaleItem, error) {
	var item domain.SaleItem
	var productID sql.NullInt64

	err := row.Scan(&item.ID, &item.SaleID, &productID, &item.Name, &item.Qty, &item.UnitPriceCents)
	if err != nil {
		return item, err
	}
	if productID.Valid {
		id := productID.Int64
		item.ProductID = &id
	}
	return item, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullInt(val *int64) any {
	if val == nil {
		return nil
	}
	return *val
}
