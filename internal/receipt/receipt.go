package receipt

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"pdvbalcao/backend/internal/domain"
)

// Supported paper widths in millimeters and the character columns that fit a
// standard thermal printer font at each width.
const (
	PaperNarrowMM = 58
	PaperWideMM   = 80

	narrowColumns = 32
	wideColumns   = 48
)

// Formatter turns a completed sale into printable documents: a fixed-width
// text rendering for thermal printers and an HTML artifact written to disk.
// It is a pure collaborator of the sale engine; rendering failures never
// affect the committed sale.
type Formatter struct {
	shopName string
	outDir   string
}

func NewFormatter(shopName string, outDir string) (*Formatter, error) {
	if shopName == "" {
		shopName = "PDV Balcao"
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create receipts dir: %w", err)
	}
	return &Formatter{shopName: shopName, outDir: outDir}, nil
}

// FileName is the stable artifact name for a sale's receipt.
func FileName(saleID int64) string {
	return fmt.Sprintf("receipt_sale_%d.html", saleID)
}

// Render produces the fixed-width text receipt for the given paper size.
// It is a pure transform of the sale data.
func (f *Formatter) Render(sale domain.Sale, paperMM int) string {
	cols := columnsFor(paperMM)
	divider := strings.Repeat("-", cols)

	lines := []string{
		center(f.shopName, cols),
		center(fmt.Sprintf("Sale #%d", sale.ID), cols),
		center(sale.SoldAt.Format("2006-01-02 15:04:05"), cols),
		divider,
	}

	for _, item := range sale.Items {
		lines = append(lines, fit(item.Name, cols))
		amount := fmt.Sprintf("%dx %s = %s", item.Qty, money(item.UnitPriceCents), money(int64(item.Qty)*item.UnitPriceCents))
		lines = append(lines, rightAlign(amount, cols))
	}

	lines = append(lines,
		divider,
		rightAlign("TOTAL "+money(sale.TotalCents), cols),
	)
	if sale.AmountReceivedCents != nil {
		lines = append(lines, rightAlign("RECEIVED "+money(*sale.AmountReceivedCents), cols))
	}
	if sale.ChangeCents != nil {
		lines = append(lines, rightAlign("CHANGE "+money(*sale.ChangeCents), cols))
	}
	lines = append(lines,
		rightAlign("PAYMENT "+strings.ToUpper(sale.PaymentMethod), cols),
		divider,
		center("Non-fiscal document", cols),
		"",
	)

	return strings.Join(lines, "\n")
}

var artifactTemplate = template.Must(template.New("receipt").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Receipt #{{.SaleID}}</title>
<style>
  @page { size: {{.PaperMM}}mm auto; margin: 0; }
  body { font-family: monospace; width: {{.PaperMM}}mm; margin: 0; padding: 4mm; }
  pre { margin: 0; font-size: 10px; white-space: pre-wrap; }
</style>
</head>
<body><pre>{{.Text}}</pre></body>
</html>
`))

// WriteArtifact renders the sale and writes the HTML artifact to the receipts
// directory, returning the file path.
func (f *Formatter) WriteArtifact(sale domain.Sale, paperMM int) (string, error) {
	path := filepath.Join(f.outDir, FileName(sale.ID))

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create receipt artifact: %w", err)
	}
	defer out.Close()

	data := struct {
		SaleID  int64
		PaperMM int
		Text    string
	}{
		SaleID:  sale.ID,
		PaperMM: normalizePaper(paperMM),
		Text:    f.Render(sale, paperMM),
	}
	if err := artifactTemplate.Execute(out, data); err != nil {
		return "", fmt.Errorf("render receipt artifact: %w", err)
	}
	return path, nil
}

func columnsFor(paperMM int) int {
	if normalizePaper(paperMM) == PaperNarrowMM {
		return narrowColumns
	}
	return wideColumns
}

func normalizePaper(paperMM int) int {
	if paperMM == PaperNarrowMM {
		return PaperNarrowMM
	}
	return PaperWideMM
}

func money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func fit(s string, cols int) string {
	runes := []rune(s)
	if len(runes) <= cols {
		return s
	}
	return string(runes[:cols])
}

func center(s string, cols int) string {
	s = fit(s, cols)
	pad := (cols - len([]rune(s))) / 2
	if pad < 1 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}

func rightAlign(s string, cols int) string {
	s = fit(s, cols)
	pad := cols - len([]rune(s))
	if pad < 1 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}
