package invoice

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
)

// PDFGenerator renders invoices with gofpdf and stores them on local disk.
type PDFGenerator struct {
	dir      string // filesystem directory invoices are written to
	urlBase  string // URL prefix the handler serves the directory under
	shopName string
	shopAddr string
}

// NewPDFGenerator creates a generator writing into dir. The directory is
// created if it does not exist.
func NewPDFGenerator(dir, urlBase, shopName, shopAddr string) (*PDFGenerator, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create invoice directory: %w", err)
	}
	return &PDFGenerator{dir: dir, urlBase: urlBase, shopName: shopName, shopAddr: shopAddr}, nil
}

// Generate renders the invoice PDF for a paid order and writes it to disk.
func (g *PDFGenerator) Generate(ctx context.Context, order *domain.Order) (*Result, error) {
	const op = "invoice.PDFGenerator.Generate"

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, g.shopName)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, g.shopAddr)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, fmt.Sprintf("Tax Invoice %s", order.OrderNumber))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", order.CreatedAt.Format("02 Jan 2006")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Billed to: %s", order.CustomerName))
	pdf.Ln(6)
	addr := order.ShippingAddress
	pdf.Cell(0, 6, fmt.Sprintf("%s, %s, %s %s", addr.AddressLine1, addr.City, addr.State, addr.Pincode))
	pdf.Ln(10)

	// Line items table
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(70, 8, "Item", "1", 0, "L", false, 0, "")
	pdf.CellFormat(45, 8, "Variant", "1", 0, "L", false, 0, "")
	pdf.CellFormat(15, 8, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "Unit", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "Total", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range order.Items {
		pdf.CellFormat(70, 8, item.ProductName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 8, item.VariantDescription, "1", 0, "L", false, 0, "")
		pdf.CellFormat(15, 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, formatAmount(item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, formatAmount(item.LineTotal), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	totals := []struct {
		label  string
		amount int64
	}{
		{"Subtotal", order.Pricing.Subtotal},
		{fmt.Sprintf("GST (%.4g%%)", order.Pricing.TaxRatePercent), order.Pricing.Tax},
		{"Delivery", order.Pricing.DeliveryCharge},
	}
	if order.Pricing.Discount > 0 {
		totals = append(totals, struct {
			label  string
			amount int64
		}{"Discount", -order.Pricing.Discount})
	}
	for _, row := range totals {
		pdf.CellFormat(130, 7, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, row.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, formatAmount(row.amount), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(130, 8, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, formatAmount(order.Pricing.Total), "T", 1, "R", false, 0, "")

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Payment reference: %s", order.Payment.ProviderPaymentID))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, domain.Internal(err, op, "failed to render invoice PDF")
	}

	filename := order.OrderNumber + ".pdf"
	if err := os.WriteFile(filepath.Join(g.dir, filename), buf.Bytes(), 0o644); err != nil {
		return nil, domain.Internal(err, op, "failed to write invoice PDF")
	}

	return &Result{
		URL: g.urlBase + "/" + filename,
		PDF: buf.Bytes(),
	}, nil
}

// formatAmount renders minor units as an INR string. Plain "Rs." is used
// because the core PDF fonts cannot encode the rupee sign.
func formatAmount(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%sRs. %d.%02d", sign, amount/100, amount%100)
}

var _ Generator = (*PDFGenerator)(nil)
