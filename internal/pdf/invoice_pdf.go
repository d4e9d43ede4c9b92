package pdf

import (
	"bytes"
	"fmt"
	"time"

	"billing-backend/internal/config"
	"billing-backend/internal/models"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// InvoiceGenerator renders printable invoice PDFs with a UPI payment QR code.
type InvoiceGenerator struct {
	company config.CompanyConfig
}

func NewInvoiceGenerator(company config.CompanyConfig) *InvoiceGenerator {
	return &InvoiceGenerator{company: company}
}

// upiPaymentString builds the upi:// deep link encoded into the payment QR.
func (g *InvoiceGenerator) upiPaymentString(invoiceNumber string, amount string) string {
	return fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%s&tn=Invoice-%s",
		g.company.UPIID, g.company.Name, amount, invoiceNumber)
}

// Generate renders the invoice as an A4 PDF and returns the raw bytes.
func (g *InvoiceGenerator) Generate(inv *models.Invoice) ([]byte, error) {
	f := gofpdf.New("P", "mm", "A4", "")
	f.SetMargins(19, 19, 19)
	f.AddPage()

	// Header: company block left, invoice meta right.
	f.SetFont("Helvetica", "B", 22)
	f.SetTextColor(26, 26, 26)
	f.Cell(100, 10, g.company.Name)
	f.SetFont("Helvetica", "B", 16)
	f.CellFormat(0, 10, "INVOICE", "", 1, "R", false, 0, "")

	f.SetFont("Helvetica", "", 9)
	f.SetTextColor(74, 74, 74)
	f.Cell(100, 5, g.company.Address)
	f.CellFormat(0, 5, "No: "+inv.InvoiceNumber, "", 1, "R", false, 0, "")
	f.Cell(100, 5, g.company.City)
	f.CellFormat(0, 5, "Date: "+inv.CreatedAt.Format("02 Jan 2006"), "", 1, "R", false, 0, "")
	f.Cell(100, 5, g.company.Phone+"  "+g.company.Email)
	f.CellFormat(0, 5, "Due: "+inv.DueDate.Format("02 Jan 2006"), "", 1, "R", false, 0, "")
	f.Cell(100, 5, g.company.GST)
	f.CellFormat(0, 5, "Status: "+displayStatus(inv), "", 1, "R", false, 0, "")
	f.Ln(8)

	// Bill-to block.
	if inv.Customer != nil {
		f.SetFont("Helvetica", "B", 11)
		f.SetTextColor(26, 26, 26)
		f.Cell(0, 6, "Bill To")
		f.Ln(6)
		f.SetFont("Helvetica", "", 10)
		f.SetTextColor(51, 51, 51)
		f.Cell(0, 5, inv.Customer.Name)
		f.Ln(5)
		if inv.Customer.Address != "" {
			f.Cell(0, 5, inv.Customer.Address)
			f.Ln(5)
		}
		if inv.Customer.Phone != "" {
			f.Cell(0, 5, inv.Customer.Phone)
			f.Ln(5)
		}
		if inv.Customer.GSTNumber != "" {
			f.Cell(0, 5, "GST: "+inv.Customer.GSTNumber)
			f.Ln(5)
		}
	}
	f.Ln(6)

	// Items table.
	f.SetFont("Helvetica", "B", 9)
	f.SetFillColor(40, 40, 40)
	f.SetTextColor(255, 255, 255)
	f.CellFormat(80, 8, "Item", "1", 0, "L", true, 0, "")
	f.CellFormat(25, 8, "Qty", "1", 0, "C", true, 0, "")
	f.CellFormat(33, 8, "Unit Price", "1", 0, "R", true, 0, "")
	f.CellFormat(34, 8, "Total", "1", 1, "R", true, 0, "")

	f.SetFont("Helvetica", "", 9)
	f.SetTextColor(51, 51, 51)
	for _, item := range inv.Items {
		name := item.ProductID.String()
		if item.Product != nil {
			name = item.Product.Name
		}
		f.CellFormat(80, 7, name, "1", 0, "L", false, 0, "")
		f.CellFormat(25, 7, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		f.CellFormat(33, 7, item.Price.StringFixed(2), "1", 0, "R", false, 0, "")
		f.CellFormat(34, 7, item.Total.StringFixed(2), "1", 1, "R", false, 0, "")
	}
	f.Ln(4)

	// Totals block, right-aligned.
	writeTotal := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		f.SetFont("Helvetica", style, 10)
		f.CellFormat(138, 6, label, "", 0, "R", false, 0, "")
		f.CellFormat(34, 6, value, "", 1, "R", false, 0, "")
	}
	writeTotal("Subtotal:", inv.SubtotalAmount.StringFixed(2), false)
	if !inv.DiscountAmount.IsZero() {
		writeTotal("Discount:", "-"+inv.DiscountAmount.StringFixed(2), false)
	}
	writeTotal(fmt.Sprintf("Tax (%s%%):", inv.TaxPercent.StringFixed(2)), inv.TaxAmount.StringFixed(2), false)
	writeTotal("Total:", inv.TotalAmount.StringFixed(2), true)
	if inv.AmountPaid.Sign() > 0 {
		writeTotal("Paid:", inv.AmountPaid.StringFixed(2), false)
		writeTotal("Balance Due:", inv.DueAmount.StringFixed(2), true)
	}
	f.Ln(8)

	// Payment QR code.
	qrPNG, err := qrcode.Encode(
		g.upiPaymentString(inv.InvoiceNumber, inv.DueAmount.StringFixed(2)),
		qrcode.Low, 256)
	if err != nil {
		return nil, fmt.Errorf("generating payment qr: %w", err)
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	f.RegisterImageOptionsReader("payment-qr", opts, bytes.NewReader(qrPNG))
	f.ImageOptions("payment-qr", 19, f.GetY(), 35, 35, false, opts, 0, "")
	f.SetXY(58, f.GetY()+12)
	f.SetFont("Helvetica", "", 9)
	f.Cell(0, 5, "Scan to pay via UPI: "+g.company.UPIID)

	var buf bytes.Buffer
	if err := f.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func displayStatus(inv *models.Invoice) string {
	if inv.IsOverdue(time.Now()) {
		return models.InvoiceStatusOverdue
	}
	return inv.Status
}
