package billing

import (
	"errors"
	"time"

	"billing-backend/internal/models"
	"billing-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrNothingDue       = errors.New("invoice has no outstanding balance")
)

// Service owns the invoice lifecycle: totals, stock adjustment, payment
// application and status derivation.
type Service struct {
	invoiceRepo  *repository.InvoiceRepository
	customerRepo *repository.CustomerRepository
	productRepo  *repository.ProductRepository
	paymentRepo  *repository.PaymentRepository
	db           *gorm.DB
}

func NewService(
	invoiceRepo *repository.InvoiceRepository,
	customerRepo *repository.CustomerRepository,
	productRepo *repository.ProductRepository,
	paymentRepo *repository.PaymentRepository,
) *Service {
	return &Service{
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		paymentRepo:  paymentRepo,
		db:           invoiceRepo.DB(),
	}
}

// Line is a priced line item used for totals calculation.
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Totals holds the computed monetary breakdown of an invoice.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// CalculateTotals computes subtotal, tax and total:
//
//	subtotal = sum(price * qty)
//	tax      = (subtotal - discount) * taxPercent / 100
//	total    = subtotal - discount + tax
//
// Amounts are rounded to 2 decimals only here, at the storage boundary.
func CalculateTotals(lines []Line, discount, taxPercent decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	tax := subtotal.Sub(discount).Mul(taxPercent).Div(decimal.NewFromInt(100))
	total := subtotal.Sub(discount).Add(tax)
	return Totals{
		Subtotal: subtotal.Round(2),
		Tax:      tax.Round(2),
		Total:    total.Round(2),
	}
}

// DeriveStatus is the pure status function of (total, paid):
// Paid when paid >= total, Partially Paid when 0 < paid < total, else Pending.
// A zero-total invoice is Paid from the start since nothing is owed on it.
func DeriveStatus(total, paid decimal.Decimal) string {
	switch {
	case paid.GreaterThanOrEqual(total):
		return models.InvoiceStatusPaid
	case paid.GreaterThan(decimal.Zero):
		return models.InvoiceStatusPartiallyPaid
	default:
		return models.InvoiceStatusPending
	}
}

// StockDeltas diffs two item sets keyed by product id and returns the
// relative stock adjustment per product (old - new). Applying each delta once
// avoids double-counting when an item survives an update.
func StockDeltas(oldItems, newItems map[uuid.UUID]int) map[uuid.UUID]int {
	deltas := make(map[uuid.UUID]int)
	for pid, qty := range oldItems {
		deltas[pid] = qty
	}
	for pid, qty := range newItems {
		deltas[pid] -= qty
	}
	for pid, d := range deltas {
		if d == 0 {
			delete(deltas, pid)
		}
	}
	return deltas
}

// ItemInput is a requested invoice line.
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// PaymentInput is an optional payment recorded together with invoice
// creation.
type PaymentInput struct {
	Amount      decimal.Decimal
	Method      string
	ReferenceNo string
}

type CreateInvoiceInput struct {
	CustomerID     uuid.UUID
	UserID         uuid.UUID
	DueDate        time.Time
	DiscountAmount decimal.Decimal
	TaxPercent     decimal.Decimal
	Items          []ItemInput
	InitialPayment *PaymentInput
}

// CreateInvoice creates the invoice, its items and the stock decrements in a
// single transaction, then records the optional initial payment and derives
// the status.
func (s *Service) CreateInvoice(in CreateInvoiceInput) (*models.Invoice, error) {
	if _, err := s.customerRepo.GetByID(in.CustomerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	// Snapshot product prices before writing anything.
	lines := make([]Line, 0, len(in.Items))
	products := make([]*models.Product, 0, len(in.Items))
	for _, item := range in.Items {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProductNotFound
			}
			return nil, err
		}
		products = append(products, product)
		lines = append(lines, Line{Price: product.Price, Quantity: item.Quantity})
	}

	totals := CalculateTotals(lines, in.DiscountAmount, in.TaxPercent)

	number, err := s.invoiceRepo.NextInvoiceNumber(in.CustomerID, time.Now())
	if err != nil {
		return nil, err
	}

	inv := &models.Invoice{
		ID:             uuid.New(),
		InvoiceNumber:  number,
		CustomerID:     in.CustomerID,
		UserID:         in.UserID,
		SubtotalAmount: totals.Subtotal,
		DiscountAmount: in.DiscountAmount.Round(2),
		TaxPercent:     in.TaxPercent,
		TaxAmount:      totals.Tax,
		TotalAmount:    totals.Total,
		DueDate:        in.DueDate,
		Status:         models.InvoiceStatusPending,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.invoiceRepo.Create(tx, inv); err != nil {
			return err
		}
		for i, item := range in.Items {
			price := products[i].Price
			if err := s.invoiceRepo.CreateItem(tx, &models.InvoiceItem{
				ID:        uuid.New(),
				InvoiceID: inv.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     price,
				Total:     price.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2),
			}); err != nil {
				return err
			}
			if err := tx.Model(&models.Product{}).
				Where("id = ?", item.ProductID).
				Update("stock", gorm.Expr("stock - ?", item.Quantity)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if in.InitialPayment != nil && in.InitialPayment.Amount.GreaterThan(decimal.Zero) {
		if err := s.paymentRepo.Create(&models.Payment{
			ID:          uuid.New(),
			InvoiceID:   inv.ID,
			Amount:      in.InitialPayment.Amount.Round(2),
			PaymentDate: time.Now(),
			Method:      in.InitialPayment.Method,
			ReferenceNo: in.InitialPayment.ReferenceNo,
		}); err != nil {
			return nil, err
		}
		if _, err := s.RecomputeStatus(inv.ID); err != nil {
			return nil, err
		}
	}

	return s.invoiceRepo.GetByID(inv.ID)
}

type UpdateInvoiceInput struct {
	Items          []ItemInput      // nil means items untouched
	DiscountAmount *decimal.Decimal // nil means unchanged
	TaxPercent     *decimal.Decimal
	DueDate        *time.Time
}

// UpdateInvoice replaces the item set (applying net stock deltas once per
// product), recalculates totals when anything monetary changed, and
// recomputes the status.
func (s *Service) UpdateInvoice(invoiceID uuid.UUID, in UpdateInvoiceInput) (*models.Invoice, error) {
	inv, err := s.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}

	if in.Items != nil {
		oldItems, err := s.invoiceRepo.ItemsByInvoice(invoiceID)
		if err != nil {
			return nil, err
		}
		oldSet := make(map[uuid.UUID]int, len(oldItems))
		for _, it := range oldItems {
			oldSet[it.ProductID] += it.Quantity
		}
		newSet := make(map[uuid.UUID]int, len(in.Items))
		for _, it := range in.Items {
			newSet[it.ProductID] += it.Quantity
		}

		// Validate every referenced product before mutating.
		prices := make(map[uuid.UUID]decimal.Decimal, len(newSet))
		for _, it := range in.Items {
			product, err := s.productRepo.GetByID(it.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, ErrProductNotFound
				}
				return nil, err
			}
			prices[it.ProductID] = product.Price
		}

		err = s.db.Transaction(func(tx *gorm.DB) error {
			for pid, delta := range StockDeltas(oldSet, newSet) {
				if err := tx.Model(&models.Product{}).
					Where("id = ?", pid).
					Update("stock", gorm.Expr("stock + ?", delta)).Error; err != nil {
					return err
				}
			}
			if err := s.invoiceRepo.DeleteItems(tx, invoiceID); err != nil {
				return err
			}
			for _, it := range in.Items {
				price := prices[it.ProductID]
				if err := s.invoiceRepo.CreateItem(tx, &models.InvoiceItem{
					ID:        uuid.New(),
					InvoiceID: invoiceID,
					ProductID: it.ProductID,
					Quantity:  it.Quantity,
					Price:     price,
					Total:     price.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2),
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if in.DiscountAmount != nil {
		inv.DiscountAmount = in.DiscountAmount.Round(2)
	}
	if in.TaxPercent != nil {
		inv.TaxPercent = *in.TaxPercent
	}
	if in.DueDate != nil {
		inv.DueDate = *in.DueDate
	}

	if in.Items != nil || in.DiscountAmount != nil || in.TaxPercent != nil {
		items, err := s.invoiceRepo.ItemsByInvoice(invoiceID)
		if err != nil {
			return nil, err
		}
		lines := make([]Line, 0, len(items))
		for _, it := range items {
			lines = append(lines, Line{Price: it.Price, Quantity: it.Quantity})
		}
		totals := CalculateTotals(lines, inv.DiscountAmount, inv.TaxPercent)
		inv.SubtotalAmount = totals.Subtotal
		inv.TaxAmount = totals.Tax
		inv.TotalAmount = totals.Total
	}

	if err := s.invoiceRepo.Update(inv); err != nil {
		return nil, err
	}
	if _, err := s.RecomputeStatus(invoiceID); err != nil {
		return nil, err
	}
	return s.invoiceRepo.GetDetailed(invoiceID)
}

// RecomputeStatus re-derives and persists the invoice status from the sum of
// its payments. Called after every payment mutation.
func (s *Service) RecomputeStatus(invoiceID uuid.UUID) (string, error) {
	inv, err := s.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return "", err
	}
	status := DeriveStatus(inv.TotalAmount, inv.AmountPaid)
	if status != inv.Status {
		if err := s.db.Model(&models.Invoice{}).
			Where("id = ?", invoiceID).
			Update("status", status).Error; err != nil {
			return "", err
		}
	}
	return status, nil
}

// RecordPayment inserts a payment and recomputes the invoice status.
func (s *Service) RecordPayment(p *models.Payment) error {
	if _, err := s.invoiceRepo.GetByID(p.InvoiceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvoiceNotFound
		}
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = time.Now()
	}
	p.Amount = p.Amount.Round(2)
	if err := s.paymentRepo.Create(p); err != nil {
		return err
	}
	_, err := s.RecomputeStatus(p.InvoiceID)
	return err
}

// MarkPaid settles the invoice by inserting a single cash payment for the
// remaining balance.
func (s *Service) MarkPaid(invoiceID uuid.UUID) (*models.Payment, error) {
	inv, err := s.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}

	remaining := inv.TotalAmount.Sub(inv.AmountPaid)
	if remaining.LessThanOrEqual(decimal.Zero) {
		return nil, ErrNothingDue
	}

	payment := &models.Payment{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		Amount:      remaining.Round(2),
		PaymentDate: time.Now(),
		Method:      models.PaymentMethodCash,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}
	if _, err := s.RecomputeStatus(invoiceID); err != nil {
		return nil, err
	}
	return payment, nil
}
