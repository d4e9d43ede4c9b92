package handler

import (
	"errors"
	"net/http"
	"time"

	"billing-backend/internal/middleware"
	"billing-backend/internal/models"
	"billing-backend/internal/pdf"
	"billing-backend/internal/repository"
	"billing-backend/internal/services/billing"
	"billing-backend/internal/services/mailer"
	"billing-backend/internal/services/phonepe"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceHandler struct {
	billing      *billing.Service
	invoiceRepo  *repository.InvoiceRepository
	customerRepo *repository.CustomerRepository
	phonepe      *phonepe.Client
	mailer       *mailer.Mailer
	pdfGen       *pdf.InvoiceGenerator
	activityRepo *repository.ActivityRepository
}

func NewInvoiceHandler(
	billingSvc *billing.Service,
	invoiceRepo *repository.InvoiceRepository,
	customerRepo *repository.CustomerRepository,
	phonepeClient *phonepe.Client,
	m *mailer.Mailer,
	pdfGen *pdf.InvoiceGenerator,
	activityRepo *repository.ActivityRepository,
) *InvoiceHandler {
	return &InvoiceHandler{
		billing:      billingSvc,
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		phonepe:      phonepeClient,
		mailer:       m,
		pdfGen:       pdfGen,
		activityRepo: activityRepo,
	}
}

func (h *InvoiceHandler) List(c *gin.Context) {
	page, perPage := pagination(c)
	filter := repository.InvoiceFilter{
		Status:      c.Query("status"),
		Query:       c.Query("q"),
		DeletedOnly: c.Query("deleted") == "true",
		Offset:      (page - 1) * perPage,
		Limit:       perPage,
	}
	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation_error", "Invalid customer_id.", nil)
			return
		}
		filter.CustomerID = &id
	}

	invoices, total, err := h.invoiceRepo.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch invoices.", nil)
		return
	}

	// Overdue is a display overlay on the stored status.
	now := time.Now()
	for i := range invoices {
		if invoices[i].IsOverdue(now) {
			invoices[i].Status = models.InvoiceStatusOverdue
		}
	}

	respondSuccess(c, http.StatusOK, "Invoices retrieved successfully.", invoices, gin.H{
		"page": page, "per_page": perPage, "total": total,
	})
}

func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	inv, err := h.invoiceRepo.GetDetailed(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "Invoice not found.", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch invoice.", nil)
		return
	}
	if inv.IsOverdue(time.Now()) {
		inv.Status = models.InvoiceStatusOverdue
	}
	respondSuccess(c, http.StatusOK, "Invoice retrieved successfully.", inv, nil)
}

type invoiceItemPayload struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

func parseItems(payload []invoiceItemPayload) ([]billing.ItemInput, error) {
	items := make([]billing.ItemInput, 0, len(payload))
	for _, it := range payload {
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, err
		}
		items = append(items, billing.ItemInput{ProductID: pid, Quantity: it.Quantity})
	}
	return items, nil
}

func (h *InvoiceHandler) Create(c *gin.Context) {
	var payload struct {
		CustomerID     string               `json:"customer_id" binding:"required"`
		DueDate        time.Time            `json:"due_date" binding:"required"`
		DiscountAmount decimal.Decimal      `json:"discount_amount"`
		TaxPercent     decimal.Decimal      `json:"tax_percent"`
		Items          []invoiceItemPayload `json:"items" binding:"required,min=1,dive"`
		InitialPayment *struct {
			Amount      decimal.Decimal `json:"amount"`
			Method      string          `json:"method"`
			ReferenceNo string          `json:"reference_no"`
		} `json:"initial_payment"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error",
			"customer_id, due_date and at least one item are required.", err.Error())
		return
	}

	customerID, err := uuid.Parse(payload.CustomerID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Invalid customer_id.", nil)
		return
	}
	items, err := parseItems(payload.Items)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Invalid product_id in items.", nil)
		return
	}
	if payload.DiscountAmount.IsNegative() || payload.TaxPercent.IsNegative() {
		respondError(c, http.StatusBadRequest, "validation_error",
			"Discount and tax percent cannot be negative.", nil)
		return
	}

	userID, _ := middleware.UserID(c)
	input := billing.CreateInvoiceInput{
		CustomerID:     customerID,
		UserID:         userID,
		DueDate:        payload.DueDate,
		DiscountAmount: payload.DiscountAmount,
		TaxPercent:     payload.TaxPercent,
		Items:          items,
	}
	if payload.InitialPayment != nil {
		method := payload.InitialPayment.Method
		if method == "" {
			method = models.PaymentMethodCash
		}
		if !models.ValidPaymentMethod(method) {
			respondError(c, http.StatusBadRequest, "validation_error", "Invalid payment method.", nil)
			return
		}
		input.InitialPayment = &billing.PaymentInput{
			Amount:      payload.InitialPayment.Amount,
			Method:      method,
			ReferenceNo: payload.InitialPayment.ReferenceNo,
		}
	}

	inv, err := h.billing.CreateInvoice(input)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrCustomerNotFound):
			respondError(c, http.StatusNotFound, "not_found", "Customer not found.", nil)
		case errors.Is(err, billing.ErrProductNotFound):
			respondError(c, http.StatusNotFound, "not_found", "One or more products not found.", nil)
		default:
			respondError(c, http.StatusInternalServerError, "server_error", "Failed to create invoice.", nil)
		}
		return
	}

	if customer, err := h.customerRepo.GetByID(customerID); err == nil {
		h.mailer.SendInvoiceCreated(inv, customer)
	}

	logActivity(h.activityRepo, c, userID, models.ActionInvoiceCreated, "invoice", &inv.ID,
		map[string]any{"invoice_number": inv.InvoiceNumber, "total": inv.TotalAmount})

	respondSuccess(c, http.StatusCreated, "Invoice created successfully.", inv, nil)
}

func (h *InvoiceHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var payload struct {
		DueDate        *time.Time           `json:"due_date"`
		DiscountAmount *decimal.Decimal     `json:"discount_amount"`
		TaxPercent     *decimal.Decimal     `json:"tax_percent"`
		Items          []invoiceItemPayload `json:"items"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Invalid data provided.", err.Error())
		return
	}
	if payload.DiscountAmount != nil && payload.DiscountAmount.IsNegative() {
		respondError(c, http.StatusBadRequest, "validation_error", "Discount cannot be negative.", nil)
		return
	}
	if payload.TaxPercent != nil && payload.TaxPercent.IsNegative() {
		respondError(c, http.StatusBadRequest, "validation_error", "Tax percent cannot be negative.", nil)
		return
	}

	input := billing.UpdateInvoiceInput{
		DiscountAmount: payload.DiscountAmount,
		TaxPercent:     payload.TaxPercent,
		DueDate:        payload.DueDate,
	}
	if payload.Items != nil {
		items, err := parseItems(payload.Items)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation_error", "Invalid product_id in items.", nil)
			return
		}
		input.Items = items
	}

	inv, err := h.billing.UpdateInvoice(id, input)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrInvoiceNotFound):
			respondError(c, http.StatusNotFound, "not_found", "Invoice not found.", nil)
		case errors.Is(err, billing.ErrProductNotFound):
			respondError(c, http.StatusNotFound, "not_found", "One or more products not found.", nil)
		default:
			respondError(c, http.StatusInternalServerError, "server_error", "Failed to update invoice.", nil)
		}
		return
	}

	userID, _ := middleware.UserID(c)
	logActivity(h.activityRepo, c, userID, models.ActionInvoiceUpdated, "invoice", &inv.ID,
		map[string]any{"invoice_number": inv.InvoiceNumber})

	respondSuccess(c, http.StatusOK, "Invoice updated successfully.", inv, nil)
}

func (h *InvoiceHandler) BulkDelete(c *gin.Context) {
	ids, ok := bulkIDs(c)
	if !ok {
		return
	}
	affected, err := h.invoiceRepo.BulkSoftDelete(ids)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to delete invoices.", nil)
		return
	}

	userID, _ := middleware.UserID(c)
	logActivity(h.activityRepo, c, userID, models.ActionInvoiceDeleted, "invoice", nil,
		map[string]any{"count": affected})

	respondSuccess(c, http.StatusOK, "Invoices deleted successfully.", gin.H{"deleted": affected}, nil)
}

func (h *InvoiceHandler) BulkRestore(c *gin.Context) {
	ids, ok := bulkIDs(c)
	if !ok {
		return
	}
	affected, err := h.invoiceRepo.BulkRestore(ids)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to restore invoices.", nil)
		return
	}

	userID, _ := middleware.UserID(c)
	logActivity(h.activityRepo, c, userID, models.ActionInvoiceRestored, "invoice", nil,
		map[string]any{"count": affected})

	respondSuccess(c, http.StatusOK, "Invoices restored successfully.", gin.H{"restored": affected}, nil)
}

// MarkPaid settles the remaining balance with a single cash payment.
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	payment, err := h.billing.MarkPaid(id)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrInvoiceNotFound):
			respondError(c, http.StatusNotFound, "not_found", "Invoice not found.", nil)
		case errors.Is(err, billing.ErrNothingDue):
			respondError(c, http.StatusBadRequest, "nothing_due", "Invoice has no outstanding balance.", nil)
		default:
			respondError(c, http.StatusInternalServerError, "server_error", "Failed to mark invoice as paid.", nil)
		}
		return
	}

	inv, err := h.invoiceRepo.GetByID(id)
	if err == nil {
		if customer, cerr := h.customerRepo.GetByID(inv.CustomerID); cerr == nil {
			h.mailer.SendPaymentReceived(payment, inv, customer)
		}
	}

	userID, _ := middleware.UserID(c)
	logActivity(h.activityRepo, c, userID, models.ActionInvoiceMarkedPaid, "invoice", &id,
		map[string]any{"amount": payment.Amount})

	respondSuccess(c, http.StatusOK, "Invoice marked as paid.", gin.H{
		"payment": payment,
		"invoice": inv,
	}, nil)
}

// DownloadPDF streams the invoice as a generated PDF document.
func (h *InvoiceHandler) DownloadPDF(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	inv, err := h.invoiceRepo.GetDetailed(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "Invoice not found.", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch invoice.", nil)
		return
	}

	data, err := h.pdfGen.Generate(inv)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to generate PDF.", nil)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+inv.InvoiceNumber+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// InitiatePayment starts a PhonePe transaction for the invoice's outstanding
// amount and returns the gateway redirect URL.
func (h *InvoiceHandler) InitiatePayment(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	inv, err := h.invoiceRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "Invoice not found.", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch invoice.", nil)
		return
	}

	if inv.DueAmount.LessThanOrEqual(decimal.Zero) {
		respondError(c, http.StatusBadRequest, "nothing_due", "Invoice has no outstanding balance.", nil)
		return
	}

	customer, err := h.customerRepo.GetByID(inv.CustomerID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch customer.", nil)
		return
	}

	result, err := h.phonepe.InitiatePayment(inv.ID, inv.DueAmount, customer.Phone, customer.Name)
	if err != nil {
		respondError(c, http.StatusBadGateway, "gateway_error", "Payment gateway request failed.", nil)
		return
	}
	if !result.Success {
		respondError(c, http.StatusBadGateway, "gateway_error", result.Message,
			gin.H{"error_code": result.ErrorCode})
		return
	}
	respondSuccess(c, http.StatusOK, "Payment initiated successfully.", result, nil)
}

// PaymentStatus queries PhonePe for the state of a merchant transaction.
func (h *InvoiceHandler) PaymentStatus(c *gin.Context) {
	txnID := c.Param("transaction_id")
	if _, err := phonepe.InvoiceIDFromTransactionID(txnID); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Invalid transaction id.", nil)
		return
	}
	result, err := h.phonepe.CheckStatus(txnID)
	if err != nil {
		respondError(c, http.StatusBadGateway, "gateway_error", "Payment gateway request failed.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Transaction status retrieved.", result, nil)
}
