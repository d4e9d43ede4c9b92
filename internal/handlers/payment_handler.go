package handler

import (
	"errors"
	"net/http"
	"time"

	"billing-backend/internal/middleware"
	"billing-backend/internal/models"
	"billing-backend/internal/repository"
	"billing-backend/internal/services/billing"
	"billing-backend/internal/services/mailer"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentHandler struct {
	billing      *billing.Service
	paymentRepo  *repository.PaymentRepository
	invoiceRepo  *repository.InvoiceRepository
	customerRepo *repository.CustomerRepository
	mailer       *mailer.Mailer
	activityRepo *repository.ActivityRepository
}

func NewPaymentHandler(
	billingSvc *billing.Service,
	paymentRepo *repository.PaymentRepository,
	invoiceRepo *repository.InvoiceRepository,
	customerRepo *repository.CustomerRepository,
	m *mailer.Mailer,
	activityRepo *repository.ActivityRepository,
) *PaymentHandler {
	return &PaymentHandler{
		billing:      billingSvc,
		paymentRepo:  paymentRepo,
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		mailer:       m,
		activityRepo: activityRepo,
	}
}

// Create records a manual payment against an invoice and re-derives the
// invoice status.
func (h *PaymentHandler) Create(c *gin.Context) {
	var payload struct {
		InvoiceID   string          `json:"invoice_id" binding:"required"`
		Amount      decimal.Decimal `json:"amount"`
		Method      string          `json:"method" binding:"required"`
		ReferenceNo string          `json:"reference_no"`
		PaymentDate *time.Time      `json:"payment_date"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error",
			"invoice_id, amount and method are required.", err.Error())
		return
	}

	invoiceID, err := uuid.Parse(payload.InvoiceID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Invalid invoice_id.", nil)
		return
	}
	if payload.Amount.LessThanOrEqual(decimal.Zero) {
		respondError(c, http.StatusBadRequest, "validation_error", "Amount must be positive.", nil)
		return
	}
	if !models.ValidPaymentMethod(payload.Method) {
		respondError(c, http.StatusBadRequest, "validation_error", "Invalid payment method.", nil)
		return
	}

	payment := &models.Payment{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		Amount:      payload.Amount,
		Method:      payload.Method,
		ReferenceNo: payload.ReferenceNo,
	}
	if payload.PaymentDate != nil {
		payment.PaymentDate = *payload.PaymentDate
	}

	if err := h.billing.RecordPayment(payment); err != nil {
		if errors.Is(err, billing.ErrInvoiceNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "Invoice not found.", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to record payment.", nil)
		return
	}

	inv, err := h.invoiceRepo.GetByID(invoiceID)
	if err == nil {
		if customer, cerr := h.customerRepo.GetByID(inv.CustomerID); cerr == nil {
			h.mailer.SendPaymentReceived(payment, inv, customer)
		}
	}

	userID, _ := middleware.UserID(c)
	logActivity(h.activityRepo, c, userID, models.ActionPaymentRecorded, "payment", &payment.ID,
		map[string]any{"invoice_id": invoiceID, "amount": payment.Amount, "method": payment.Method})

	respondSuccess(c, http.StatusCreated, "Payment recorded successfully.", gin.H{
		"payment": payment,
		"invoice": inv,
	}, nil)
}

func (h *PaymentHandler) List(c *gin.Context) {
	if term := c.Query("q"); term != "" {
		payments, err := h.paymentRepo.Search(term)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "server_error", "Failed to search payments.", nil)
			return
		}
		respondSuccess(c, http.StatusOK, "Payments retrieved successfully.", payments, gin.H{
			"total": len(payments),
		})
		return
	}

	page, perPage := pagination(c)
	payments, total, err := h.paymentRepo.List((page-1)*perPage, perPage)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch payments.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Payments retrieved successfully.", payments, gin.H{
		"page": page, "per_page": perPage, "total": total,
	})
}

func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	payment, err := h.paymentRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "Payment not found.", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch payment.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Payment retrieved successfully.", payment, nil)
}

// ListByInvoice returns every payment recorded against one invoice.
func (h *PaymentHandler) ListByInvoice(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if _, err := h.invoiceRepo.GetByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "Invoice not found.", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch invoice.", nil)
		return
	}

	payments, err := h.paymentRepo.ListByInvoice(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch payments.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Payments retrieved successfully.", payments, gin.H{
		"total": len(payments),
	})
}
