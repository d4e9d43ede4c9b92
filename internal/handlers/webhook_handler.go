package handler

import (
	"net/http"

	"billing-backend/internal/models"
	"billing-backend/internal/repository"
	"billing-backend/internal/services/billing"
	"billing-backend/internal/services/mailer"
	"billing-backend/internal/services/phonepe"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// WebhookHandler processes PhonePe server-to-server callbacks. The endpoint is
// unauthenticated; trust comes from the X-VERIFY signature.
type WebhookHandler struct {
	billing      *billing.Service
	phonepe      *phonepe.Client
	paymentRepo  *repository.PaymentRepository
	invoiceRepo  *repository.InvoiceRepository
	customerRepo *repository.CustomerRepository
	mailer       *mailer.Mailer
	activityRepo *repository.ActivityRepository
}

func NewWebhookHandler(
	billingSvc *billing.Service,
	phonepeClient *phonepe.Client,
	paymentRepo *repository.PaymentRepository,
	invoiceRepo *repository.InvoiceRepository,
	customerRepo *repository.CustomerRepository,
	m *mailer.Mailer,
	activityRepo *repository.ActivityRepository,
) *WebhookHandler {
	return &WebhookHandler{
		billing:      billingSvc,
		phonepe:      phonepeClient,
		paymentRepo:  paymentRepo,
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		mailer:       m,
		activityRepo: activityRepo,
	}
}

// PhonePe handles the payment callback: verify the signature, decode the
// payload, and record the payment exactly once per merchant transaction id.
func (h *WebhookHandler) PhonePe(c *gin.Context) {
	var body struct {
		Response string `json:"response" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Missing response payload.", nil)
		return
	}

	xVerify := c.GetHeader("X-VERIFY")
	if xVerify == "" || !h.phonepe.VerifyWebhookSignature(xVerify, body.Response) {
		log.Warn().Str("ip", c.ClientIP()).Msg("phonepe webhook signature verification failed")
		respondError(c, http.StatusUnauthorized, "invalid_signature", "Signature verification failed.", nil)
		return
	}

	payload, raw, err := phonepe.DecodeWebhook(body.Response)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Malformed webhook payload.", nil)
		return
	}

	txnID := payload.Data.MerchantTransactionID
	invoiceID, err := phonepe.InvoiceIDFromTransactionID(txnID)
	if err != nil {
		log.Warn().Str("transaction_id", txnID).Msg("phonepe webhook with unparseable transaction id")
		respondError(c, http.StatusBadRequest, "validation_error", "Unrecognized transaction id.", nil)
		return
	}

	// Gateways retry callbacks; a transaction id we have seen is a no-op.
	existing, err := h.paymentRepo.FindByTransactionID(txnID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to process webhook.", nil)
		return
	}
	if existing != nil {
		respondSuccess(c, http.StatusOK, "Webhook already processed.", gin.H{
			"transaction_id": txnID,
		}, nil)
		return
	}

	inv, err := h.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		log.Error().Err(err).Str("transaction_id", txnID).Msg("phonepe webhook for unknown invoice")
		respondError(c, http.StatusNotFound, "not_found", "Invoice not found.", nil)
		return
	}

	switch payload.Code {
	case phonepe.CodePaymentSuccess:
	case phonepe.CodePaymentError, phonepe.CodePaymentDeclined:
		log.Info().
			Str("transaction_id", txnID).
			Str("code", payload.Code).
			Msg("phonepe payment failed")
		logActivity(h.activityRepo, c, inv.UserID, models.ActionPaymentFailedPhonePe, "invoice", &inv.ID,
			map[string]any{"transaction_id": txnID, "code": payload.Code})
		respondSuccess(c, http.StatusOK, "Webhook acknowledged.", gin.H{
			"transaction_id": txnID,
			"code":           payload.Code,
		}, nil)
		return
	default:
		// Pending or informational update, nothing to mutate yet.
		log.Info().
			Str("transaction_id", txnID).
			Str("code", payload.Code).
			Msg("phonepe payment update")
		respondSuccess(c, http.StatusOK, "Webhook acknowledged.", gin.H{
			"transaction_id": txnID,
			"code":           payload.Code,
		}, nil)
		return
	}

	payment := &models.Payment{
		ID:              uuid.New(),
		InvoiceID:       invoiceID,
		Amount:          phonepe.RupeesFromPaise(payload.Data.Amount),
		Method:          models.PaymentMethodUPI,
		TransactionID:   txnID,
		ReferenceNo:     payload.Data.TransactionID,
		PaymentGateway:  "phonepe",
		GatewayResponse: datatypes.JSON(raw),
	}
	if err := h.billing.RecordPayment(payment); err != nil {
		log.Error().Err(err).Str("transaction_id", txnID).Msg("failed to record phonepe payment")
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to record payment.", nil)
		return
	}

	if inv, err = h.invoiceRepo.GetByID(invoiceID); err == nil {
		if customer, cerr := h.customerRepo.GetByID(inv.CustomerID); cerr == nil {
			h.mailer.SendPaymentReceived(payment, inv, customer)
		}
	}

	logActivity(h.activityRepo, c, inv.UserID, models.ActionPaymentReceivedPhonePe, "payment", &payment.ID,
		map[string]any{"transaction_id": txnID, "amount": payment.Amount})

	log.Info().
		Str("transaction_id", txnID).
		Str("invoice", inv.InvoiceNumber).
		Msg("phonepe payment recorded")

	respondSuccess(c, http.StatusOK, "Payment recorded successfully.", gin.H{
		"transaction_id": txnID,
		"payment_id":     payment.ID,
	}, nil)
}
