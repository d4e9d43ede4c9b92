package handler_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"billing-backend/internal/config"
	handler "billing-backend/internal/handlers"
	"billing-backend/internal/models"
	"billing-backend/internal/repository"
	"billing-backend/internal/services/billing"
	"billing-backend/internal/services/mailer"
	"billing-backend/internal/services/phonepe"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	testSaltKey   = "webhook-test-salt"
	testSaltIndex = "1"
)

// setupWebhookTestDB connects to a dedicated test database. Set
// TEST_DATABASE_URL to run these tests; they truncate the billing tables.
func setupWebhookTestDB(t *testing.T) *gorm.DB {
	_ = godotenv.Load("../../.env")

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{}, &models.Customer{}, &models.Product{},
		&models.Invoice{}, &models.InvoiceItem{}, &models.Payment{},
		&models.ActivityLog{}, &models.NotificationSettings{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	if err := db.Exec(`TRUNCATE TABLE activity_logs, notification_settings, payments, invoice_items, invoices, products, customers, users CASCADE`).Error; err != nil {
		t.Fatalf("failed to clean test database: %v", err)
	}
	return db
}

// newWebhookRouter wires a minimal router around the PhonePe callback route,
// the same shape the full route registration produces.
func newWebhookRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	customerRepo := repository.NewCustomerRepository(db)
	productRepo := repository.NewProductRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	settingsRepo := repository.NewNotificationSettingsRepository(db)

	billingSvc := billing.NewService(invoiceRepo, customerRepo, productRepo, paymentRepo)
	client := phonepe.NewClient(config.PhonePeConfig{
		MerchantID: "TESTMERCHANT",
		SaltKey:    testSaltKey,
		SaltIndex:  testSaltIndex,
	})
	m := mailer.New(config.SMTPConfig{}, config.CompanyConfig{}, settingsRepo)

	h := handler.NewWebhookHandler(billingSvc, client, paymentRepo, invoiceRepo, customerRepo, m, activityRepo)

	r := gin.New()
	r.POST("/api/webhooks/phonepe", h.PhonePe)
	return r
}

// signedWebhookRequest builds the gateway callback body and its X-VERIFY
// header for the given inner payload.
func signedWebhookRequest(t *testing.T, inner map[string]any) (*bytes.Reader, string) {
	t.Helper()
	raw, err := json.Marshal(inner)
	if err != nil {
		t.Fatalf("failed to marshal webhook payload: %v", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	sum := sha256.Sum256([]byte(encoded + testSaltKey))
	xVerify := hex.EncodeToString(sum[:]) + "###" + testSaltIndex

	body, err := json.Marshal(map[string]string{"response": encoded})
	if err != nil {
		t.Fatalf("failed to marshal webhook body: %v", err)
	}
	return bytes.NewReader(body), xVerify
}

func postWebhook(r *gin.Engine, body *bytes.Reader, xVerify string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/phonepe", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", xVerify)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPhonePeWebhookReplayIsNoOp(t *testing.T) {
	db := setupWebhookTestDB(t)
	r := newWebhookRouter(t, db)

	// Customer without an email so no mail delivery is attempted.
	customer := &models.Customer{ID: uuid.New(), Name: "Acme Traders"}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("failed to create customer: %v", err)
	}
	inv := &models.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: "INV-20260823-0001",
		CustomerID:    customer.ID,
		UserID:        uuid.New(),
		TotalAmount:   decimal.RequireFromString("590.00"),
		DueDate:       time.Now().AddDate(0, 0, 14),
		Status:        models.InvoiceStatusPending,
	}
	if err := db.Create(inv).Error; err != nil {
		t.Fatalf("failed to create invoice: %v", err)
	}

	txnID := phonepe.NewMerchantTransactionID(inv.ID)
	inner := map[string]any{
		"code": phonepe.CodePaymentSuccess,
		"data": map[string]any{
			"merchantTransactionId": txnID,
			"transactionId":         "T2608231001",
			"amount":                59000,
			"state":                 "COMPLETED",
		},
	}

	body, xVerify := signedWebhookRequest(t, inner)
	if w := postWebhook(r, body, xVerify); w.Code != http.StatusOK {
		t.Fatalf("first delivery status = %d, body %s", w.Code, w.Body.String())
	}

	// The gateway retries with an identical body; the second delivery must
	// acknowledge without recording anything.
	body, xVerify = signedWebhookRequest(t, inner)
	w := postWebhook(r, body, xVerify)
	if w.Code != http.StatusOK {
		t.Fatalf("replay status = %d, body %s", w.Code, w.Body.String())
	}
	var replay struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &replay); err != nil {
		t.Fatalf("failed to parse replay response: %v", err)
	}
	if !replay.Success || replay.Message != "Webhook already processed." {
		t.Errorf("replay response = %+v, want already-processed acknowledgement", replay)
	}

	var count int64
	if err := db.Model(&models.Payment{}).Where("transaction_id = ?", txnID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count payments: %v", err)
	}
	if count != 1 {
		t.Errorf("payments for %s = %d, want exactly 1", txnID, count)
	}

	var reloaded models.Invoice
	if err := db.First(&reloaded, "id = ?", inv.ID).Error; err != nil {
		t.Fatalf("failed to reload invoice: %v", err)
	}
	if reloaded.Status != models.InvoiceStatusPaid {
		t.Errorf("invoice status = %q, want Paid", reloaded.Status)
	}
}

func TestPhonePeWebhookRejectsBadSignature(t *testing.T) {
	db := setupWebhookTestDB(t)
	r := newWebhookRouter(t, db)

	inner := map[string]any{
		"code": phonepe.CodePaymentSuccess,
		"data": map[string]any{
			"merchantTransactionId": fmt.Sprintf("INV_%s_1", uuid.New()),
			"amount":                100,
		},
	}
	body, _ := signedWebhookRequest(t, inner)
	w := postWebhook(r, body, "deadbeef###1")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}

	var count int64
	if err := db.Model(&models.Payment{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count payments: %v", err)
	}
	if count != 0 {
		t.Errorf("payments recorded = %d, want 0", count)
	}
}
