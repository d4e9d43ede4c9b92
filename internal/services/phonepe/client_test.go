package phonepe_test

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"billing-backend/internal/config"
	"billing-backend/internal/services/phonepe"

	"github.com/google/uuid"
)

func testClient() *phonepe.Client {
	return phonepe.NewClient(config.PhonePeConfig{
		MerchantID: "MERCHANTTEST",
		SaltKey:    "test-salt-key",
		SaltIndex:  "1",
	})
}

func TestSign(t *testing.T) {
	c := testClient()
	payload := base64.StdEncoding.EncodeToString([]byte(`{"merchantId":"MERCHANTTEST"}`))

	sum := sha256.Sum256([]byte(payload + "/pg/v1/pay" + "test-salt-key"))
	want := hex.EncodeToString(sum[:]) + "###1"

	if got := c.Sign(payload); got != want {
		t.Errorf("Sign() = %q, want %q", got, want)
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	c := testClient()
	body := base64.StdEncoding.EncodeToString([]byte(`{"code":"PAYMENT_SUCCESS"}`))

	sum := sha256.Sum256([]byte(body + "test-salt-key"))
	valid := hex.EncodeToString(sum[:]) + "###1"

	tests := []struct {
		name    string
		xVerify string
		want    bool
	}{
		{"valid signature", valid, true},
		{"wrong hash", strings.Repeat("a", 64) + "###1", false},
		{"wrong salt index", hex.EncodeToString(sum[:]) + "###2", false},
		{"empty header", "", false},
		{"truncated", valid[:10], false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.VerifyWebhookSignature(tt.xVerify, body); got != tt.want {
				t.Errorf("VerifyWebhookSignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMerchantTransactionIDRoundTrip(t *testing.T) {
	invoiceID := uuid.New()
	txnID := phonepe.NewMerchantTransactionID(invoiceID)

	if !strings.HasPrefix(txnID, "INV_") {
		t.Fatalf("transaction id %q does not carry the INV_ prefix", txnID)
	}

	got, err := phonepe.InvoiceIDFromTransactionID(txnID)
	if err != nil {
		t.Fatalf("InvoiceIDFromTransactionID(%q) error: %v", txnID, err)
	}
	if got != invoiceID {
		t.Errorf("round trip gave %s, want %s", got, invoiceID)
	}
}

func TestInvoiceIDFromTransactionID_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		txnID string
	}{
		{"missing prefix", uuid.NewString() + "_12345"},
		{"not a uuid", "INV_not-a-uuid_12345"},
		{"empty", ""},
		{"prefix only", "INV_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := phonepe.InvoiceIDFromTransactionID(tt.txnID); err == nil {
				t.Errorf("expected error for %q, got nil", tt.txnID)
			}
		})
	}
}

func TestDecodeWebhook(t *testing.T) {
	inner := map[string]any{
		"code": phonepe.CodePaymentSuccess,
		"data": map[string]any{
			"merchantTransactionId": "INV_x_1",
			"transactionId":         "T123",
			"amount":                123450,
		},
	}
	raw, _ := json.Marshal(inner)
	encoded := base64.StdEncoding.EncodeToString(raw)

	payload, decoded, err := phonepe.DecodeWebhook(encoded)
	if err != nil {
		t.Fatalf("DecodeWebhook error: %v", err)
	}
	if string(decoded) != string(raw) {
		t.Errorf("decoded body differs from input")
	}
	if payload.Code != phonepe.CodePaymentSuccess {
		t.Errorf("code = %q, want %q", payload.Code, phonepe.CodePaymentSuccess)
	}
	if payload.Data.Amount != 123450 {
		t.Errorf("amount = %d, want 123450", payload.Data.Amount)
	}

	if _, _, err := phonepe.DecodeWebhook("not-base64!!"); err == nil {
		t.Error("expected error for invalid base64, got nil")
	}
	if _, _, err := phonepe.DecodeWebhook(base64.StdEncoding.EncodeToString([]byte("not json"))); err == nil {
		t.Error("expected error for invalid json, got nil")
	}
}

func TestRupeesFromPaise(t *testing.T) {
	tests := []struct {
		paise int64
		want  string
	}{
		{123450, "1234.50"},
		{100, "1.00"},
		{1, "0.01"},
		{0, "0.00"},
	}

	for _, tt := range tests {
		if got := phonepe.RupeesFromPaise(tt.paise).StringFixed(2); got != tt.want {
			t.Errorf("RupeesFromPaise(%d) = %s, want %s", tt.paise, got, tt.want)
		}
	}
}
