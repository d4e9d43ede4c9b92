package phonepe

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"billing-backend/internal/config"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const payPath = "/pg/v1/pay"

// Gateway response codes delivered in webhooks.
const (
	CodePaymentSuccess  = "PAYMENT_SUCCESS"
	CodePaymentError    = "PAYMENT_ERROR"
	CodePaymentDeclined = "PAYMENT_DECLINED"
)

var ErrBadTransactionID = errors.New("invalid merchant transaction id format")

// Client talks to the PhonePe payment gateway and verifies its webhook
// signatures.
type Client struct {
	cfg  config.PhonePeConfig
	http *http.Client
}

func NewClient(cfg config.PhonePeConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// Sign produces the X-VERIFY header for an outbound pay request:
// SHA256(base64Payload + "/pg/v1/pay" + saltKey) + "###" + saltIndex.
func (c *Client) Sign(base64Payload string) string {
	sum := sha256.Sum256([]byte(base64Payload + payPath + c.cfg.SaltKey))
	return hex.EncodeToString(sum[:]) + "###" + c.cfg.SaltIndex
}

// VerifyWebhookSignature checks the X-VERIFY header of an inbound webhook:
// SHA256(base64Body + saltKey) + "###" + saltIndex.
func (c *Client) VerifyWebhookSignature(xVerify, base64Body string) bool {
	sum := sha256.Sum256([]byte(base64Body + c.cfg.SaltKey))
	expected := hex.EncodeToString(sum[:]) + "###" + c.cfg.SaltIndex
	return subtle.ConstantTimeCompare([]byte(expected), []byte(xVerify)) == 1
}

// NewMerchantTransactionID builds the "INV_<invoiceID>_<random>" token that
// correlates gateway callbacks to invoices.
func NewMerchantTransactionID(invoiceID uuid.UUID) string {
	var buf [4]byte
	_, _ = rand.Read(buf[:])
	return fmt.Sprintf("INV_%s_%d", invoiceID, binary.BigEndian.Uint32(buf[:]))
}

// InvoiceIDFromTransactionID extracts the invoice id embedded in a merchant
// transaction id. UUIDs contain no underscore, so the split is unambiguous.
func InvoiceIDFromTransactionID(txnID string) (uuid.UUID, error) {
	if !strings.HasPrefix(txnID, "INV_") {
		return uuid.Nil, ErrBadTransactionID
	}
	parts := strings.Split(txnID, "_")
	if len(parts) < 2 {
		return uuid.Nil, ErrBadTransactionID
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return uuid.Nil, ErrBadTransactionID
	}
	return id, nil
}

// WebhookPayload is the decoded inner JSON of a gateway callback.
type WebhookPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		TransactionID         string `json:"transactionId"`
		// Amount arrives in paise.
		Amount       int64  `json:"amount"`
		State        string `json:"state"`
		ResponseCode string `json:"responseCode"`
	} `json:"data"`
}

// DecodeWebhook base64-decodes and parses the webhook body.
func DecodeWebhook(base64Body string) (*WebhookPayload, []byte, error) {
	raw, err := base64.StdEncoding.DecodeString(base64Body)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding webhook body: %w", err)
	}
	var payload WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, nil, fmt.Errorf("parsing webhook body: %w", err)
	}
	return &payload, raw, nil
}

// RupeesFromPaise converts a gateway paise amount to a rupee decimal.
func RupeesFromPaise(paise int64) decimal.Decimal {
	return decimal.NewFromInt(paise).Div(decimal.NewFromInt(100))
}

// InitiateResult carries the gateway's answer to a pay request.
type InitiateResult struct {
	Success               bool   `json:"success"`
	PaymentURL            string `json:"payment_url,omitempty"`
	MerchantTransactionID string `json:"transaction_id,omitempty"`
	Message               string `json:"message"`
	ErrorCode             string `json:"error_code,omitempty"`
}

// InitiatePayment starts a PAY_PAGE transaction for the invoice's outstanding
// amount and returns the redirect URL.
func (c *Client) InitiatePayment(invoiceID uuid.UUID, amount decimal.Decimal, customerPhone, customerName string) (*InitiateResult, error) {
	merchantTxnID := NewMerchantTransactionID(invoiceID)

	merchantUserID := "USER_" + customerPhone
	if len(customerPhone) > 10 {
		merchantUserID = "USER_" + customerPhone[len(customerPhone)-10:]
	}
	if customerName != "" {
		merchantUserID = "USER_" + strings.ReplaceAll(customerName, " ", "_")
	}

	payload := map[string]any{
		"merchantId":            c.cfg.MerchantID,
		"merchantTransactionId": merchantTxnID,
		"merchantUserId":        merchantUserID,
		"amount":                amount.Mul(decimal.NewFromInt(100)).IntPart(),
		"redirectUrl":           fmt.Sprintf("%s?invoice_id=%s", c.cfg.RedirectURL, invoiceID),
		"redirectMode":          "POST",
		"callbackUrl":           c.cfg.CallbackURL,
		"mobileNumber":          customerPhone,
		"paymentInstrument":     map[string]string{"type": "PAY_PAGE"},
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	base64Payload := base64.StdEncoding.EncodeToString(payloadJSON)

	body, err := json.Marshal(map[string]string{"request": base64Payload})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.cfg.APIURL+payPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", c.Sign(base64Payload))

	resp, err := c.http.Do(req)
	if err != nil {
		return &InitiateResult{Success: false, Message: "PhonePe API error: " + err.Error()}, nil
	}
	defer resp.Body.Close()

	var apiResp struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
		Message string `json:"message"`
		Data    struct {
			MerchantTransactionID string `json:"merchantTransactionId"`
			InstrumentResponse    struct {
				RedirectInfo struct {
					URL string `json:"url"`
				} `json:"redirectInfo"`
			} `json:"instrumentResponse"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decoding pay response: %w", err)
	}

	if !apiResp.Success {
		return &InitiateResult{
			Success:   false,
			Message:   apiResp.Message,
			ErrorCode: apiResp.Code,
		}, nil
	}
	return &InitiateResult{
		Success:               true,
		PaymentURL:            apiResp.Data.InstrumentResponse.RedirectInfo.URL,
		MerchantTransactionID: merchantTxnID,
		Message:               "Payment initiated successfully",
	}, nil
}

// StatusResult carries a transaction status check answer.
type StatusResult struct {
	Success       bool            `json:"success"`
	State         string          `json:"state,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transaction_id,omitempty"`
	ResponseCode  string          `json:"response_code,omitempty"`
	Message       string          `json:"message,omitempty"`
}

// CheckStatus queries the gateway for the state of a merchant transaction.
func (c *Client) CheckStatus(merchantTxnID string) (*StatusResult, error) {
	path := fmt.Sprintf("/pg/v1/status/%s/%s", c.cfg.MerchantID, merchantTxnID)
	sum := sha256.Sum256([]byte(path + c.cfg.SaltKey))
	xVerify := hex.EncodeToString(sum[:]) + "###" + c.cfg.SaltIndex

	req, err := http.NewRequest(http.MethodGet, c.cfg.APIURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", xVerify)

	resp, err := c.http.Do(req)
	if err != nil {
		return &StatusResult{Success: false, Message: "PhonePe API error: " + err.Error()}, nil
	}
	defer resp.Body.Close()

	var apiResp struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
		Message string `json:"message"`
		Data    struct {
			MerchantTransactionID string `json:"merchantTransactionId"`
			State                 string `json:"state"`
			Amount                int64  `json:"amount"`
			ResponseCode          string `json:"responseCode"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decoding status response: %w", err)
	}

	if !apiResp.Success {
		return &StatusResult{Success: false, Message: apiResp.Message, ResponseCode: apiResp.Code}, nil
	}
	return &StatusResult{
		Success:       true,
		State:         apiResp.Data.State,
		Amount:        RupeesFromPaise(apiResp.Data.Amount),
		TransactionID: apiResp.Data.MerchantTransactionID,
		ResponseCode:  apiResp.Data.ResponseCode,
	}, nil
}
