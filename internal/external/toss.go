package external

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TossClient talks to the Toss Payments REST API. Confirmation always goes
// through here; the success redirect from the widget is never trusted alone.
type TossClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

type TossConfig struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

type tossConfirmRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

type tossCancelRequest struct {
	CancelReason string `json:"cancelReason"`
}

type tossErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewTossClient(cfg TossConfig) *TossClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.tosspayments.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &TossClient{
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (tc *TossClient) authorization() string {
	// Basic auth with the secret key as username and empty password.
	encoded := base64.StdEncoding.EncodeToString([]byte(tc.secretKey + ":"))
	return "Basic " + encoded
}

func (tc *TossClient) Confirm(ctx context.Context, paymentKey, orderID string, amount int64) error {
	body := tossConfirmRequest{
		PaymentKey: paymentKey,
		OrderID:    orderID,
		Amount:     amount,
	}
	return tc.post(ctx, "/v1/payments/confirm", body)
}

func (tc *TossClient) Cancel(ctx context.Context, paymentKey, reason string) error {
	body := tossCancelRequest{CancelReason: reason}
	return tc.post(ctx, "/v1/payments/"+paymentKey+"/cancel", body)
}

func (tc *TossClient) post(ctx context.Context, path string, body interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tc.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", tc.authorization())
	req.Header.Set("Content-Type", "application/json")

	resp, err := tc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payment API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr tossErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			return fmt.Errorf("payment API returned status %d", resp.StatusCode)
		}
		return fmt.Errorf("payment API error %s: %s", apiErr.Code, apiErr.Message)
	}

	return nil
}
