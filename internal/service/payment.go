package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"sprintdesk/internal/model"

	"github.com/google/uuid"
)

// PaymentService wraps the external payment provider's checkout API.
// The app never touches card data; it only creates hosted checkout
// sessions and records the returned reference.
type PaymentService struct {
	baseURL    string
	apiKey     string
	successURL string
	client     *http.Client
}

func NewPaymentService(baseURL, apiKey, successURL string) *PaymentService {
	return &PaymentService{baseURL: baseURL, apiKey: apiKey, successURL: successURL, client: &http.Client{}}
}

type CheckoutSession struct {
	URL       string `json:"url"`
	Reference string `json:"reference"`
}

// CreateCheckout creates a hosted checkout session for the sprint
// price. The uuid reference doubles as an idempotency key on the
// provider side.
func (s *PaymentService) CreateCheckout(ctx context.Context, sp *model.Sprint) (*CheckoutSession, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("payment provider not configured")
	}
	reference := uuid.NewString()
	body := map[string]interface{}{
		"amount":      sp.Price,
		"currency":    "usd",
		"reference":   reference,
		"description": fmt.Sprintf("%s validation sprint for %s", sp.Tier, sp.CompanyName),
		"success_url": s.successURL,
	}

	var sess CheckoutSession
	if err := s.doJSON(ctx, "POST", "/v1/checkout-sessions", body, &sess); err != nil {
		return nil, err
	}
	if sess.Reference == "" {
		sess.Reference = reference
	}
	return &sess, nil
}

func (s *PaymentService) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("payment api %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("payment api %s %s: status %d: %s", method, path, resp.StatusCode, data)
	}

	if out != nil {
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
	}
	return nil
}
