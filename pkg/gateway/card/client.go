// Package card is the adapter for the checkout-session payment gateway.
// The client is constructed once at startup and injected; nothing in here is
// package-global state.
package card

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/medicare-hq/medicare-api/pkg/circuitbreaker"
	"github.com/medicare-hq/medicare-api/pkg/metrics"
)

const defaultRequestTimeout = 15 * time.Second

type Config struct {
	APIKey        string `envconfig:"CARD_GATEWAY_API_KEY"`
	WebhookSecret string `envconfig:"CARD_GATEWAY_WEBHOOK_SECRET"`
	BaseURL       string `envconfig:"CARD_GATEWAY_BASE_URL" default:"https://api.cardpay.example.com"`
	SuccessURL    string `envconfig:"CARD_GATEWAY_SUCCESS_URL"`
	CancelURL     string `envconfig:"CARD_GATEWAY_CANCEL_URL"`
	Currency      string `envconfig:"CARD_GATEWAY_CURRENCY" default:"kes"`
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
	metrics    *metrics.Metrics
}

func NewClient(cfg Config, m *metrics.Metrics) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		cb: circuitbreaker.New(circuitbreaker.Settings{
			Name:        "card-gateway",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
		metrics: m,
	}
}

func (c *Client) observe(operation string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.GatewayRequestLatency.WithLabelValues("card", operation).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GatewayRequestsFailed.WithLabelValues("card", operation).Inc()
	}
}

// WebhookSecret exposes the shared signing secret for the webhook verifier.
func (c *Client) WebhookSecret() string {
	return c.cfg.WebhookSecret
}

// CheckoutSession is the gateway's hosted-checkout handle.
type CheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentIntent string `json:"payment_intent"`
}

type checkoutSessionRequest struct {
	AmountCents       int64             `json:"amount_total"`
	Currency          string            `json:"currency"`
	Description       string            `json:"description"`
	SuccessURL        string            `json:"success_url"`
	CancelURL         string            `json:"cancel_url"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

// CreateCheckoutSession creates a hosted checkout session for an appointment.
// The appointment id travels in session metadata so the webhook can resolve it
// without trusting the return redirect.
func (c *Client) CreateCheckoutSession(ctx context.Context, appointmentID int64, amount float64) (*CheckoutSession, error) {
	payload := checkoutSessionRequest{
		AmountCents:       int64(amount * 100),
		Currency:          c.cfg.Currency,
		Description:       fmt.Sprintf("Payment for appointment #%d", appointmentID),
		SuccessURL:        c.cfg.SuccessURL,
		CancelURL:         c.cfg.CancelURL,
		ClientReferenceID: uuid.New().String(),
		Metadata: map[string]string{
			"appointment_id": strconv.FormatInt(appointmentID, 10),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkout request: %w", err)
	}

	var session CheckoutSession
	start := time.Now()
	err = c.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/checkout/sessions", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("checkout session request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read checkout response: %w", err)
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, respBody)
		}
		return json.Unmarshal(respBody, &session)
	})
	c.observe("create_checkout_session", start, err)
	if err != nil {
		return nil, err
	}
	if session.URL == "" {
		return nil, fmt.Errorf("gateway returned session without checkout URL")
	}
	return &session, nil
}
