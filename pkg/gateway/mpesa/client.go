// Package mpesa is the adapter for the mobile push-payment gateway. The
// OAuth token is cached inside the client rather than in package-global
// state, so the client is safe to construct once and inject.
package mpesa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/medicare-hq/medicare-api/pkg/circuitbreaker"
	"github.com/medicare-hq/medicare-api/pkg/metrics"
)

const (
	defaultRequestTimeout = 15 * time.Second
	tokenCacheKey         = "access_token"
	// Gateway tokens live for an hour; refresh a little early.
	tokenCacheTTL = 50 * time.Minute

	countryPrefix = "254"
)

type Config struct {
	ConsumerKey    string `envconfig:"MPESA_CONSUMER_KEY"`
	ConsumerSecret string `envconfig:"MPESA_CONSUMER_SECRET"`
	ShortCode      string `envconfig:"MPESA_SHORTCODE"`
	Passkey        string `envconfig:"MPESA_PASSKEY"`
	CallbackURL    string `envconfig:"MPESA_CALLBACK_URL"`
	BaseURL        string `envconfig:"MPESA_BASE_URL" default:"https://sandbox.safaricom.co.ke"`
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	tokens     *cache.Cache
	cb         *circuitbreaker.CircuitBreaker
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewClient(cfg Config, m *metrics.Metrics) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		tokens:     cache.New(tokenCacheTTL, 10*time.Minute),
		cb: circuitbreaker.New(circuitbreaker.Settings{
			Name:        "mpesa-gateway",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
		metrics: m,
		now:     time.Now,
	}
}

func (c *Client) observe(operation string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.GatewayRequestLatency.WithLabelValues("mpesa", operation).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GatewayRequestsFailed.WithLabelValues("mpesa", operation).Inc()
	}
}

// NormalizePhone canonicalizes a subscriber number to the international
// prefix form the gateway expects: a leading 0 becomes the country code, a
// leading + is stripped.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.TrimPrefix(phone, "+")
	if strings.HasPrefix(phone, countryPrefix) {
		return phone
	}
	if strings.HasPrefix(phone, "0") {
		return countryPrefix + phone[1:]
	}
	return phone
}

// Password derives the push-payment credential for a request: the base64 of
// shortcode+passkey+timestamp, with timestamp formatted YYYYMMDDHHMMSS.
// Treated as an opaque derivation required by the gateway.
func Password(shortCode, passkey string, t time.Time) (password, timestamp string) {
	timestamp = t.Format("20060102150405")
	password = base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
	return password, timestamp
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	if tok, ok := c.tokens.Get(tokenCacheKey); ok {
		return tok.(string), nil
	}

	var tr tokenResponse
	start := time.Now()
	err := c.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.cfg.BaseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
		if err != nil {
			return err
		}
		req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("token request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read token response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
		}
		return json.Unmarshal(body, &tr)
	})
	c.observe("token", start, err)
	if err != nil {
		return "", err
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access token")
	}

	c.tokens.Set(tokenCacheKey, tr.AccessToken, tokenCacheTTL)
	return tr.AccessToken, nil
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPushResponse is the gateway's synchronous acknowledgement; the payment
// result arrives later on the callback URL.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// InitiateSTKPush requests a push payment to the given phone. accountRef ends
// up on the callback and must be strictly parseable (APPT-<id>).
func (c *Client) InitiateSTKPush(ctx context.Context, phone string, amount float64, accountRef string) (*STKPushResponse, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gateway access token: %w", err)
	}

	password, timestamp := Password(c.cfg.ShortCode, c.cfg.Passkey, c.now())
	phone = NormalizePhone(phone)

	payload := stkPushRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            int64(amount),
		PartyA:            phone,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  accountRef,
		TransactionDesc:   "Medical Appointment Payment",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal push request: %w", err)
	}

	var ack STKPushResponse
	start := time.Now()
	err = c.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.cfg.BaseURL+"/mpesa/stkpush/v1/processrequest", strings.NewReader(string(body)))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("push request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read push response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("push endpoint returned %d: %s", resp.StatusCode, respBody)
		}
		return json.Unmarshal(respBody, &ack)
	})
	c.observe("stk_push", start, err)
	if err != nil {
		return nil, err
	}
	return &ack, nil
}
