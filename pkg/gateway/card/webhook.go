package card

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// SignatureHeader is the header carrying the webhook signature.
const SignatureHeader = "X-Gateway-Signature"

// Event kinds the reconciliation flow understands. Anything else is
// acknowledged and ignored.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventPaymentIntentOK     = "payment_intent.succeeded"
	EventPaymentIntentFailed = "payment_intent.payment_failed"
)

// Event is the envelope of a webhook delivery.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// SessionObject is the payload of a checkout.session.completed event.
type SessionObject struct {
	ID            string            `json:"id"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	PaymentIntent string            `json:"payment_intent"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}

// IntentObject is the payload of the payment_intent.* events.
type IntentObject struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ConstructEvent verifies the HMAC-SHA256 signature over the exact wire bytes
// and parses the event. The raw body must not have passed through any
// body-parsing middleware first.
func ConstructEvent(payload []byte, signature, secret string) (*Event, error) {
	if err := verifySignature(payload, signature, secret); err != nil {
		return nil, err
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("webhook payload missing event type")
	}
	return &event, nil
}

// Sign computes the signature for a payload; used by initiating code and
// tests, never by the verifying path.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func verifySignature(payload []byte, signature, secret string) error {
	if signature == "" {
		return fmt.Errorf("missing webhook signature")
	}
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("malformed webhook signature")
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	if !hmac.Equal(mac.Sum(nil), expected) {
		return fmt.Errorf("webhook signature mismatch")
	}
	return nil
}

// Session decodes the event payload as a checkout session.
func (e *Event) Session() (*SessionObject, error) {
	var s SessionObject
	if err := json.Unmarshal(e.Data.Object, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session object: %w", err)
	}
	return &s, nil
}

// Intent decodes the event payload as a payment intent.
func (e *Event) Intent() (*IntentObject, error) {
	var i IntentObject
	if err := json.Unmarshal(e.Data.Object, &i); err != nil {
		return nil, fmt.Errorf("failed to parse intent object: %w", err)
	}
	return &i, nil
}
