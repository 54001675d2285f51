package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "whsec_test"

func TestConstructEventRoundTrip(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","amount_total":500000,"payment_intent":"pi_1","payment_status":"paid","metadata":{"appointment_id":"7"}}}}`)

	event, err := ConstructEvent(payload, Sign(payload, secret), secret)
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, event.Type)

	session, err := event.Session()
	require.NoError(t, err)
	assert.Equal(t, int64(500000), session.AmountTotal)
	assert.Equal(t, "pi_1", session.PaymentIntent)
	assert.Equal(t, "7", session.Metadata["appointment_id"])
}

func TestConstructEventRejectsTampering(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`)
	sig := Sign(payload, secret)

	tampered := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_2"}}}`)
	_, err := ConstructEvent(tampered, sig, secret)
	assert.Error(t, err)
}

func TestConstructEventRejectsMissingSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{}}}`)
	_, err := ConstructEvent(payload, "", secret)
	assert.Error(t, err)
}

func TestConstructEventRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{}}}`)
	_, err := ConstructEvent(payload, Sign(payload, "other"), secret)
	assert.Error(t, err)
}

func TestConstructEventRejectsMalformedPayload(t *testing.T) {
	payload := []byte(`not json`)
	_, err := ConstructEvent(payload, Sign(payload, secret), secret)
	assert.Error(t, err)
}
