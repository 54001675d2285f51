package mpesa

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"0712345678":    "254712345678",
		"254712345678":  "254712345678",
		"+254712345678": "254712345678",
		" 0712345678 ":  "254712345678",
		"712345678":     "712345678",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePhone(in), "input %q", in)
	}
}

func TestPasswordDerivation(t *testing.T) {
	at := time.Date(2026, 8, 30, 14, 5, 9, 0, time.UTC)
	password, timestamp := Password("174379", "passkey", at)

	assert.Equal(t, "20260830140509", timestamp)
	decoded, err := base64.StdEncoding.DecodeString(password)
	require.NoError(t, err)
	assert.Equal(t, "174379passkey20260830140509", string(decoded))
}

func TestAppointmentIDFromReference(t *testing.T) {
	id, ok := AppointmentIDFromReference("APPT-42")
	require.True(t, ok)
	assert.Equal(t, int64(42), id)

	// Legacy references fall back to digit extraction.
	id, ok = AppointmentIDFromReference("Appointment 17 payment")
	require.True(t, ok)
	assert.Equal(t, int64(17), id)

	_, ok = AppointmentIDFromReference("APPT-")
	assert.False(t, ok)

	_, ok = AppointmentIDFromReference("no digits here")
	assert.False(t, ok)

	_, ok = AppointmentIDFromReference("")
	assert.False(t, ok)
}

func TestMetaScanByName(t *testing.T) {
	cb := StkCallback{}
	cb.CallbackMetadata.Item = []MetadataItem{
		{Name: "PhoneNumber", Value: 254712345678.0},
		{Name: "MpesaReceiptNumber", Value: "SIK7E2QW1X"},
		{Name: "Amount", Value: 2000.0},
	}

	assert.Equal(t, "SIK7E2QW1X", cb.MetaString(MetaReceiptNumber))
	assert.Equal(t, "254712345678", cb.MetaString(MetaPhoneNumber))

	amount, ok := cb.MetaFloat(MetaAmount)
	require.True(t, ok)
	assert.Equal(t, 2000.0, amount)

	assert.Equal(t, "", cb.MetaString("Balance"))
	_, ok = cb.MetaFloat("Balance")
	assert.False(t, ok)
}
