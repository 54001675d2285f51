package mpesa

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ResultCodeSuccess is the gateway's "payment went through" result code.
const ResultCodeSuccess = 0

// AccountReferencePrefix is written at initiation so the callback can resolve
// the appointment id without scraping a display string.
const AccountReferencePrefix = "APPT-"

// CallbackEnvelope is the nested result object the gateway posts
// asynchronously.
type CallbackEnvelope struct {
	Body struct {
		StkCallback StkCallback `json:"stkCallback"`
	} `json:"Body"`
}

type StkCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	AccountReference  string `json:"AccountReference"`
	CallbackMetadata  struct {
		Item []MetadataItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

// MetadataItem is one entry in the flat named-item list. Order is not
// guaranteed; consumers must scan by name.
type MetadataItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value"`
}

// Metadata names the reconciliation flow reads.
const (
	MetaAmount        = "Amount"
	MetaReceiptNumber = "MpesaReceiptNumber"
	MetaPhoneNumber   = "PhoneNumber"
)

// MetaString scans the metadata items by name and renders the value as a
// string. Numeric values (the gateway sends phone numbers as numbers) are
// formatted without an exponent.
func (c *StkCallback) MetaString(name string) string {
	for _, item := range c.CallbackMetadata.Item {
		if item.Name != name {
			continue
		}
		switch v := item.Value.(type) {
		case string:
			return v
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case nil:
			return ""
		default:
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}

// MetaFloat scans the metadata items by name for a numeric value.
func (c *StkCallback) MetaFloat(name string) (float64, bool) {
	for _, item := range c.CallbackMetadata.Item {
		if item.Name != name {
			continue
		}
		switch v := item.Value.(type) {
		case float64:
			return v, true
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return 0, false
			}
			return f, true
		}
	}
	return 0, false
}

var digitsRe = regexp.MustCompile(`\d+`)

// AppointmentIDFromReference resolves the appointment id from an account
// reference. The APPT-<id> form written at initiation is authoritative; bare
// digit extraction remains as a fallback for references issued before that
// format existed and is best-effort only.
func AppointmentIDFromReference(ref string) (int64, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, false
	}
	if strings.HasPrefix(ref, AccountReferencePrefix) {
		id, err := strconv.ParseInt(strings.TrimPrefix(ref, AccountReferencePrefix), 10, 64)
		if err != nil || id <= 0 {
			return 0, false
		}
		return id, true
	}
	if m := digitsRe.FindString(ref); m != "" {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil || id <= 0 {
			return 0, false
		}
		return id, true
	}
	return 0, false
}
