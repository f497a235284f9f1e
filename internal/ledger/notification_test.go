package ledger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/josh-kwaku/ledgersync/internal/domain"
)

const customerUpdatedPayload = `{
  "id": "evt_1",
  "object": "event",
  "api_version": "2020-08-27",
  "account": "acct_eu",
  "created": 1700000000,
  "type": "customer.updated",
  "data": {
    "object": {"id": "cus_1", "object": "customer", "invoice_settings": {"default_payment_method": "pm_2"}},
    "previous_attributes": {"invoice_settings": {"default_payment_method": "pm_1"}}
  }
}`

func TestParseNotification(t *testing.T) {
	n, err := ParseNotification([]byte(customerUpdatedPayload))
	require.NoError(t, err)

	assert.Equal(t, "evt_1", n.ID)
	assert.Equal(t, domain.EventCustomerUpdated, n.Type)
	assert.Equal(t, "acct_eu", n.Account)
	assert.Equal(t, int64(1_700_000_000), n.Created)

	var cust domain.Customer
	require.NoError(t, n.DecodeObject(&cust))
	assert.Equal(t, "cus_1", cust.ID)

	var prev map[string]map[string]string
	require.NoError(t, json.Unmarshal(n.PreviousAttributes, &prev))
	assert.Equal(t, "pm_1", prev["invoice_settings"]["default_payment_method"])
}

func TestParseNotificationRejects(t *testing.T) {
	tests := map[string]string{
		"not json":   `{"id":`,
		"missing id": `{"type":"invoice.paid","data":{"object":{}}}`,
		"no type":    `{"id":"evt_1","data":{"object":{}}}`,
	}

	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseNotification([]byte(payload))
			assert.Error(t, err)
		})
	}
}

func TestVerifyNotification(t *testing.T) {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(customerUpdatedPayload),
		Secret:    "whsec_test",
		Timestamp: time.Now(),
	})

	n, err := VerifyNotification(signed.Payload, signed.Header, "whsec_test", 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", n.ID)

	_, err = VerifyNotification(signed.Payload, signed.Header, "whsec_other", 5*time.Minute)
	assert.Error(t, err)
}

func TestVerifyNotificationRejectsStaleTimestamp(t *testing.T) {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(customerUpdatedPayload),
		Secret:    "whsec_test",
		Timestamp: time.Now().Add(-time.Hour),
	})

	_, err := VerifyNotification(signed.Payload, signed.Header, "whsec_test", 5*time.Minute)
	assert.Error(t, err)
}
