package correlation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/ledgersync/internal/domain"
)

func TestClampTimestamp(t *testing.T) {
	const now = int64(1_700_000_000)

	tests := []struct {
		name string
		ts   int64
		now  int64
		want int64
	}{
		{name: "past timestamp unchanged", ts: now - 100, now: now, want: now - 100},
		{name: "now unchanged", ts: now, now: now, want: now},
		{name: "future pulled back", ts: now + 3600, now: now, want: now - 10},
		{name: "never negative", ts: 50, now: 5, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampTimestamp(tt.ts, tt.now)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, int64(0))
		})
	}
}

func TestRefRequire(t *testing.T) {
	ref := Ref{MasterInvoiceID: "  in_123 ", MasterCustomerID: "   "}

	v, err := ref.Require("invoice", MasterInvoiceID)
	require.NoError(t, err)
	assert.Equal(t, "in_123", v)

	_, err = ref.Require("invoice", MasterCustomerID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingCorrelation))
	assert.Contains(t, err.Error(), MasterCustomerID)

	_, err = ref.Require("invoice", MasterPaymentRecordID)
	assert.True(t, errors.Is(err, domain.ErrMissingCorrelation))
}

func TestRefFlags(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{name: "lower", value: "true", want: true},
		{name: "mixed case", value: "True", want: true},
		{name: "padded", value: " TRUE ", want: true},
		{name: "false", value: "false", want: false},
		{name: "absent", value: "", want: false},
		{name: "garbage", value: "yes", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := Ref{InitialPayment: tt.value, IsInitialPayment: tt.value}
			assert.Equal(t, tt.want, ref.InitialPayment())
			assert.Equal(t, tt.want, ref.IsInitialPayment())
		})
	}
}

func TestAnnotationsSkipsBlank(t *testing.T) {
	got := Annotations(
		MasterInvoiceID, "in_1",
		MasterCustomerID, "",
		IsInitialPayment, FormatBool(true),
	)

	assert.Equal(t, map[string]string{
		MasterInvoiceID:  "in_1",
		IsInitialPayment: "true",
	}, got)
}

func TestMasterLinks(t *testing.T) {
	ref := Ref{
		MasterAccountID:      "acct_eu",
		MasterCustomerID:     "cus_1",
		MasterInvoiceID:      "in_1",
		MasterSubscriptionID: "sub_1",
	}

	assert.Equal(t, MasterLinks{
		AccountID:      "acct_eu",
		CustomerID:     "cus_1",
		InvoiceID:      "in_1",
		SubscriptionID: "sub_1",
	}, ref.MasterLinks())
}
