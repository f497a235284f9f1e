package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/ledgersync/internal/correlation"
	"github.com/josh-kwaku/ledgersync/internal/domain"
	"github.com/josh-kwaku/ledgersync/internal/ledger"
	"github.com/josh-kwaku/ledgersync/internal/testutil"
)

func seedSettledPayment(f *engineFixture, withRecord bool) {
	f.processing.PaymentIntents["pi_1"] = &domain.PaymentIntent{
		ID: "pi_1",
		Invoice: domain.Expandable[domain.Invoice]{
			ID: "in_proc",
			Object: &domain.Invoice{
				ID:       "in_proc",
				Metadata: map[string]string{correlation.MasterInvoiceID: "in_master"},
			},
		},
	}
	master := &domain.Invoice{
		ID: "in_master",
		Lines: domain.List[domain.InvoiceLineItem]{Data: []domain.InvoiceLineItem{
			{ID: "il_1", Amount: testutil.Int64(1230)},
		}},
		Metadata: map[string]string{},
	}
	if withRecord {
		master.Metadata[correlation.MasterPaymentRecordID] = "pr_1"
	}
	f.master.Invoices["in_master"] = master
}

func refund() domain.Refund {
	return domain.Refund{
		ID:            "re_1",
		Status:        "succeeded",
		Amount:        500,
		Currency:      "usd",
		Created:       1_700_000_000,
		PaymentIntent: domain.Ref[domain.PaymentIntent]("pi_1"),
	}
}

func dispute(status string) domain.Dispute {
	return domain.Dispute{
		ID:            "dp_1",
		Status:        status,
		Amount:        1230,
		Currency:      "usd",
		Created:       1_700_000_000,
		PaymentIntent: domain.Ref[domain.PaymentIntent]("pi_1"),
	}
}

func TestEngine_RefundCreated(t *testing.T) {
	f := setupEngine(t)
	seedSettledPayment(f, true)

	require.NoError(t, f.handleProcessing(t, testutil.Notification(t, "evt_re", domain.EventRefundCreated, refund())))

	assert.Equal(t, []string{"GetPaymentIntent"}, f.processing.Ops())
	assert.Equal(t, []string{"GetInvoice", "ReportRefund", "CreateCreditNote"}, f.master.Ops())

	req := f.master.CallsTo("ReportRefund")[0].Arg.(ledger.ReportRefundRequest)
	assert.Equal(t, ledger.ReportRefundRequest{
		PaymentRecord:   "pr_1",
		Amount:          500,
		Currency:        "usd",
		RefundedAt:      1_700_000_000,
		RefundReference: "re_1",
		Metadata:        map[string]string{correlation.ProcessingRefundID: "re_1"},
	}, req)

	note := f.master.CallsTo("CreateCreditNote")[0].Arg.(ledger.CreditNoteRequest)
	assert.Equal(t, "in_master", note.Invoice)
	assert.Equal(t, "il_1", note.LineItem)
	assert.Equal(t, int64(500), note.OutOfBandAmount)
}

func TestEngine_RefundCreatedCreditNoteFailureIsNotRaised(t *testing.T) {
	f := setupEngine(t)
	seedSettledPayment(f, true)
	f.master.Fail["CreateCreditNote"] = errors.New("invoice not finalized")

	require.NoError(t, f.handleProcessing(t, testutil.Notification(t, "evt_re", domain.EventRefundCreated, refund())))
	assert.Len(t, f.master.CallsTo("ReportRefund"), 1)
}

func TestEngine_RefundCreatedFallsBackToPaymentIntentLinks(t *testing.T) {
	f := setupEngine(t)
	seedSettledPayment(f, true)
	f.processing.PaymentIntents["pi_1"] = &domain.PaymentIntent{
		ID:       "pi_1",
		Invoice:  domain.Ref[domain.Invoice]("in_proc"),
		Metadata: map[string]string{correlation.MasterInvoiceID: "in_master"},
	}

	require.NoError(t, f.handleProcessing(t, testutil.Notification(t, "evt_re", domain.EventRefundCreated, refund())))
	assert.Len(t, f.master.CallsTo("ReportRefund"), 1)
}

func TestEngine_ReversalWithoutSettlementRecord(t *testing.T) {
	tests := []struct {
		name string
		n    func(t *testing.T) domain.Notification
	}{
		{"refund", func(t *testing.T) domain.Notification {
			return testutil.Notification(t, "evt_re", domain.EventRefundCreated, refund())
		}},
		{"lost dispute", func(t *testing.T) domain.Notification {
			return testutil.Notification(t, "evt_dp", domain.EventChargeDisputeClosed, dispute("lost"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupEngine(t)
			seedSettledPayment(f, false)

			err := f.handleProcessing(t, tt.n(t))
			assert.ErrorIs(t, err, domain.ErrMissingCorrelation)
			assert.Empty(t, f.master.CallsTo("ReportRefund"))
		})
	}
}

func TestEngine_RefundCreatedWithoutMasterInvoiceLink(t *testing.T) {
	f := setupEngine(t)
	f.processing.PaymentIntents["pi_1"] = &domain.PaymentIntent{ID: "pi_1"}

	err := f.handleProcessing(t, testutil.Notification(t, "evt_re", domain.EventRefundCreated, refund()))
	assert.ErrorIs(t, err, domain.ErrMissingCorrelation)
	assert.Empty(t, f.master.Calls)
}

func TestEngine_DisputeClosed(t *testing.T) {
	tests := []struct {
		status     string
		wantReport bool
	}{
		{"lost", true},
		{" LOST ", true},
		{"won", false},
		{"warning_closed", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			f := setupEngine(t)
			seedSettledPayment(f, true)

			n := testutil.Notification(t, "evt_dp", domain.EventChargeDisputeClosed, dispute(tt.status))
			require.NoError(t, f.handleProcessing(t, n))

			reports := f.master.CallsTo("ReportRefund")
			if !tt.wantReport {
				assert.Empty(t, reports)
				assert.Empty(t, f.processing.Calls)
				return
			}
			require.Len(t, reports, 1)
			req := reports[0].Arg.(ledger.ReportRefundRequest)
			assert.Equal(t, "dp_1", req.RefundReference)
			assert.Equal(t, int64(1230), req.Amount)
			assert.Equal(t, map[string]string{correlation.ProcessingDisputeID: "dp_1"}, req.Metadata)
		})
	}
}
