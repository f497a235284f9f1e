package correlation

// Annotation keys written onto remote entities. Every key is matched exactly;
// other systems read them, so they must never change.
const (
	MasterAccountID           = "MASTER_ACCOUNT_ID"
	MasterCustomerID          = "MASTER_ACCOUNT_CUSTOMER_ID"
	MasterInvoiceID           = "MASTER_ACCOUNT_INVOICE_ID"
	MasterSubscriptionID      = "MASTER_ACCOUNT_SUBSCRIPTION_ID"
	MasterPaymentRecordID     = "MASTER_ACCOUNT_PAYMENT_RECORD_ID"
	ProcessingAccountID       = "PROCESSING_ACCOUNT_ID"
	ProcessingCustomerID      = "PROCESSING_ACCOUNT_CUSTOMER_ID"
	ProcessingPaymentMethodID = "PROCESSING_ACCOUNT_PAYMENT_METHOD_ID"
	ProcessingPaymentIntentID = "PROCESSING_ACCOUNT_PAYMENT_INTENT_ID"
	ProcessingRefundID        = "PROCESSING_ACCOUNT_REFUND_ID"
	ProcessingDisputeID       = "PROCESSING_ACCOUNT_DISPUTE_ID"
	SelectedPriceID           = "SELECTED_PRICE_ID"
	SelectedCurrency          = "SELECTED_CURRENCY"
	InitialPayment            = "INITIAL_PAYMENT"
	IsInitialPayment          = "IS_INITIAL_PAYMENT"
	SkipNonMasterInvoiceSync  = "SKIP_NS_INVOICE_SYNC"
	Taxes                     = "TAXES"
)
