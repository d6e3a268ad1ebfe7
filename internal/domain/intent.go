package domain

// IntentStatus is the normalized PaymentIntent status. Both current and
// legacy gateway field values collapse onto this set.
type IntentStatus string

const (
	IntentStatusRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentStatusRequiresAction        IntentStatus = "requires_action"
	IntentStatusRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentStatusProcessing            IntentStatus = "processing"
	IntentStatusSucceeded             IntentStatus = "succeeded"
	IntentStatusCanceled              IntentStatus = "canceled"
	IntentStatusUnknown               IntentStatus = "unknown"
)

// NextActionKind mirrors next_action.type
type NextActionKind string

const (
	NextActionNone          NextActionKind = ""
	NextActionUseStripeSDK  NextActionKind = "use_stripe_sdk"
	NextActionRedirectToURL NextActionKind = "redirect_to_url"
	NextActionOther         NextActionKind = "other"
)

// NextAction is what the customer must do before the intent can proceed
type NextAction struct {
	Kind        NextActionKind
	RedirectURL string
}

// PaymentIntent is a gateway-side payment attempt, referenced by id
type PaymentIntent struct {
	ID                   string
	Status               IntentStatus
	RawStatus            string
	NextAction           NextAction
	LatestChargeID       string
	BalanceTransactionID string
}

// RequiresAction reports whether the intent waits on customer authentication.
func (pi *PaymentIntent) RequiresAction() bool {
	return pi.Status == IntentStatusRequiresAction
}

// BalanceTransaction is the net monetary effect of a charge or refund
type BalanceTransaction struct {
	ID  string
	Fee int64
}

// GatewayRefund is the gateway's view of a created refund
type GatewayRefund struct {
	ID                 string
	BalanceTransaction BalanceTransaction
}

// GatewayCustomer is the gateway-side customer object
type GatewayCustomer struct {
	ID          string
	Email       string
	Name        string
	Description string
	Deleted     bool
}

// CustomerParams are the mutable fields of a gateway customer
type CustomerParams struct {
	Email       string
	Name        string
	Description string
	Metadata    map[string]string
}

// Card is a stored card source on the gateway
type Card struct {
	ID         string
	CustomerID string
	Brand      string
	Last4      string
	ExpMonth   int
	ExpYear    int
	Name       string
}

// SourceUpdate carries the card fields that may change after creation.
// Nil fields are left untouched.
type SourceUpdate struct {
	Name     *string
	ExpMonth *int
	ExpYear  *int
}
