package domain

// OutcomeStatus discriminates the outcome variants
type OutcomeStatus string

const (
	OutcomeSucceeded              OutcomeStatus = "succeeded"
	OutcomeRequiresAuthentication OutcomeStatus = "requires_authentication"
	OutcomeRedirect               OutcomeStatus = "redirect"
	OutcomeFailed                 OutcomeStatus = "failed"
)

// Failure is carried by every Failed variant
type Failure struct {
	RawMessage  string `json:"raw_message"`
	RawCode     string `json:"raw_code,omitempty"`
	UserMessage string `json:"user_message"`
}

// ChargeOutcome is one of Succeeded, RequiresAuthentication or Failed
type ChargeOutcome struct {
	Status        OutcomeStatus `json:"status"`
	TransactionID string        `json:"transaction_id,omitempty"`
	FeeMinorUnits int64         `json:"fee,omitempty"`
	IntentID      string        `json:"intent_id,omitempty"`
	Failure       *Failure      `json:"failure,omitempty"`
}

func ChargeSucceeded(txnID string, fee int64) *ChargeOutcome {
	return &ChargeOutcome{Status: OutcomeSucceeded, TransactionID: txnID, FeeMinorUnits: fee}
}

func ChargeRequiresAuthentication(intentID string) *ChargeOutcome {
	return &ChargeOutcome{Status: OutcomeRequiresAuthentication, IntentID: intentID}
}

func ChargeFailed(f Failure) *ChargeOutcome {
	return &ChargeOutcome{Status: OutcomeFailed, Failure: &f}
}

func (o *ChargeOutcome) Succeeded() bool { return o.Status == OutcomeSucceeded }

// ScaOutcome is one of Succeeded, Redirect or Failed
type ScaOutcome struct {
	Status        OutcomeStatus `json:"status"`
	TransactionID string        `json:"transaction_id,omitempty"`
	FeeMinorUnits int64         `json:"fee,omitempty"`
	RedirectURL   string        `json:"redirect_url,omitempty"`
	Failure       *Failure      `json:"failure,omitempty"`
}

func ScaSucceeded(txnID string, fee int64) *ScaOutcome {
	return &ScaOutcome{Status: OutcomeSucceeded, TransactionID: txnID, FeeMinorUnits: fee}
}

func ScaRedirect(url string) *ScaOutcome {
	return &ScaOutcome{Status: OutcomeRedirect, RedirectURL: url}
}

func ScaFailed(f Failure) *ScaOutcome {
	return &ScaOutcome{Status: OutcomeFailed, Failure: &f}
}

// RefundOutcome is one of Succeeded or Failed. A succeeded refund reports
// its fee as a negative number.
type RefundOutcome struct {
	Status        OutcomeStatus `json:"status"`
	TransactionID string        `json:"transaction_id,omitempty"`
	FeeMinorUnits int64         `json:"fee,omitempty"`
	Failure       *Failure      `json:"failure,omitempty"`
}

func RefundSucceeded(txnID string, fee int64) *RefundOutcome {
	return &RefundOutcome{Status: OutcomeSucceeded, TransactionID: txnID, FeeMinorUnits: fee}
}

func RefundFailed(f Failure) *RefundOutcome {
	return &RefundOutcome{Status: OutcomeFailed, Failure: &f}
}
