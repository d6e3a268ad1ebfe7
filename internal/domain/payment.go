package domain

import (
	"fmt"
)

// Customer is the invoicing framework's customer, read-only to the driver
type Customer struct {
	ID           string `json:"id"`
	Label        string `json:"label,omitempty"`
	Email        string `json:"email,omitempty"`
	BillingEmail string `json:"billing_email,omitempty"`
}

// Invoice is the framework invoice being paid
type Invoice struct {
	ID       string    `json:"id"`
	Ref      string    `json:"ref"`
	Customer *Customer `json:"customer,omitempty"`
}

// Payment is the framework payment record for a single charge attempt
type Payment struct {
	ID         string         `json:"id"`
	CustomData map[string]any `json:"custom_data,omitempty"`
}

// RefundRecord is the framework refund record
type RefundRecord struct {
	ID string `json:"id"`
}

// PaymentData holds checkout fields collected by the host framework.
// Recognised keys are "token", "source_id" and "customer_id".
type PaymentData map[string]any

// String returns the value at key as a string, or "" when absent.
func (d PaymentData) String(key string) string {
	if d == nil {
		return ""
	}
	v, ok := d[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// PaymentSourceKind identifies which PaymentSource variant is in use
type PaymentSourceKind string

const (
	PaymentSourceSaved    PaymentSourceKind = "saved"
	PaymentSourceToken    PaymentSourceKind = "token"
	PaymentSourceExplicit PaymentSourceKind = "explicit"
)

// PaymentSource is a closed set: SavedSource, TokenSource or ExplicitSource.
type PaymentSource interface {
	Kind() PaymentSourceKind
	isPaymentSource()
}

// SavedSource is a card previously stored against a gateway customer
type SavedSource struct {
	GatewaySourceID   string
	GatewayCustomerID string
}

func (SavedSource) Kind() PaymentSourceKind { return PaymentSourceSaved }
func (SavedSource) isPaymentSource()        {}

// TokenSource is a one-time token produced by the card widget
type TokenSource struct {
	Token string
}

func (TokenSource) Kind() PaymentSourceKind { return PaymentSourceToken }
func (TokenSource) isPaymentSource()        {}

// ExplicitSource is a source/customer pair supplied verbatim by the caller
type ExplicitSource struct {
	GatewaySourceID   string
	GatewayCustomerID string
}

func (ExplicitSource) Kind() PaymentSourceKind { return PaymentSourceExplicit }
func (ExplicitSource) isPaymentSource()        {}

// ChargeRequest is the gateway-neutral shape of a single charge attempt
type ChargeRequest struct {
	AmountMinorUnits    int64
	Currency            string
	Description         string
	Metadata            map[string]string
	PaymentSource       PaymentSource
	StatementDescriptor string
	ReceiptEmail        string
	CustomerPresent     bool
	IdempotencyKey      string
}

// Validate enforces the request invariants.
func (r *ChargeRequest) Validate() error {
	if r.PaymentSource == nil {
		return ErrNoPaymentSource
	}
	if r.AmountMinorUnits < 0 {
		return NewConfigurationError(fmt.Sprintf("amount must not be negative, got %d", r.AmountMinorUnits))
	}
	if r.Currency == "" {
		return NewConfigurationError("currency is required")
	}
	return nil
}

// RefundRequest is the gateway-neutral shape of a refund
type RefundRequest struct {
	ChargeID         string
	AmountMinorUnits int64
	Reason           string
	Metadata         map[string]string
	IdempotencyKey   string
}
