package ports

import (
	"context"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
)

// ChargeInput is everything the host checkout pipeline hands to Charge
type ChargeInput struct {
	AmountMinorUnits int64
	Currency         string
	// Data is free-form metadata supplied by the caller
	Data        map[string]any
	PaymentData domain.PaymentData
	Description string
	Payment     *domain.Payment
	Invoice     *domain.Invoice
	// SuccessURL and ErrorURL are part of the host charge contract. Charge
	// does not read them; the success URL is passed back to Authenticate,
	// where it becomes the confirm return_url.
	SuccessURL string
	ErrorURL   string
	// CustomerPresent is false for unattended (off-session) charges
	CustomerPresent bool
	// Source is a saved payment source; it takes precedence over PaymentData
	Source *domain.Source
}

// RefundInput is everything the host checkout pipeline hands to Refund
type RefundInput struct {
	OriginalTransactionID string
	AmountMinorUnits      int64
	Currency              string
	PaymentData           domain.PaymentData
	Reason                string
	Payment               *domain.Payment
	Refund                *domain.RefundRecord
	Invoice               *domain.Invoice
}

// PaymentService is the driver contract exposed to the host framework
type PaymentService interface {
	// Charge attempts a payment; gateway failures come back as a Failed outcome
	Charge(ctx context.Context, in *ChargeInput) (*domain.ChargeOutcome, error)

	// Authenticate resumes a charge after the customer completes SCA
	Authenticate(ctx context.Context, intentID string, successURL string) (*domain.ScaOutcome, error)
	AuthenticateWithData(ctx context.Context, scaData []byte, successURL string) (*domain.ScaOutcome, error)

	// Refund reverses all or part of a prior charge
	Refund(ctx context.Context, in *RefundInput) (*domain.RefundOutcome, error)

	CreateSource(ctx context.Context, customer *domain.Customer, token string) (*domain.Source, error)
	UpdateSource(ctx context.Context, source *domain.Source, update *domain.SourceUpdate) (*domain.Source, error)
	DeleteSource(ctx context.Context, source *domain.Source) error

	// SyncCustomer and RemoveCustomer follow framework customer edits/deletes
	SyncCustomer(ctx context.Context, customer *domain.Customer) error
	RemoveCustomer(ctx context.Context, customer *domain.Customer) error

	Label() string
	PublishableKey() (string, error)
	IsAvailable() bool
}
