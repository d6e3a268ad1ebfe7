package ports

import (
	"context"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
)

// GatewayClient is the narrow view of the Stripe API the driver needs.
// Every error it returns is a *domain.GatewayError.
type GatewayClient interface {
	CreatePaymentIntent(ctx context.Context, req *domain.ChargeRequest) (*domain.PaymentIntent, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*domain.PaymentIntent, error)
	ConfirmPaymentIntent(ctx context.Context, id string, returnURL string) (*domain.PaymentIntent, error)
	RetrieveBalanceTransaction(ctx context.Context, id string) (*domain.BalanceTransaction, error)
	CreateRefund(ctx context.Context, req *domain.RefundRequest) (*domain.GatewayRefund, error)

	CreateCustomer(ctx context.Context, params *domain.CustomerParams) (*domain.GatewayCustomer, error)
	RetrieveCustomer(ctx context.Context, id string) (*domain.GatewayCustomer, error)
	UpdateCustomer(ctx context.Context, id string, params *domain.CustomerParams) (*domain.GatewayCustomer, error)
	DeleteCustomer(ctx context.Context, id string) error

	CreateSource(ctx context.Context, customerID string, token string) (*domain.Card, error)
	UpdateSource(ctx context.Context, customerID string, sourceID string, update *domain.SourceUpdate) (*domain.Card, error)
	DeleteSource(ctx context.Context, customerID string, sourceID string) error
}

// GatewayProvider hands out a GatewayClient bound to one secret key
type GatewayProvider interface {
	Gateway(secretKey string) GatewayClient
}

// Setting keys understood by a SettingsProvider
const (
	SettingLabel               = "sLabel"
	SettingStatementDescriptor = "sStatementDescriptor"
	SettingReceiptEmail        = "bEnableStripeReceiptEmail"
	SettingKeyTestPublic       = "sKeyTestPublic"
	SettingKeyTestSecret       = "sKeyTestSecret"
	SettingKeyLivePublic       = "sKeyLivePublic"
	SettingKeyLiveSecret       = "sKeyLiveSecret"
)

// SettingsProvider exposes driver settings by key
type SettingsProvider interface {
	String(key string) (string, bool)
	Bool(key string) bool
	// IsProduction selects the live key pair over the test pair.
	IsProduction() bool
}

// EventPublisher publishes driver outcome events for the host framework
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
}
