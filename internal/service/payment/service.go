package payment

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
	"github.com/seu-repo/invoice-stripe-driver/internal/ports"
)

const defaultLabel = "Stripe"

// Event subjects published after each driver operation
const (
	SubjectCharge = "invoice.driver.stripe.charge"
	SubjectSCA    = "invoice.driver.stripe.sca"
	SubjectRefund = "invoice.driver.stripe.refund"
	SubjectSource = "invoice.driver.stripe.source"
)

// OutcomeEvent is published for every charge, SCA and refund outcome
type OutcomeEvent struct {
	Operation     string               `json:"operation"`
	InvoiceID     string               `json:"invoice_id,omitempty"`
	PaymentID     string               `json:"payment_id,omitempty"`
	Status        domain.OutcomeStatus `json:"status"`
	TransactionID string               `json:"transaction_id,omitempty"`
	IntentID      string               `json:"intent_id,omitempty"`
	Fee           int64                `json:"fee,omitempty"`
	Error         string               `json:"error,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// Service implements ports.PaymentService on top of Stripe
type Service struct {
	settings  ports.SettingsProvider
	gateways  ports.GatewayProvider
	customers ports.CustomerRepository
	sources   ports.SourceRepository
	cache     ports.Cache
	events    ports.EventPublisher
	builder   *RequestBuilder
	tracer    trace.Tracer
	log       *zap.Logger
}

// NewService creates a new payment driver service. cache and events may be nil.
func NewService(
	settings ports.SettingsProvider,
	gateways ports.GatewayProvider,
	customers ports.CustomerRepository,
	sources ports.SourceRepository,
	cache ports.Cache,
	events ports.EventPublisher,
	log *zap.Logger,
) *Service {
	return &Service{
		settings:  settings,
		gateways:  gateways,
		customers: customers,
		sources:   sources,
		cache:     cache,
		events:    events,
		builder:   NewRequestBuilder(settings),
		tracer:    otel.Tracer("invoice-stripe-driver/payment"),
		log:       log,
	}
}

var _ ports.PaymentService = (*Service)(nil)

// Label returns the provider name as shown to customers
func (s *Service) Label() string {
	if label, ok := s.settings.String(ports.SettingLabel); ok && label != "" {
		return label
	}
	return defaultLabel
}

// PublishableKey returns the public key for the card widget
func (s *Service) PublishableKey() (string, error) {
	key := ports.SettingKeyTestPublic
	if s.settings.IsProduction() {
		key = ports.SettingKeyLivePublic
	}
	return s.lookupKey(key)
}

// IsAvailable reports whether both keys for the current environment are set.
func (s *Service) IsAvailable() bool {
	if _, err := s.PublishableKey(); err != nil {
		return false
	}
	_, err := s.secretKey()
	return err == nil
}

func (s *Service) secretKey() (string, error) {
	key := ports.SettingKeyTestSecret
	if s.settings.IsProduction() {
		key = ports.SettingKeyLiveSecret
	}
	return s.lookupKey(key)
}

func (s *Service) lookupKey(key string) (string, error) {
	v, ok := s.settings.String(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%s: %w", key, domain.ErrMissingAPIKey)
	}
	return v, nil
}

// gateway resolves credentials for the current environment and returns a
// client bound to them.
func (s *Service) gateway() (ports.GatewayClient, error) {
	key, err := s.secretKey()
	if err != nil {
		return nil, err
	}
	return s.gateways.Gateway(key), nil
}

func (s *Service) publish(ctx context.Context, subject string, event OutcomeEvent) {
	if s.events == nil {
		return
	}
	event.OccurredAt = time.Now().UTC()
	if err := s.events.Publish(ctx, subject, event); err != nil {
		s.log.Warn("Failed to publish driver event",
			zap.String("subject", subject),
			zap.String("operation", event.Operation),
			zap.Error(err),
		)
	}
}

// gatewayFailure logs a gateway error and turns it into a Failed payload.
func (s *Service) gatewayFailure(op string, err error) domain.Failure {
	ge := domain.AsGatewayError(err)
	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("kind", string(ge.Kind)),
		zap.String("code", ge.Code),
		zap.Int("http_status", ge.HTTPStatus),
		zap.String("request_id", ge.RequestID),
		zap.Error(err),
	}
	switch ge.Kind {
	case domain.GatewayErrorMalformedRequest, domain.GatewayErrorUnclassified:
		s.log.Error("Stripe rejected request", fields...)
	case domain.GatewayErrorCardDeclined:
		s.log.Info("Card declined", fields...)
	default:
		s.log.Warn("Stripe request failed", fields...)
	}
	return ge.Failure()
}

func invoiceID(inv *domain.Invoice) string {
	if inv == nil {
		return ""
	}
	return inv.ID
}

func paymentID(p *domain.Payment) string {
	if p == nil {
		return ""
	}
	return p.ID
}
