package circuitbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
	"github.com/seu-repo/invoice-stripe-driver/internal/observability/telemetry"
	"github.com/seu-repo/invoice-stripe-driver/internal/ports"
)

// Settings configures the breaker around a gateway client
type Settings struct {
	Name string

	// MaxRequests allowed through while half-open
	MaxRequests uint32

	// Interval clears the closed-state counts; zero never clears
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing
	Timeout time.Duration

	// FailureThreshold consecutive infrastructure failures open the breaker
	FailureThreshold uint32
}

// DefaultSettings mirrors the values used on the HTTP edge.
func DefaultSettings(name string) Settings {
	return Settings{
		Name:             name,
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// Gateway guards a ports.GatewayClient. Only connectivity and availability
// failures count against it.
type Gateway struct {
	next ports.GatewayClient
	cb   *gobreaker.CircuitBreaker
	log  *zap.Logger
}

var _ ports.GatewayClient = (*Gateway)(nil)

func New(next ports.GatewayClient, settings Settings, log *zap.Logger) *Gateway {
	threshold := settings.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			telemetry.CircuitBreakerState.WithLabelValues(name).Set(float64(stateValue(to)))
			log.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: isSuccessful,
	})
	telemetry.CircuitBreakerState.WithLabelValues(settings.Name).Set(0)

	return &Gateway{next: next, cb: cb, log: log}
}

// Middleware adapts New for payment.NewProvider.
func Middleware(settings Settings, log *zap.Logger) func(ports.GatewayClient) ports.GatewayClient {
	return func(next ports.GatewayClient) ports.GatewayClient {
		return New(next, settings, log)
	}
}

// State exposes the current breaker state
func (g *Gateway) State() gobreaker.State {
	return g.cb.State()
}

func (g *Gateway) CreatePaymentIntent(ctx context.Context, req *domain.ChargeRequest) (*domain.PaymentIntent, error) {
	res, err := g.execute(func() (interface{}, error) { return g.next.CreatePaymentIntent(ctx, req) })
	if err != nil {
		return nil, err
	}
	return res.(*domain.PaymentIntent), nil
}

func (g *Gateway) RetrievePaymentIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	res, err := g.execute(func() (interface{}, error) { return g.next.RetrievePaymentIntent(ctx, id) })
	if err != nil {
		return nil, err
	}
	return res.(*domain.PaymentIntent), nil
}

func (g *Gateway) ConfirmPaymentIntent(ctx context.Context, id string, returnURL string) (*domain.PaymentIntent, error) {
	res, err := g.execute(func() (interface{}, error) { return g.next.ConfirmPaymentIntent(ctx, id, returnURL) })
	if err != nil {
		return nil, err
	}
	return res.(*domain.PaymentIntent), nil
}

func (g *Gateway) RetrieveBalanceTransaction(ctx context.Context, id string) (*domain.BalanceTransaction, error) {
	res, err := g.execute(func() (interface{}, error) { return g.next.RetrieveBalanceTransaction(ctx, id) })
	if err != nil {
		return nil, err
	}
	return res.(*domain.BalanceTransaction), nil
}

func (g *Gateway) CreateRefund(ctx context.Context, req *domain.RefundRequest) (*domain.GatewayRefund, error) {
	res, err := g.execute(func() (interface{}, error) { return g.next.CreateRefund(ctx, req) })
	if err != nil {
		return nil, err
	}
	return res.(*domain.GatewayRefund), nil
}

func (g *Gateway) CreateCustomer(ctx context.Context, params *domain.CustomerParams) (*domain.GatewayCustomer, error) {
	res, err := g.execute(func() (interface{}, error) { return g.next.CreateCustomer(ctx, params) })
	if err != nil {
		return nil, err
	}
	return res.(*domain.GatewayCustomer), nil
}

func (g *Gateway) RetrieveCustomer(ctx context.Context, id string) (*domain.GatewayCustomer, error) {
	res, err := g.execute(func() (interface{}, error) { return g.next.RetrieveCustomer(ctx, id) })
	if err != nil {
		return nil, err
	}
	return res.(*domain.GatewayCustomer), nil
}

func (g *Gateway) UpdateCustomer(ctx context.Context, id string, params *domain.CustomerParams) (*domain.GatewayCustomer, error) {
	res, err := g.execute(func() (interface{}, error) { return g.next.UpdateCustomer(ctx, id, params) })
	if err != nil {
		return nil, err
	}
	return res.(*domain.GatewayCustomer), nil
}

func (g *Gateway) DeleteCustomer(ctx context.Context, id string) error {
	_, err := g.execute(func() (interface{}, error) { return nil, g.next.DeleteCustomer(ctx, id) })
	return err
}

func (g *Gateway) CreateSource(ctx context.Context, customerID string, token string) (*domain.Card, error) {
	res, err := g.execute(func() (interface{}, error) { return g.next.CreateSource(ctx, customerID, token) })
	if err != nil {
		return nil, err
	}
	return res.(*domain.Card), nil
}

func (g *Gateway) UpdateSource(ctx context.Context, customerID string, sourceID string, update *domain.SourceUpdate) (*domain.Card, error) {
	res, err := g.execute(func() (interface{}, error) { return g.next.UpdateSource(ctx, customerID, sourceID, update) })
	if err != nil {
		return nil, err
	}
	return res.(*domain.Card), nil
}

func (g *Gateway) DeleteSource(ctx context.Context, customerID string, sourceID string) error {
	_, err := g.execute(func() (interface{}, error) { return nil, g.next.DeleteSource(ctx, customerID, sourceID) })
	return err
}

func (g *Gateway) execute(fn func() (interface{}, error)) (interface{}, error) {
	res, err := g.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		g.log.Warn("Circuit breaker open, request blocked", zap.String("breaker", g.cb.Name()))
		return nil, &domain.GatewayError{
			Kind:    domain.GatewayErrorUnavailable,
			Message: "stripe requests suspended: " + err.Error(),
			Err:     err,
		}
	}
	return res, err
}

func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	switch domain.AsGatewayError(err).Kind {
	case domain.GatewayErrorConnectivity, domain.GatewayErrorUnavailable:
		return false
	default:
		return true
	}
}

func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
