package payment

import (
	"net/http"
	"sync"
	"time"

	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"

	"github.com/seu-repo/invoice-stripe-driver/internal/ports"
)

// ProviderConfig configures the shared Stripe HTTP backend
type ProviderConfig struct {
	// APIURL overrides https://api.stripe.com, mainly for tests
	APIURL  string
	Timeout time.Duration
}

// Middleware decorates every gateway handed out by the provider
type Middleware func(ports.GatewayClient) ports.GatewayClient

// Provider builds one gateway per secret key and reuses it afterwards.
// It replaces process-wide stripe.Key state.
type Provider struct {
	backends   *stripe.Backends
	middleware []Middleware
	log        *zap.Logger

	mu       sync.Mutex
	gateways map[string]ports.GatewayClient
}

var _ ports.GatewayProvider = (*Provider)(nil)

func NewProvider(cfg ProviderConfig, log *zap.Logger, middleware ...Middleware) *Provider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		LeveledLogger:     log.Sugar(),
		MaxNetworkRetries: stripe.Int64(0),
		EnableTelemetry:   stripe.Bool(false),
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(cfg.APIURL)
	}

	return &Provider{
		backends:   stripe.NewBackendsWithConfig(backendCfg),
		middleware: middleware,
		log:        log,
		gateways:   make(map[string]ports.GatewayClient),
	}
}

// Gateway returns the client bound to secretKey.
func (p *Provider) Gateway(secretKey string) ports.GatewayClient {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gw, ok := p.gateways[secretKey]; ok {
		return gw
	}

	var gw ports.GatewayClient = NewStripeGateway(secretKey, p.backends, p.log)
	for _, m := range p.middleware {
		gw = m(gw)
	}
	p.gateways[secretKey] = gw
	return gw
}
