package payment

import (
	"go.uber.org/zap"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
	"github.com/seu-repo/invoice-stripe-driver/internal/mocks"
)

type testDeps struct {
	gateway   *mocks.MockGateway
	provider  *mocks.MockGatewayProvider
	settings  *mocks.MockSettings
	customers *mocks.MockCustomerRepository
	sources   *mocks.MockSourceRepository
	cache     *mocks.MockCache
	events    *mocks.MockEventPublisher
}

func newTestService(gw *mocks.MockGateway) (*Service, *testDeps) {
	if gw == nil {
		gw = &mocks.MockGateway{}
	}
	deps := &testDeps{
		gateway:   gw,
		provider:  &mocks.MockGatewayProvider{Client: gw},
		settings:  mocks.NewMockSettings(),
		customers: &mocks.MockCustomerRepository{},
		sources:   &mocks.MockSourceRepository{},
		cache:     mocks.NewMockCache(),
		events:    &mocks.MockEventPublisher{},
	}
	svc := NewService(deps.settings, deps.provider, deps.customers, deps.sources, deps.cache, deps.events, zap.NewNop())
	return svc, deps
}

func testInvoice() *domain.Invoice {
	return &domain.Invoice{
		ID:  "42",
		Ref: "ABC123",
		Customer: &domain.Customer{
			ID:           "7",
			Label:        "Acme Ltd",
			Email:        "ops@acme.test",
			BillingEmail: "billing@acme.test",
		},
	}
}

func gatewayErr(kind domain.GatewayErrorKind, code, msg string, status int) error {
	return &domain.GatewayError{Kind: kind, Code: code, Message: msg, HTTPStatus: status}
}
