package mocks

import (
	"context"
	"sync"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
	"github.com/seu-repo/invoice-stripe-driver/internal/ports"
)

// MockGateway is a mock implementation of ports.GatewayClient
type MockGateway struct {
	CreatePaymentIntentFunc        func(ctx context.Context, req *domain.ChargeRequest) (*domain.PaymentIntent, error)
	RetrievePaymentIntentFunc      func(ctx context.Context, id string) (*domain.PaymentIntent, error)
	ConfirmPaymentIntentFunc       func(ctx context.Context, id string, returnURL string) (*domain.PaymentIntent, error)
	RetrieveBalanceTransactionFunc func(ctx context.Context, id string) (*domain.BalanceTransaction, error)
	CreateRefundFunc               func(ctx context.Context, req *domain.RefundRequest) (*domain.GatewayRefund, error)
	CreateCustomerFunc             func(ctx context.Context, params *domain.CustomerParams) (*domain.GatewayCustomer, error)
	RetrieveCustomerFunc           func(ctx context.Context, id string) (*domain.GatewayCustomer, error)
	UpdateCustomerFunc             func(ctx context.Context, id string, params *domain.CustomerParams) (*domain.GatewayCustomer, error)
	DeleteCustomerFunc             func(ctx context.Context, id string) error
	CreateSourceFunc               func(ctx context.Context, customerID string, token string) (*domain.Card, error)
	UpdateSourceFunc               func(ctx context.Context, customerID string, sourceID string, update *domain.SourceUpdate) (*domain.Card, error)
	DeleteSourceFunc               func(ctx context.Context, customerID string, sourceID string) error

	mu    sync.Mutex
	Calls []string
}

func (m *MockGateway) record(name string) {
	m.mu.Lock()
	m.Calls = append(m.Calls, name)
	m.mu.Unlock()
}

// Called reports how many times the named method was invoked.
func (m *MockGateway) Called(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *MockGateway) CreatePaymentIntent(ctx context.Context, req *domain.ChargeRequest) (*domain.PaymentIntent, error) {
	m.record("CreatePaymentIntent")
	if m.CreatePaymentIntentFunc != nil {
		return m.CreatePaymentIntentFunc(ctx, req)
	}
	return &domain.PaymentIntent{ID: "pi_mock", Status: domain.IntentStatusSucceeded, RawStatus: "succeeded"}, nil
}

func (m *MockGateway) RetrievePaymentIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	m.record("RetrievePaymentIntent")
	if m.RetrievePaymentIntentFunc != nil {
		return m.RetrievePaymentIntentFunc(ctx, id)
	}
	return &domain.PaymentIntent{ID: id, Status: domain.IntentStatusSucceeded, RawStatus: "succeeded"}, nil
}

func (m *MockGateway) ConfirmPaymentIntent(ctx context.Context, id string, returnURL string) (*domain.PaymentIntent, error) {
	m.record("ConfirmPaymentIntent")
	if m.ConfirmPaymentIntentFunc != nil {
		return m.ConfirmPaymentIntentFunc(ctx, id, returnURL)
	}
	return &domain.PaymentIntent{ID: id, Status: domain.IntentStatusSucceeded, RawStatus: "succeeded"}, nil
}

func (m *MockGateway) RetrieveBalanceTransaction(ctx context.Context, id string) (*domain.BalanceTransaction, error) {
	m.record("RetrieveBalanceTransaction")
	if m.RetrieveBalanceTransactionFunc != nil {
		return m.RetrieveBalanceTransactionFunc(ctx, id)
	}
	return &domain.BalanceTransaction{ID: id}, nil
}

func (m *MockGateway) CreateRefund(ctx context.Context, req *domain.RefundRequest) (*domain.GatewayRefund, error) {
	m.record("CreateRefund")
	if m.CreateRefundFunc != nil {
		return m.CreateRefundFunc(ctx, req)
	}
	return &domain.GatewayRefund{ID: "re_mock"}, nil
}

func (m *MockGateway) CreateCustomer(ctx context.Context, params *domain.CustomerParams) (*domain.GatewayCustomer, error) {
	m.record("CreateCustomer")
	if m.CreateCustomerFunc != nil {
		return m.CreateCustomerFunc(ctx, params)
	}
	return &domain.GatewayCustomer{ID: "cus_mock", Email: params.Email, Name: params.Name}, nil
}

func (m *MockGateway) RetrieveCustomer(ctx context.Context, id string) (*domain.GatewayCustomer, error) {
	m.record("RetrieveCustomer")
	if m.RetrieveCustomerFunc != nil {
		return m.RetrieveCustomerFunc(ctx, id)
	}
	return &domain.GatewayCustomer{ID: id}, nil
}

func (m *MockGateway) UpdateCustomer(ctx context.Context, id string, params *domain.CustomerParams) (*domain.GatewayCustomer, error) {
	m.record("UpdateCustomer")
	if m.UpdateCustomerFunc != nil {
		return m.UpdateCustomerFunc(ctx, id, params)
	}
	return &domain.GatewayCustomer{ID: id, Email: params.Email, Name: params.Name}, nil
}

func (m *MockGateway) DeleteCustomer(ctx context.Context, id string) error {
	m.record("DeleteCustomer")
	if m.DeleteCustomerFunc != nil {
		return m.DeleteCustomerFunc(ctx, id)
	}
	return nil
}

func (m *MockGateway) CreateSource(ctx context.Context, customerID string, token string) (*domain.Card, error) {
	m.record("CreateSource")
	if m.CreateSourceFunc != nil {
		return m.CreateSourceFunc(ctx, customerID, token)
	}
	return &domain.Card{ID: "card_mock", CustomerID: customerID, Brand: "Visa", Last4: "4242", ExpMonth: 12, ExpYear: 2030}, nil
}

func (m *MockGateway) UpdateSource(ctx context.Context, customerID string, sourceID string, update *domain.SourceUpdate) (*domain.Card, error) {
	m.record("UpdateSource")
	if m.UpdateSourceFunc != nil {
		return m.UpdateSourceFunc(ctx, customerID, sourceID, update)
	}
	return &domain.Card{ID: sourceID, CustomerID: customerID}, nil
}

func (m *MockGateway) DeleteSource(ctx context.Context, customerID string, sourceID string) error {
	m.record("DeleteSource")
	if m.DeleteSourceFunc != nil {
		return m.DeleteSourceFunc(ctx, customerID, sourceID)
	}
	return nil
}

// MockGatewayProvider always hands out the same gateway and records the
// keys it was asked for.
type MockGatewayProvider struct {
	Client ports.GatewayClient
	Keys   []string
}

func (p *MockGatewayProvider) Gateway(secretKey string) ports.GatewayClient {
	p.Keys = append(p.Keys, secretKey)
	return p.Client
}

// MockSettings is a map-backed SettingsProvider
type MockSettings struct {
	Values     map[string]string
	Flags      map[string]bool
	Production bool
}

func NewMockSettings() *MockSettings {
	return &MockSettings{
		Values: map[string]string{
			ports.SettingKeyTestSecret: "sk_test_mock",
			ports.SettingKeyTestPublic: "pk_test_mock",
		},
		Flags: map[string]bool{},
	}
}

func (s *MockSettings) String(key string) (string, bool) {
	v, ok := s.Values[key]
	return v, ok
}

func (s *MockSettings) Bool(key string) bool {
	return s.Flags[key]
}

func (s *MockSettings) IsProduction() bool {
	return s.Production
}
