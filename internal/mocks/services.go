package mocks

import (
	"context"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
	"github.com/seu-repo/invoice-stripe-driver/internal/ports"
)

// MockPaymentService is a mock implementation of PaymentService interface
type MockPaymentService struct {
	ChargeFunc         func(ctx context.Context, in *ports.ChargeInput) (*domain.ChargeOutcome, error)
	AuthenticateFunc   func(ctx context.Context, intentID string, successURL string) (*domain.ScaOutcome, error)
	AuthDataFunc       func(ctx context.Context, scaData []byte, successURL string) (*domain.ScaOutcome, error)
	RefundFunc         func(ctx context.Context, in *ports.RefundInput) (*domain.RefundOutcome, error)
	CreateSourceFunc   func(ctx context.Context, customer *domain.Customer, token string) (*domain.Source, error)
	UpdateSourceFunc   func(ctx context.Context, source *domain.Source, update *domain.SourceUpdate) (*domain.Source, error)
	DeleteSourceFunc   func(ctx context.Context, source *domain.Source) error
	SyncCustomerFunc   func(ctx context.Context, customer *domain.Customer) error
	RemoveCustomerFunc func(ctx context.Context, customer *domain.Customer) error
	LabelFunc          func() string
	PublishableKeyFunc func() (string, error)
	IsAvailableFunc    func() bool
}

func (m *MockPaymentService) Charge(ctx context.Context, in *ports.ChargeInput) (*domain.ChargeOutcome, error) {
	if m.ChargeFunc != nil {
		return m.ChargeFunc(ctx, in)
	}
	return domain.ChargeSucceeded("ch_mock", 0), nil
}

func (m *MockPaymentService) Authenticate(ctx context.Context, intentID string, successURL string) (*domain.ScaOutcome, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, intentID, successURL)
	}
	return domain.ScaSucceeded("ch_mock", 0), nil
}

func (m *MockPaymentService) AuthenticateWithData(ctx context.Context, scaData []byte, successURL string) (*domain.ScaOutcome, error) {
	if m.AuthDataFunc != nil {
		return m.AuthDataFunc(ctx, scaData, successURL)
	}
	return domain.ScaSucceeded("ch_mock", 0), nil
}

func (m *MockPaymentService) Refund(ctx context.Context, in *ports.RefundInput) (*domain.RefundOutcome, error) {
	if m.RefundFunc != nil {
		return m.RefundFunc(ctx, in)
	}
	return domain.RefundSucceeded("re_mock", 0), nil
}

func (m *MockPaymentService) CreateSource(ctx context.Context, customer *domain.Customer, token string) (*domain.Source, error) {
	if m.CreateSourceFunc != nil {
		return m.CreateSourceFunc(ctx, customer, token)
	}
	return &domain.Source{ID: "src_mock", CustomerID: customer.ID}, nil
}

func (m *MockPaymentService) UpdateSource(ctx context.Context, source *domain.Source, update *domain.SourceUpdate) (*domain.Source, error) {
	if m.UpdateSourceFunc != nil {
		return m.UpdateSourceFunc(ctx, source, update)
	}
	return source, nil
}

func (m *MockPaymentService) DeleteSource(ctx context.Context, source *domain.Source) error {
	if m.DeleteSourceFunc != nil {
		return m.DeleteSourceFunc(ctx, source)
	}
	return nil
}

func (m *MockPaymentService) SyncCustomer(ctx context.Context, customer *domain.Customer) error {
	if m.SyncCustomerFunc != nil {
		return m.SyncCustomerFunc(ctx, customer)
	}
	return nil
}

func (m *MockPaymentService) RemoveCustomer(ctx context.Context, customer *domain.Customer) error {
	if m.RemoveCustomerFunc != nil {
		return m.RemoveCustomerFunc(ctx, customer)
	}
	return nil
}

func (m *MockPaymentService) Label() string {
	if m.LabelFunc != nil {
		return m.LabelFunc()
	}
	return "Stripe"
}

func (m *MockPaymentService) PublishableKey() (string, error) {
	if m.PublishableKeyFunc != nil {
		return m.PublishableKeyFunc()
	}
	return "pk_test_mock", nil
}

func (m *MockPaymentService) IsAvailable() bool {
	if m.IsAvailableFunc != nil {
		return m.IsAvailableFunc()
	}
	return true
}
