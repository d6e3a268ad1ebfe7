package mocks

import (
	"context"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
)

// MockCustomerRepository is a mock implementation of CustomerRepository
type MockCustomerRepository struct {
	SaveFunc             func(ctx context.Context, c *domain.StripeCustomer) error
	FindByCustomerIDFunc func(ctx context.Context, customerID string) (*domain.StripeCustomer, error)
	FindByStripeIDFunc   func(ctx context.Context, stripeID string) (*domain.StripeCustomer, error)
	DeleteFunc           func(ctx context.Context, id string) error
}

func (m *MockCustomerRepository) Save(ctx context.Context, c *domain.StripeCustomer) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, c)
	}
	return nil
}

func (m *MockCustomerRepository) FindByCustomerID(ctx context.Context, customerID string) (*domain.StripeCustomer, error) {
	if m.FindByCustomerIDFunc != nil {
		return m.FindByCustomerIDFunc(ctx, customerID)
	}
	return nil, nil
}

func (m *MockCustomerRepository) FindByStripeID(ctx context.Context, stripeID string) (*domain.StripeCustomer, error) {
	if m.FindByStripeIDFunc != nil {
		return m.FindByStripeIDFunc(ctx, stripeID)
	}
	return nil, nil
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockSourceRepository is a mock implementation of SourceRepository
type MockSourceRepository struct {
	SaveFunc             func(ctx context.Context, s *domain.Source) error
	FindByIDFunc         func(ctx context.Context, id string) (*domain.Source, error)
	FindByCustomerIDFunc func(ctx context.Context, customerID string) ([]domain.Source, error)
	DeleteFunc           func(ctx context.Context, id string) error
}

func (m *MockSourceRepository) Save(ctx context.Context, s *domain.Source) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, s)
	}
	return nil
}

func (m *MockSourceRepository) FindByID(ctx context.Context, id string) (*domain.Source, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockSourceRepository) FindByCustomerID(ctx context.Context, customerID string) ([]domain.Source, error) {
	if m.FindByCustomerIDFunc != nil {
		return m.FindByCustomerIDFunc(ctx, customerID)
	}
	return []domain.Source{}, nil
}

func (m *MockSourceRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}
