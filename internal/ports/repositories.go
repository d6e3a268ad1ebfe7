package ports

import (
	"context"
	"time"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
)

// CustomerRepository persists the framework-to-gateway customer link
type CustomerRepository interface {
	Save(ctx context.Context, c *domain.StripeCustomer) error
	FindByCustomerID(ctx context.Context, customerID string) (*domain.StripeCustomer, error)
	FindByStripeID(ctx context.Context, stripeID string) (*domain.StripeCustomer, error)
	Delete(ctx context.Context, id string) error
}

// SourceRepository persists saved payment sources
type SourceRepository interface {
	Save(ctx context.Context, s *domain.Source) error
	FindByID(ctx context.Context, id string) (*domain.Source, error)
	FindByCustomerID(ctx context.Context, customerID string) ([]domain.Source, error)
	Delete(ctx context.Context, id string) error
}

// Cache is a small string key/value store with expiry
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}
