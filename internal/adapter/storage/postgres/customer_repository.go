package postgres

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
	"github.com/seu-repo/invoice-stripe-driver/internal/ports"
)

type CustomerRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewCustomerRepository(db *gorm.DB, log *zap.Logger) ports.CustomerRepository {
	return &CustomerRepository{
		db:  db,
		log: log,
	}
}

func (r *CustomerRepository) Save(ctx context.Context, c *domain.StripeCustomer) error {
	defer observeQuery(time.Now())
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *CustomerRepository) FindByCustomerID(ctx context.Context, customerID string) (*domain.StripeCustomer, error) {
	defer observeQuery(time.Now())
	return r.findOne(ctx, "customer_id = ?", customerID)
}

func (r *CustomerRepository) FindByStripeID(ctx context.Context, stripeID string) (*domain.StripeCustomer, error) {
	defer observeQuery(time.Now())
	return r.findOne(ctx, "stripe_id = ?", stripeID)
}

func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	defer observeQuery(time.Now())
	return r.db.WithContext(ctx).Delete(&domain.StripeCustomer{}, "id = ?", id).Error
}

func (r *CustomerRepository) findOne(ctx context.Context, query string, arg string) (*domain.StripeCustomer, error) {
	var c domain.StripeCustomer
	err := r.db.WithContext(ctx).First(&c, query, arg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
