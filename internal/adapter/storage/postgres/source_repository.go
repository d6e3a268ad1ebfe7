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

type SourceRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewSourceRepository(db *gorm.DB, log *zap.Logger) ports.SourceRepository {
	return &SourceRepository{
		db:  db,
		log: log,
	}
}

func (r *SourceRepository) Save(ctx context.Context, source *domain.Source) error {
	defer observeQuery(time.Now())
	return r.db.WithContext(ctx).Save(source).Error
}

// FindByID only returns sources owned by this driver.
func (r *SourceRepository) FindByID(ctx context.Context, id string) (*domain.Source, error) {
	defer observeQuery(time.Now())
	var source domain.Source
	err := r.db.WithContext(ctx).
		Where("driver = ?", domain.DriverSlug).
		First(&source, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &source, nil
}

func (r *SourceRepository) FindByCustomerID(ctx context.Context, customerID string) ([]domain.Source, error) {
	defer observeQuery(time.Now())
	var sources []domain.Source
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND driver = ?", customerID, domain.DriverSlug).
		Order("created_at DESC").
		Find(&sources).Error
	return sources, err
}

func (r *SourceRepository) Delete(ctx context.Context, id string) error {
	defer observeQuery(time.Now())
	return r.db.WithContext(ctx).Delete(&domain.Source{}, "id = ?", id).Error
}
