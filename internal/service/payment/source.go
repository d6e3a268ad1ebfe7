package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
	"github.com/seu-repo/invoice-stripe-driver/internal/observability/telemetry"
	"github.com/seu-repo/invoice-stripe-driver/internal/ports"
)

const customerCacheTTL = 24 * time.Hour

func customerCacheKey(customerID string) string {
	return "stripe:customer:" + customerID
}

// CreateSource stores the tokenized card against the customer's gateway
// customer, creating that customer on first use.
func (s *Service) CreateSource(ctx context.Context, customer *domain.Customer, token string) (*domain.Source, error) {
	if customer == nil || customer.ID == "" {
		return nil, domain.NewConfigurationError("a customer is required to save a payment source")
	}
	if token == "" {
		return nil, domain.ErrNoPaymentSource
	}

	ctx, span := s.tracer.Start(ctx, "payment.CreateSource")
	defer span.End()

	gw, err := s.gateway()
	if err != nil {
		return nil, err
	}

	stripeCustomerID, cached, err := s.ensureGatewayCustomer(ctx, gw, customer, true)
	if err != nil {
		return nil, err
	}

	card, err := gw.CreateSource(ctx, stripeCustomerID, token)
	if err != nil && cached && isMissingResource(err) {
		// The cached id can outlive a customer deleted on the Stripe side.
		s.log.Warn("Cached Stripe customer no longer exists, resolving again",
			zap.String("customer_id", customer.ID),
			zap.String("stripe_id", stripeCustomerID),
		)
		s.forgetCustomer(ctx, customer.ID)
		if stripeCustomerID, _, err = s.ensureGatewayCustomer(ctx, gw, customer, false); err != nil {
			return nil, err
		}
		card, err = gw.CreateSource(ctx, stripeCustomerID, token)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}

	now := time.Now()
	src := &domain.Source{
		ID:         uuid.New().String(),
		CustomerID: customer.ID,
		Driver:     domain.DriverSlug,
		Data: domain.SourceData{
			SourceID:   card.ID,
			CustomerID: stripeCustomerID,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	src.ApplyCard(card)

	if err := s.sources.Save(ctx, src); err != nil {
		return nil, fmt.Errorf("failed to save source: %w", err)
	}

	telemetry.SourceOperationsTotal.WithLabelValues("create").Inc()
	s.log.Info("Payment source created",
		zap.String("source_id", src.ID),
		zap.String("customer_id", customer.ID),
		zap.String("brand", src.Brand),
	)
	s.publish(ctx, SubjectSource, OutcomeEvent{Operation: "source.create", Status: domain.OutcomeSucceeded})

	return src, nil
}

// UpdateSource pushes name/expiry changes to the gateway and persists them.
func (s *Service) UpdateSource(ctx context.Context, source *domain.Source, update *domain.SourceUpdate) (*domain.Source, error) {
	if source == nil {
		return nil, domain.ErrSourceIDsMissing
	}
	ids, err := source.AsPaymentSource()
	if err != nil {
		return nil, err
	}
	if update == nil {
		return source, nil
	}

	ctx, span := s.tracer.Start(ctx, "payment.UpdateSource")
	defer span.End()

	gw, err := s.gateway()
	if err != nil {
		return nil, err
	}

	card, err := gw.UpdateSource(ctx, ids.GatewayCustomerID, ids.GatewaySourceID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update source: %w", err)
	}

	source.ApplyCard(card)
	source.UpdatedAt = time.Now()
	if err := s.sources.Save(ctx, source); err != nil {
		return nil, fmt.Errorf("failed to save source: %w", err)
	}

	telemetry.SourceOperationsTotal.WithLabelValues("update").Inc()
	s.log.Info("Payment source updated", zap.String("source_id", source.ID))
	return source, nil
}

// DeleteSource detaches the card on the gateway and removes the local row.
func (s *Service) DeleteSource(ctx context.Context, source *domain.Source) error {
	if source == nil {
		return domain.ErrSourceIDsMissing
	}
	ids, err := source.AsPaymentSource()
	if err != nil {
		return err
	}

	ctx, span := s.tracer.Start(ctx, "payment.DeleteSource")
	defer span.End()

	gw, err := s.gateway()
	if err != nil {
		return err
	}

	if err := gw.DeleteSource(ctx, ids.GatewayCustomerID, ids.GatewaySourceID); err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}
	if err := s.sources.Delete(ctx, source.ID); err != nil {
		return fmt.Errorf("failed to delete source record: %w", err)
	}

	telemetry.SourceOperationsTotal.WithLabelValues("delete").Inc()
	s.log.Info("Payment source deleted", zap.String("source_id", source.ID))
	return nil
}

// SyncCustomer copies the customer's contact details onto its gateway
// customer, if one exists.
func (s *Service) SyncCustomer(ctx context.Context, customer *domain.Customer) error {
	link, err := s.customers.FindByCustomerID(ctx, customer.ID)
	if err != nil {
		return fmt.Errorf("failed to look up customer link: %w", err)
	}
	if link == nil {
		return nil
	}

	gw, err := s.gateway()
	if err != nil {
		return err
	}

	if _, err := gw.UpdateCustomer(ctx, link.StripeID, customerParams(customer)); err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	return nil
}

// RemoveCustomer deletes the gateway customer and its local link.
func (s *Service) RemoveCustomer(ctx context.Context, customer *domain.Customer) error {
	link, err := s.customers.FindByCustomerID(ctx, customer.ID)
	if err != nil {
		return fmt.Errorf("failed to look up customer link: %w", err)
	}
	if link == nil {
		return nil
	}

	gw, err := s.gateway()
	if err != nil {
		return err
	}

	if err := gw.DeleteCustomer(ctx, link.StripeID); err != nil {
		if !isMissingResource(err) {
			return fmt.Errorf("failed to delete customer: %w", err)
		}
		s.log.Info("Stripe customer already deleted",
			zap.String("customer_id", customer.ID),
			zap.String("stripe_id", link.StripeID),
		)
	}
	if err := s.customers.Delete(ctx, link.ID); err != nil {
		return fmt.Errorf("failed to delete customer link: %w", err)
	}
	s.forgetCustomer(ctx, customer.ID)
	return nil
}

// ensureGatewayCustomer returns the gateway customer id for customer,
// creating the gateway customer and the local link when missing or when the
// linked customer was deleted on the gateway side. cached reports that the
// id came from the cache without being checked against the gateway.
func (s *Service) ensureGatewayCustomer(ctx context.Context, gw ports.GatewayClient, customer *domain.Customer, useCache bool) (string, bool, error) {
	if useCache && s.cache != nil {
		if id, err := s.cache.Get(ctx, customerCacheKey(customer.ID)); err == nil && id != "" {
			return id, true, nil
		}
	}

	link, err := s.customers.FindByCustomerID(ctx, customer.ID)
	if err != nil {
		return "", false, fmt.Errorf("failed to look up customer link: %w", err)
	}

	if link != nil {
		existing, err := gw.RetrieveCustomer(ctx, link.StripeID)
		switch {
		case err == nil && !existing.Deleted:
			s.rememberCustomer(ctx, customer.ID, link.StripeID)
			return link.StripeID, false, nil
		case err != nil && !isMissingResource(err):
			return "", false, fmt.Errorf("failed to retrieve customer: %w", err)
		}
		s.log.Warn("Linked Stripe customer no longer exists, recreating",
			zap.String("customer_id", customer.ID),
			zap.String("stripe_id", link.StripeID),
		)
	}

	created, err := gw.CreateCustomer(ctx, customerParams(customer))
	if err != nil {
		return "", false, fmt.Errorf("failed to create customer: %w", err)
	}

	now := time.Now()
	if link == nil {
		link = &domain.StripeCustomer{
			ID:         uuid.New().String(),
			CustomerID: customer.ID,
			CreatedAt:  now,
		}
	}
	link.StripeID = created.ID
	link.UpdatedAt = now

	if err := s.customers.Save(ctx, link); err != nil {
		return "", false, fmt.Errorf("failed to save customer link: %w", err)
	}

	s.log.Info("Stripe customer created",
		zap.String("customer_id", customer.ID),
		zap.String("stripe_id", created.ID),
	)
	s.rememberCustomer(ctx, customer.ID, created.ID)
	return created.ID, false, nil
}

func (s *Service) rememberCustomer(ctx context.Context, customerID, stripeID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, customerCacheKey(customerID), stripeID, customerCacheTTL); err != nil {
		s.log.Debug("Failed to cache customer link", zap.Error(err))
	}
}

func (s *Service) forgetCustomer(ctx context.Context, customerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, customerCacheKey(customerID)); err != nil {
		s.log.Debug("Failed to evict customer link", zap.Error(err))
	}
}

func customerParams(c *domain.Customer) *domain.CustomerParams {
	email := c.BillingEmail
	if email == "" {
		email = c.Email
	}
	return &domain.CustomerParams{
		Email:       email,
		Name:        c.Label,
		Description: c.Label,
		Metadata:    map[string]string{"customerId": c.ID},
	}
}
