package payment

import (
	"context"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
	"github.com/seu-repo/invoice-stripe-driver/internal/observability/telemetry"
	"github.com/seu-repo/invoice-stripe-driver/internal/ports"
)

// StripeGateway implements ports.GatewayClient for a single secret key
type StripeGateway struct {
	api *client.API
	log *zap.Logger
}

var _ ports.GatewayClient = (*StripeGateway)(nil)

// NewStripeGateway binds a client to secretKey. backends are shared and
// carry no credentials.
func NewStripeGateway(secretKey string, backends *stripe.Backends, log *zap.Logger) *StripeGateway {
	return &StripeGateway{
		api: client.New(secretKey, backends),
		log: log,
	}
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req *domain.ChargeRequest) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.AmountMinorUnits),
		Currency:           stripe.String(req.Currency),
		Confirm:            stripe.Bool(true),
		ConfirmationMethod: stripe.String(string(stripe.PaymentIntentConfirmationMethodManual)),
		Metadata:           req.Metadata,
	}
	params.Context = ctx
	params.AddExpand("latest_charge")

	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.StatementDescriptor != "" {
		params.StatementDescriptor = stripe.String(req.StatementDescriptor)
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	// return_url belongs on the confirm call; sent here it turns a 3DS
	// next action into redirect_to_url instead of use_stripe_sdk.
	if !req.CustomerPresent {
		params.OffSession = stripe.Bool(true)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	switch src := req.PaymentSource.(type) {
	case domain.SavedSource:
		params.PaymentMethod = stripe.String(src.GatewaySourceID)
		params.Customer = stripe.String(src.GatewayCustomerID)
	case domain.ExplicitSource:
		params.PaymentMethod = stripe.String(src.GatewaySourceID)
		params.Customer = stripe.String(src.GatewayCustomerID)
	case domain.TokenSource:
		params.AddExtra("payment_method_data[type]", "card")
		params.AddExtra("payment_method_data[card][token]", src.Token)
	default:
		return nil, &domain.GatewayError{Kind: domain.GatewayErrorMalformedRequest, Message: "no payment source on request"}
	}

	start := time.Now()
	pi, err := g.api.PaymentIntents.New(params)
	if err = g.observe("create_payment_intent", start, err); err != nil {
		return nil, err
	}

	g.log.Debug("Payment intent created",
		zap.String("intent_id", pi.ID),
		zap.String("status", string(pi.Status)),
	)
	return toIntent(pi), nil
}

func (g *StripeGateway) RetrievePaymentIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("latest_charge")

	start := time.Now()
	pi, err := g.api.PaymentIntents.Get(id, params)
	if err = g.observe("retrieve_payment_intent", start, err); err != nil {
		return nil, err
	}
	return toIntent(pi), nil
}

func (g *StripeGateway) ConfirmPaymentIntent(ctx context.Context, id string, returnURL string) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx
	params.AddExpand("latest_charge")
	if returnURL != "" {
		params.ReturnURL = stripe.String(returnURL)
	}

	start := time.Now()
	pi, err := g.api.PaymentIntents.Confirm(id, params)
	if err = g.observe("confirm_payment_intent", start, err); err != nil {
		return nil, err
	}
	return toIntent(pi), nil
}

func (g *StripeGateway) RetrieveBalanceTransaction(ctx context.Context, id string) (*domain.BalanceTransaction, error) {
	params := &stripe.BalanceTransactionParams{}
	params.Context = ctx

	start := time.Now()
	bt, err := g.api.BalanceTransactions.Get(id, params)
	if err = g.observe("retrieve_balance_transaction", start, err); err != nil {
		return nil, err
	}
	return &domain.BalanceTransaction{ID: bt.ID, Fee: bt.Fee}, nil
}

func (g *StripeGateway) CreateRefund(ctx context.Context, req *domain.RefundRequest) (*domain.GatewayRefund, error) {
	params := &stripe.RefundParams{
		Charge:   stripe.String(req.ChargeID),
		Metadata: req.Metadata,
	}
	params.Context = ctx
	params.AddExpand("balance_transaction")
	if req.AmountMinorUnits > 0 {
		params.Amount = stripe.Int64(req.AmountMinorUnits)
	}
	if req.Reason != "" {
		params.Reason = stripe.String(req.Reason)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	start := time.Now()
	r, err := g.api.Refunds.New(params)
	if err = g.observe("create_refund", start, err); err != nil {
		return nil, err
	}

	out := &domain.GatewayRefund{ID: r.ID}
	if r.BalanceTransaction != nil {
		out.BalanceTransaction = domain.BalanceTransaction{
			ID:  r.BalanceTransaction.ID,
			Fee: r.BalanceTransaction.Fee,
		}
	}
	return out, nil
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, p *domain.CustomerParams) (*domain.GatewayCustomer, error) {
	params := customerParams(p)
	params.Context = ctx

	start := time.Now()
	c, err := g.api.Customers.New(params)
	if err = g.observe("create_customer", start, err); err != nil {
		return nil, err
	}
	return toCustomer(c), nil
}

func (g *StripeGateway) RetrieveCustomer(ctx context.Context, id string) (*domain.GatewayCustomer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	start := time.Now()
	c, err := g.api.Customers.Get(id, params)
	if err = g.observe("retrieve_customer", start, err); err != nil {
		return nil, err
	}
	return toCustomer(c), nil
}

func (g *StripeGateway) UpdateCustomer(ctx context.Context, id string, p *domain.CustomerParams) (*domain.GatewayCustomer, error) {
	params := customerParams(p)
	params.Context = ctx

	start := time.Now()
	c, err := g.api.Customers.Update(id, params)
	if err = g.observe("update_customer", start, err); err != nil {
		return nil, err
	}
	return toCustomer(c), nil
}

func (g *StripeGateway) DeleteCustomer(ctx context.Context, id string) error {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	start := time.Now()
	_, err := g.api.Customers.Del(id, params)
	return g.observe("delete_customer", start, err)
}

func (g *StripeGateway) CreateSource(ctx context.Context, customerID string, token string) (*domain.Card, error) {
	params := &stripe.PaymentSourceParams{
		Customer: stripe.String(customerID),
		Source:   &stripe.PaymentSourceSourceParams{Token: stripe.String(token)},
	}
	params.Context = ctx

	start := time.Now()
	ps, err := g.api.PaymentSources.New(params)
	if err = g.observe("create_source", start, err); err != nil {
		return nil, err
	}
	return toCard(ps, customerID), nil
}

func (g *StripeGateway) UpdateSource(ctx context.Context, customerID string, sourceID string, update *domain.SourceUpdate) (*domain.Card, error) {
	params := &stripe.PaymentSourceParams{Customer: stripe.String(customerID)}
	params.Context = ctx
	if update.Name != nil {
		params.Name = stripe.String(*update.Name)
	}
	if update.ExpMonth != nil {
		params.ExpMonth = stripe.String(strconv.Itoa(*update.ExpMonth))
	}
	if update.ExpYear != nil {
		params.ExpYear = stripe.String(strconv.Itoa(*update.ExpYear))
	}

	start := time.Now()
	ps, err := g.api.PaymentSources.Update(sourceID, params)
	if err = g.observe("update_source", start, err); err != nil {
		return nil, err
	}
	return toCard(ps, customerID), nil
}

func (g *StripeGateway) DeleteSource(ctx context.Context, customerID string, sourceID string) error {
	params := &stripe.PaymentSourceParams{Customer: stripe.String(customerID)}
	params.Context = ctx

	start := time.Now()
	_, err := g.api.PaymentSources.Del(sourceID, params)
	return g.observe("delete_source", start, err)
}

// observe records call latency and translates err at the boundary.
func (g *StripeGateway) observe(op string, start time.Time, err error) error {
	telemetry.GatewayRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err == nil {
		return nil
	}

	translated := translateError(err)
	ge := domain.AsGatewayError(translated)
	telemetry.GatewayErrorsTotal.WithLabelValues(op, string(ge.Kind)).Inc()
	g.log.Debug("Stripe call failed",
		zap.String("operation", op),
		zap.String("kind", string(ge.Kind)),
		zap.String("request_id", ge.RequestID),
		zap.Error(err),
	)
	return translated
}

func customerParams(p *domain.CustomerParams) *stripe.CustomerParams {
	params := &stripe.CustomerParams{Metadata: p.Metadata}
	if p.Email != "" {
		params.Email = stripe.String(p.Email)
	}
	if p.Name != "" {
		params.Name = stripe.String(p.Name)
	}
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	return params
}

func toCustomer(c *stripe.Customer) *domain.GatewayCustomer {
	return &domain.GatewayCustomer{
		ID:          c.ID,
		Email:       c.Email,
		Name:        c.Name,
		Description: c.Description,
		Deleted:     c.Deleted,
	}
}

func toCard(ps *stripe.PaymentSource, customerID string) *domain.Card {
	card := &domain.Card{ID: ps.ID, CustomerID: customerID}
	if ps.Card != nil {
		card.Brand = string(ps.Card.Brand)
		card.Last4 = ps.Card.Last4
		card.ExpMonth = int(ps.Card.ExpMonth)
		card.ExpYear = int(ps.Card.ExpYear)
		card.Name = ps.Card.Name
	}
	return card
}
