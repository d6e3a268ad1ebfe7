package payment

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
	"github.com/seu-repo/invoice-stripe-driver/internal/observability/telemetry"
	"github.com/seu-repo/invoice-stripe-driver/internal/ports"
)

const msgInvalidStatus = "The payment could not be completed, please try again."

// Charge creates and confirms a payment intent for the invoice. Gateway
// failures are reported as a Failed outcome; only configuration problems
// are returned as errors.
func (s *Service) Charge(ctx context.Context, in *ports.ChargeInput) (*domain.ChargeOutcome, error) {
	if in == nil {
		return nil, domain.NewConfigurationError("charge input is required")
	}

	ctx, span := s.tracer.Start(ctx, "payment.Charge")
	defer span.End()

	gw, err := s.gateway()
	if err != nil {
		return nil, err
	}

	req, err := s.builder.Build(in)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("invoice.id", invoiceID(in.Invoice)),
		attribute.Int64("amount", req.AmountMinorUnits),
		attribute.String("currency", req.Currency),
		attribute.String("source.kind", string(req.PaymentSource.Kind())),
	)

	s.log.Info("Charging invoice",
		zap.String("invoice_id", invoiceID(in.Invoice)),
		zap.String("payment_id", paymentID(in.Payment)),
		zap.Int64("amount", req.AmountMinorUnits),
		zap.String("currency", req.Currency),
		zap.String("source", string(req.PaymentSource.Kind())),
		zap.Bool("customer_present", req.CustomerPresent),
	)

	outcome := s.charge(ctx, gw, req)

	span.SetAttributes(attribute.String("outcome", string(outcome.Status)))
	telemetry.ChargeOutcomesTotal.WithLabelValues(string(outcome.Status)).Inc()

	event := OutcomeEvent{
		Operation:     "charge",
		InvoiceID:     invoiceID(in.Invoice),
		PaymentID:     paymentID(in.Payment),
		Status:        outcome.Status,
		TransactionID: outcome.TransactionID,
		IntentID:      outcome.IntentID,
		Fee:           outcome.FeeMinorUnits,
	}
	if outcome.Failure != nil {
		event.Error = outcome.Failure.RawMessage
	}
	s.publish(ctx, SubjectCharge, event)

	return outcome, nil
}

func (s *Service) charge(ctx context.Context, gw ports.GatewayClient, req *domain.ChargeRequest) *domain.ChargeOutcome {
	pi, err := gw.CreatePaymentIntent(ctx, req)
	if err != nil {
		return domain.ChargeFailed(s.gatewayFailure("create_payment_intent", err))
	}

	if pi.RequiresAction() && pi.NextAction.Kind == domain.NextActionUseStripeSDK {
		s.log.Info("Payment requires authentication", zap.String("intent_id", pi.ID))
		return domain.ChargeRequiresAuthentication(pi.ID)
	}

	if pi.Status != domain.IntentStatusSucceeded {
		s.log.Warn("Payment intent in unexpected state",
			zap.String("intent_id", pi.ID),
			zap.String("status", pi.RawStatus),
		)
		return domain.ChargeFailed(domain.Failure{
			RawMessage:  fmt.Sprintf("invalid payment intent status %q for intent %s", pi.RawStatus, pi.ID),
			RawCode:     string(pi.Status),
			UserMessage: msgInvalidStatus,
		})
	}

	txnID, fee, err := s.settle(ctx, gw, pi)
	if err != nil {
		return domain.ChargeFailed(s.gatewayFailure("retrieve_balance_transaction", err))
	}

	s.log.Info("Payment succeeded",
		zap.String("intent_id", pi.ID),
		zap.String("transaction_id", txnID),
		zap.Int64("fee", fee),
	)
	return domain.ChargeSucceeded(txnID, fee)
}

// settle reads the charge id and fee of a succeeded intent.
func (s *Service) settle(ctx context.Context, gw ports.GatewayClient, pi *domain.PaymentIntent) (string, int64, error) {
	if pi.LatestChargeID == "" {
		return "", 0, &domain.GatewayError{
			Kind:    domain.GatewayErrorUnclassified,
			Message: fmt.Sprintf("payment intent %s succeeded without a charge", pi.ID),
		}
	}
	if pi.BalanceTransactionID == "" {
		return "", 0, &domain.GatewayError{
			Kind:    domain.GatewayErrorUnclassified,
			Message: fmt.Sprintf("charge %s has no balance transaction", pi.LatestChargeID),
		}
	}

	bt, err := gw.RetrieveBalanceTransaction(ctx, pi.BalanceTransactionID)
	if err != nil {
		return "", 0, err
	}
	return pi.LatestChargeID, bt.Fee, nil
}
