package payment

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
	"github.com/seu-repo/invoice-stripe-driver/internal/observability/telemetry"
	"github.com/seu-repo/invoice-stripe-driver/internal/ports"
)

// Refund reasons accepted by Stripe. Any other reason text is kept in the
// refund metadata only.
var stripeRefundReasons = map[string]struct{}{
	"duplicate":             {},
	"fraudulent":            {},
	"requested_by_customer": {},
}

// Refund issues a refund against a previous charge. The reported fee is the
// negative of the fee on the refund's balance transaction.
func (s *Service) Refund(ctx context.Context, in *ports.RefundInput) (*domain.RefundOutcome, error) {
	if in == nil || in.OriginalTransactionID == "" {
		return nil, domain.ErrMissingChargeID
	}

	ctx, span := s.tracer.Start(ctx, "payment.Refund")
	defer span.End()
	span.SetAttributes(
		attribute.String("charge.id", in.OriginalTransactionID),
		attribute.Int64("amount", in.AmountMinorUnits),
	)

	gw, err := s.gateway()
	if err != nil {
		return nil, err
	}

	extra := map[string]any{}
	if in.Reason != "" {
		extra["reason"] = in.Reason
	}
	if in.Refund != nil && in.Refund.ID != "" {
		extra["refundId"] = in.Refund.ID
	}

	req := &domain.RefundRequest{
		ChargeID:         in.OriginalTransactionID,
		AmountMinorUnits: in.AmountMinorUnits,
		Metadata:         BuildMetadata(in.Invoice, customMetadata(in.Payment), extra),
		IdempotencyKey:   IdempotencyKey("refund", in.OriginalTransactionID, refundID(in.Refund)),
	}
	if _, ok := stripeRefundReasons[in.Reason]; ok {
		req.Reason = in.Reason
	}

	s.log.Info("Refunding charge",
		zap.String("charge_id", in.OriginalTransactionID),
		zap.String("invoice_id", invoiceID(in.Invoice)),
		zap.Int64("amount", in.AmountMinorUnits),
		zap.String("currency", in.Currency),
	)

	outcome := s.refund(ctx, gw, req)

	span.SetAttributes(attribute.String("outcome", string(outcome.Status)))
	telemetry.RefundOutcomesTotal.WithLabelValues(string(outcome.Status)).Inc()

	event := OutcomeEvent{
		Operation:     "refund",
		InvoiceID:     invoiceID(in.Invoice),
		PaymentID:     paymentID(in.Payment),
		Status:        outcome.Status,
		TransactionID: outcome.TransactionID,
		Fee:           outcome.FeeMinorUnits,
	}
	if outcome.Failure != nil {
		event.Error = outcome.Failure.RawMessage
	}
	s.publish(ctx, SubjectRefund, event)

	return outcome, nil
}

func (s *Service) refund(ctx context.Context, gw ports.GatewayClient, req *domain.RefundRequest) *domain.RefundOutcome {
	r, err := gw.CreateRefund(ctx, req)
	if err != nil {
		ge := domain.AsGatewayError(err)
		// Declines do not apply to refunds.
		if ge.Kind == domain.GatewayErrorCardDeclined {
			s.log.Error("Unexpected card error on refund", zap.Error(err))
			return domain.RefundFailed(domain.UnclassifiedFailure(ge.Message))
		}
		return domain.RefundFailed(s.gatewayFailure("create_refund", err))
	}

	s.log.Info("Refund succeeded",
		zap.String("refund_id", r.ID),
		zap.String("charge_id", req.ChargeID),
		zap.Int64("fee", r.BalanceTransaction.Fee),
	)
	return domain.RefundSucceeded(r.ID, -r.BalanceTransaction.Fee)
}

func refundID(r *domain.RefundRecord) string {
	if r == nil {
		return ""
	}
	return r.ID
}
