package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/buger/jsonparser"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
	"github.com/seu-repo/invoice-stripe-driver/internal/observability/telemetry"
	"github.com/seu-repo/invoice-stripe-driver/internal/ports"
)

const msgAuthFailed = "Failed to authorise the payment."

// Authenticate resumes a charge once the customer returns from the
// authentication step. intentID is the id carried by a previous
// RequiresAuthentication outcome.
func (s *Service) Authenticate(ctx context.Context, intentID string, successURL string) (*domain.ScaOutcome, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, domain.ErrMissingIntentID
	}

	ctx, span := s.tracer.Start(ctx, "payment.Authenticate")
	defer span.End()
	span.SetAttributes(attribute.String("intent.id", intentID))

	gw, err := s.gateway()
	if err != nil {
		return nil, err
	}

	pi, err := gw.RetrievePaymentIntent(ctx, intentID)
	if err != nil {
		if isMissingResource(err) {
			return nil, &domain.ConfigurationError{
				Msg: fmt.Sprintf("payment intent %s could not be resolved", intentID),
				Err: errors.Join(domain.ErrMissingIntentID, err),
			}
		}
		return s.finishSCA(ctx, intentID, domain.ScaFailed(s.gatewayFailure("retrieve_payment_intent", err))), nil
	}

	s.log.Info("Resuming payment authentication",
		zap.String("intent_id", pi.ID),
		zap.String("status", pi.RawStatus),
	)

	return s.finishSCA(ctx, intentID, s.authenticate(ctx, gw, pi, successURL)), nil
}

// AuthenticateWithData resumes a charge from the opaque SCA data persisted
// by the host framework, a JSON object of the form {"id": "pi_..."}.
func (s *Service) AuthenticateWithData(ctx context.Context, scaData []byte, successURL string) (*domain.ScaOutcome, error) {
	intentID, err := IntentIDFromSCAData(scaData)
	if err != nil {
		return nil, err
	}
	return s.Authenticate(ctx, intentID, successURL)
}

// IntentIDFromSCAData extracts the payment intent id from persisted SCA data.
func IntentIDFromSCAData(scaData []byte) (string, error) {
	id, err := jsonparser.GetString(scaData, "id")
	if err != nil || strings.TrimSpace(id) == "" {
		return "", domain.ErrMissingIntentID
	}
	return id, nil
}

// SCAData renders the resumption payload the host must persist for intentID.
func SCAData(intentID string) []byte {
	return []byte(fmt.Sprintf(`{"id":%q}`, intentID))
}

func (s *Service) authenticate(ctx context.Context, gw ports.GatewayClient, pi *domain.PaymentIntent, successURL string) *domain.ScaOutcome {
	switch pi.Status {
	case domain.IntentStatusSucceeded:
		return s.scaSucceeded(ctx, gw, pi)

	case domain.IntentStatusRequiresAction:
		confirmed, err := gw.ConfirmPaymentIntent(ctx, pi.ID, successURL)
		if err != nil {
			return domain.ScaFailed(s.scaDiagnostic(pi, err))
		}
		if confirmed.Status == domain.IntentStatusSucceeded {
			return s.scaSucceeded(ctx, gw, confirmed)
		}
		return s.redirectOrFail(confirmed)

	case domain.IntentStatusRequiresConfirmation:
		confirmed, err := gw.ConfirmPaymentIntent(ctx, pi.ID, successURL)
		if err != nil {
			return domain.ScaFailed(s.scaDiagnostic(pi, err))
		}
		if confirmed.Status == domain.IntentStatusSucceeded {
			return s.scaSucceeded(ctx, gw, confirmed)
		}
		if confirmed.RequiresAction() {
			return s.redirectOrFail(confirmed)
		}
		return domain.ScaFailed(statusFailure(confirmed))

	default:
		return domain.ScaFailed(statusFailure(pi))
	}
}

func (s *Service) scaSucceeded(ctx context.Context, gw ports.GatewayClient, pi *domain.PaymentIntent) *domain.ScaOutcome {
	txnID, fee, err := s.settle(ctx, gw, pi)
	if err != nil {
		return domain.ScaFailed(s.gatewayFailure("retrieve_balance_transaction", err))
	}
	return domain.ScaSucceeded(txnID, fee)
}

func (s *Service) redirectOrFail(pi *domain.PaymentIntent) *domain.ScaOutcome {
	if pi.NextAction.RedirectURL != "" {
		s.log.Info("Redirecting customer for authentication",
			zap.String("intent_id", pi.ID),
		)
		return domain.ScaRedirect(pi.NextAction.RedirectURL)
	}
	s.log.Warn("No redirect URL on payment intent",
		zap.String("intent_id", pi.ID),
		zap.String("status", pi.RawStatus),
		zap.String("next_action", string(pi.NextAction.Kind)),
	)
	return domain.ScaFailed(domain.Failure{
		RawMessage: fmt.Sprintf("failed to extract a redirect url; intent %s has status %q and next action %q",
			pi.ID, pi.RawStatus, pi.NextAction.Kind),
		RawCode:     string(pi.Status),
		UserMessage: msgAuthFailed,
	})
}

func (s *Service) scaDiagnostic(pi *domain.PaymentIntent, err error) domain.Failure {
	f := s.gatewayFailure("confirm_payment_intent", err)
	f.RawMessage = fmt.Sprintf("failed to confirm payment intent %s (status %q): %s", pi.ID, pi.RawStatus, err.Error())
	return f
}

func (s *Service) finishSCA(ctx context.Context, intentID string, outcome *domain.ScaOutcome) *domain.ScaOutcome {
	telemetry.ScaOutcomesTotal.WithLabelValues(string(outcome.Status)).Inc()
	event := OutcomeEvent{
		Operation:     "sca",
		Status:        outcome.Status,
		TransactionID: outcome.TransactionID,
		IntentID:      intentID,
		Fee:           outcome.FeeMinorUnits,
	}
	if outcome.Failure != nil {
		event.Error = outcome.Failure.RawMessage
	}
	s.publish(ctx, SubjectSCA, event)
	return outcome
}

func statusFailure(pi *domain.PaymentIntent) domain.Failure {
	return domain.Failure{
		RawMessage:  fmt.Sprintf("failed to authorise the payment; intent %s has status %q", pi.ID, pi.RawStatus),
		RawCode:     string(pi.Status),
		UserMessage: msgAuthFailed,
	}
}

func isMissingResource(err error) bool {
	ge := domain.AsGatewayError(err)
	return ge.Kind == domain.GatewayErrorMalformedRequest &&
		(ge.HTTPStatus == http.StatusNotFound || ge.Code == "resource_missing")
}
