package payment

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
	"github.com/seu-repo/invoice-stripe-driver/internal/mocks"
)

func succeededIntent(id string) *domain.PaymentIntent {
	return &domain.PaymentIntent{
		ID:                   id,
		Status:               domain.IntentStatusSucceeded,
		RawStatus:            "succeeded",
		LatestChargeID:       "ch_sca",
		BalanceTransactionID: "txn_sca",
	}
}

func feeOf(fee int64) func(ctx context.Context, id string) (*domain.BalanceTransaction, error) {
	return func(ctx context.Context, id string) (*domain.BalanceTransaction, error) {
		return &domain.BalanceTransaction{ID: id, Fee: fee}, nil
	}
}

func TestAuthenticate_AlreadySucceeded(t *testing.T) {
	gw := &mocks.MockGateway{
		RetrievePaymentIntentFunc: func(ctx context.Context, id string) (*domain.PaymentIntent, error) {
			return succeededIntent(id), nil
		},
		RetrieveBalanceTransactionFunc: feeOf(30),
	}
	svc, deps := newTestService(gw)

	outcome, err := svc.Authenticate(context.Background(), "pi_1", "https://shop.test/ok")

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if outcome.Status != domain.OutcomeSucceeded {
		t.Fatalf("expected succeeded, got %s", outcome.Status)
	}
	if outcome.TransactionID != "ch_sca" || outcome.FeeMinorUnits != 30 {
		t.Errorf("unexpected outcome %+v", outcome)
	}
	if gw.Called("ConfirmPaymentIntent") != 0 {
		t.Error("confirm must not be called on a succeeded intent")
	}
	if subjects := deps.events.Subjects(); len(subjects) != 1 || subjects[0] != SubjectSCA {
		t.Errorf("expected one sca event, got %v", subjects)
	}
}

func TestAuthenticate_RequiresConfirmationConfirmFails(t *testing.T) {
	gw := &mocks.MockGateway{
		RetrievePaymentIntentFunc: func(ctx context.Context, id string) (*domain.PaymentIntent, error) {
			return &domain.PaymentIntent{ID: id, Status: domain.IntentStatusRequiresConfirmation, RawStatus: "requires_confirmation"}, nil
		},
		ConfirmPaymentIntentFunc: func(ctx context.Context, id string, returnURL string) (*domain.PaymentIntent, error) {
			return nil, gatewayErr(domain.GatewayErrorMalformedRequest, "payment_intent_unexpected_state", "unexpected state", 400)
		},
	}
	svc, _ := newTestService(gw)

	outcome, err := svc.Authenticate(context.Background(), "pi_conf", "https://shop.test/ok")

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if outcome.Status != domain.OutcomeFailed {
		t.Fatalf("expected failed, got %s", outcome.Status)
	}
	msg := outcome.Failure.RawMessage
	if !strings.Contains(msg, "pi_conf") || !strings.Contains(msg, "requires_confirmation") {
		t.Errorf("expected intent id and status in %q", msg)
	}
}

func TestAuthenticate_RequiresActionConfirmFails(t *testing.T) {
	// Arrange
	gw := &mocks.MockGateway{
		RetrievePaymentIntentFunc: func(ctx context.Context, id string) (*domain.PaymentIntent, error) {
			return &domain.PaymentIntent{ID: id, Status: domain.IntentStatusRequiresAction, RawStatus: "requires_source_action"}, nil
		},
		ConfirmPaymentIntentFunc: func(ctx context.Context, id string, returnURL string) (*domain.PaymentIntent, error) {
			return nil, gatewayErr(domain.GatewayErrorCardDeclined, "card_declined", "Your card was declined.", 402)
		},
	}
	svc, _ := newTestService(gw)

	// Act
	outcome, err := svc.Authenticate(context.Background(), "pi_act", "https://shop.test/ok")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if outcome.Status != domain.OutcomeFailed {
		t.Fatalf("expected failed, got %s", outcome.Status)
	}
	msg := outcome.Failure.RawMessage
	if !strings.Contains(msg, "pi_act") || !strings.Contains(msg, "requires_source_action") {
		t.Errorf("expected intent id and status in %q", msg)
	}
	if outcome.Failure.UserMessage == "" {
		t.Error("expected a user message")
	}
	if gw.Called("RetrieveBalanceTransaction") != 0 {
		t.Error("expected no settlement after a failed confirm")
	}
}

func TestAuthenticate_RequiresConfirmationConfirmSucceeds(t *testing.T) {
	gw := &mocks.MockGateway{
		RetrievePaymentIntentFunc: func(ctx context.Context, id string) (*domain.PaymentIntent, error) {
			return &domain.PaymentIntent{ID: id, Status: domain.IntentStatusRequiresConfirmation, RawStatus: "requires_confirmation"}, nil
		},
		ConfirmPaymentIntentFunc: func(ctx context.Context, id string, returnURL string) (*domain.PaymentIntent, error) {
			return succeededIntent(id), nil
		},
		RetrieveBalanceTransactionFunc: feeOf(12),
	}
	svc, _ := newTestService(gw)

	outcome, err := svc.Authenticate(context.Background(), "pi_conf", "https://shop.test/ok")

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if outcome.Status != domain.OutcomeSucceeded || outcome.FeeMinorUnits != 12 {
		t.Errorf("unexpected outcome %+v", outcome)
	}
}

func TestAuthenticate_RequiresActionRedirect(t *testing.T) {
	var gotReturnURL string
	gw := &mocks.MockGateway{
		RetrievePaymentIntentFunc: func(ctx context.Context, id string) (*domain.PaymentIntent, error) {
			return &domain.PaymentIntent{ID: id, Status: domain.IntentStatusRequiresAction, RawStatus: "requires_action"}, nil
		},
		ConfirmPaymentIntentFunc: func(ctx context.Context, id string, returnURL string) (*domain.PaymentIntent, error) {
			gotReturnURL = returnURL
			return &domain.PaymentIntent{
				ID:         id,
				Status:     domain.IntentStatusRequiresAction,
				RawStatus:  "requires_source_action",
				NextAction: domain.NextAction{Kind: domain.NextActionRedirectToURL, RedirectURL: "https://hooks.stripe.test/3ds/1"},
			}, nil
		},
	}
	svc, _ := newTestService(gw)

	outcome, err := svc.Authenticate(context.Background(), "pi_act", "https://shop.test/ok")

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if outcome.Status != domain.OutcomeRedirect {
		t.Fatalf("expected redirect, got %s", outcome.Status)
	}
	if outcome.RedirectURL != "https://hooks.stripe.test/3ds/1" {
		t.Errorf("unexpected redirect url %q", outcome.RedirectURL)
	}
	if gotReturnURL != "https://shop.test/ok" {
		t.Errorf("expected success url as return url, got %q", gotReturnURL)
	}
}

func TestAuthenticate_RequiresActionWithoutRedirect(t *testing.T) {
	gw := &mocks.MockGateway{
		RetrievePaymentIntentFunc: func(ctx context.Context, id string) (*domain.PaymentIntent, error) {
			return &domain.PaymentIntent{ID: id, Status: domain.IntentStatusRequiresAction, RawStatus: "requires_action"}, nil
		},
		ConfirmPaymentIntentFunc: func(ctx context.Context, id string, returnURL string) (*domain.PaymentIntent, error) {
			return &domain.PaymentIntent{
				ID:         id,
				Status:     domain.IntentStatusRequiresAction,
				RawStatus:  "requires_action",
				NextAction: domain.NextAction{Kind: domain.NextActionUseStripeSDK},
			}, nil
		},
	}
	svc, _ := newTestService(gw)

	outcome, err := svc.Authenticate(context.Background(), "pi_act", "")

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if outcome.Status != domain.OutcomeFailed {
		t.Fatalf("expected failed, got %s", outcome.Status)
	}
}

func TestAuthenticate_OtherStatusFails(t *testing.T) {
	gw := &mocks.MockGateway{
		RetrievePaymentIntentFunc: func(ctx context.Context, id string) (*domain.PaymentIntent, error) {
			return &domain.PaymentIntent{ID: id, Status: domain.IntentStatusCanceled, RawStatus: "canceled"}, nil
		},
	}
	svc, _ := newTestService(gw)

	outcome, err := svc.Authenticate(context.Background(), "pi_x", "")

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if outcome.Status != domain.OutcomeFailed {
		t.Fatalf("expected failed, got %s", outcome.Status)
	}
	if !strings.Contains(outcome.Failure.RawMessage, `"canceled"`) {
		t.Errorf("expected status in %q", outcome.Failure.RawMessage)
	}
	if gw.Called("ConfirmPaymentIntent") != 0 {
		t.Error("confirm must not be called for a canceled intent")
	}
}

func TestAuthenticate_MissingIntentID(t *testing.T) {
	svc, deps := newTestService(nil)

	_, err := svc.Authenticate(context.Background(), "  ", "")

	if !errors.Is(err, domain.ErrMissingIntentID) {
		t.Fatalf("expected ErrMissingIntentID, got %v", err)
	}
	if deps.gateway.Called("RetrievePaymentIntent") != 0 {
		t.Error("gateway must not be called without an intent id")
	}
}

func TestAuthenticate_UnknownIntent(t *testing.T) {
	gw := &mocks.MockGateway{
		RetrievePaymentIntentFunc: func(ctx context.Context, id string) (*domain.PaymentIntent, error) {
			return nil, gatewayErr(domain.GatewayErrorMalformedRequest, "resource_missing", "No such payment_intent", http.StatusNotFound)
		},
	}
	svc, _ := newTestService(gw)

	_, err := svc.Authenticate(context.Background(), "pi_missing", "")

	if !domain.IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !errors.Is(err, domain.ErrMissingIntentID) {
		t.Errorf("expected error to wrap ErrMissingIntentID, got %v", err)
	}
}

func TestAuthenticateWithData(t *testing.T) {
	var asked string
	gw := &mocks.MockGateway{
		RetrievePaymentIntentFunc: func(ctx context.Context, id string) (*domain.PaymentIntent, error) {
			asked = id
			return succeededIntent(id), nil
		},
		RetrieveBalanceTransactionFunc: feeOf(1),
	}
	svc, _ := newTestService(gw)

	outcome, err := svc.AuthenticateWithData(context.Background(), SCAData("pi_data"), "")

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if asked != "pi_data" {
		t.Errorf("expected intent pi_data, got %q", asked)
	}
	if outcome.Status != domain.OutcomeSucceeded {
		t.Errorf("expected succeeded, got %s", outcome.Status)
	}

	if _, err := svc.AuthenticateWithData(context.Background(), []byte(`{"other":1}`), ""); !errors.Is(err, domain.ErrMissingIntentID) {
		t.Errorf("expected ErrMissingIntentID for data without id, got %v", err)
	}
}
