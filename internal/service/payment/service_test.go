package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
	"github.com/seu-repo/invoice-stripe-driver/internal/ports"
)

func TestLabel(t *testing.T) {
	svc, deps := newTestService(nil)
	if got := svc.Label(); got != "Stripe" {
		t.Errorf("expected default label, got %q", got)
	}

	deps.settings.Values[ports.SettingLabel] = "Card payment"
	if got := svc.Label(); got != "Card payment" {
		t.Errorf("expected configured label, got %q", got)
	}
}

func TestPublishableKey(t *testing.T) {
	svc, deps := newTestService(nil)

	key, err := svc.PublishableKey()
	if err != nil || key != "pk_test_mock" {
		t.Fatalf("expected test key, got %q (%v)", key, err)
	}

	deps.settings.Production = true
	if _, err := svc.PublishableKey(); !errors.Is(err, domain.ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey in production, got %v", err)
	}
}

func TestPublishFailureDoesNotAffectOutcome(t *testing.T) {
	svc, deps := newTestService(nil)
	deps.events.PublishFunc = func(ctx context.Context, subject string, payload interface{}) error {
		return errors.New("broker down")
	}

	outcome, err := svc.Refund(context.Background(), refundInput())

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if outcome.Status != domain.OutcomeSucceeded {
		t.Errorf("expected succeeded, got %s", outcome.Status)
	}
}
