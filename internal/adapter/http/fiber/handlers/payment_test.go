package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
	"github.com/seu-repo/invoice-stripe-driver/internal/mocks"
	"github.com/seu-repo/invoice-stripe-driver/internal/ports"
)

func newTestApp(svc *mocks.MockPaymentService, sources *mocks.MockSourceRepository) *fiber.App {
	h := NewPaymentHandler(svc, sources, zap.NewNop())
	app := fiber.New()
	app.Post("/charges", h.Charge)
	app.Post("/charges/sca", h.Authenticate)
	app.Post("/refunds", h.Refund)
	app.Post("/sources", h.CreateSource)
	app.Patch("/sources/:id", h.UpdateSource)
	app.Delete("/sources/:id", h.DeleteSource)
	app.Put("/customers/:id", h.SyncCustomer)
	app.Delete("/customers/:id", h.RemoveCustomer)
	app.Get("/driver", h.Driver)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	var out map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("invalid json body %q: %v", raw, err)
		}
	}
	return resp, out
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Errorf("expected status %d, got %d", want, resp.StatusCode)
	}
}

func TestCharge_Succeeded(t *testing.T) {
	// Arrange
	var got *ports.ChargeInput
	svc := &mocks.MockPaymentService{
		ChargeFunc: func(ctx context.Context, in *ports.ChargeInput) (*domain.ChargeOutcome, error) {
			got = in
			return domain.ChargeSucceeded("ch_1", 59), nil
		},
	}
	app := newTestApp(svc, &mocks.MockSourceRepository{})

	// Act
	resp, body := do(t, app, http.MethodPost, "/charges", `{
		"amount": 1000, "currency": "GBP",
		"payment_data": {"token": "tok_visa"},
		"invoice": {"id": "42", "ref": "ABC123"},
		"payment": {"id": "9"}
	}`)

	// Assert
	expectStatus(t, resp, http.StatusOK)
	if body["status"] != "succeeded" || body["transaction_id"] != "ch_1" || body["fee"] != float64(59) {
		t.Errorf("unexpected body %v", body)
	}
	if got == nil {
		t.Fatal("expected the service to be called")
	}
	if got.AmountMinorUnits != 1000 {
		t.Errorf("expected amount 1000, got %d", got.AmountMinorUnits)
	}
	if got.PaymentData.String("token") != "tok_visa" {
		t.Errorf("expected token in payment data, got %v", got.PaymentData)
	}
	if got.Invoice == nil || got.Invoice.Ref != "ABC123" {
		t.Errorf("expected invoice ABC123, got %+v", got.Invoice)
	}
	if !got.CustomerPresent {
		t.Error("customer is present unless stated otherwise")
	}
	if got.Source != nil {
		t.Errorf("expected no saved source, got %+v", got.Source)
	}
}

func TestCharge_OffSessionWithSavedSource(t *testing.T) {
	saved := &domain.Source{ID: "src-1", Data: domain.SourceData{SourceID: "card_1", CustomerID: "cus_1"}}
	var got *ports.ChargeInput
	svc := &mocks.MockPaymentService{
		ChargeFunc: func(ctx context.Context, in *ports.ChargeInput) (*domain.ChargeOutcome, error) {
			got = in
			return domain.ChargeRequiresAuthentication("pi_1"), nil
		},
	}
	sources := &mocks.MockSourceRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Source, error) {
			if id == "src-1" {
				return saved, nil
			}
			return nil, nil
		},
	}
	app := newTestApp(svc, sources)

	resp, body := do(t, app, http.MethodPost, "/charges",
		`{"amount": 500, "currency": "usd", "customer_present": false, "source_id": "src-1"}`)

	expectStatus(t, resp, http.StatusOK)
	if body["status"] != "requires_authentication" || body["intent_id"] != "pi_1" {
		t.Errorf("unexpected body %v", body)
	}
	if got.CustomerPresent {
		t.Error("expected an off-session charge")
	}
	if got.Source != saved {
		t.Errorf("expected the stored source, got %+v", got.Source)
	}
}

func TestCharge_UnknownSource(t *testing.T) {
	app := newTestApp(&mocks.MockPaymentService{}, &mocks.MockSourceRepository{})

	resp, _ := do(t, app, http.MethodPost, "/charges", `{"amount": 500, "currency": "usd", "source_id": "nope"}`)

	expectStatus(t, resp, http.StatusNotFound)
}

func TestCharge_ConfigurationErrorIs422(t *testing.T) {
	svc := &mocks.MockPaymentService{
		ChargeFunc: func(ctx context.Context, in *ports.ChargeInput) (*domain.ChargeOutcome, error) {
			return nil, domain.ErrNoPaymentSource
		},
	}
	app := newTestApp(svc, &mocks.MockSourceRepository{})

	resp, body := do(t, app, http.MethodPost, "/charges", `{"amount": 500, "currency": "usd"}`)

	expectStatus(t, resp, http.StatusUnprocessableEntity)
	if msg, _ := body["error"].(string); !strings.Contains(msg, "must provide a payment source") {
		t.Errorf("unexpected error message %q", msg)
	}
}

func TestCharge_FailedOutcomeIs200(t *testing.T) {
	svc := &mocks.MockPaymentService{
		ChargeFunc: func(ctx context.Context, in *ports.ChargeInput) (*domain.ChargeOutcome, error) {
			return domain.ChargeFailed(domain.Failure{RawMessage: "Your card was declined.", UserMessage: "declined"}), nil
		},
	}
	app := newTestApp(svc, &mocks.MockSourceRepository{})

	resp, body := do(t, app, http.MethodPost, "/charges", `{"amount": 500, "currency": "usd"}`)

	expectStatus(t, resp, http.StatusOK)
	if body["status"] != "failed" {
		t.Errorf("expected failed, got %v", body["status"])
	}
}

func TestCharge_InvalidBody(t *testing.T) {
	app := newTestApp(&mocks.MockPaymentService{}, &mocks.MockSourceRepository{})

	resp, _ := do(t, app, http.MethodPost, "/charges", `{"amount": "lots"`)

	expectStatus(t, resp, http.StatusBadRequest)
}

func TestAuthenticate_ByIntentID(t *testing.T) {
	var gotID, gotURL string
	svc := &mocks.MockPaymentService{
		AuthenticateFunc: func(ctx context.Context, intentID, successURL string) (*domain.ScaOutcome, error) {
			gotID, gotURL = intentID, successURL
			return domain.ScaRedirect("https://hooks.stripe.com/3ds"), nil
		},
	}
	app := newTestApp(svc, &mocks.MockSourceRepository{})

	resp, body := do(t, app, http.MethodPost, "/charges/sca", `{"intent_id": "pi_1", "success_url": "https://shop/ok"}`)

	expectStatus(t, resp, http.StatusOK)
	if body["status"] != "redirect" || body["redirect_url"] != "https://hooks.stripe.com/3ds" {
		t.Errorf("unexpected body %v", body)
	}
	if gotID != "pi_1" || gotURL != "https://shop/ok" {
		t.Errorf("unexpected arguments %q %q", gotID, gotURL)
	}
}

func TestAuthenticate_BySCAData(t *testing.T) {
	var gotData []byte
	svc := &mocks.MockPaymentService{
		AuthDataFunc: func(ctx context.Context, scaData []byte, successURL string) (*domain.ScaOutcome, error) {
			gotData = scaData
			return domain.ScaSucceeded("ch_2", 30), nil
		},
	}
	app := newTestApp(svc, &mocks.MockSourceRepository{})

	resp, body := do(t, app, http.MethodPost, "/charges/sca", `{"sca_data": {"id": "pi_2"}}`)

	expectStatus(t, resp, http.StatusOK)
	if body["status"] != "succeeded" {
		t.Errorf("expected succeeded, got %v", body["status"])
	}
	var data map[string]string
	if err := json.Unmarshal(gotData, &data); err != nil || data["id"] != "pi_2" {
		t.Errorf("expected sca data to be passed through, got %q", gotData)
	}
}

func TestAuthenticate_MissingIntent(t *testing.T) {
	svc := &mocks.MockPaymentService{
		AuthenticateFunc: func(ctx context.Context, intentID, successURL string) (*domain.ScaOutcome, error) {
			return nil, domain.ErrMissingIntentID
		},
	}
	app := newTestApp(svc, &mocks.MockSourceRepository{})

	resp, _ := do(t, app, http.MethodPost, "/charges/sca", `{}`)

	expectStatus(t, resp, http.StatusUnprocessableEntity)
}

func TestRefund(t *testing.T) {
	var got *ports.RefundInput
	svc := &mocks.MockPaymentService{
		RefundFunc: func(ctx context.Context, in *ports.RefundInput) (*domain.RefundOutcome, error) {
			got = in
			return domain.RefundSucceeded("re_1", -12), nil
		},
	}
	app := newTestApp(svc, &mocks.MockSourceRepository{})

	resp, body := do(t, app, http.MethodPost, "/refunds", `{
		"original_transaction_id": "ch_1", "amount": 250, "currency": "usd",
		"reason": "requested_by_customer", "refund": {"id": "r-1"}
	}`)

	expectStatus(t, resp, http.StatusOK)
	if body["transaction_id"] != "re_1" || body["fee"] != float64(-12) {
		t.Errorf("unexpected body %v", body)
	}
	if got.OriginalTransactionID != "ch_1" || got.AmountMinorUnits != 250 {
		t.Errorf("unexpected input %+v", got)
	}
	if got.Refund == nil || got.Refund.ID != "r-1" {
		t.Errorf("expected refund record r-1, got %+v", got.Refund)
	}
}

func TestSources_Lifecycle(t *testing.T) {
	stored := &domain.Source{ID: "src-1", CustomerID: "7", Data: domain.SourceData{SourceID: "card_1", CustomerID: "cus_1"}}
	var (
		created *domain.Customer
		update  *domain.SourceUpdate
		deleted *domain.Source
	)
	svc := &mocks.MockPaymentService{
		CreateSourceFunc: func(ctx context.Context, c *domain.Customer, token string) (*domain.Source, error) {
			created = c
			return stored, nil
		},
		UpdateSourceFunc: func(ctx context.Context, s *domain.Source, u *domain.SourceUpdate) (*domain.Source, error) {
			update = u
			return s, nil
		},
		DeleteSourceFunc: func(ctx context.Context, s *domain.Source) error {
			deleted = s
			return nil
		},
	}
	sources := &mocks.MockSourceRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Source, error) {
			if id == stored.ID {
				return stored, nil
			}
			return nil, nil
		},
	}
	app := newTestApp(svc, sources)

	resp, body := do(t, app, http.MethodPost, "/sources", `{"customer": {"id": "7", "email": "a@b.test"}, "token": "tok_visa"}`)
	expectStatus(t, resp, http.StatusCreated)
	if body["id"] != "src-1" {
		t.Errorf("expected src-1, got %v", body["id"])
	}
	if created == nil || created.ID != "7" {
		t.Errorf("expected customer 7, got %+v", created)
	}

	resp, _ = do(t, app, http.MethodPatch, "/sources/src-1", `{"exp_month": 11, "exp_year": 2031}`)
	expectStatus(t, resp, http.StatusOK)
	if update == nil || update.ExpMonth == nil {
		t.Fatal("expected an expiry update")
	}
	if *update.ExpMonth != 11 {
		t.Errorf("expected month 11, got %d", *update.ExpMonth)
	}
	if update.Name != nil {
		t.Errorf("expected name untouched, got %q", *update.Name)
	}

	resp, _ = do(t, app, http.MethodDelete, "/sources/src-1", "")
	expectStatus(t, resp, http.StatusNoContent)
	if deleted != stored {
		t.Errorf("expected the stored source to be deleted, got %+v", deleted)
	}

	resp, _ = do(t, app, http.MethodDelete, "/sources/unknown", "")
	expectStatus(t, resp, http.StatusNotFound)
}

func TestDriver(t *testing.T) {
	svc := &mocks.MockPaymentService{
		PublishableKeyFunc: func() (string, error) { return "", domain.ErrMissingAPIKey },
		IsAvailableFunc:    func() bool { return false },
	}
	app := newTestApp(svc, &mocks.MockSourceRepository{})

	resp, body := do(t, app, http.MethodGet, "/driver", "")

	expectStatus(t, resp, http.StatusOK)
	if body["slug"] != "stripe" || body["label"] != "Stripe" {
		t.Errorf("unexpected driver info %v", body)
	}
	if body["available"] != false {
		t.Errorf("expected unavailable, got %v", body["available"])
	}
	if _, ok := body["publishable_key"]; ok {
		t.Error("expected no publishable key without configuration")
	}
}

func TestCustomers(t *testing.T) {
	var synced, removed *domain.Customer
	svc := &mocks.MockPaymentService{
		SyncCustomerFunc: func(ctx context.Context, c *domain.Customer) error {
			synced = c
			return nil
		},
		RemoveCustomerFunc: func(ctx context.Context, c *domain.Customer) error {
			removed = c
			return nil
		},
	}
	app := newTestApp(svc, &mocks.MockSourceRepository{})

	resp, _ := do(t, app, http.MethodPut, "/customers/7", `{"id": "ignored", "billing_email": "billing@acme.test"}`)
	expectStatus(t, resp, http.StatusNoContent)
	if synced == nil {
		t.Fatal("expected the customer to be synced")
	}
	if synced.ID != "7" || synced.BillingEmail != "billing@acme.test" {
		t.Errorf("unexpected customer %+v", synced)
	}

	resp, _ = do(t, app, http.MethodDelete, "/customers/7", "")
	expectStatus(t, resp, http.StatusNoContent)
	if removed == nil || removed.ID != "7" {
		t.Errorf("expected customer 7 to be removed, got %+v", removed)
	}
}
