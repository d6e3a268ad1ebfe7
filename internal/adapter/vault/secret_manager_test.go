package vault

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/seu-repo/invoice-stripe-driver/internal/ports"
)

type recordingSettings map[string]string

func (r recordingSettings) Set(key, value string) { r[key] = value }

func newVaultServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/secret/data/stripe-driver" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if got := r.Header.Get("X-Vault-Token"); got != "root-token" {
			t.Errorf("expected vault token, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestApplyStripeKeys(t *testing.T) {
	srv := newVaultServer(t, `{"data":{"data":{"key_live_secret":"sk_live_v","key_test_secret":"sk_test_v","other":"x"}}}`)

	sm, err := NewSecretManager(srv.URL, "root-token")
	if err != nil {
		t.Fatalf("failed to create secret manager: %v", err)
	}

	settings := recordingSettings{}
	n, err := sm.ApplyStripeKeys(context.Background(), "stripe-driver", settings)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 keys applied, got %d", n)
	}
	if settings[ports.SettingKeyLiveSecret] != "sk_live_v" || settings[ports.SettingKeyTestSecret] != "sk_test_v" {
		t.Errorf("unexpected secrets %v", settings)
	}
	if _, ok := settings[ports.SettingKeyLivePublic]; ok {
		t.Error("expected absent keys to be left alone")
	}
}

func TestGetStripeKeys_MissingSecret(t *testing.T) {
	srv := newVaultServer(t, `{}`)

	sm, err := NewSecretManager(srv.URL, "root-token")
	if err != nil {
		t.Fatalf("failed to create secret manager: %v", err)
	}

	if _, err := sm.GetStripeKeys(context.Background(), "unknown"); err == nil {
		t.Error("expected an error for a missing secret")
	}
}
