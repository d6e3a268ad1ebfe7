package vault

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"

	"github.com/seu-repo/invoice-stripe-driver/internal/ports"
)

// Field names in the KV v2 secret holding the Stripe keys
var stripeKeyFields = map[string]string{
	"key_test_public": ports.SettingKeyTestPublic,
	"key_test_secret": ports.SettingKeyTestSecret,
	"key_live_public": ports.SettingKeyLivePublic,
	"key_live_secret": ports.SettingKeyLiveSecret,
}

// SettingsWriter receives secrets read from Vault
type SettingsWriter interface {
	Set(key, value string)
}

type SecretManager struct {
	client *api.Client
}

func NewSecretManager(address, token string) (*SecretManager, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}

	client.SetToken(token)

	return &SecretManager{client: client}, nil
}

// GetStripeKeys reads secret/data/<path> and returns the Stripe keys it
// holds, keyed by setting name. Missing or non-string fields are skipped.
func (sm *SecretManager) GetStripeKeys(ctx context.Context, path string) (map[string]string, error) {
	secret, err := sm.client.Logical().ReadWithContext(ctx, "secret/data/"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stripe secret: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("stripe secret %q not found", path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("stripe secret %q has no data", path)
	}

	keys := make(map[string]string, len(stripeKeyFields))
	for field, setting := range stripeKeyFields {
		if v, ok := data[field].(string); ok && v != "" {
			keys[setting] = v
		}
	}
	return keys, nil
}

// ApplyStripeKeys overlays the Vault-held keys onto settings and returns
// how many were applied.
func (sm *SecretManager) ApplyStripeKeys(ctx context.Context, path string, settings SettingsWriter) (int, error) {
	keys, err := sm.GetStripeKeys(ctx, path)
	if err != nil {
		return 0, err
	}
	for k, v := range keys {
		settings.Set(k, v)
	}
	return len(keys), nil
}
