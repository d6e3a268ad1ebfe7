package config

import (
	"sync"

	"github.com/seu-repo/invoice-stripe-driver/internal/ports"
)

// StripeSettings serves StripeConfig through ports.SettingsProvider.
// Keys may be replaced at runtime, e.g. from Vault.
type StripeSettings struct {
	mu         sync.RWMutex
	values     map[string]string
	flags      map[string]bool
	production bool
}

var _ ports.SettingsProvider = (*StripeSettings)(nil)

func NewStripeSettings(app AppConfig, cfg StripeConfig) *StripeSettings {
	return &StripeSettings{
		values: map[string]string{
			ports.SettingLabel:               cfg.Label,
			ports.SettingStatementDescriptor: cfg.StatementDescriptor,
			ports.SettingKeyTestPublic:       cfg.KeyTestPublic,
			ports.SettingKeyTestSecret:       cfg.KeyTestSecret,
			ports.SettingKeyLivePublic:       cfg.KeyLivePublic,
			ports.SettingKeyLiveSecret:       cfg.KeyLiveSecret,
		},
		flags: map[string]bool{
			ports.SettingReceiptEmail: cfg.EnableReceiptEmail,
		},
		production: app.IsProduction(),
	}
}

func (s *StripeSettings) String(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (s *StripeSettings) Bool(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[key]
}

func (s *StripeSettings) IsProduction() bool {
	return s.production
}

// Set overrides a string setting; empty values are ignored.
func (s *StripeSettings) Set(key, value string) {
	if value == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}
