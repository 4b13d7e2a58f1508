package gateway

import (
	"context"
	"fmt"
	"strings"

	"pixbridge/config"
	"pixbridge/internal/core/domain"
	"pixbridge/internal/core/ports"
	"pixbridge/pkg/apperror"
)

// Settings keys for persisted gateway credentials. Each key falls back to the
// corresponding config value when absent, independently of the others.
const (
	settingClientID      = "pix_client_id"
	settingClientSecret  = "pix_client_secret"
	settingBaseURL       = "pix_base_url"
	settingAPISecret     = "pix_api_secret"
	settingStoreKey      = "pix_store_key"
	settingLegacyBaseURL = "pix_legacy_base_url"
)

// CredentialStore implements ports.CredentialSource. It resolves each
// credential field from persisted settings first and falls back to the
// environment config, so operators can rotate any subset of fields at runtime.
type CredentialStore struct {
	settings ports.SettingsRepository
	fallback config.GatewayConfig
}

// NewCredentialStore creates a CredentialStore.
func NewCredentialStore(settings ports.SettingsRepository, fallback config.GatewayConfig) *CredentialStore {
	return &CredentialStore{settings: settings, fallback: fallback}
}

// Fetch resolves the current credentials. It returns CFG_001 when neither the
// token credentials nor the legacy shared secret resolve, because no gateway
// call can be authenticated in that state.
func (s *CredentialStore) Fetch(ctx context.Context) (domain.Credentials, error) {
	creds := domain.Credentials{}
	var err error

	if creds.ClientID, err = s.resolve(ctx, settingClientID, s.fallback.ClientID); err != nil {
		return domain.Credentials{}, err
	}
	if creds.ClientSecret, err = s.resolve(ctx, settingClientSecret, s.fallback.ClientSecret); err != nil {
		return domain.Credentials{}, err
	}
	if creds.BaseURL, err = s.resolve(ctx, settingBaseURL, s.fallback.BaseURL); err != nil {
		return domain.Credentials{}, err
	}
	if creds.APISecret, err = s.resolve(ctx, settingAPISecret, s.fallback.APISecret); err != nil {
		return domain.Credentials{}, err
	}
	if creds.StoreKey, err = s.resolve(ctx, settingStoreKey, s.fallback.StoreKey); err != nil {
		return domain.Credentials{}, err
	}
	if creds.LegacyBaseURL, err = s.resolve(ctx, settingLegacyBaseURL, s.fallback.LegacyBaseURL); err != nil {
		return domain.Credentials{}, err
	}

	if creds.Mode() == domain.DialectLegacy && creds.APISecret == "" {
		return domain.Credentials{}, apperror.ErrGatewayNotConfigured()
	}
	return creds, nil
}

// resolve reads one settings key, falling back to the config value when the
// key is absent or blank. Values are trimmed; a whitespace-only setting
// counts as absent.
func (s *CredentialStore) resolve(ctx context.Context, key, fallback string) (string, error) {
	value, err := s.settings.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("resolve credential %s: %w", key, err)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return strings.TrimSpace(fallback), nil
	}
	return value, nil
}
