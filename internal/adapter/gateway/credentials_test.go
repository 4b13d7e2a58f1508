package gateway

import (
	"context"
	"errors"
	"testing"

	"pixbridge/config"
	"pixbridge/internal/core/domain"
	"pixbridge/internal/core/ports/mocks"
	"pixbridge/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestCredentialStore_Fetch_SettingsWin(t *testing.T) {
	ctrl := gomock.NewController(t)
	settings := mocks.NewMockSettingsRepository(ctrl)

	settings.EXPECT().Get(gomock.Any(), "pix_client_id").Return("db-client", nil)
	settings.EXPECT().Get(gomock.Any(), "pix_client_secret").Return("  db-secret \n", nil)
	settings.EXPECT().Get(gomock.Any(), "pix_base_url").Return("https://db.gateway.example", nil)
	settings.EXPECT().Get(gomock.Any(), "pix_api_secret").Return("", nil)
	settings.EXPECT().Get(gomock.Any(), "pix_store_key").Return("", nil)
	settings.EXPECT().Get(gomock.Any(), "pix_legacy_base_url").Return("", nil)

	store := NewCredentialStore(settings, config.GatewayConfig{
		ClientID: "env-client",
		BaseURL:  "https://env.gateway.example",
	})

	creds, err := store.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "db-client", creds.ClientID)
	assert.Equal(t, "db-secret", creds.ClientSecret, "setting values are trimmed")
	assert.Equal(t, "https://db.gateway.example", creds.BaseURL)
	assert.Equal(t, domain.DialectNew, creds.Mode())
}

func TestCredentialStore_Fetch_ConfigFallbackPerKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	settings := mocks.NewMockSettingsRepository(ctrl)

	// Only the client id is persisted; every other field falls back.
	settings.EXPECT().Get(gomock.Any(), "pix_client_id").Return("db-client", nil)
	settings.EXPECT().Get(gomock.Any(), gomock.Any()).Return("", nil).Times(5)

	store := NewCredentialStore(settings, config.GatewayConfig{
		ClientSecret: "env-secret",
		BaseURL:      "https://env.gateway.example",
	})

	creds, err := store.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "db-client", creds.ClientID)
	assert.Equal(t, "env-secret", creds.ClientSecret)
	assert.Equal(t, domain.DialectNew, creds.Mode())
}

func TestCredentialStore_Fetch_LegacyMode(t *testing.T) {
	ctrl := gomock.NewController(t)
	settings := mocks.NewMockSettingsRepository(ctrl)

	settings.EXPECT().Get(gomock.Any(), "pix_client_id").Return("", nil)
	settings.EXPECT().Get(gomock.Any(), "pix_client_secret").Return("", nil)
	settings.EXPECT().Get(gomock.Any(), "pix_base_url").Return("", nil)
	settings.EXPECT().Get(gomock.Any(), "pix_api_secret").Return("legacy-secret", nil)
	settings.EXPECT().Get(gomock.Any(), "pix_store_key").Return("store-key", nil)
	settings.EXPECT().Get(gomock.Any(), "pix_legacy_base_url").Return("https://legacy.gateway.example", nil)

	store := NewCredentialStore(settings, config.GatewayConfig{})

	creds, err := store.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DialectLegacy, creds.Mode())
	assert.Equal(t, "https://legacy.gateway.example", creds.Host())
}

func TestCredentialStore_Fetch_NothingConfigured(t *testing.T) {
	ctrl := gomock.NewController(t)
	settings := mocks.NewMockSettingsRepository(ctrl)
	settings.EXPECT().Get(gomock.Any(), gomock.Any()).Return("", nil).Times(6)

	store := NewCredentialStore(settings, config.GatewayConfig{})

	_, err := store.Fetch(context.Background())
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CFG_001", appErr.Code)
}

func TestCredentialStore_Fetch_SettingsError(t *testing.T) {
	ctrl := gomock.NewController(t)
	settings := mocks.NewMockSettingsRepository(ctrl)
	settings.EXPECT().Get(gomock.Any(), "pix_client_id").Return("", errors.New("db down"))

	store := NewCredentialStore(settings, config.GatewayConfig{ClientID: "env-client"})

	_, err := store.Fetch(context.Background())
	assert.Error(t, err)
}
