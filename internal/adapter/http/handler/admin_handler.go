package handler

import (
	"context"
	"strings"

	"pixbridge/internal/adapter/http/dto"
	"pixbridge/internal/core/ports"
	"pixbridge/pkg/apperror"
	"pixbridge/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AdminHandler exposes operator endpoints for runtime credential rotation.
type AdminHandler struct {
	settings ports.SettingsRepository
	tokens   ports.TokenProvider
	log      zerolog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(settings ports.SettingsRepository, tokens ports.TokenProvider, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		settings: settings,
		tokens:   tokens,
		log:      log.With().Str("component", "admin_handler").Logger(),
	}
}

// Settings keys writable through the rotation endpoint, keyed by the request
// field that feeds them.
var credentialSettings = []struct {
	key   string
	field func(*dto.UpdateCredentialsRequest) *string
}{
	{"pix_client_id", func(r *dto.UpdateCredentialsRequest) *string { return r.ClientID }},
	{"pix_client_secret", func(r *dto.UpdateCredentialsRequest) *string { return r.ClientSecret }},
	{"pix_base_url", func(r *dto.UpdateCredentialsRequest) *string { return r.BaseURL }},
	{"pix_api_secret", func(r *dto.UpdateCredentialsRequest) *string { return r.APISecret }},
	{"pix_store_key", func(r *dto.UpdateCredentialsRequest) *string { return r.StoreKey }},
	{"pix_legacy_base_url", func(r *dto.UpdateCredentialsRequest) *string { return r.LegacyBaseURL }},
}

// UpdateCredentials handles PUT /api/v1/admin/gateway-credentials. Only the
// fields present in the request are written; the cached gateway token is
// dropped so the next call authenticates with the new credentials.
func (h *AdminHandler) UpdateCredentials(c *gin.Context) {
	var req dto.UpdateCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	updated, err := h.applyUpdates(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	if len(updated) == 0 {
		response.Error(c, apperror.Validation("no credential fields provided"))
		return
	}

	h.tokens.Invalidate()
	h.log.Info().Strs("updated", updated).Msg("gateway credentials rotated")

	response.OK(c, gin.H{"updated": updated})
}

func (h *AdminHandler) applyUpdates(ctx context.Context, req *dto.UpdateCredentialsRequest) ([]string, error) {
	var updated []string
	for _, s := range credentialSettings {
		value := s.field(req)
		if value == nil {
			continue
		}
		if err := h.settings.Set(ctx, s.key, strings.TrimSpace(*value)); err != nil {
			return nil, err
		}
		updated = append(updated, s.key)
	}
	return updated, nil
}
