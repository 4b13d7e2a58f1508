package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	e := New("WH_001", "Malformed webhook payload", http.StatusBadRequest)
	assert.Equal(t, "[WH_001] Malformed webhook payload", e.Error())

	wrapped := Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, errors.New("boom"))
	assert.Equal(t, "[SYS_001] Internal server error: boom", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("connection reset")
	e := ErrGatewayUnavailable(inner)
	assert.True(t, errors.Is(e, inner))

	var appErr *AppError
	assert.True(t, errors.As(fmt.Errorf("outer: %w", e), &appErr))
	assert.Equal(t, "GW_002", appErr.Code)
}

func TestErrGatewayAuth_Description(t *testing.T) {
	e := ErrGatewayAuth("invalid_client", nil)
	assert.Contains(t, e.Message, "invalid_client")
	assert.Equal(t, http.StatusBadGateway, e.HTTPStatus)

	noDesc := ErrGatewayAuth("", nil)
	assert.Equal(t, "Gateway authentication failed", noDesc.Message)
}

func TestErrGatewayRejected_StatusFallback(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, ErrGatewayRejected(422, "bad pix key").HTTPStatus)
	// Non-error statuses fall back to 502.
	assert.Equal(t, http.StatusBadGateway, ErrGatewayRejected(0, "").HTTPStatus)
	assert.Equal(t, http.StatusBadGateway, ErrGatewayRejected(200, "").HTTPStatus)
}

func TestTaxonomyStatuses(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, ErrGatewayNotConfigured().HTTPStatus)
	assert.Equal(t, http.StatusBadRequest, ErrMalformedPayload("code and status are required").HTTPStatus)
	assert.Equal(t, http.StatusUnauthorized, ErrInvalidSignature().HTTPStatus)
	assert.Equal(t, http.StatusUnauthorized, ErrInvalidToken().HTTPStatus)
	assert.Equal(t, http.StatusTooManyRequests, ErrRateLimitExceeded().HTTPStatus)
	assert.Equal(t, http.StatusNotFound, ErrNotFound("deposit").HTTPStatus)
}
