package service

import (
	"io"
	"testing"

	"pixbridge/internal/core/domain"
	"pixbridge/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newNormalizer(secret string) *Normalizer {
	return NewNormalizer(NewHMACSignatureService(), secret, newTestLogger())
}

func TestNormalizer_NewSchema(t *testing.T) {
	raw := []byte(`{
		"event": "pix.cash-in.paid",
		"data": {
			"id": "gw-tx-1",
			"status": "waiting",
			"amount": 500,
			"endToEnd": "E2E123",
			"payer": {"name": "Payer", "document": "123"},
			"metadata": {"externalId": "deposit_7_ref01"}
		}
	}`)

	event, err := newNormalizer("").Normalize(raw, "")
	require.NoError(t, err)
	assert.Equal(t, domain.WebhookSchemaNew, event.Schema)
	assert.Equal(t, "gw-tx-1", event.GatewayTransactionID)
	assert.Equal(t, "deposit_7_ref01", event.ExternalID)
	assert.Equal(t, "paid", event.Status, "recognized event overrides data.status")
	assert.Equal(t, int64(500), event.AmountCents)
	assert.Equal(t, "E2E123", event.EndToEndID)
	assert.NotNil(t, event.Payer)
	assert.Equal(t, raw, event.Raw)
}

func TestNormalizer_NewSchema_UnknownEventKeepsStatus(t *testing.T) {
	raw := []byte(`{"event": "pix.cash-in.updated", "data": {"id": "gw-tx-1", "status": "processing"}}`)

	event, err := newNormalizer("").Normalize(raw, "")
	require.NoError(t, err)
	assert.Equal(t, "processing", event.Status)
}

func TestNormalizer_NewSchema_ExternalCodeFallback(t *testing.T) {
	raw := []byte(`{"event": "pix.cash-in.paid", "data": {"id": "gw-tx-1", "metadata": {"externalCode": "deposit_7_x"}}}`)

	event, err := newNormalizer("").Normalize(raw, "")
	require.NoError(t, err)
	assert.Equal(t, "deposit_7_x", event.ExternalID)
}

func TestNormalizer_LegacySchema(t *testing.T) {
	raw := []byte(`{"code": "gw-tx-2", "externalCode": "deposit_9_y", "status": "PAID", "amount": 1050, "endToEnd": "E2E9"}`)

	event, err := newNormalizer("").Normalize(raw, "")
	require.NoError(t, err)
	assert.Equal(t, domain.WebhookSchemaLegacy, event.Schema)
	assert.Equal(t, "gw-tx-2", event.GatewayTransactionID)
	assert.Equal(t, "deposit_9_y", event.ExternalID)
	assert.Equal(t, "PAID", event.Status, "raw status is preserved, mapping happens later")
	assert.Equal(t, int64(1050), event.AmountCents)
}

func TestNormalizer_LegacySchema_OrderIDFallback(t *testing.T) {
	raw := []byte(`{"code": "gw-tx-2", "orderId": "order-77", "status": "paid"}`)

	event, err := newNormalizer("").Normalize(raw, "")
	require.NoError(t, err)
	assert.Equal(t, "order-77", event.ExternalID)
}

func TestNormalizer_LegacySchema_MissingRequiredFields(t *testing.T) {
	cases := []string{
		`{"status": "paid"}`,
		`{"code": "gw-tx-2"}`,
		`{}`,
	}
	for _, raw := range cases {
		_, err := newNormalizer("").Normalize([]byte(raw), "")
		require.Error(t, err, raw)
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "WH_001", appErr.Code)
	}
}

func TestNormalizer_InvalidJSON(t *testing.T) {
	_, err := newNormalizer("").Normalize([]byte(`{not json`), "")
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WH_001", appErr.Code)
}

func TestNormalizer_SignatureOverExactBytes(t *testing.T) {
	secret := "hmac-secret"
	sigs := NewHMACSignatureService()

	// Key order here must not matter: the signature covers the bytes as
	// received, not a re-serialization.
	raw := []byte(`{"data": {"status": "paid", "id": "gw-tx-1"}, "event": "pix.cash-in.paid"}`)
	signature := sigs.Sign(secret, raw)

	event, err := newNormalizer(secret).Normalize(raw, signature)
	require.NoError(t, err)
	assert.Equal(t, "gw-tx-1", event.GatewayTransactionID)
}

func TestNormalizer_SignatureFromBodyField(t *testing.T) {
	secret := "hmac-secret"
	sigs := NewHMACSignatureService()

	raw := []byte(`{"event": "pix.cash-in.paid", "data": {"id": "gw-tx-1"}, "signature": "deadbeef"}`)
	_, err := newNormalizer(secret).Normalize(raw, "")
	require.Error(t, err, "body signature is used when no header signature arrives")
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WH_002", appErr.Code)

	// Header signature wins and verifies.
	headerSig := sigs.Sign(secret, raw)
	event, err := newNormalizer(secret).Normalize(raw, headerSig)
	require.NoError(t, err)
	assert.Equal(t, "gw-tx-1", event.GatewayTransactionID)
}

func TestNormalizer_InvalidSignature(t *testing.T) {
	raw := []byte(`{"event": "pix.cash-in.paid", "data": {"id": "gw-tx-1"}}`)

	_, err := newNormalizer("hmac-secret").Normalize(raw, "0000")
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WH_002", appErr.Code)
}

func TestNormalizer_NoSecretSkipsVerification(t *testing.T) {
	raw := []byte(`{"event": "pix.cash-in.paid", "data": {"id": "gw-tx-1"}}`)

	event, err := newNormalizer("").Normalize(raw, "anything")
	require.NoError(t, err)
	assert.Equal(t, "gw-tx-1", event.GatewayTransactionID)
}

func TestNormalizer_LegacySchemaIgnoresSignature(t *testing.T) {
	// Only new-schema deliveries are signed. A legacy payload with a stray
	// signature must not be rejected even when a secret is configured.
	raw := []byte(`{"code": "gw-tx-2", "status": "paid", "signature": "deadbeef"}`)

	event, err := newNormalizer("hmac-secret").Normalize(raw, "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, domain.WebhookSchemaLegacy, event.Schema)
	assert.Equal(t, "gw-tx-2", event.GatewayTransactionID)
}

func TestNormalizer_NullPayerIsNil(t *testing.T) {
	raw := []byte(`{"code": "gw-tx-2", "status": "paid", "payer": null}`)

	event, err := newNormalizer("").Normalize(raw, "")
	require.NoError(t, err)
	assert.Nil(t, event.Payer)
}
