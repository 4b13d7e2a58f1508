package service

import (
	"encoding/json"
	"math"

	"pixbridge/internal/core/domain"
	"pixbridge/pkg/apperror"

	"github.com/rs/zerolog"
)

// Gateway events carrying a definitive status. When an event is recognized it
// overrides whatever the data block's status field says.
var eventStatus = map[string]string{
	"pix.cash-in.paid":     "paid",
	"pix.cash-in.refused":  "refused",
	"pix.cash-in.refunded": "refunded",
}

// webhookEnvelope covers both payload shapes. The new schema nests the
// transaction under data; the legacy schema carries flat fields.
type webhookEnvelope struct {
	// New schema
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Signature string          `json:"signature"`

	// Legacy schema
	Code         string          `json:"code"`
	ExternalCode string          `json:"externalCode"`
	OrderID      string          `json:"orderId"`
	Status       string          `json:"status"`
	EndToEnd     string          `json:"endToEnd"`
	Amount       float64         `json:"amount"`
	Payer        json.RawMessage `json:"payer"`
}

type webhookData struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Amount   float64         `json:"amount"` // cents
	EndToEnd string          `json:"endToEnd"`
	Payer    json.RawMessage `json:"payer"`
	Metadata struct {
		ExternalID   string `json:"externalId"`
		ExternalCode string `json:"externalCode"`
	} `json:"metadata"`
}

// Normalizer implements ports.WebhookNormalizer for both gateway schemas.
type Normalizer struct {
	signatures *HMACSignatureService
	secret     string // HMAC secret, "" disables verification
	log        zerolog.Logger
}

// NewNormalizer creates a Normalizer. An empty secret disables signature
// verification.
func NewNormalizer(signatures *HMACSignatureService, secret string, log zerolog.Logger) *Normalizer {
	return &Normalizer{
		signatures: signatures,
		secret:     secret,
		log:        log.With().Str("component", "webhook_normalizer").Logger(),
	}
}

// Normalize parses an inbound payload into a canonical event. The HMAC is
// computed over the exact bytes received, never a re-serialization, so field
// ordering cannot break verification. Verification applies to the new schema
// only, and runs only when both a secret is configured and a signature
// arrived.
func (n *Normalizer) Normalize(raw []byte, signature string) (*domain.CanonicalWebhookEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, apperror.ErrMalformedPayload("invalid JSON")
	}

	if env.Event != "" && len(env.Data) > 0 {
		// Only the new schema is signed. Legacy deliveries carry no HMAC,
		// so a stray signature field there is ignored.
		if signature == "" {
			signature = env.Signature
		}
		if n.secret != "" && signature != "" {
			if !n.signatures.Verify(n.secret, raw, signature) {
				n.log.Warn().Msg("webhook signature mismatch")
				return nil, apperror.ErrInvalidSignature()
			}
		}
		return n.normalizeNew(raw, env)
	}
	return n.normalizeLegacy(raw, env)
}

func (n *Normalizer) normalizeNew(raw []byte, env webhookEnvelope) (*domain.CanonicalWebhookEvent, error) {
	var data webhookData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, apperror.ErrMalformedPayload("invalid data block")
	}
	if data.ID == "" {
		return nil, apperror.ErrMalformedPayload("data.id is required")
	}

	status := data.Status
	if mapped, ok := eventStatus[env.Event]; ok {
		status = mapped
	}

	externalID := data.Metadata.ExternalID
	if externalID == "" {
		externalID = data.Metadata.ExternalCode
	}

	return &domain.CanonicalWebhookEvent{
		Schema:               domain.WebhookSchemaNew,
		GatewayTransactionID: data.ID,
		ExternalID:           externalID,
		Status:               status,
		AmountCents:          int64(math.Round(data.Amount)),
		EndToEndID:           data.EndToEnd,
		Payer:                compactJSON(data.Payer),
		Raw:                  raw,
	}, nil
}

func (n *Normalizer) normalizeLegacy(raw []byte, env webhookEnvelope) (*domain.CanonicalWebhookEvent, error) {
	if env.Code == "" || env.Status == "" {
		return nil, apperror.ErrMalformedPayload("code and status are required")
	}

	externalID := env.ExternalCode
	if externalID == "" {
		externalID = env.OrderID
	}

	return &domain.CanonicalWebhookEvent{
		Schema:               domain.WebhookSchemaLegacy,
		GatewayTransactionID: env.Code,
		ExternalID:           externalID,
		Status:               env.Status,
		AmountCents:          int64(math.Round(env.Amount)),
		EndToEndID:           env.EndToEnd,
		Payer:                compactJSON(env.Payer),
		Raw:                  raw,
	}, nil
}

// compactJSON normalizes an optional raw JSON fragment: JSON null and absent
// both come back as nil.
func compactJSON(raw json.RawMessage) []byte {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}
