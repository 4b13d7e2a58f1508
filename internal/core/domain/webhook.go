package domain

import (
	"time"

	"github.com/google/uuid"
)

// WebhookSchema identifies which payload shape a notification arrived in.
type WebhookSchema string

const (
	WebhookSchemaNew    WebhookSchema = "new"    // {event, data}
	WebhookSchemaLegacy WebhookSchema = "legacy" // flat {code, status, ...}
)

// CanonicalWebhookEvent is the normalized form of an inbound notification.
// Produced once per delivery and never mutated afterwards.
type CanonicalWebhookEvent struct {
	Schema               WebhookSchema
	GatewayTransactionID string
	ExternalID           string
	Status               string // raw gateway status, post event-table override
	AmountCents          int64
	EndToEndID           string
	Payer                []byte // JSON as received, nil if absent
	Raw                  []byte // exact bytes received
}

// WebhookOutcome records how an inbound notification was handled.
type WebhookOutcome string

const (
	WebhookOutcomeProcessed WebhookOutcome = "processed"
	WebhookOutcomeUnmatched WebhookOutcome = "unmatched"
	WebhookOutcomeDuplicate WebhookOutcome = "duplicate"
	WebhookOutcomeFailed    WebhookOutcome = "failed"
)

// WebhookEventLog is the persisted audit record of one inbound notification.
type WebhookEventLog struct {
	ID                   uuid.UUID      `json:"id"`
	Schema               WebhookSchema  `json:"schema"`
	GatewayTransactionID string         `json:"gateway_transaction_id"`
	ExternalID           string         `json:"external_id"`
	RawStatus            string         `json:"raw_status"`
	MappedStatus         TxStatus       `json:"mapped_status"`
	Outcome              WebhookOutcome `json:"outcome"`
	Detail               *string        `json:"detail,omitempty"`
	Payload              []byte         `json:"payload"`
	CreatedAt            time.Time      `json:"created_at"`
}
