package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TxStatus represents the lifecycle state of a cash-in transaction.
type TxStatus string

const (
	TxStatusPending    TxStatus = "pending"
	TxStatusProcessing TxStatus = "processing"
	TxStatusApproved   TxStatus = "approved"
	TxStatusRefused    TxStatus = "refused"
	TxStatusRefunded   TxStatus = "refunded"
	TxStatusCompleted  TxStatus = "completed"
)

// Transaction is the locally stored record of a gateway cash-in.
type Transaction struct {
	ID                   uuid.UUID  `json:"id"`
	GatewayTransactionID string     `json:"gateway_transaction_id"`
	UserID               int64      `json:"user_id"`
	AmountCents          int64      `json:"amount_cents"`
	Status               TxStatus   `json:"status"`
	ExternalReference    string     `json:"external_reference"`
	WebhookStatus        *string    `json:"webhook_status,omitempty"` // raw status from the last notification
	EndToEndID           *string    `json:"end_to_end_id,omitempty"`
	Payer                []byte     `json:"payer,omitempty"` // JSON as delivered by the gateway
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	ProcessedAt          *time.Time `json:"processed_at,omitempty"`
}

// IsCredited returns true if the wallet credit for this record has already
// been applied. Once approved or completed, no further credit may happen.
func (t *Transaction) IsCredited() bool {
	return t.Status == TxStatusApproved || t.Status == TxStatusCompleted
}

// TransactionSummary is a diagnostic snapshot used when a notification
// cannot be matched to any stored record.
type TransactionSummary struct {
	ID                   uuid.UUID `json:"id"`
	GatewayTransactionID string    `json:"gateway_transaction_id"`
	AmountCents          int64     `json:"amount_cents"`
	Status               TxStatus  `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
}

// StatusFromNotification maps a raw gateway status (case-insensitive) to the
// stored transaction status. Unknown statuses park the record in processing.
func StatusFromNotification(raw string) TxStatus {
	switch strings.ToLower(raw) {
	case "paid":
		return TxStatusApproved
	case "refused":
		return TxStatusRefused
	case "refunded":
		return TxStatusRefunded
	case "infraction":
		return TxStatusRefused
	default:
		return TxStatusProcessing
	}
}
