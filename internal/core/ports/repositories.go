package ports

import (
	"context"

	"pixbridge/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SettingsRepository provides persisted application settings (key/value).
// Gateway credentials live here so operators can rotate them without a deploy.
type SettingsRepository interface {
	// Get returns the value for key, or "" if the key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// NotificationUpdate carries the metadata persisted from a webhook delivery.
type NotificationUpdate struct {
	RawStatus  string
	EndToEndID *string
	Payer      []byte
}

// TransactionRepository defines persistence operations for cash-in transactions.
type TransactionRepository interface {
	Create(ctx context.Context, t *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	// GetByGatewayID looks up by the gateway_transaction_id column. The
	// gateway echoes external references through the same field, so both
	// matcher keys query this column.
	GetByGatewayID(ctx context.Context, gatewayTxID string) (*domain.Transaction, error)
	// ApplyNotification persists the new status plus notification metadata
	// unconditionally and returns the status the row held before the update.
	// Must run inside tx: the row stays locked until commit so the
	// prior-status check and the wallet credit form one atomic unit.
	ApplyNotification(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TxStatus, n NotificationUpdate) (domain.TxStatus, error)
	// ListRecentPending returns a diagnostic snapshot for unmatched events.
	ListRecentPending(ctx context.Context, limit int) ([]domain.TransactionSummary, error)
}

// WalletRepository defines persistence operations for user wallets.
type WalletRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*domain.Wallet, error)
	// Credit increments the main balance by amountCents, creating the wallet
	// row with zero balances if absent. Must run inside tx.
	Credit(ctx context.Context, tx pgx.Tx, userID int64, amountCents int64) error
}

// WebhookEventRepository stores the audit log of inbound notifications.
type WebhookEventRepository interface {
	Create(ctx context.Context, ev *domain.WebhookEventLog) error
	ListByGatewayID(ctx context.Context, gatewayTxID string) ([]domain.WebhookEventLog, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
