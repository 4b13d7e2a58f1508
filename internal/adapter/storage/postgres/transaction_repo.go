package postgres

import (
	"context"
	"errors"
	"fmt"

	"pixbridge/internal/core/domain"
	"pixbridge/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const txColumns = `id, gateway_transaction_id, user_id, amount_cents, status, external_reference,
		webhook_status, end_to_end_id, payer, created_at, updated_at, processed_at`

// Create inserts a new pending transaction.
func (r *TransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, gateway_transaction_id, user_id, amount_cents, status,
		external_reference, webhook_status, end_to_end_id, payer, created_at, updated_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.GatewayTransactionID, t.UserID, t.AmountCents, t.Status,
		t.ExternalReference, t.WebhookStatus, t.EndToEndID, t.Payer,
		t.CreatedAt, t.UpdatedAt, t.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE id = $1`, txColumns)
	return r.scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetByGatewayID fetches a transaction by the gateway_transaction_id column.
// The gateway echoes external references back through the same field, so the
// matcher queries this column with both keys.
func (r *TransactionRepo) GetByGatewayID(ctx context.Context, gatewayTxID string) (*domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE gateway_transaction_id = $1`, txColumns)
	return r.scanTransaction(r.pool.QueryRow(ctx, query, gatewayTxID))
}

// ApplyNotification locks the row, persists the new status plus notification
// metadata unconditionally, and returns the status the row held before the
// update. The lock is released on commit, so the caller's prior-status check
// and wallet credit execute as one atomic unit against concurrent deliveries.
func (r *TransactionRepo) ApplyNotification(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TxStatus, n ports.NotificationUpdate) (domain.TxStatus, error) {
	var prior domain.TxStatus
	err := tx.QueryRow(ctx, `SELECT status FROM transactions WHERE id = $1 FOR UPDATE`, id).Scan(&prior)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("transaction not found: %s", id)
		}
		return "", fmt.Errorf("lock transaction: %w", err)
	}

	query := `UPDATE transactions
		SET status = $1, webhook_status = $2, end_to_end_id = $3, payer = $4,
			processed_at = NOW(), updated_at = NOW()
		WHERE id = $5`

	tag, err := tx.Exec(ctx, query, status, n.RawStatus, n.EndToEndID, n.Payer, id)
	if err != nil {
		return "", fmt.Errorf("apply notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return "", fmt.Errorf("transaction not found: %s", id)
	}
	return prior, nil
}

// ListRecentPending returns the most recent pending transactions, newest
// first. Used as a diagnostic snapshot for unmatched notifications.
func (r *TransactionRepo) ListRecentPending(ctx context.Context, limit int) ([]domain.TransactionSummary, error) {
	query := `SELECT id, gateway_transaction_id, amount_cents, status, created_at
		FROM transactions WHERE status = 'pending'
		ORDER BY created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent pending: %w", err)
	}
	defer rows.Close()

	var out []domain.TransactionSummary
	for rows.Next() {
		var s domain.TransactionSummary
		if err := rows.Scan(&s.ID, &s.GatewayTransactionID, &s.AmountCents, &s.Status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending summaries: %w", err)
	}
	return out, nil
}

// scanTransaction is a helper to scan a single row into a Transaction.
func (r *TransactionRepo) scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.GatewayTransactionID, &t.UserID, &t.AmountCents, &t.Status,
		&t.ExternalReference, &t.WebhookStatus, &t.EndToEndID, &t.Payer,
		&t.CreatedAt, &t.UpdatedAt, &t.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}
