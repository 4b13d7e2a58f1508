package postgres

import (
	"context"
	"errors"
	"fmt"

	"pixbridge/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// GetByUserID fetches a wallet by user id. Returns nil, nil when no wallet
// row exists yet.
func (r *WalletRepo) GetByUserID(ctx context.Context, userID int64) (*domain.Wallet, error) {
	query := `SELECT user_id, balance_cents, balance_bonus_cents, balance_withdrawal_cents, created_at, updated_at
		FROM wallets WHERE user_id = $1`

	w := &domain.Wallet{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&w.UserID, &w.BalanceCents, &w.BalanceBonusCents, &w.BalanceWithdrawalCents,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by user id: %w", err)
	}
	return w, nil
}

// Credit increments the main balance by amountCents inside tx, creating the
// wallet row with zero balances if it does not exist yet. The increment is a
// single conditional upsert, so concurrent credits never lose updates.
func (r *WalletRepo) Credit(ctx context.Context, tx pgx.Tx, userID int64, amountCents int64) error {
	query := `INSERT INTO wallets (user_id, balance_cents, balance_bonus_cents, balance_withdrawal_cents, created_at, updated_at)
		VALUES ($1, $2, 0, 0, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET balance_cents = wallets.balance_cents + EXCLUDED.balance_cents, updated_at = NOW()`

	_, err := tx.Exec(ctx, query, userID, amountCents)
	if err != nil {
		return fmt.Errorf("credit wallet: %w", err)
	}
	return nil
}
