package domain

import "time"

// Wallet holds a user's balances in integer cents. Rows are created lazily
// with zero balances the first time a credit is due; the main balance only
// increases through the approved-notification path.
type Wallet struct {
	UserID                 int64     `json:"user_id"`
	BalanceCents           int64     `json:"balance_cents"`
	BalanceBonusCents      int64     `json:"balance_bonus_cents"`
	BalanceWithdrawalCents int64     `json:"balance_withdrawal_cents"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}
