package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pixbridge/internal/core/domain"
	"pixbridge/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Settings Repo ---

type inMemorySettingsRepo struct {
	mu     sync.RWMutex
	values map[string]string
}

func newInMemorySettingsRepo() *inMemorySettingsRepo {
	return &inMemorySettingsRepo{values: make(map[string]string)}
}

func (r *inMemorySettingsRepo) Get(ctx context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.values[key], nil
}

func (r *inMemorySettingsRepo) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
	return nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{transactions: make(map[uuid.UUID]*domain.Transaction)}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.transactions[t.ID] = &cp
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTransactionRepo) GetByGatewayID(ctx context.Context, gatewayTxID string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.transactions {
		if t.GatewayTransactionID == gatewayTxID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryTransactionRepo) ApplyNotification(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TxStatus, n ports.NotificationUpdate) (domain.TxStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok {
		return "", fmt.Errorf("transaction not found: %s", id)
	}
	prior := t.Status
	t.Status = status
	t.WebhookStatus = &n.RawStatus
	t.EndToEndID = n.EndToEndID
	t.Payer = n.Payer
	now := time.Now()
	t.UpdatedAt = now
	t.ProcessedAt = &now
	return prior, nil
}

func (r *inMemoryTransactionRepo) ListRecentPending(ctx context.Context, limit int) ([]domain.TransactionSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.TransactionSummary
	for _, t := range r.transactions {
		if t.Status != domain.TxStatusPending {
			continue
		}
		result = append(result, domain.TransactionSummary{
			ID:                   t.ID,
			GatewayTransactionID: t.GatewayTransactionID,
			AmountCents:          t.AmountCents,
			Status:               t.Status,
			CreatedAt:            t.CreatedAt,
		})
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[int64]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[int64]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) GetByUserID(ctx context.Context, userID int64) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[userID]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) Credit(ctx context.Context, tx pgx.Tx, userID int64, amountCents int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[userID]
	if !ok {
		now := time.Now()
		w = &domain.Wallet{UserID: userID, CreatedAt: now}
		r.wallets[userID] = w
	}
	w.BalanceCents += amountCents
	w.UpdatedAt = time.Now()
	return nil
}

// --- In-Memory Webhook Event Repo ---

type inMemoryWebhookEventRepo struct {
	mu     sync.RWMutex
	events []domain.WebhookEventLog
}

func newInMemoryWebhookEventRepo() *inMemoryWebhookEventRepo {
	return &inMemoryWebhookEventRepo{}
}

func (r *inMemoryWebhookEventRepo) Create(ctx context.Context, ev *domain.WebhookEventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *ev)
	return nil
}

func (r *inMemoryWebhookEventRepo) ListByGatewayID(ctx context.Context, gatewayTxID string) ([]domain.WebhookEventLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.WebhookEventLog
	for _, ev := range r.events {
		if ev.GatewayTransactionID == gatewayTxID {
			result = append(result, ev)
		}
	}
	return result, nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
