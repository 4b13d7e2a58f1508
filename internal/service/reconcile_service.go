package service

import (
	"context"
	"time"

	"pixbridge/internal/core/domain"
	"pixbridge/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Processed (transaction, status) pairs are remembered this long.
const dedupTTL = 24 * time.Hour

// How many pending transactions to log when a notification matches nothing.
const unmatchedDiagnosticLimit = 5

// Reconciler implements ports.ReconcileService: normalize an inbound
// notification, match it to a local transaction, apply the status transition
// and credit the wallet at most once.
type Reconciler struct {
	normalizer ports.WebhookNormalizer
	txs        ports.TransactionRepository
	wallets    ports.WalletRepository
	events     ports.WebhookEventRepository
	transactor ports.DBTransactor
	dedup      ports.WebhookDedupCache
	log        zerolog.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(
	normalizer ports.WebhookNormalizer,
	txs ports.TransactionRepository,
	wallets ports.WalletRepository,
	events ports.WebhookEventRepository,
	transactor ports.DBTransactor,
	dedup ports.WebhookDedupCache,
	log zerolog.Logger,
) *Reconciler {
	return &Reconciler{
		normalizer: normalizer,
		txs:        txs,
		wallets:    wallets,
		events:     events,
		transactor: transactor,
		dedup:      dedup,
		log:        log.With().Str("component", "reconciler").Logger(),
	}
}

// Process handles one webhook delivery. Normalization errors (malformed
// payload, bad signature) propagate to the caller; every later failure is
// reported through the result or the returned error without touching the
// wallet twice.
func (r *Reconciler) Process(ctx context.Context, raw []byte, signature string) (*ports.ReconcileResult, error) {
	event, err := r.normalizer.Normalize(raw, signature)
	if err != nil {
		return nil, err
	}

	log := r.log.With().
		Str("gateway_transaction_id", event.GatewayTransactionID).
		Str("external_id", event.ExternalID).
		Str("raw_status", event.Status).
		Str("schema", string(event.Schema)).
		Logger()
	log.Info().Msg("webhook received")

	// Fast path only. Redis being down or flushed is fine, the conditional
	// update below still guarantees at-most-once crediting.
	if seen, err := r.dedup.IsProcessed(ctx, event.GatewayTransactionID, event.Status); err != nil {
		log.Warn().Err(err).Msg("dedup cache unavailable, continuing")
	} else if seen {
		log.Info().Msg("duplicate delivery, already processed")
		r.recordEvent(ctx, event, domain.WebhookOutcomeDuplicate, "", "")
		return &ports.ReconcileResult{Outcome: domain.WebhookOutcomeDuplicate}, nil
	}

	tx, err := r.match(ctx, event)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		r.logUnmatched(ctx, log)
		r.recordEvent(ctx, event, domain.WebhookOutcomeUnmatched, "", "no local transaction matched")
		return &ports.ReconcileResult{Outcome: domain.WebhookOutcomeUnmatched}, nil
	}

	newStatus := domain.StatusFromNotification(event.Status)

	creditCents := event.AmountCents
	if creditCents == 0 {
		creditCents = tx.AmountCents
	}

	credited, err := r.apply(ctx, tx, event, newStatus, creditCents)
	if err != nil {
		r.recordEvent(ctx, event, domain.WebhookOutcomeFailed, newStatus, err.Error())
		// Partial result so the caller can tell the platform which
		// transaction failed to reconcile.
		return &ports.ReconcileResult{
			Outcome:       domain.WebhookOutcomeFailed,
			TransactionID: tx.ID,
			UserID:        tx.UserID,
			NewStatus:     newStatus,
		}, err
	}

	if err := r.dedup.MarkProcessed(ctx, event.GatewayTransactionID, event.Status, dedupTTL); err != nil {
		log.Warn().Err(err).Msg("failed to mark delivery in dedup cache")
	}
	r.recordEvent(ctx, event, domain.WebhookOutcomeProcessed, newStatus, "")

	result := &ports.ReconcileResult{
		Outcome:       domain.WebhookOutcomeProcessed,
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		NewStatus:     newStatus,
		Credited:      credited,
	}
	if credited {
		result.CreditedCents = creditCents
	}

	log.Info().
		Str("transaction_id", tx.ID.String()).
		Str("new_status", string(newStatus)).
		Bool("credited", credited).
		Int64("credited_cents", result.CreditedCents).
		Msg("webhook processed")
	return result, nil
}

// match locates the local transaction: gateway id first, then the external
// reference the gateway echoes back.
func (r *Reconciler) match(ctx context.Context, event *domain.CanonicalWebhookEvent) (*domain.Transaction, error) {
	tx, err := r.txs.GetByGatewayID(ctx, event.GatewayTransactionID)
	if err != nil {
		return nil, err
	}
	if tx == nil && event.ExternalID != "" {
		tx, err = r.txs.GetByGatewayID(ctx, event.ExternalID)
		if err != nil {
			return nil, err
		}
	}
	return tx, nil
}

// apply runs the status transition and the conditional credit in one database
// transaction. The prior status captured under the row lock decides whether
// the wallet is credited: rows already approved or completed never credit
// again.
func (r *Reconciler) apply(ctx context.Context, tx *domain.Transaction, event *domain.CanonicalWebhookEvent, newStatus domain.TxStatus, creditCents int64) (bool, error) {
	dbTx, err := r.transactor.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer dbTx.Rollback(ctx)

	update := ports.NotificationUpdate{
		RawStatus: event.Status,
		Payer:     event.Payer,
	}
	if event.EndToEndID != "" {
		e2e := event.EndToEndID
		update.EndToEndID = &e2e
	}

	prior, err := r.txs.ApplyNotification(ctx, dbTx, tx.ID, newStatus, update)
	if err != nil {
		return false, err
	}

	credited := false
	if newStatus == domain.TxStatusApproved && prior != domain.TxStatusApproved && prior != domain.TxStatusCompleted {
		if err := r.wallets.Credit(ctx, dbTx, tx.UserID, creditCents); err != nil {
			return false, err
		}
		credited = true
	}

	if err := dbTx.Commit(ctx); err != nil {
		return false, err
	}
	return credited, nil
}

// logUnmatched dumps the most recent pending transactions as a diagnostic.
func (r *Reconciler) logUnmatched(ctx context.Context, log zerolog.Logger) {
	pending, err := r.txs.ListRecentPending(ctx, unmatchedDiagnosticLimit)
	if err != nil {
		log.Warn().Err(err).Msg("unmatched webhook, pending snapshot unavailable")
		return
	}
	ids := make([]string, 0, len(pending))
	for _, p := range pending {
		ids = append(ids, p.GatewayTransactionID)
	}
	log.Warn().Strs("recent_pending", ids).Msg("webhook matched no transaction")
}

// recordEvent appends to the audit log. Best effort: an audit failure never
// fails the delivery.
func (r *Reconciler) recordEvent(ctx context.Context, event *domain.CanonicalWebhookEvent, outcome domain.WebhookOutcome, mapped domain.TxStatus, detail string) {
	entry := &domain.WebhookEventLog{
		ID:                   uuid.New(),
		Schema:               event.Schema,
		GatewayTransactionID: event.GatewayTransactionID,
		ExternalID:           event.ExternalID,
		RawStatus:            event.Status,
		MappedStatus:         mapped,
		Outcome:              outcome,
		Payload:              event.Raw,
		CreatedAt:            time.Now().UTC(),
	}
	if detail != "" {
		entry.Detail = &detail
	}
	if err := r.events.Create(ctx, entry); err != nil {
		r.log.Warn().Err(err).Msg("failed to append webhook audit log")
	}
}
