package postgres

import (
	"context"
	"fmt"

	"pixbridge/internal/core/domain"
)

// WebhookEventRepo implements ports.WebhookEventRepository. Rows are an
// append-only audit trail of every notification received, whatever the
// outcome was.
type WebhookEventRepo struct {
	pool Pool
}

// NewWebhookEventRepo creates a new WebhookEventRepo.
func NewWebhookEventRepo(pool Pool) *WebhookEventRepo {
	return &WebhookEventRepo{pool: pool}
}

func (r *WebhookEventRepo) Create(ctx context.Context, ev *domain.WebhookEventLog) error {
	query := `INSERT INTO webhook_events (id, schema, gateway_transaction_id, external_id, raw_status, mapped_status, outcome, detail, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		ev.ID, ev.Schema, ev.GatewayTransactionID, ev.ExternalID,
		ev.RawStatus, ev.MappedStatus, ev.Outcome, ev.Detail, ev.Payload, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create webhook event: %w", err)
	}
	return nil
}

func (r *WebhookEventRepo) ListByGatewayID(ctx context.Context, gatewayTxID string) ([]domain.WebhookEventLog, error) {
	query := `SELECT id, schema, gateway_transaction_id, external_id, raw_status, mapped_status, outcome, detail, payload, created_at
		FROM webhook_events WHERE gateway_transaction_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, gatewayTxID)
	if err != nil {
		return nil, fmt.Errorf("list webhook events: %w", err)
	}
	defer rows.Close()

	var events []domain.WebhookEventLog
	for rows.Next() {
		var ev domain.WebhookEventLog
		err := rows.Scan(
			&ev.ID, &ev.Schema, &ev.GatewayTransactionID, &ev.ExternalID,
			&ev.RawStatus, &ev.MappedStatus, &ev.Outcome, &ev.Detail, &ev.Payload, &ev.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan webhook event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhook events: %w", err)
	}
	return events, nil
}
