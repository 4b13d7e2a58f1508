package postgres

import (
	"context"
	"testing"
	"time"

	"pixbridge/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var webhookEventColumns = []string{
	"id", "schema", "gateway_transaction_id", "external_id",
	"raw_status", "mapped_status", "outcome", "detail", "payload", "created_at",
}

func TestWebhookEventRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookEventRepo(mock)

	ev := &domain.WebhookEventLog{
		ID:                   uuid.New(),
		Schema:               domain.WebhookSchemaNew,
		GatewayTransactionID: "gw-tx-1",
		ExternalID:           "deposit_7_ref01",
		RawStatus:            "paid",
		MappedStatus:         domain.TxStatusApproved,
		Outcome:              domain.WebhookOutcomeProcessed,
		Payload:              []byte(`{"event":"pix.cash-in.paid"}`),
		CreatedAt:            time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO webhook_events").
		WithArgs(ev.ID, ev.Schema, ev.GatewayTransactionID, ev.ExternalID,
			ev.RawStatus, ev.MappedStatus, ev.Outcome, ev.Detail, ev.Payload, ev.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), ev))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookEventRepo_ListByGatewayID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookEventRepo(mock)
	now := time.Now().UTC().Truncate(time.Microsecond)
	detail := "no local transaction matched"

	rows := pgxmock.NewRows(webhookEventColumns).
		AddRow(uuid.New(), domain.WebhookSchemaLegacy, "gw-tx-1", "", "PAID",
			domain.TxStatusApproved, domain.WebhookOutcomeUnmatched, &detail, []byte(`{}`), now).
		AddRow(uuid.New(), domain.WebhookSchemaLegacy, "gw-tx-1", "", "PAID",
			domain.TxStatusApproved, domain.WebhookOutcomeProcessed, (*string)(nil), []byte(`{}`), now)

	mock.ExpectQuery("SELECT .+ FROM webhook_events WHERE gateway_transaction_id").
		WithArgs("gw-tx-1").
		WillReturnRows(rows)

	events, err := repo.ListByGatewayID(context.Background(), "gw-tx-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.WebhookOutcomeUnmatched, events[0].Outcome)
	require.NotNil(t, events[0].Detail)
	assert.Equal(t, detail, *events[0].Detail)
	assert.Nil(t, events[1].Detail)
	assert.NoError(t, mock.ExpectationsWereMet())
}
