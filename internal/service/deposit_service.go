package service

import (
	"context"
	"time"

	"pixbridge/internal/core/domain"
	"pixbridge/internal/core/ports"
	"pixbridge/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Depositor implements ports.DepositService: it creates gateway cash-in
// transactions and records them locally so inbound webhooks can be matched.
type Depositor struct {
	gateway     ports.GatewayClient
	txs         ports.TransactionRepository
	callbackURL string
	log         zerolog.Logger
}

// NewDepositor creates a Depositor. callbackURL is where the gateway posts
// webhook notifications for transactions created here.
func NewDepositor(gateway ports.GatewayClient, txs ports.TransactionRepository, callbackURL string, log zerolog.Logger) *Depositor {
	return &Depositor{
		gateway:     gateway,
		txs:         txs,
		callbackURL: callbackURL,
		log:         log.With().Str("component", "depositor").Logger(),
	}
}

// CreateDeposit creates a cash-in at the gateway and persists the pending
// local record. The gateway call runs first: a local row without a gateway
// transaction could never be matched by a webhook.
func (d *Depositor) CreateDeposit(ctx context.Context, req ports.DepositRequest) (*ports.DepositResult, error) {
	if req.AmountMajor <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	gwTx, err := d.gateway.CreateCashIn(ctx, ports.CashInRequest{
		AmountMajor: req.AmountMajor,
		UserID:      req.UserID,
		UserEmail:   req.UserEmail,
		Description: req.Description,
		CallbackURL: d.callbackURL,
		ClientIP:    req.ClientIP,
		Reference:   req.Reference,
	})
	if err != nil {
		return nil, err
	}

	amountCents := gwTx.AmountCents
	if amountCents == 0 {
		amountCents = domain.CentsFromMajor(req.AmountMajor)
	}

	now := time.Now().UTC()
	tx := &domain.Transaction{
		ID:                   uuid.New(),
		GatewayTransactionID: gwTx.ID,
		UserID:               req.UserID,
		AmountCents:          amountCents,
		Status:               domain.TxStatusPending,
		ExternalReference:    gwTx.ExternalID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := d.txs.Create(ctx, tx); err != nil {
		// The gateway transaction exists but the local record failed. The
		// webhook will arrive unmatched; the audit log keeps its payload for
		// manual replay.
		d.log.Error().Err(err).
			Str("gateway_transaction_id", gwTx.ID).
			Msg("gateway cash-in created but local persist failed")
		return nil, apperror.InternalError(err)
	}

	d.log.Info().
		Str("transaction_id", tx.ID.String()).
		Str("gateway_transaction_id", gwTx.ID).
		Int64("amount_cents", amountCents).
		Int64("user_id", req.UserID).
		Msg("deposit created")

	return &ports.DepositResult{
		Transaction:   tx,
		QRImageBase64: gwTx.QRImageBase64,
		QRPayload:     gwTx.QRPayload,
	}, nil
}

// GetDeposit returns the local record plus, best effort, the gateway's
// current view of the transaction.
func (d *Depositor) GetDeposit(ctx context.Context, id uuid.UUID) (*ports.DepositStatus, error) {
	tx, err := d.txs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, apperror.ErrNotFound("Deposit")
	}

	status := &ports.DepositStatus{Transaction: tx}
	gwTx, err := d.gateway.FetchTransaction(ctx, tx.GatewayTransactionID)
	if err != nil {
		d.log.Warn().Err(err).
			Str("gateway_transaction_id", tx.GatewayTransactionID).
			Msg("gateway view unavailable")
		return status, nil
	}
	status.Gateway = gwTx
	return status, nil
}
