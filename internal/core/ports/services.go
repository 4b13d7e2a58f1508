package ports

import (
	"context"
	"time"

	"pixbridge/internal/core/domain"

	"github.com/google/uuid"
)

// CredentialSource resolves the current gateway credentials: persisted
// settings first, then config/environment fallbacks.
type CredentialSource interface {
	Fetch(ctx context.Context) (domain.Credentials, error)
}

// TokenProvider manages the client-credentials bearer token lifecycle.
type TokenProvider interface {
	// GetToken returns a valid token, exchanging credentials if the cached
	// one is absent, expired, or belonged to rotated credentials.
	GetToken(ctx context.Context) (string, error)
	// Invalidate drops the cached token; the next GetToken performs a fresh
	// exchange.
	Invalidate()
}

// CashInRequest holds input for creating a gateway cash-in transaction.
type CashInRequest struct {
	AmountMajor float64 // major units, converted to cents by rounding
	UserID      int64
	UserEmail   string
	Description string
	CallbackURL string
	ClientIP    string // omitted when empty or 0.0.0.0
	// Reference, when set, yields a stable external id so client retries
	// create the same gateway transaction. When empty a time-based id is
	// generated (not safe against retries).
	Reference string
}

// GatewayTransaction is the dialect-normalized result of a gateway call.
type GatewayTransaction struct {
	ID            string
	Status        string
	QRImageBase64 string
	QRPayload     string
	AmountCents   int64
	CreatedAt     string
	ExternalID    string
}

// GatewayClient issues authenticated calls to the PIX gateway in whichever
// dialect the configured credentials select.
type GatewayClient interface {
	CreateCashIn(ctx context.Context, req CashInRequest) (*GatewayTransaction, error)
	FetchTransaction(ctx context.Context, gatewayTxID string) (*GatewayTransaction, error)
}

// WebhookNormalizer turns an inbound payload (either schema) into a canonical
// event, verifying the HMAC signature when one is configured and present.
type WebhookNormalizer interface {
	Normalize(raw []byte, signature string) (*domain.CanonicalWebhookEvent, error)
}

// ReconcileResult describes how a notification was applied.
type ReconcileResult struct {
	Outcome       domain.WebhookOutcome
	TransactionID uuid.UUID
	UserID        int64
	NewStatus     domain.TxStatus
	Credited      bool
	CreditedCents int64
}

// ReconcileService runs the inbound path: normalize, match, transition,
// credit at most once.
type ReconcileService interface {
	Process(ctx context.Context, raw []byte, signature string) (*ReconcileResult, error)
}

// DepositRequest holds validated input for creating a deposit.
type DepositRequest struct {
	UserID      int64
	UserEmail   string
	AmountMajor float64
	Description string
	Reference   string // optional stable idempotency reference
	ClientIP    string
}

// DepositResult is returned to the caller after a cash-in is created.
type DepositResult struct {
	Transaction   *domain.Transaction
	QRImageBase64 string
	QRPayload     string
}

// DepositStatus pairs the local record with the gateway's current view.
type DepositStatus struct {
	Transaction *domain.Transaction
	Gateway     *GatewayTransaction
}

// DepositService creates cash-in transactions and exposes their status.
type DepositService interface {
	CreateDeposit(ctx context.Context, req DepositRequest) (*DepositResult, error)
	GetDeposit(ctx context.Context, id uuid.UUID) (*DepositStatus, error)
}

// WebhookDedupCache is a best-effort fast path for duplicate deliveries.
// The storage-level conditional update remains the idempotency authority.
type WebhookDedupCache interface {
	IsProcessed(ctx context.Context, gatewayTxID, status string) (bool, error)
	MarkProcessed(ctx context.Context, gatewayTxID, status string, ttl time.Duration) error
}

// TokenService handles caller JWT operations on the deposit API.
type TokenService interface {
	Generate(userID int64, email string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed caller JWT claims.
type TokenClaims struct {
	UserID int64
	Email  string
}

// HashService verifies the operator admin key (Argon2id).
type HashService interface {
	Hash(secret string) (string, error)
	Verify(secret string, hash string) (bool, error)
}
