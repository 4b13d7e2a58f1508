package dto

import (
	"pixbridge/internal/core/domain"
	"pixbridge/internal/core/ports"
)

// CreateDepositRequest is the request body for creating a PIX deposit.
// Amount is in major units; the gateway receives integer cents.
type CreateDepositRequest struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description" binding:"max=200"`
	Reference   string  `json:"reference" binding:"omitempty,max=64,safe_id"`
}

// DepositResponse is the response body for a created deposit.
type DepositResponse struct {
	TransactionID        string `json:"transaction_id"`
	GatewayTransactionID string `json:"gateway_transaction_id"`
	Status               string `json:"status"`
	Amount               string `json:"amount"` // major units, e.g. "10.50"
	AmountCents          int64  `json:"amount_cents"`
	QRCodeImage          string `json:"qr_code_image,omitempty"` // base64 PNG
	QRCodePayload        string `json:"qr_code_payload,omitempty"`
	CreatedAt            string `json:"created_at"`
}

// DepositStatusResponse pairs the local record with the gateway's view.
type DepositStatusResponse struct {
	Transaction   TransactionResponse `json:"transaction"`
	GatewayStatus *string             `json:"gateway_status,omitempty"`
}

// TransactionResponse is the serialized local transaction record.
type TransactionResponse struct {
	ID                   string  `json:"id"`
	GatewayTransactionID string  `json:"gateway_transaction_id"`
	Amount               string  `json:"amount"`
	AmountCents          int64   `json:"amount_cents"`
	Status               string  `json:"status"`
	WebhookStatus        *string `json:"webhook_status,omitempty"`
	EndToEndID           *string `json:"end_to_end_id,omitempty"`
	CreatedAt            string  `json:"created_at"`
	ProcessedAt          *string `json:"processed_at,omitempty"`
}

// UpdateCredentialsRequest is the operator request to rotate gateway
// credentials. Empty fields are left untouched.
type UpdateCredentialsRequest struct {
	ClientID      *string `json:"client_id,omitempty"`
	ClientSecret  *string `json:"client_secret,omitempty"`
	BaseURL       *string `json:"base_url,omitempty" binding:"omitempty,safe_url"`
	APISecret     *string `json:"api_secret,omitempty"`
	StoreKey      *string `json:"store_key,omitempty"`
	LegacyBaseURL *string `json:"legacy_base_url,omitempty" binding:"omitempty,safe_url"`
}

// HealthResponse reports per-dependency status.
type HealthResponse struct {
	Status string            `json:"status"`
	Deps   map[string]string `json:"deps"`
}

// FromTransaction maps a domain transaction to its response form.
func FromTransaction(t *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:                   t.ID.String(),
		GatewayTransactionID: t.GatewayTransactionID,
		Amount:               domain.MajorString(t.AmountCents),
		AmountCents:          t.AmountCents,
		Status:               string(t.Status),
		WebhookStatus:        t.WebhookStatus,
		EndToEndID:           t.EndToEndID,
		CreatedAt:            t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if t.ProcessedAt != nil {
		s := t.ProcessedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		resp.ProcessedAt = &s
	}
	return resp
}

// FromDepositResult maps a created deposit to its response form.
func FromDepositResult(r *ports.DepositResult) DepositResponse {
	return DepositResponse{
		TransactionID:        r.Transaction.ID.String(),
		GatewayTransactionID: r.Transaction.GatewayTransactionID,
		Status:               string(r.Transaction.Status),
		Amount:               domain.MajorString(r.Transaction.AmountCents),
		AmountCents:          r.Transaction.AmountCents,
		QRCodeImage:          r.QRImageBase64,
		QRCodePayload:        r.QRPayload,
		CreatedAt:            r.Transaction.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
