package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pixbridge/internal/core/domain"
	"pixbridge/internal/core/ports"
	"pixbridge/pkg/apperror"

	"github.com/rs/zerolog"
)

const (
	cashInPathNew         = "/v1/pix/cash-in"
	cashInPathLegacy      = "/v1/cob"
	transactionPathNew    = "/v1/pix/cash-in/%s"
	transactionPathLegacy = "/v1/transactions/%s"
)

// Client implements ports.GatewayClient. Credentials are re-fetched on every
// call, so a rotation in the settings table takes effect without a restart,
// including a dialect switch.
type Client struct {
	creds  ports.CredentialSource
	tokens ports.TokenProvider
	http   *http.Client
	log    zerolog.Logger
	now    func() time.Time
}

// NewClient creates a gateway Client.
func NewClient(creds ports.CredentialSource, tokens ports.TokenProvider, httpClient *http.Client, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		creds:  creds,
		tokens: tokens,
		http:   httpClient,
		log:    log.With().Str("component", "gateway_client").Logger(),
		now:    time.Now,
	}
}

// cashInBodyNew is the token-dialect request shape.
type cashInBodyNew struct {
	Amount     int64             `json:"amount"` // cents
	WebhookURL string            `json:"webhookUrl"`
	ExternalID string            `json:"externalId"`
	Metadata   map[string]string `json:"metadata"`
	IP         string            `json:"ip,omitempty"`
}

// cashInBodyLegacy is the shared-secret-dialect request shape.
type cashInBodyLegacy struct {
	PostbackURL  string            `json:"postbackUrl"`
	Amount       int64             `json:"amount"` // cents
	ExternalCode string            `json:"externalCode"`
	Metadata     map[string]string `json:"metadata"`
	IP           string            `json:"ip,omitempty"`
}

// gatewayResponse covers both dialects' response shapes.
type gatewayResponse struct {
	ID         string          `json:"id"`
	Status     string          `json:"status"`
	QRCode     string          `json:"qrCode"`
	PixCode    string          `json:"pixCode"`
	Pix        *gatewayPixData `json:"pix"`
	Encoded    string          `json:"encodedImage"`
	Payload    string          `json:"payload"`
	Amount     int64           `json:"amount"`
	CreatedAt  string          `json:"createdAt"`
	ExternalID string          `json:"externalId"`

	// Error fields, populated on rejections.
	Message   string `json:"message"`
	ErrorText string `json:"error"`
	ErrorDesc string `json:"error_description"`
}

type gatewayPixData struct {
	EncodedImage string `json:"encodedImage"`
	Payload      string `json:"payload"`
}

func (r *gatewayResponse) errorMessage() string {
	switch {
	case r.Message != "":
		return r.Message
	case r.ErrorText != "":
		return r.ErrorText
	default:
		return r.ErrorDesc
	}
}

// toTransaction normalizes either dialect's response into the canonical form.
func (r *gatewayResponse) toTransaction() *ports.GatewayTransaction {
	qrImage, qrPayload := r.QRCode, r.PixCode
	if qrImage == "" && r.Pix != nil {
		qrImage = r.Pix.EncodedImage
	}
	if qrImage == "" {
		qrImage = r.Encoded
	}
	if qrPayload == "" && r.Pix != nil {
		qrPayload = r.Pix.Payload
	}
	if qrPayload == "" {
		qrPayload = r.Payload
	}
	return &ports.GatewayTransaction{
		ID:            r.ID,
		Status:        r.Status,
		QRImageBase64: qrImage,
		QRPayload:     qrPayload,
		AmountCents:   r.Amount,
		CreatedAt:     r.CreatedAt,
		ExternalID:    r.ExternalID,
	}
}

// CreateCashIn creates a PIX cash-in transaction in whichever dialect the
// current credentials select.
func (c *Client) CreateCashIn(ctx context.Context, req ports.CashInRequest) (*ports.GatewayTransaction, error) {
	creds, err := c.creds.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	amountCents := domain.CentsFromMajor(req.AmountMajor)
	externalCode := c.externalCode(req)
	description := req.Description
	if description == "" {
		description = "Platform deposit"
	}
	metadata := map[string]string{
		"user_id":     fmt.Sprintf("%d", req.UserID),
		"user_email":  req.UserEmail,
		"description": description,
	}

	// 0.0.0.0 means the client address could not be determined.
	ip := req.ClientIP
	if ip == "0.0.0.0" {
		ip = ""
	}

	var body any
	var path string
	if creds.Mode() == domain.DialectNew {
		path = cashInPathNew
		body = cashInBodyNew{
			Amount:     amountCents,
			WebhookURL: req.CallbackURL,
			ExternalID: externalCode,
			Metadata:   metadata,
			IP:         ip,
		}
	} else {
		path = cashInPathLegacy
		body = cashInBodyLegacy{
			PostbackURL:  req.CallbackURL,
			Amount:       amountCents,
			ExternalCode: externalCode,
			Metadata:     metadata,
			IP:           ip,
		}
	}

	c.log.Info().
		Str("dialect", string(creds.Mode())).
		Int64("amount_cents", amountCents).
		Str("external_code", externalCode).
		Msg("creating cash-in transaction")

	resp, err := c.do(ctx, creds, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}

	tx := resp.toTransaction()
	if tx.ExternalID == "" {
		tx.ExternalID = externalCode
	}
	c.log.Info().
		Str("gateway_transaction_id", tx.ID).
		Str("status", tx.Status).
		Msg("cash-in transaction created")
	return tx, nil
}

// FetchTransaction retrieves the gateway's current view of a transaction.
func (c *Client) FetchTransaction(ctx context.Context, gatewayTxID string) (*ports.GatewayTransaction, error) {
	creds, err := c.creds.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	var path string
	if creds.Mode() == domain.DialectNew {
		path = fmt.Sprintf(transactionPathNew, gatewayTxID)
	} else {
		path = fmt.Sprintf(transactionPathLegacy, gatewayTxID)
	}

	resp, err := c.do(ctx, creds, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return resp.toTransaction(), nil
}

// externalCode yields the deposit reference sent to the gateway. With a
// caller-supplied reference the code is stable, so a retried request maps to
// the same gateway transaction. Without one it is time-based and unique.
func (c *Client) externalCode(req ports.CashInRequest) string {
	if req.Reference != "" {
		return fmt.Sprintf("deposit_%d_%s", req.UserID, req.Reference)
	}
	return fmt.Sprintf("deposit_%d_%d", req.UserID, c.now().UnixMilli())
}

// do issues one call, retrying exactly once after a 401 in the token dialect
// with a freshly exchanged token.
func (c *Client) do(ctx context.Context, creds domain.Credentials, method, path string, body any) (*gatewayResponse, error) {
	resp, status, err := c.send(ctx, creds, method, path, body)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized && creds.Mode() == domain.DialectNew {
		c.log.Warn().Msg("gateway returned 401, refreshing token and retrying")
		c.tokens.Invalidate()
		resp, status, err = c.send(ctx, creds, method, path, body)
		if err != nil {
			return nil, err
		}
	}
	if status < 200 || status >= 300 {
		c.log.Error().
			Int("status", status).
			Str("message", resp.errorMessage()).
			Msg("gateway rejected request")
		return nil, apperror.ErrGatewayRejected(status, resp.errorMessage())
	}
	return resp, nil
}

// send performs a single HTTP exchange and decodes the body regardless of
// status, so error details survive for the caller.
func (c *Client) send(ctx context.Context, creds domain.Credentials, method, path string, body any) (*gatewayResponse, int, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal gateway request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, creds.Host()+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if creds.Mode() == domain.DialectNew {
		token, err := c.tokens.GetToken(ctx)
		if err != nil {
			return nil, 0, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Set("x-authorization-key", creds.APISecret)
		if creds.StoreKey != "" {
			req.Header.Set("x-store-key", creds.StoreKey)
		}
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, apperror.ErrGatewayUnavailable(err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, 0, apperror.ErrGatewayUnavailable(err)
	}

	resp := &gatewayResponse{}
	if len(raw) > 0 {
		// A non-JSON body on an error status still maps to a rejection.
		_ = json.Unmarshal(raw, resp)
	}
	return resp, httpResp.StatusCode, nil
}
