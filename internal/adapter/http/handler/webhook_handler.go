package handler

import (
	"errors"
	"io"
	"net/http"

	"pixbridge/internal/core/domain"
	"pixbridge/internal/core/ports"
	"pixbridge/pkg/apperror"
	"pixbridge/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HeaderWebhookSignature carries the gateway's HMAC signature. The body's
// signature field is the fallback.
const HeaderWebhookSignature = "X-Signature"

// WebhookHandler receives gateway payment notifications.
type WebhookHandler struct {
	reconciler ports.ReconcileService
	log        zerolog.Logger
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(reconciler ports.ReconcileService, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		reconciler: reconciler,
		log:        log.With().Str("component", "webhook_handler").Logger(),
	}
}

// Receive handles POST /webhooks/pix. The gateway retries on non-2xx, so
// only malformed payloads (400) and bad signatures (401) are rejected;
// everything else is acknowledged with 200 and success reported in the body.
func (h *WebhookHandler) Receive(c *gin.Context) {
	// The raw bytes are read before any parsing: signature verification and
	// the audit log both need them exactly as delivered.
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperror.ErrMalformedPayload("cannot read request body"))
		return
	}

	signature := c.GetHeader(HeaderWebhookSignature)

	result, err := h.reconciler.Process(c.Request.Context(), raw, signature)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			switch appErr.HTTPStatus {
			case http.StatusBadRequest, http.StatusUnauthorized:
				response.Error(c, appErr)
				return
			}
		}
		h.log.Error().Err(err).Msg("webhook processing failed")
		msg := err.Error()
		if appErr != nil {
			msg = appErr.Message
		}
		ack := response.WebhookAck{
			Success: false,
			Error:   msg,
		}
		// Process returns a partial result when the failure happened after
		// the transaction was matched.
		if result != nil {
			ack.TransactionID = result.TransactionID.String()
			ack.UserID = result.UserID
			ack.Status = string(result.NewStatus)
		}
		response.Ack(c, ack)
		return
	}

	switch result.Outcome {
	case domain.WebhookOutcomeUnmatched:
		response.Ack(c, response.WebhookAck{
			Success: true,
			Message: "webhook received, transaction not found",
		})
	case domain.WebhookOutcomeDuplicate:
		response.Ack(c, response.WebhookAck{
			Success: true,
			Message: "webhook already processed",
		})
	default:
		response.Ack(c, response.WebhookAck{
			Success:       true,
			Message:       "webhook processed",
			TransactionID: result.TransactionID.String(),
			Status:        string(result.NewStatus),
		})
	}
}
