package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Gateway configuration & authentication (CFG/GW) ----

// ErrGatewayNotConfigured means no usable credentials could be resolved from
// settings, config or environment. Fatal setup error: callers must not retry.
func ErrGatewayNotConfigured() *AppError {
	return New("CFG_001", "Payment gateway credentials are not configured", http.StatusInternalServerError)
}

// ErrGatewayAuth means the client-credentials token exchange failed.
func ErrGatewayAuth(description string, err error) *AppError {
	msg := "Gateway authentication failed"
	if description != "" {
		msg = "Gateway authentication failed: " + description
	}
	return Wrap("GW_001", msg, http.StatusBadGateway, err)
}

// ErrGatewayUnavailable covers connection-level failures (refused, timeout,
// unresolved host). Retryable with backoff.
func ErrGatewayUnavailable(err error) *AppError {
	return Wrap("GW_002", "Payment gateway is unreachable", http.StatusServiceUnavailable, err)
}

// ErrGatewayRejected is an application-level rejection from the gateway.
func ErrGatewayRejected(status int, message string) *AppError {
	if message == "" {
		message = "Payment gateway rejected the request"
	}
	return New("GW_003", message, statusOr(status, http.StatusBadGateway))
}

// ---- Inbound webhook (WH) ----

func ErrMalformedPayload(detail string) *AppError {
	msg := "Malformed webhook payload"
	if detail != "" {
		msg = "Malformed webhook payload: " + detail
	}
	return New("WH_001", msg, http.StatusBadRequest)
}

func ErrInvalidSignature() *AppError {
	return New("WH_002", "Invalid webhook signature", http.StatusUnauthorized)
}

// ---- Caller authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrInvalidAdminKey() *AppError {
	return New("AUTH_002", "Invalid admin key", http.StatusUnauthorized)
}

// ---- Deposits (DEP) ----

func ErrInvalidAmount() *AppError {
	return New("DEP_001", "Invalid amount", http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New("DEP_002", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Rate limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("DEP_001", message, http.StatusBadRequest)
}

func statusOr(status, fallback int) int {
	if status >= 400 && status < 600 {
		return status
	}
	return fallback
}
