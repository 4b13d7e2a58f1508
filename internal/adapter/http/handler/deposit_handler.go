package handler

import (
	"pixbridge/internal/adapter/http/dto"
	"pixbridge/internal/adapter/http/middleware"
	"pixbridge/internal/core/ports"
	"pixbridge/pkg/apperror"
	"pixbridge/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DepositHandler handles deposit creation and status queries.
type DepositHandler struct {
	deposits ports.DepositService
}

// NewDepositHandler creates a DepositHandler.
func NewDepositHandler(deposits ports.DepositService) *DepositHandler {
	return &DepositHandler{deposits: deposits}
}

// Create handles POST /api/v1/deposits.
func (h *DepositHandler) Create(c *gin.Context) {
	userID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	email, _ := c.Get(middleware.CtxEmail)
	userEmail, _ := email.(string)

	var req dto.CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.deposits.CreateDeposit(c.Request.Context(), ports.DepositRequest{
		UserID:      userID.(int64),
		UserEmail:   userEmail,
		AmountMajor: req.Amount,
		Description: req.Description,
		Reference:   req.Reference,
		ClientIP:    c.ClientIP(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromDepositResult(result))
}

// Get handles GET /api/v1/deposits/:id.
func (h *DepositHandler) Get(c *gin.Context) {
	userID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid deposit id"))
		return
	}

	status, err := h.deposits.GetDeposit(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	// Deposits are visible to their owner only.
	if status.Transaction.UserID != userID.(int64) {
		response.Error(c, apperror.ErrNotFound("Deposit"))
		return
	}

	resp := dto.DepositStatusResponse{Transaction: dto.FromTransaction(status.Transaction)}
	if status.Gateway != nil {
		gw := status.Gateway.Status
		resp.GatewayStatus = &gw
	}
	response.OK(c, resp)
}
