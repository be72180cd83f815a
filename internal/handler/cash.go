package handler

import (
	"net/http"

	"pastel24h/internal/apierror"
	"pastel24h/internal/dto"
	"pastel24h/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CashHandler struct{ svc service.CashService }

func NewCashHandler(svc service.CashService) *CashHandler { return &CashHandler{svc: svc} }

// CreateAdjustment godoc
// @Summary Registra sangria ou ajuste de caixa
// @Tags cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateAdjustmentRequest true "Movimento"
// @Success 201 {object} dto.AdjustmentResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/cash-adjustments [post]
func (h *CashHandler) CreateAdjustment(c *gin.Context) {
	var req dto.CreateAdjustmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateAdjustment(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary Lista movimentos de caixa
// @Tags cash
// @Produce json
// @Security BearerAuth
// @Param shiftId query string false "Filtra por turno"
// @Success 200 {array} dto.AdjustmentResponse
// @Router /v1/cash-adjustments [get]
func (h *CashHandler) List(c *gin.Context) {
	var shiftID *uuid.UUID
	if raw := c.Query("shiftId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.APIError{Detail: "ID inválido", Field: "shiftId"})
			return
		}
		shiftID = &id
	}
	resp, err := h.svc.ListAdjustments(c.Request.Context(), shiftID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PendingWithdrawals godoc
// @Summary Sangrias do último turno fechado
// @Tags cash
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.PendingWithdrawalsResponse
// @Router /v1/cash-adjustments/pending-withdrawals [get]
func (h *CashHandler) PendingWithdrawals(c *gin.Context) {
	resp, err := h.svc.PendingWithdrawals(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
