package handler

import (
	"net/http"

	"pastel24h/internal/dto"
	"pastel24h/internal/service"

	"github.com/gin-gonic/gin"
)

type ShiftsHandler struct {
	svc       service.ShiftService
	inventory service.InventoryService
}

func NewShiftsHandler(svc service.ShiftService, inventory service.InventoryService) *ShiftsHandler {
	return &ShiftsHandler{svc: svc, inventory: inventory}
}

// Open godoc
// @Summary Abre um turno, herdando caixa e sobras do último turno fechado
// @Tags shifts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenShiftRequest true "Dados de abertura"
// @Success 201 {object} dto.OpenShiftResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/shifts [post]
func (h *ShiftsHandler) Open(c *gin.Context) {
	var req dto.OpenShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Open(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary Fecha o turno com conciliação de vendas e caixa
// @Tags shifts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do turno"
// @Param body body dto.CloseShiftRequest true "Declaração de fechamento"
// @Success 200 {object} dto.ShiftResponse
// @Failure 400 {object} apierror.APIError
// @Failure 403 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/shifts/{id}/close [post]
func (h *ShiftsHandler) Close(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CloseShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Close(c.Request.Context(), id, currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Current godoc
// @Summary Turno aberto atual
// @Tags shifts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ShiftResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/shifts/current [get]
func (h *ShiftsHandler) Current(c *gin.Context) {
	resp, err := h.svc.Current(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Detalhe do turno com registros e pagamentos
// @Tags shifts
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do turno"
// @Success 200 {object} dto.ShiftResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/shifts/{id} [get]
func (h *ShiftsHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary Lista turnos
// @Tags shifts
// @Produce json
// @Security BearerAuth
// @Param from query string false "Data inicial (YYYY-MM-DD)"
// @Param to query string false "Data final (YYYY-MM-DD)"
// @Param status query string false "open | closed"
// @Param userId query string false "Operador"
// @Param page query int false "Página"
// @Param limit query int false "Itens por página"
// @Success 200 {object} dto.ShiftListResponse
// @Router /v1/shifts [get]
func (h *ShiftsHandler) List(c *gin.Context) {
	var filter dto.ShiftFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Snapshot godoc
// @Summary Snapshot de herança gravado na abertura
// @Tags shifts
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do turno"
// @Success 200 {object} dto.SnapshotResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/shifts/{id}/snapshot [get]
func (h *ShiftsHandler) Snapshot(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Snapshot(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpsertPayment godoc
// @Summary Grava os totais por forma de pagamento
// @Tags shifts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do turno"
// @Param body body dto.PaymentInput true "Pagamentos"
// @Success 200 {object} dto.PaymentResponse
// @Router /v1/shifts/{id}/payment [put]
func (h *ShiftsHandler) UpsertPayment(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.PaymentInput
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpsertPayment(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SaveDraft godoc
// @Summary Salva a contagem parcial do caixa
// @Tags shifts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do turno"
// @Param body body dto.SaveDraftRequest true "Rascunho"
// @Success 200 {object} dto.ShiftResponse
// @Router /v1/shifts/{id}/draft [patch]
func (h *ShiftsHandler) SaveDraft(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SaveDraftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SaveDraft(c.Request.Context(), id, currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpsertRecord godoc
// @Summary Cria ou atualiza o registro de estoque de um produto no turno
// @Tags inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do turno"
// @Param body body dto.RecordInput true "Quantidades"
// @Success 200 {object} dto.RecordResponse
// @Failure 403 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/shifts/{id}/records [put]
func (h *ShiftsHandler) UpsertRecord(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.RecordInput
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.inventory.UpsertRecord(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListRecords godoc
// @Summary Registros de estoque do turno
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do turno"
// @Success 200 {array} dto.RecordResponse
// @Router /v1/shifts/{id}/records [get]
func (h *ShiftsHandler) ListRecords(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.inventory.ListRecords(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LowStock godoc
// @Summary Produtos abaixo do estoque mínimo no turno aberto
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.LowStockAlert
// @Router /v1/inventory/low-stock [get]
func (h *ShiftsHandler) LowStock(c *gin.Context) {
	resp, err := h.inventory.LowStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
