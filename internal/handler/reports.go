package handler

import (
	"net/http"
	"strconv"

	"pastel24h/internal/dto"
	"pastel24h/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportsHandler struct {
	stats    service.ReportService
	timeline service.TimelineService
}

func NewReportsHandler(stats service.ReportService, timeline service.TimelineService) *ReportsHandler {
	return &ReportsHandler{stats: stats, timeline: timeline}
}

// Stats godoc
// @Summary Indicadores de vendas do período
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param from query string true "Data inicial (YYYY-MM-DD)"
// @Param to query string true "Data final (YYYY-MM-DD)"
// @Param top query int false "Quantidade de produtos no ranking (default 5)"
// @Success 200 {object} dto.StatsResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/reports/stats [get]
func (h *ReportsHandler) Stats(c *gin.Context) {
	var filter dto.StatsFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.stats.Stats(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Timeline godoc
// @Summary Linha do tempo de eventos
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param action query string false "Filtra por ação"
// @Param page query int false "Página (default 1)"
// @Param limit query int false "Itens por página (default 50)"
// @Success 200 {object} dto.TimelineListResponse
// @Router /v1/timeline [get]
func (h *ReportsHandler) Timeline(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	resp, err := h.timeline.List(c.Request.Context(), c.Query("action"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
