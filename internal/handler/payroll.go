package handler

import (
	"fmt"
	"net/http"

	"pastel24h/internal/dto"
	"pastel24h/internal/service"

	"github.com/gin-gonic/gin"
)

type PayrollHandler struct{ svc service.PayrollService }

func NewPayrollHandler(svc service.PayrollService) *PayrollHandler {
	return &PayrollHandler{svc: svc}
}

// Calculate godoc
// @Summary Prévia da folha semanal (nada é gravado)
// @Tags payroll
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.PayrollRequest true "Parâmetros da semana"
// @Success 200 {object} dto.PayrollPreviewResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/payroll/calculate [post]
func (h *PayrollHandler) Calculate(c *gin.Context) {
	var req dto.PayrollRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Calculate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Save godoc
// @Summary Grava (ou substitui) o relatório da semana e agenda o PDF
// @Tags payroll
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.PayrollRequest true "Parâmetros da semana"
// @Success 201 {object} dto.WeeklyReportResponse
// @Router /v1/payroll/reports [post]
func (h *PayrollHandler) Save(c *gin.Context) {
	var req dto.PayrollRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Save(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListReports godoc
// @Summary Relatórios semanais gravados
// @Tags payroll
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.WeeklyReportResponse
// @Router /v1/payroll/reports [get]
func (h *PayrollHandler) ListReports(c *gin.Context) {
	resp, err := h.svc.ListReports(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetReport godoc
// @Summary Relatório semanal
// @Tags payroll
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do relatório"
// @Success 200 {object} dto.WeeklyReportResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/payroll/reports/{id} [get]
func (h *PayrollHandler) GetReport(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DownloadPDF godoc
// @Summary Baixa o PDF do relatório semanal
// @Tags payroll
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "ID do relatório"
// @Success 200 {file} binary
// @Failure 404 {object} apierror.APIError
// @Router /v1/payroll/reports/{id}/pdf [get]
func (h *PayrollHandler) DownloadPDF(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	pdf, filename, err := h.svc.ExportPDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
