package handler

import (
	"net/http"
	"strconv"

	"pastel24h/internal/dto"
	"pastel24h/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductsHandler struct{ svc service.ProductService }

func NewProductsHandler(svc service.ProductService) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

// Create godoc
// @Summary Cadastra produto
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateProductRequest true "Produto"
// @Success 201 {object} dto.ProductResponse
// @Failure 400 {object} apierror.ValidationError
// @Router /v1/products [post]
func (h *ProductsHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary Lista produtos
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param name query string false "Filtro por nome"
// @Param category query string false "Categoria"
// @Success 200 {array} dto.ProductResponse
// @Router /v1/products [get]
func (h *ProductsHandler) List(c *gin.Context) {
	var filter dto.ProductFilter
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

// Get godoc
// @Summary Obtém produto
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do produto"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/products/{id} [get]
func (h *ProductsHandler) Get(c *gin.Context) {
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

// Update godoc
// @Summary Atualiza produto (mudança de preço gera histórico)
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do produto"
// @Param body body dto.UpdateProductRequest true "Campos alterados"
// @Success 200 {object} dto.ProductResponse
// @Router /v1/products/{id} [put]
func (h *ProductsHandler) Update(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary Remove produto sem registros de turno
// @Tags products
// @Security BearerAuth
// @Param id path string true "ID do produto"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/products/{id} [delete]
func (h *ProductsHandler) Delete(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PriceHistory godoc
// @Summary      Histórico de preços de um produto
// @Description  Histórico imutável de mudanças de preço, do mais recente ao mais antigo.
// @Tags         products
// @Security     BearerAuth
// @Param        id    path     string  true  "ID do produto"
// @Param        page  query    int     false "Página (default 1)"
// @Param        limit query    int     false "Registros por página (default 50, max 200)"
// @Success      200   {object} dto.PriceHistoryListResponse
// @Failure      404   {object} apierror.APIError
// @Router       /v1/products/{id}/price-history [get]
func (h *ProductsHandler) PriceHistory(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	resp, err := h.svc.PriceHistory(c.Request.Context(), id, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Menu godoc
// @Summary Cardápio público (sem autenticação)
// @Tags menu
// @Produce json
// @Success 200 {array} dto.MenuItem
// @Router /v1/menu [get]
func (h *ProductsHandler) Menu(c *gin.Context) {
	resp, err := h.svc.Menu(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.JSON(http.StatusOK, resp)
}
