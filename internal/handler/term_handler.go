package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siga-api/internal/models"
	"github.com/noah-isme/siga-api/internal/service"
	appErrors "github.com/noah-isme/siga-api/pkg/errors"
	"github.com/noah-isme/siga-api/pkg/response"
)

// TermHandler handles term lifecycle endpoints.
type TermHandler struct {
	service *service.TermService
}

// NewTermHandler creates a new term handler.
func NewTermHandler(svc *service.TermService) *TermHandler {
	return &TermHandler{service: svc}
}

// List godoc
// @Summary List terms
// @Tags Terms
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /terms [get]
func (h *TermHandler) List(c *gin.Context) {
	var filter models.TermFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	filter.Status = models.TermStatus(c.Query("status"))
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	terms, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, terms, pagination)
}

// GetActive godoc
// @Summary Get active term
// @Tags Terms
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /terms/active [get]
func (h *TermHandler) GetActive(c *gin.Context) {
	term, err := h.service.GetActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, term, nil)
}

// Get godoc
// @Summary Get term
// @Tags Terms
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /terms/{id} [get]
func (h *TermHandler) Get(c *gin.Context) {
	term, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, term, nil)
}

// Create godoc
// @Summary Create term
// @Description Create a term in closed state
// @Tags Terms
// @Accept json
// @Produce json
// @Param payload body service.CreateTermRequest true "Term payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /terms [post]
func (h *TermHandler) Create(c *gin.Context) {
	var req service.CreateTermRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid term payload"))
		return
	}

	term, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, term)
}

// Activate godoc
// @Summary Activate term
// @Description Make this term the single active one
// @Tags Terms
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /terms/{id}/activate [post]
func (h *TermHandler) Activate(c *gin.Context) {
	term, err := h.service.Activate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, term, nil)
}

// Close godoc
// @Summary Close term
// @Description Resolve outcomes and close the term
// @Tags Terms
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /terms/{id}/close [post]
func (h *TermHandler) Close(c *gin.Context) {
	term, err := h.service.Close(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, term, nil)
}
