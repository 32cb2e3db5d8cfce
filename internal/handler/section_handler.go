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

// SectionHandler handles section offering endpoints.
type SectionHandler struct {
	service *service.SectionService
}

// NewSectionHandler creates a new section handler.
func NewSectionHandler(svc *service.SectionService) *SectionHandler {
	return &SectionHandler{service: svc}
}

// List godoc
// @Summary List sections
// @Tags Sections
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param subject_id query string false "Subject filter"
// @Param term_id query string false "Term filter"
// @Param professor_id query string false "Professor filter"
// @Success 200 {object} response.Envelope
// @Router /sections [get]
func (h *SectionHandler) List(c *gin.Context) {
	var filter models.SectionFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SubjectID = c.Query("subject_id")
	filter.TermID = c.Query("term_id")
	filter.ProfessorID = c.Query("professor_id")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	// Professors listing their own teaching load are scoped to themselves.
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleProfessor {
		filter.ProfessorID = claims.UserID
	}

	sections, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, sections, pagination)
}

// ListAvailable godoc
// @Summary List available sections
// @Description Active-term sections the student can still register in
// @Tags Sections
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /sections/available [get]
func (h *SectionHandler) ListAvailable(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	sections, err := h.service.ListAvailable(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, sections, nil)
}

// Get godoc
// @Summary Get section
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sections/{id} [get]
func (h *SectionHandler) Get(c *gin.Context) {
	section, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, section, nil)
}

// Create godoc
// @Summary Create section
// @Tags Sections
// @Accept json
// @Produce json
// @Param payload body service.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sections [post]
func (h *SectionHandler) Create(c *gin.Context) {
	var req service.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid section payload"))
		return
	}

	section, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, section)
}

// Update godoc
// @Summary Update section
// @Tags Sections
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body service.UpdateSectionRequest true "Section payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sections/{id} [put]
func (h *SectionHandler) Update(c *gin.Context) {
	var req service.UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid section payload"))
		return
	}

	section, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, section, nil)
}
