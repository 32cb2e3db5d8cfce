package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siga-api/internal/models"
	"github.com/noah-isme/siga-api/internal/service"
	appErrors "github.com/noah-isme/siga-api/pkg/errors"
	"github.com/noah-isme/siga-api/pkg/response"
)

// ObservationHandler handles observation endpoints.
type ObservationHandler struct {
	service *service.ObservationService
}

// NewObservationHandler creates a new observation handler.
func NewObservationHandler(svc *service.ObservationService) *ObservationHandler {
	return &ObservationHandler{service: svc}
}

// Create godoc
// @Summary Add observation
// @Description Attach a note to a registration
// @Tags Observations
// @Accept json
// @Produce json
// @Param payload body service.CreateObservationRequest true "Observation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /observations [post]
func (h *ObservationHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateObservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid observation payload"))
		return
	}

	obs, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, obs)
}

// Update godoc
// @Summary Update observation
// @Tags Observations
// @Accept json
// @Produce json
// @Param id path string true "Observation ID"
// @Param payload body service.UpdateObservationRequest true "Observation payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /observations/{id} [put]
func (h *ObservationHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateObservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid observation payload"))
		return
	}

	professorID := ""
	if claims.Role == models.RoleProfessor {
		professorID = claims.UserID
	}

	obs, err := h.service.Update(c.Request.Context(), c.Param("id"), professorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, obs, nil)
}

// List godoc
// @Summary List observations
// @Tags Observations
// @Produce json
// @Param section_id query string false "Section filter"
// @Param student_id query string false "Student filter"
// @Param category query string false "Category filter"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /observations [get]
func (h *ObservationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.ObservationFilter{
		SectionID: c.Query("section_id"),
		StudentID: c.Query("student_id"),
		Category:  models.ObservationCategory(c.Query("category")),
		Status:    models.ObservationStatus(c.Query("status")),
	}

	// Students see only their own notes.
	if claims.Role == models.RoleStudent {
		filter.StudentID = claims.UserID
	}

	rows, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, rows, nil)
}
