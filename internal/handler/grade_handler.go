package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siga-api/internal/models"
	"github.com/noah-isme/siga-api/internal/service"
	appErrors "github.com/noah-isme/siga-api/pkg/errors"
	"github.com/noah-isme/siga-api/pkg/response"
)

// GradeHandler handles grade recording endpoints.
type GradeHandler struct {
	service *service.GradeService
}

// NewGradeHandler creates a new grade handler.
func NewGradeHandler(svc *service.GradeService) *GradeHandler {
	return &GradeHandler{service: svc}
}

// Upsert godoc
// @Summary Record grades
// @Description Merge category scores for a registration and recompute the average
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Detail ID"
// @Param payload body models.GradeUpdate true "Partial scores"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /grades/{id} [put]
func (h *GradeHandler) Upsert(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var update models.GradeUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grade payload"))
		return
	}

	professorID := ""
	if claims.Role == models.RoleProfessor {
		professorID = claims.UserID
	}

	record, err := h.service.Upsert(c.Request.Context(), c.Param("id"), professorID, update)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, record, nil)
}

// ListBySection godoc
// @Summary Section grade sheet
// @Tags Grades
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /sections/{id}/grades [get]
func (h *GradeHandler) ListBySection(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	professorID := ""
	if claims.Role == models.RoleProfessor {
		professorID = claims.UserID
	}

	rows, err := h.service.ListBySection(c.Request.Context(), c.Param("id"), professorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, rows, nil)
}

// ListMine godoc
// @Summary Student grades
// @Description The student's own grades, defaulting to the active term
// @Tags Grades
// @Produce json
// @Param term_id query string false "Term filter, defaults to the active term"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	grades, err := h.service.ListByStudent(c.Request.Context(), claims.UserID, c.Query("term_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, grades, nil)
}
