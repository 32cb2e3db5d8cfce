package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siga-api/internal/models"
	"github.com/noah-isme/siga-api/internal/service"
	appErrors "github.com/noah-isme/siga-api/pkg/errors"
	"github.com/noah-isme/siga-api/pkg/response"
)

// EnrollmentHandler handles subject registration endpoints.
type EnrollmentHandler struct {
	service *service.EnrollmentService
}

// NewEnrollmentHandler creates a new enrollment handler.
func NewEnrollmentHandler(svc *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// EnrollRequest is the registration payload.
type EnrollRequest struct {
	SectionID string `json:"section_id" binding:"required"`
}

// Enroll godoc
// @Summary Register in a section
// @Description Register the student in an active-term section
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param payload body EnrollRequest true "Section to register"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /enrollment [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}

	detail, err := h.service.Enroll(c.Request.Context(), claims.UserID, req.SectionID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, detail)
}

// Withdraw godoc
// @Summary Withdraw a registration
// @Description Remove a registration and release its seat
// @Tags Enrollment
// @Produce json
// @Param id path string true "Detail ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollment/{id} [delete]
func (h *EnrollmentHandler) Withdraw(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	ownerID := ""
	if claims.Role == models.RoleStudent {
		ownerID = claims.UserID
	}

	if err := h.service.Withdraw(c.Request.Context(), c.Param("id"), ownerID, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Info godoc
// @Summary Enrollment summary
// @Description Subject count and remaining slots for the active term
// @Tags Enrollment
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /enrollment/info [get]
func (h *EnrollmentHandler) Info(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	info, err := h.service.Info(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, info, nil)
}

// Sections godoc
// @Summary Student schedule
// @Description The student's registered sections for the active term
// @Tags Enrollment
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /enrollment/sections [get]
func (h *EnrollmentHandler) Sections(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	sections, err := h.service.StudentSections(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, sections, nil)
}

// Roster godoc
// @Summary Section roster
// @Description Students registered in a section
// @Tags Enrollment
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /sections/{id}/roster [get]
func (h *EnrollmentHandler) Roster(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	professorID := ""
	if claims.Role == models.RoleProfessor {
		professorID = claims.UserID
	}

	roster, err := h.service.Roster(c.Request.Context(), c.Param("id"), professorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, roster, nil)
}
