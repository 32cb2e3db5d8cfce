package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siga-api/internal/models"
	"github.com/noah-isme/siga-api/internal/service"
	appErrors "github.com/noah-isme/siga-api/pkg/errors"
	"github.com/noah-isme/siga-api/pkg/response"
)

// AttendanceHandler handles attendance endpoints.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Set godoc
// @Summary Record attendance
// @Description Record or correct one presence entry
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.SetAttendanceRequest true "Attendance entry"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Set(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SetAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}

	professorID := ""
	if claims.Role == models.RoleProfessor {
		professorID = claims.UserID
	}

	record, err := h.service.Set(c.Request.Context(), professorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, record, nil)
}

// ListBySection godoc
// @Summary Section attendance
// @Tags Attendance
// @Produce json
// @Param id path string true "Section ID"
// @Param date query string false "Date filter (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /sections/{id}/attendance [get]
func (h *AttendanceHandler) ListBySection(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var date *time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date format"))
			return
		}
		date = &parsed
	}

	professorID := ""
	if claims.Role == models.RoleProfessor {
		professorID = claims.UserID
	}

	rows, err := h.service.ListBySection(c.Request.Context(), c.Param("id"), professorID, date)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, rows, nil)
}

// Summary godoc
// @Summary Attendance summary
// @Description Counts, percentage and at-risk flag for one registration
// @Tags Attendance
// @Produce json
// @Param id path string true "Detail ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/{id}/summary [get]
func (h *AttendanceHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// SetSummary godoc
// @Summary Backfill attendance counts
// @Description Replace a registration's attendance history with the given tally
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Detail ID"
// @Param payload body service.SetAttendanceSummaryRequest true "Counts"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /attendance/{id}/summary [put]
func (h *AttendanceHandler) SetSummary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SetAttendanceSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid summary payload"))
		return
	}

	professorID := ""
	if claims.Role == models.RoleProfessor {
		professorID = claims.UserID
	}

	summary, err := h.service.SetSummary(c.Request.Context(), c.Param("id"), professorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}
