package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siga-api/internal/models"
	"github.com/noah-isme/siga-api/internal/service"
	appErrors "github.com/noah-isme/siga-api/pkg/errors"
	"github.com/noah-isme/siga-api/pkg/response"
)

// ReportHandler handles dashboard and reporting endpoints.
type ReportHandler struct {
	reports *service.ReportService
	exports *service.ExportService
}

// NewReportHandler creates a new report handler.
func NewReportHandler(reports *service.ReportService, exports *service.ExportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// Dashboard godoc
// @Summary Director dashboard
// @Description Headcounts, global averages and alert totals for a term
// @Tags Reports
// @Produce json
// @Param term_id query string false "Term filter, defaults to the active term"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	summary, err := h.reports.Dashboard(c.Request.Context(), c.Query("term_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// Alerts godoc
// @Summary Performance alerts
// @Description Low-grade and low-attendance registrations for a term
// @Tags Reports
// @Produce json
// @Param term_id query string false "Term filter, defaults to the active term"
// @Param section_id query string false "Section filter"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /reports/alerts [get]
func (h *ReportHandler) Alerts(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	professorID := ""
	if claims.Role == models.RoleProfessor {
		professorID = claims.UserID
	}

	report, err := h.reports.Alerts(c.Request.Context(), c.Query("term_id"), c.Query("section_id"), professorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, report, nil)
}

// Consolidated godoc
// @Summary Consolidated term report
// @Description Per-section averages and pass counts for a term
// @Tags Reports
// @Produce json
// @Param term_id query string false "Term filter, defaults to the active term"
// @Param subject_id query string false "Subject filter"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /reports/consolidated [get]
func (h *ReportHandler) Consolidated(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	professorID := ""
	if claims.Role == models.RoleProfessor {
		professorID = claims.UserID
	}

	report, err := h.reports.Consolidated(c.Request.Context(), c.Query("term_id"), professorID, c.Query("subject_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Export consolidated report
// @Description Download the consolidated term report as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param format query string true "Export format (csv or pdf)"
// @Param term_id query string false "Term filter, defaults to the active term"
// @Param subject_id query string false "Subject filter"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /reports/consolidated/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	professorID := ""
	if claims.Role == models.RoleProfessor {
		professorID = claims.UserID
	}

	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.exports.ConsolidatedReport(c.Request.Context(), format, c.Query("term_id"), professorID, c.Query("subject_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
