package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/siga-api/internal/models"
	"github.com/noah-isme/siga-api/pkg/export"
	appErrors "github.com/noah-isme/siga-api/pkg/errors"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult is a rendered report ready to stream to the client.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders the consolidated term report as a downloadable file.
// Rendering is synchronous; reports are small enough that a job queue would
// only add moving parts.
type ExportService struct {
	reports *ReportService
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(reports *ReportService, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{reports: reports, csv: csv, pdf: pdf, logger: logger}
}

// ConsolidatedReport renders the consolidated report in the requested format.
// An empty termID targets the active term.
func (s *ExportService) ConsolidatedReport(ctx context.Context, format ExportFormat, termID, professorID, subjectID string) (*ExportResult, error) {
	report, err := s.reports.Consolidated(ctx, termID, professorID, subjectID)
	if err != nil {
		return nil, err
	}

	dataset := consolidatedDataset(report)
	stamp := time.Now().UTC().Format("20060102")

	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("consolidated-report-%s.csv", stamp),
			ContentType: "text/csv",
			Payload:     payload,
		}, nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, "Consolidated Term Report")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("consolidated-report-%s.pdf", stamp),
			ContentType: "application/pdf",
			Payload:     payload,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func consolidatedDataset(report *models.ConsolidatedReport) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"subject", "professor", "students", "average", "passed", "failed"},
	}
	for _, row := range report.Sections {
		average := ""
		if row.Average != nil {
			average = strconv.FormatFloat(*row.Average, 'f', 2, 64)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"subject":   row.SubjectName,
			"professor": row.ProfessorName,
			"students":  strconv.Itoa(row.Students),
			"average":   average,
			"passed":    strconv.Itoa(row.Passed),
			"failed":    strconv.Itoa(row.Failed),
		})
	}
	return dataset
}
