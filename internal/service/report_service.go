package service

import (
	"context"
	"fmt"

	"github.com/classifieds-import-api/internal/models"
	"github.com/classifieds-import-api/internal/repository"
	"github.com/rs/zerolog"
)

// reportService is the concrete implementation of ReportService
type reportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newReportService creates a new ReportService
func newReportService(repos *repository.Repositories, log zerolog.Logger) *reportService {
	return &reportService{
		repos: repos,
		log:   log.With().Str("service", "report").Logger(),
	}
}

// GetReport returns the report only to the admin that owns it. An unknown
// id and a foreign owner are indistinguishable to the caller, so report
// existence is never leaked.
func (s *reportService) GetReport(ctx context.Context, reportID, adminID string) (*models.PasswordReport, error) {
	report, err := s.repos.Report.GetByID(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	if report == nil || report.OwnerAdminID != adminID {
		return nil, ErrReportNotFound
	}

	s.log.Info().
		Str("report_id", reportID).
		Str("admin_id", adminID).
		Int("rows", len(report.Rows)).
		Msg("Password report downloaded")

	return report, nil
}
