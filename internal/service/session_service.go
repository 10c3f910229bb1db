package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/classifieds-import-api/internal/config"
	"github.com/classifieds-import-api/internal/models"
	"github.com/classifieds-import-api/internal/repository"
	"github.com/classifieds-import-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// sessionService is the concrete implementation of SessionService
type sessionService struct {
	repos *repository.Repositories
	cfg   *config.Config
	log   zerolog.Logger
}

// newSessionService creates a new SessionService
func newSessionService(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *sessionService {
	return &sessionService{
		repos: repos,
		cfg:   cfg,
		log:   log.With().Str("service", "session").Logger(),
	}
}

// CreateSession parses an uploaded CSV into a pending validation session.
// The header is matched case-insensitively against the field registry;
// unregistered columns are dropped. No users are created here.
func (s *sessionService) CreateSession(ctx context.Context, adminID, filename, contentType string, file io.Reader) (*models.ValidationSession, error) {
	if !isCSV(filename, contentType) {
		return nil, &UploadError{Reason: "file must be a CSV (.csv)"}
	}

	reader := csv.NewReader(file)
	// Column count may vary per row; missing trailing cells read as empty
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, &UploadError{Reason: "file could not be parsed as CSV"}
	}

	columns := mapHeader(header)

	var missing []string
	for _, field := range models.RequiredFields {
		if _, ok := columns[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &UploadError{Reason: fmt.Sprintf("missing required column(s): %s", strings.Join(missing, ", "))}
	}

	var rows []models.RawRow
	index := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &UploadError{Reason: fmt.Sprintf("file could not be parsed as CSV (row %d)", index+1)}
		}

		index++
		if index > s.cfg.Import.MaxRows {
			return nil, &UploadError{Reason: fmt.Sprintf("file exceeds the maximum of %d rows", s.cfg.Import.MaxRows)}
		}

		values := make(map[string]string, len(columns))
		for name, pos := range columns {
			if pos < len(record) {
				values[name] = record[pos]
			}
		}
		rows = append(rows, models.RawRow{Index: index, Values: values})
	}

	now := time.Now()
	session := &models.ValidationSession{
		ID:          uuid.New().String(),
		SubmittedBy: adminID,
		Rows:        rows,
		TotalRows:   len(rows),
		Validated:   false,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.Import.SessionTTL),
	}

	if err := s.repos.Session.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	s.log.Info().
		Str("validation_id", session.ID).
		Str("admin_id", adminID).
		Str("file", filename).
		Int("total_rows", session.TotalRows).
		Msg("Validation session created")

	return session, nil
}

// Validate re-reads the stored rows and runs the validation engine over
// them. On success the session is marked validated; on failure it stays
// import-ineligible. Repeated calls on an unchanged session return the
// same result.
func (s *sessionService) Validate(ctx context.Context, sessionID string) (*models.ValidationResult, error) {
	session, err := s.repos.Session.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	rowErrors := validation.ValidateSession(session.Rows)
	if rowErrors == nil {
		rowErrors = []models.RowError{}
	}

	result := &models.ValidationResult{
		Valid:      len(rowErrors) == 0,
		TotalRows:  session.TotalRows,
		ErrorCount: len(rowErrors),
		Errors:     rowErrors,
	}

	if session.Validated != result.Valid {
		session.Validated = result.Valid
		if err := s.repos.Session.Save(ctx, session); err != nil {
			return nil, fmt.Errorf("update session: %w", err)
		}
	}

	s.log.Info().
		Str("validation_id", sessionID).
		Bool("valid", result.Valid).
		Int("error_count", result.ErrorCount).
		Msg("Session validated")

	return result, nil
}

// isCSV accepts a payload declared as CSV by extension or content type
func isCSV(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		return true
	}
	return strings.Contains(strings.ToLower(contentType), "csv")
}

// mapHeader maps registered column names (case-insensitive) to their
// position in the file; unknown headers are ignored.
func mapHeader(header []string) map[string]int {
	registered := make(map[string]bool, len(models.RequiredFields)+len(models.OptionalFields))
	for _, f := range models.RequiredFields {
		registered[f] = true
	}
	for _, f := range models.OptionalFields {
		registered[f] = true
	}

	columns := make(map[string]int)
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if registered[name] {
			columns[name] = i
		}
	}
	return columns
}
