package service

import (
	"context"
	"errors"
	"io"

	"github.com/classifieds-import-api/internal/config"
	"github.com/classifieds-import-api/internal/directory"
	"github.com/classifieds-import-api/internal/models"
	"github.com/classifieds-import-api/internal/repository"
	"github.com/rs/zerolog"
)

// Sentinel errors the API layer translates to HTTP statuses.
var (
	ErrSessionNotFound     = errors.New("validation session expired or not found")
	ErrSessionNotValidated = errors.New("session has not passed validation")
	ErrJobNotFound         = errors.New("import job not found")
	ErrReportNotFound      = errors.New("password report not found")
)

// UploadError is a malformed-upload failure (not CSV, missing columns,
// over the row limit), surfaced synchronously as a client error.
type UploadError struct {
	Reason string
}

func (e *UploadError) Error() string {
	return e.Reason
}

// Executor runs an import job's background unit of work. Production uses
// GoExecutor; tests inject a synchronous one so the state machine runs
// inline.
type Executor func(run func())

// GoExecutor runs each unit in its own goroutine.
func GoExecutor(run func()) {
	go run()
}

// SessionService covers upload parsing and the validation engine.
type SessionService interface {
	CreateSession(ctx context.Context, adminID, filename, contentType string, file io.Reader) (*models.ValidationSession, error)
	Validate(ctx context.Context, sessionID string) (*models.ValidationResult, error)
}

// JobService covers import job submission, execution and queries.
type JobService interface {
	StartImport(ctx context.Context, sessionID, adminID string) (*models.ImportJob, error)
	// Run executes the job with the given id to completion or failure. It
	// is handed to the Executor by StartImport and owns the job record
	// exclusively for the duration of the run.
	Run(jobID string)
	GetJob(ctx context.Context, id string) (*models.ImportJob, error)
	History(ctx context.Context, adminID string, page, limit int) ([]*models.ImportJob, int, error)
}

// ReportService covers password report retrieval with ownership checks.
type ReportService interface {
	GetReport(ctx context.Context, reportID, adminID string) (*models.PasswordReport, error)
}

// Services holds all service interfaces
type Services struct {
	Session SessionService
	Job     JobService
	Report  ReportService
}

// NewServices creates all services
func NewServices(
	repos *repository.Repositories,
	users directory.UserDirectory,
	notifier directory.Notifier,
	cfg *config.Config,
	exec Executor,
	log zerolog.Logger,
) *Services {
	return &Services{
		Session: newSessionService(repos, cfg, log),
		Job:     newJobService(repos, users, notifier, cfg, exec, log),
		Report:  newReportService(repos, log),
	}
}
