package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/classifieds-import-api/internal/config"
	"github.com/classifieds-import-api/internal/directory"
	"github.com/classifieds-import-api/internal/models"
	"github.com/classifieds-import-api/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// jobService is the concrete implementation of JobService
type jobService struct {
	repos    *repository.Repositories
	users    directory.UserDirectory
	notifier directory.Notifier
	cfg      *config.Config
	exec     Executor
	log      zerolog.Logger
}

// newJobService creates a new JobService
func newJobService(
	repos *repository.Repositories,
	users directory.UserDirectory,
	notifier directory.Notifier,
	cfg *config.Config,
	exec Executor,
	log zerolog.Logger,
) *jobService {
	return &jobService{
		repos:    repos,
		users:    users,
		notifier: notifier,
		cfg:      cfg,
		exec:     exec,
		log:      log.With().Str("service", "job").Logger(),
	}
}

// StartImport checks the session synchronously, creates the job record and
// hands the run to the executor. It never blocks on row processing.
func (s *jobService) StartImport(ctx context.Context, sessionID, adminID string) (*models.ImportJob, error) {
	session, err := s.repos.Session.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if !session.Validated {
		return nil, ErrSessionNotValidated
	}

	job := &models.ImportJob{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		AdminID:   adminID,
		Status:    models.JobStatusPending,
		CreatedAt: time.Now(),
	}
	if err := s.repos.Job.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.log.Info().
		Str("job_id", job.ID).
		Str("validation_id", sessionID).
		Str("admin_id", adminID).
		Int("total_rows", session.TotalRows).
		Msg("Import job created")

	jobID := job.ID
	s.exec(func() { s.Run(jobID) })

	return job, nil
}

// Run executes one import job to completion or failure. It is the only
// writer of the job record while it runs; the API layer only reads.
// A panic never escapes: it is recorded on the job and the process keeps
// serving other jobs.
func (s *jobService) Run(jobID string) {
	ctx := context.Background()
	log := s.log.With().Str("job_id", jobID).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Import job panicked - recovered")
			if job, err := s.repos.Job.GetByID(ctx, jobID); err == nil && job != nil && !job.Finished() {
				s.fail(ctx, job, "internal error during import")
			}
		}
	}()

	job, err := s.repos.Job.GetByID(ctx, jobID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load job")
		return
	}
	if job == nil {
		log.Error().Msg("Job record disappeared before the run started")
		return
	}

	// Defensive re-check: the session must still exist and be validated
	job.Status = models.JobStatusValidating
	if err := s.repos.Job.Update(ctx, job); err != nil {
		log.Error().Err(err).Msg("Failed to update job status")
		return
	}

	session, err := s.repos.Session.Get(ctx, job.SessionID)
	if err != nil {
		s.fail(ctx, job, "session store unavailable")
		return
	}
	if session == nil {
		s.fail(ctx, job, "validation session expired before import")
		return
	}
	if !session.Validated {
		s.fail(ctx, job, "session has not passed validation")
		return
	}

	job.Status = models.JobStatusImporting
	if err := s.repos.Job.Update(ctx, job); err != nil {
		log.Error().Err(err).Msg("Failed to update job status")
		return
	}

	total := len(session.Rows)
	imported, failed := 0, 0
	credentials := make([]models.CredentialRow, 0, total)

	for i, row := range session.Rows {
		email := strings.TrimSpace(row.Values["email"])
		role := strings.ToLower(strings.TrimSpace(row.Values["role"]))
		if role == "" {
			role = models.DefaultRole
		}

		password, err := GeneratePassword(s.cfg.Import.PasswordLength)
		if err != nil {
			s.fail(ctx, job, "password generation failed")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			s.fail(ctx, job, "password hashing failed")
			return
		}

		_, err = s.users.CreateUser(ctx, directory.NewUser{
			Email:        email,
			FirstName:    strings.TrimSpace(row.Values["first_name"]),
			LastName:     strings.TrimSpace(row.Values["last_name"]),
			Role:         role,
			PasswordHash: string(hash),
		})
		switch {
		case errors.Is(err, directory.ErrDuplicateUser):
			// The email exists elsewhere in the marketplace; skip the
			// row, the rest of the job proceeds.
			failed++
			log.Warn().Int("row", row.Index).Str("email", email).Msg("Skipping already registered user")
		case err != nil:
			s.fail(ctx, job, fmt.Sprintf("user creation failed on row %d: %v", row.Index, err))
			return
		default:
			imported++
			credentials = append(credentials, models.CredentialRow{Email: email, Password: password})
		}

		if progress := (i + 1) * 100 / total; progress > job.Progress {
			job.Progress = progress
			if err := s.repos.Job.Update(ctx, job); err != nil {
				log.Error().Err(err).Msg("Failed to update job progress")
			}
		}
	}

	report := &models.PasswordReport{
		ID:           uuid.New().String(),
		OwnerAdminID: job.AdminID,
		Rows:         credentials,
		CreatedAt:    time.Now(),
	}
	if err := s.repos.Report.Create(ctx, report); err != nil {
		s.fail(ctx, job, "storing password report failed")
		return
	}

	now := time.Now()
	job.Status = models.JobStatusCompleted
	job.Progress = 100
	job.Result = &models.JobResult{
		Imported:         imported,
		Failed:           failed,
		PasswordReportID: report.ID,
	}
	job.CompletedAt = &now
	if err := s.repos.Job.Update(ctx, job); err != nil {
		log.Error().Err(err).Msg("Failed to record job completion")
		return
	}

	message := fmt.Sprintf("Bulk user import finished: %d imported, %d skipped", imported, failed)
	if err := s.notifier.NotifyAdmin(ctx, job.AdminID, message, map[string]interface{}{
		"job_id":             job.ID,
		"imported":           imported,
		"failed":             failed,
		"password_report_id": report.ID,
	}); err != nil {
		log.Error().Err(err).Msg("Failed to notify admin")
	}

	log.Info().
		Int("imported", imported).
		Int("failed", failed).
		Str("report_id", report.ID).
		Msg("Import job completed")
}

// fail moves the job to its terminal failed state. Users created before
// the failure stay created; there is no rollback, operators reconcile via
// the history endpoint.
func (s *jobService) fail(ctx context.Context, job *models.ImportJob, reason string) {
	now := time.Now()
	job.Status = models.JobStatusFailed
	job.Error = reason
	job.CompletedAt = &now
	if err := s.repos.Job.Update(ctx, job); err != nil {
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to record job failure")
	}
	s.log.Error().Str("job_id", job.ID).Str("reason", reason).Msg("Import job failed")
}

// GetJob is a pure point read of the current job state
func (s *jobService) GetJob(ctx context.Context, id string) (*models.ImportJob, error) {
	job, err := s.repos.Job.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// History lists past jobs newest first, optionally filtered to one admin.
func (s *jobService) History(ctx context.Context, adminID string, page, limit int) ([]*models.ImportJob, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.repos.Job.List(ctx, adminID, limit, (page-1)*limit)
}
