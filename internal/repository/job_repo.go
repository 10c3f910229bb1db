package repository

import (
	"context"
	"database/sql"

	"github.com/classifieds-import-api/internal/database"
	"github.com/classifieds-import-api/internal/models"
)

// jobRepo is the concrete Postgres implementation of JobRepository
type jobRepo struct {
	db *database.DB
}

// NewJobRepo creates a new job repository
func NewJobRepo(db *database.DB) JobRepository {
	return &jobRepo{db: db}
}

// Create inserts a new import job
func (r *jobRepo) Create(ctx context.Context, job *models.ImportJob) error {
	query := `
		INSERT INTO import_jobs (id, session_id, admin_id, status, progress, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.SessionID, job.AdminID, job.Status, job.Progress, job.CreatedAt,
	)
	return err
}

// Update writes status, progress, result counters and error back to the row
func (r *jobRepo) Update(ctx context.Context, job *models.ImportJob) error {
	var imported, failed sql.NullInt64
	var reportID sql.NullString
	if job.Result != nil {
		imported = sql.NullInt64{Int64: int64(job.Result.Imported), Valid: true}
		failed = sql.NullInt64{Int64: int64(job.Result.Failed), Valid: true}
		reportID = nullString(job.Result.PasswordReportID)
	}

	query := `
		UPDATE import_jobs SET
			status = $1, progress = $2, imported_count = $3, failed_count = $4,
			password_report_id = $5, error = $6, completed_at = $7
		WHERE id = $8
	`
	_, err := r.db.ExecContext(ctx, query,
		job.Status, job.Progress, imported, failed,
		reportID, nullString(job.Error), job.CompletedAt, job.ID,
	)
	return err
}

// GetByID retrieves a job by ID; (nil, nil) when unknown
func (r *jobRepo) GetByID(ctx context.Context, id string) (*models.ImportJob, error) {
	query := `
		SELECT id, session_id, admin_id, status, progress, imported_count,
			failed_count, password_report_id, error, created_at, completed_at
		FROM import_jobs WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return job, err
}

// List returns jobs newest first with the total matching count. An empty
// adminID lists across all admins.
func (r *jobRepo) List(ctx context.Context, adminID string, limit, offset int) ([]*models.ImportJob, int, error) {
	countQuery := `SELECT COUNT(*) FROM import_jobs WHERE ($1 = '' OR admin_id = $1)`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, adminID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, session_id, admin_id, status, progress, imported_count,
			failed_count, password_report_id, error, created_at, completed_at
		FROM import_jobs
		WHERE ($1 = '' OR admin_id = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, adminID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	jobs := []*models.ImportJob{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, job)
	}

	return jobs, total, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(s rowScanner) (*models.ImportJob, error) {
	var job models.ImportJob
	var imported, failed sql.NullInt64
	var reportID, jobErr sql.NullString
	var completedAt sql.NullTime

	err := s.Scan(
		&job.ID, &job.SessionID, &job.AdminID, &job.Status, &job.Progress,
		&imported, &failed, &reportID, &jobErr, &job.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Error = jobErr.String
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	// Result is populated only for completed jobs
	if job.Status == models.JobStatusCompleted && imported.Valid {
		job.Result = &models.JobResult{
			Imported:         int(imported.Int64),
			Failed:           int(failed.Int64),
			PasswordReportID: reportID.String,
		}
	}

	return &job, nil
}

// helper to convert empty string to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
