package repository

import (
	"context"

	"github.com/classifieds-import-api/internal/database"
	"github.com/classifieds-import-api/internal/models"
	"github.com/redis/go-redis/v9"
)

// SessionRepository is the keyed store for validation sessions. Entries
// expire at the session's ExpiresAt; Get returns (nil, nil) for an unknown
// or expired id.
type SessionRepository interface {
	Save(ctx context.Context, session *models.ValidationSession) error
	Get(ctx context.Context, id string) (*models.ValidationSession, error)
	Delete(ctx context.Context, id string) error
}

// JobRepository is the keyed store for import jobs.
type JobRepository interface {
	Create(ctx context.Context, job *models.ImportJob) error
	Update(ctx context.Context, job *models.ImportJob) error
	GetByID(ctx context.Context, id string) (*models.ImportJob, error)
	// List returns jobs newest first, optionally filtered to one admin
	// (empty adminID means no filter), plus the total matching count.
	List(ctx context.Context, adminID string, limit, offset int) ([]*models.ImportJob, int, error)
}

// ReportRepository is the keyed store for password reports. Reports are
// written once and never mutated.
type ReportRepository interface {
	Create(ctx context.Context, report *models.PasswordReport) error
	GetByID(ctx context.Context, id string) (*models.PasswordReport, error)
}

// Repositories holds the three independent stores behind the import
// pipeline.
type Repositories struct {
	Session SessionRepository
	Job     JobRepository
	Report  ReportRepository
}

// New creates all repositories: sessions in Redis, jobs and reports in
// Postgres.
func New(db *database.DB, sessions *redis.Client) *Repositories {
	return &Repositories{
		Session: NewSessionRepo(sessions),
		Job:     NewJobRepo(db),
		Report:  NewReportRepo(db),
	}
}
