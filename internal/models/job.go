package models

import (
	"time"
)

// JobStatus represents the status of an import job. Transitions are
// monotonic: pending -> validating -> importing -> completed | failed.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusValidating JobStatus = "validating"
	JobStatusImporting  JobStatus = "importing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// JobResult holds the counters of a finished run. It is populated only
// when the job reaches completed.
type JobResult struct {
	Imported         int    `json:"imported"`
	Failed           int    `json:"failed"`
	PasswordReportID string `json:"password_report_id,omitempty"`
}

// ImportJob is the unit of background work that turns a validated session
// into created marketplace users.
type ImportJob struct {
	ID          string     `json:"id" db:"id"`
	SessionID   string     `json:"validation_session_id" db:"session_id"`
	AdminID     string     `json:"admin_id" db:"admin_id"`
	Status      JobStatus  `json:"status" db:"status"`
	Progress    int        `json:"progress" db:"progress"`
	Result      *JobResult `json:"result,omitempty"`
	Error       string     `json:"error,omitempty" db:"error"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// Finished reports whether the job has reached a terminal state.
func (j *ImportJob) Finished() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
