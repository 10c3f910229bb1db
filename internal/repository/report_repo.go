package repository

import (
	"context"
	"database/sql"

	"github.com/classifieds-import-api/internal/database"
	"github.com/classifieds-import-api/internal/models"
	"github.com/lib/pq"
)

// reportRepo is the concrete Postgres implementation of ReportRepository
type reportRepo struct {
	db *database.DB
}

// NewReportRepo creates a new report repository
func NewReportRepo(db *database.DB) ReportRepository {
	return &reportRepo{db: db}
}

// Create persists the report header and its credential rows in one
// transaction. Rows go through the COPY protocol: a 1000-user import
// writes 1000 rows, and COPY keeps that a single round trip.
func (r *reportRepo) Create(ctx context.Context, report *models.PasswordReport) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	headerQuery := `INSERT INTO password_reports (id, owner_admin_id, created_at) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, headerQuery, report.ID, report.OwnerAdminID, report.CreatedAt); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("password_report_rows",
		"report_id", "position", "email", "password",
	))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, row := range report.Rows {
		if _, err := stmt.ExecContext(ctx, report.ID, i, row.Email, row.Password); err != nil {
			return err
		}
	}

	// Flush the COPY buffer
	if _, err := stmt.ExecContext(ctx); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID retrieves a report with its rows in file order; (nil, nil) when
// unknown
func (r *reportRepo) GetByID(ctx context.Context, id string) (*models.PasswordReport, error) {
	var report models.PasswordReport
	headerQuery := `SELECT id, owner_admin_id, created_at FROM password_reports WHERE id = $1`
	err := r.db.QueryRowContext(ctx, headerQuery, id).Scan(
		&report.ID, &report.OwnerAdminID, &report.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rowsQuery := `SELECT email, password FROM password_report_rows WHERE report_id = $1 ORDER BY position`
	rows, err := r.db.QueryContext(ctx, rowsQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var cred models.CredentialRow
		if err := rows.Scan(&cred.Email, &cred.Password); err != nil {
			return nil, err
		}
		report.Rows = append(report.Rows, cred)
	}

	return &report, rows.Err()
}
