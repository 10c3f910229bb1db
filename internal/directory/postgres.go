package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/classifieds-import-api/internal/database"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// Postgres error code for unique constraint violations
const uniqueViolation = "23505"

// PostgresDirectory backs the user-creation and notification primitives
// with the shared marketplace database.
type PostgresDirectory struct {
	db  *database.DB
	log zerolog.Logger
}

// NewPostgresDirectory creates a directory backed by the marketplace database
func NewPostgresDirectory(db *database.DB, log zerolog.Logger) *PostgresDirectory {
	return &PostgresDirectory{
		db:  db,
		log: log.With().Str("component", "directory").Logger(),
	}
}

// CreateUser inserts a marketplace user. The email carries a unique index;
// a violation maps to ErrDuplicateUser so callers can treat conflicts as a
// per-row outcome rather than a failure.
func (d *PostgresDirectory) CreateUser(ctx context.Context, user NewUser) (string, error) {
	id := uuid.New().String()
	query := `
		INSERT INTO marketplace_users (id, email, first_name, last_name, role, password_hash, created_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7)
	`
	_, err := d.db.ExecContext(ctx, query,
		id, user.Email, user.FirstName, user.LastName, user.Role, user.PasswordHash, time.Now(),
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return "", ErrDuplicateUser
	}
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	return id, nil
}

// NotifyAdmin stores an in-app notification for the admin's inbox.
func (d *PostgresDirectory) NotifyAdmin(ctx context.Context, adminID, message string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	query := `
		INSERT INTO admin_notifications (id, admin_id, message, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := d.db.ExecContext(ctx, query, uuid.New().String(), adminID, message, body, time.Now()); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	d.log.Debug().Str("admin_id", adminID).Msg("Admin notification stored")
	return nil
}
