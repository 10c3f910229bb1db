package models

import (
	"time"
)

// CredentialRow pairs an imported email with its generated password.
type CredentialRow struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordReport is the one-time downloadable artifact listing generated
// credentials for an import run. It is readable only by the admin that
// owns the job that produced it.
type PasswordReport struct {
	ID           string          `json:"id" db:"id"`
	OwnerAdminID string          `json:"owner_admin_id" db:"owner_admin_id"`
	Rows         []CredentialRow `json:"rows"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
