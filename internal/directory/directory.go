// Package directory holds the narrow interfaces this service depends on
// from the rest of the marketplace backend: user creation and admin
// notifications. Auth, listings, messaging and the other marketplace
// features live behind these and are never touched directly.
package directory

import (
	"context"
	"errors"
)

// ErrDuplicateUser is returned by CreateUser when the email is already
// registered anywhere in the marketplace.
var ErrDuplicateUser = errors.New("user already exists")

// NewUser is the payload for the marketplace user-creation primitive.
type NewUser struct {
	Email        string
	FirstName    string
	LastName     string
	Role         string
	PasswordHash string
}

// UserDirectory is the marketplace's user-creation primitive. Each call is
// independently atomic; racing creations of the same email resolve to one
// winner and ErrDuplicateUser for the rest.
type UserDirectory interface {
	CreateUser(ctx context.Context, user NewUser) (string, error)
}

// Notifier delivers an in-app notification to an admin.
type Notifier interface {
	NotifyAdmin(ctx context.Context, adminID, message string, payload map[string]interface{}) error
}
