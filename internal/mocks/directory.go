package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/classifieds-import-api/internal/directory"
	"github.com/google/uuid"
)

// MockUserDirectory is an in-memory user-creation primitive. Seed Existing
// with emails that should collide as if registered elsewhere in the
// marketplace.
type MockUserDirectory struct {
	mu        sync.Mutex
	Users     map[string]directory.NewUser // email -> payload
	Existing  map[string]bool              // pre-registered emails
	CreateErr error
	Calls     int
}

func NewMockUserDirectory() *MockUserDirectory {
	return &MockUserDirectory{
		Users:    make(map[string]directory.NewUser),
		Existing: make(map[string]bool),
	}
}

func (m *MockUserDirectory) CreateUser(ctx context.Context, user directory.NewUser) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.CreateErr != nil {
		return "", m.CreateErr
	}

	email := strings.ToLower(user.Email)
	if m.Existing[email] {
		return "", directory.ErrDuplicateUser
	}
	if _, ok := m.Users[email]; ok {
		return "", directory.ErrDuplicateUser
	}

	m.Users[email] = user
	return uuid.New().String(), nil
}

// AdminNotification records one NotifyAdmin call
type AdminNotification struct {
	AdminID string
	Message string
	Payload map[string]interface{}
}

// MockNotifier records admin notifications
type MockNotifier struct {
	mu            sync.Mutex
	Notifications []AdminNotification
	NotifyErr     error
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) NotifyAdmin(ctx context.Context, adminID, message string, payload map[string]interface{}) error {
	if m.NotifyErr != nil {
		return m.NotifyErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notifications = append(m.Notifications, AdminNotification{
		AdminID: adminID,
		Message: message,
		Payload: payload,
	})
	return nil
}
