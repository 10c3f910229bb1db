package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/classifieds-import-api/internal/models"
)

// MockSessionRepository is an in-memory SessionRepository. Expiry is
// checked lazily on Get, mirroring the TTL behavior of the Redis store.
type MockSessionRepository struct {
	mu       sync.Mutex
	Sessions map[string]*models.ValidationSession
	SaveErr  error
	GetErr   error
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{
		Sessions: make(map[string]*models.ValidationSession),
	}
}

func (m *MockSessionRepository) Save(ctx context.Context, session *models.ValidationSession) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *session
	m.Sessions[session.ID] = &copied
	return nil
}

func (m *MockSessionRepository) Get(ctx context.Context, id string) (*models.ValidationSession, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.Sessions[id]
	if !ok || time.Now().After(session.ExpiresAt) {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (m *MockSessionRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Sessions, id)
	return nil
}

// MockJobRepository is an in-memory JobRepository
type MockJobRepository struct {
	mu        sync.Mutex
	Jobs      map[string]*models.ImportJob
	CreateErr error
	UpdateErr error
	// Statuses records every status written through Update, in order,
	// so tests can assert the state machine is monotonic.
	Statuses []models.JobStatus
}

func NewMockJobRepository() *MockJobRepository {
	return &MockJobRepository{
		Jobs: make(map[string]*models.ImportJob),
	}
}

func (m *MockJobRepository) Create(ctx context.Context, job *models.ImportJob) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *job
	m.Jobs[job.ID] = &copied
	return nil
}

func (m *MockJobRepository) Update(ctx context.Context, job *models.ImportJob) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *job
	if job.Result != nil {
		result := *job.Result
		copied.Result = &result
	}
	m.Jobs[job.ID] = &copied
	m.Statuses = append(m.Statuses, job.Status)
	return nil
}

func (m *MockJobRepository) GetByID(ctx context.Context, id string) (*models.ImportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.Jobs[id]
	if !ok {
		return nil, nil
	}
	copied := *job
	if job.Result != nil {
		result := *job.Result
		copied.Result = &result
	}
	return &copied, nil
}

func (m *MockJobRepository) List(ctx context.Context, adminID string, limit, offset int) ([]*models.ImportJob, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*models.ImportJob
	for _, job := range m.Jobs {
		if adminID == "" || job.AdminID == adminID {
			copied := *job
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if offset >= total {
		return []*models.ImportJob{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

// MockReportRepository is an in-memory ReportRepository
type MockReportRepository struct {
	mu        sync.Mutex
	Reports   map[string]*models.PasswordReport
	CreateErr error
}

func NewMockReportRepository() *MockReportRepository {
	return &MockReportRepository{
		Reports: make(map[string]*models.PasswordReport),
	}
}

func (m *MockReportRepository) Create(ctx context.Context, report *models.PasswordReport) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *report
	copied.Rows = append([]models.CredentialRow(nil), report.Rows...)
	m.Reports[report.ID] = &copied
	return nil
}

func (m *MockReportRepository) GetByID(ctx context.Context, id string) (*models.PasswordReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	report, ok := m.Reports[id]
	if !ok {
		return nil, nil
	}
	copied := *report
	copied.Rows = append([]models.CredentialRow(nil), report.Rows...)
	return &copied, nil
}
