package service_test

import (
	"strings"
	"time"

	"github.com/classifieds-import-api/internal/config"
	"github.com/classifieds-import-api/internal/mocks"
	"github.com/classifieds-import-api/internal/repository"
	"github.com/classifieds-import-api/internal/service"
	"github.com/rs/zerolog"
)

// syncExecutor runs the job inline so the state machine is exercised
// without goroutines.
func syncExecutor(run func()) {
	run()
}

type testHarness struct {
	services    *service.Services
	sessionRepo *mocks.MockSessionRepository
	jobRepo     *mocks.MockJobRepository
	reportRepo  *mocks.MockReportRepository
	users       *mocks.MockUserDirectory
	notifier    *mocks.MockNotifier
}

func newTestHarness() *testHarness {
	sessionRepo := mocks.NewMockSessionRepository()
	jobRepo := mocks.NewMockJobRepository()
	reportRepo := mocks.NewMockReportRepository()
	users := mocks.NewMockUserDirectory()
	notifier := mocks.NewMockNotifier()

	repos := &repository.Repositories{
		Session: sessionRepo,
		Job:     jobRepo,
		Report:  reportRepo,
	}

	cfg := &config.Config{
		Import: config.ImportConfig{
			MaxRows:        1000,
			MaxUploadSize:  5 * 1024 * 1024,
			PreviewRows:    10,
			SessionTTL:     30 * time.Minute,
			PasswordLength: 16,
		},
	}

	log := zerolog.Nop()
	services := service.NewServices(repos, users, notifier, cfg, syncExecutor, log)

	return &testHarness{
		services:    services,
		sessionRepo: sessionRepo,
		jobRepo:     jobRepo,
		reportRepo:  reportRepo,
		users:       users,
		notifier:    notifier,
	}
}

func csvReader(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}
