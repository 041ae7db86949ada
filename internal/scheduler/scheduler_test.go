package scheduler

import (
	"context"
	"testing"

	"github.com/oktoeat/api/internal/importer"
	"github.com/oktoeat/api/internal/logger"
	"github.com/oktoeat/api/internal/models"
	"github.com/oktoeat/api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockImportService is a mock implementation of services.ImportService for testing
type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) RunImport(ctx context.Context, sourceURL string) (*importer.Result, error) {
	args := m.Called(ctx, sourceURL)
	result, _ := args.Get(0).(*importer.Result)
	return result, args.Error(1)
}

func (m *MockImportService) Status(ctx context.Context) (*models.ImportMetadata, error) {
	args := m.Called(ctx)
	meta, _ := args.Get(0).(*models.ImportMetadata)
	return meta, args.Error(1)
}

func TestStart_InvalidSpec(t *testing.T) {
	svc := new(MockImportService)
	sched := New(svc, logger.New("test"), "not a cron spec")

	err := sched.Start()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a cron spec")
}

func TestStart_ValidSpecAndStop(t *testing.T) {
	svc := new(MockImportService)
	sched := New(svc, logger.New("test"), "0 3 * * 1")

	require.NoError(t, sched.Start())

	// No job should have fired yet; Stop must return promptly.
	sched.Stop()
	svc.AssertNotCalled(t, "RunImport")
}

func TestRunImport_LogsSuccessOutcome(t *testing.T) {
	svc := new(MockImportService)
	sched := New(svc, logger.New("test"), "0 3 * * 1")

	svc.On("RunImport", mock.Anything, "").
		Return(&importer.Result{Success: true, RecordsProcessed: 42}, nil)

	sched.runImport()

	svc.AssertExpectations(t)
}

func TestRunImport_FailedPassDoesNotPanic(t *testing.T) {
	svc := new(MockImportService)
	sched := New(svc, logger.New("test"), "0 3 * * 1")

	svc.On("RunImport", mock.Anything, "").
		Return(&importer.Result{Success: false, Error: "failed to fetch csv"}, nil)

	sched.runImport()

	svc.AssertExpectations(t)
}

func TestRunImport_SkipsWhenPassAlreadyRunning(t *testing.T) {
	svc := new(MockImportService)
	sched := New(svc, logger.New("test"), "0 3 * * 1")

	svc.On("RunImport", mock.Anything, "").
		Return(nil, services.ErrImportInProgress)

	// Must treat the overlap as a skip, not a failure.
	sched.runImport()

	svc.AssertExpectations(t)
}
