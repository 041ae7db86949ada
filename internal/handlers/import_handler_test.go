package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oktoeat/api/internal/importer"
	"github.com/oktoeat/api/internal/logger"
	"github.com/oktoeat/api/internal/middleware"
	"github.com/oktoeat/api/internal/models"
	"github.com/oktoeat/api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockImportService is a mock implementation of ImportService for testing
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

// setupImportTestRouter creates a test router with middleware and import handlers.
func setupImportTestRouter(handler *ImportHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.New("test")

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/import", handler.Trigger)
		v1.GET("/import/status", handler.Status)
	}

	return router
}

func TestTrigger_Success(t *testing.T) {
	// Arrange
	service := new(MockImportService)
	handler := NewImportHandler(service, "s3cret")
	router := setupImportTestRouter(handler)

	expected := &importer.Result{Success: true, RecordsProcessed: 1200, RecordsSkipped: 3}
	service.On("RunImport", mock.Anything, "").Return(expected, nil)

	// Act
	req := httptest.NewRequest(http.MethodPost, "/api/v1/import", nil)
	req.Header.Set(ImportSecretHeader, "s3cret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Assert
	require.Equal(t, http.StatusOK, w.Code)

	var result importer.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 1200, result.RecordsProcessed)
	service.AssertExpectations(t)
}

func TestTrigger_FailedPassStillReturns200(t *testing.T) {
	service := new(MockImportService)
	handler := NewImportHandler(service, "s3cret")
	router := setupImportTestRouter(handler)

	failed := &importer.Result{Success: false, Error: "failed to fetch csv"}
	service.On("RunImport", mock.Anything, "").Return(failed, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import", nil)
	req.Header.Set(ImportSecretHeader, "s3cret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result importer.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.Equal(t, "failed to fetch csv", result.Error)
}

func TestTrigger_MissingSecret(t *testing.T) {
	service := new(MockImportService)
	handler := NewImportHandler(service, "s3cret")
	router := setupImportTestRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	service.AssertNotCalled(t, "RunImport")
}

func TestTrigger_WrongSecret(t *testing.T) {
	service := new(MockImportService)
	handler := NewImportHandler(service, "s3cret")
	router := setupImportTestRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import", nil)
	req.Header.Set(ImportSecretHeader, "wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	service.AssertNotCalled(t, "RunImport")
}

func TestTrigger_EmptyConfiguredSecretDisablesEndpoint(t *testing.T) {
	service := new(MockImportService)
	handler := NewImportHandler(service, "")
	router := setupImportTestRouter(handler)

	// Even an empty header must not match an empty configured secret.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/import", nil)
	req.Header.Set(ImportSecretHeader, "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	service.AssertNotCalled(t, "RunImport")
}

func TestTrigger_SourceOverride(t *testing.T) {
	service := new(MockImportService)
	handler := NewImportHandler(service, "s3cret")
	router := setupImportTestRouter(handler)

	override := "https://staging.example.com/feed.csv"
	service.On("RunImport", mock.Anything, override).Return(&importer.Result{Success: true}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import?source="+override, nil)
	req.Header.Set(ImportSecretHeader, "s3cret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestTrigger_InvalidSourceURL(t *testing.T) {
	service := new(MockImportService)
	handler := NewImportHandler(service, "s3cret")
	router := setupImportTestRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import?source=not-a-url", nil)
	req.Header.Set(ImportSecretHeader, "s3cret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "RunImport")
}

func TestTrigger_ImportInProgress(t *testing.T) {
	service := new(MockImportService)
	handler := NewImportHandler(service, "s3cret")
	router := setupImportTestRouter(handler)

	service.On("RunImport", mock.Anything, "").Return(nil, services.ErrImportInProgress)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import", nil)
	req.Header.Set(ImportSecretHeader, "s3cret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStatus_Success(t *testing.T) {
	service := new(MockImportService)
	handler := NewImportHandler(service, "s3cret")
	router := setupImportTestRouter(handler)

	meta := &models.ImportMetadata{
		LastImportAt:    time.Date(2025, 8, 1, 3, 0, 0, 0, time.UTC),
		RecordsImported: 540000,
		SourceURL:       "https://ratings.food.gov.uk/api/open-data-files/FHRS_All_en-GB.csv",
	}
	service.On("Status", mock.Anything).Return(meta, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/import/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var got models.ImportMetadata
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 540000, got.RecordsImported)
	assert.True(t, meta.LastImportAt.Equal(got.LastImportAt))
}

func TestStatus_NoImportYet(t *testing.T) {
	service := new(MockImportService)
	handler := NewImportHandler(service, "s3cret")
	router := setupImportTestRouter(handler)

	service.On("Status", mock.Anything).Return(nil, services.ErrNoImportYet)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/import/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatus_ServiceError(t *testing.T) {
	service := new(MockImportService)
	handler := NewImportHandler(service, "s3cret")
	router := setupImportTestRouter(handler)

	service.On("Status", mock.Anything).Return(nil, assert.AnError)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/import/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
