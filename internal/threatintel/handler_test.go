package threatintel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/cyberguard/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockService is a mock implementation of ServiceInterface
type MockService struct {
	mock.Mock
}

func (m *MockService) GetActiveThreats(ctx context.Context) ([]*ThreatIntelligence, error) {
	args := m.Called(ctx)
	threats, _ := args.Get(0).([]*ThreatIntelligence)
	return threats, args.Error(1)
}

func (m *MockService) RecordScamReport(ctx context.Context, value, reportType string, count int) (*ScamReport, error) {
	args := m.Called(ctx, value, reportType, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ScamReport), args.Error(1)
}

func (m *MockService) GetScamReport(ctx context.Context, value string) (*ScamReport, error) {
	args := m.Called(ctx, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ScamReport), args.Error(1)
}

func setupTestRouter(svc ServiceInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(svc).RegisterRoutes(router.Group("/api"))
	return router
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func parseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &response)
	return response
}

func TestHandler_GetThreatIntelligence(t *testing.T) {
	svc := new(MockService)
	router := setupTestRouter(svc)

	svc.On("GetActiveThreats", mock.Anything).Return([]*ThreatIntelligence{
		{ID: uuid.New(), Title: "Database Update", Severity: SeverityInfo, Category: CategoryDatabaseUpdate, IsActive: true, CreatedAt: time.Now()},
	}, nil)

	w := performRequest(router, http.MethodGet, "/api/threat-intelligence", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := parseResponse(w)["data"].([]interface{})
	assert.Len(t, data, 1)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "Database Update", first["title"])
	assert.Equal(t, "database_update", first["category"])
	assert.Equal(t, true, first["isActive"])
}

func TestHandler_GetThreatIntelligence_Error(t *testing.T) {
	svc := new(MockService)
	router := setupTestRouter(svc)

	svc.On("GetActiveThreats", mock.Anything).Return(nil, errors.New("db down"))

	w := performRequest(router, http.MethodGet, "/api/threat-intelligence", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed to fetch threat intelligence", parseResponse(w)["message"])
}

func TestHandler_RecordScamReport(t *testing.T) {
	svc := new(MockService)
	router := setupTestRouter(svc)

	svc.On("RecordScamReport", mock.Anything, "+15550100", "phone", 0).
		Return(&ScamReport{ReportedValue: "+15550100", ReportType: "phone", ReportCount: 5}, nil)

	w := performRequest(router, http.MethodPost, "/api/scam-reports", map[string]interface{}{
		"reportedValue": "+15550100",
		"reportType":    "phone",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	data := parseResponse(w)["data"].(map[string]interface{})
	assert.Equal(t, float64(5), data["reportCount"])
}

func TestHandler_RecordScamReport_Validation(t *testing.T) {
	svc := new(MockService)
	router := setupTestRouter(svc)

	w := performRequest(router, http.MethodPost, "/api/scam-reports", map[string]interface{}{
		"reportedValue": "x",
		"reportType":    "carrier-pigeon",
		"reportCount":   5000,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errs := parseResponse(w)["errors"].(map[string]interface{})
	assert.Contains(t, errs, "reportType")
	assert.Contains(t, errs, "reportCount")
	svc.AssertNotCalled(t, "RecordScamReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_GetScamReport(t *testing.T) {
	svc := new(MockService)
	router := setupTestRouter(svc)

	svc.On("GetScamReport", mock.Anything, "fake.tk").Return(&ScamReport{ReportedValue: "fake.tk", ReportCount: 3}, nil)
	svc.On("GetScamReport", mock.Anything, "clean.com").Return(nil, common.NewNotFoundError("scam report not found", ErrScamReportNotFound))

	w := performRequest(router, http.MethodGet, "/api/scam-reports?value=fake.tk", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, http.MethodGet, "/api/scam-reports?value=clean.com", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(router, http.MethodGet, "/api/scam-reports", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
