package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/cyberguard/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func parseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	return response
}

func TestCorrelationID_GeneratesWhenMissing(t *testing.T) {
	router := gin.New()
	router.Use(CorrelationID())
	var seen string
	router.GET("/", func(c *gin.Context) {
		seen = GetCorrelationID(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(CorrelationIDHeader))
}

func TestCorrelationID_PropagatesHeader(t *testing.T) {
	router := gin.New()
	router.Use(CorrelationID())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationIDHeader, "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(CorrelationIDHeader))
}

func TestCorrelationID_FallsBackToRequestID(t *testing.T) {
	router := gin.New()
	router.Use(CorrelationID())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "proxy-9")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "proxy-9", w.Header().Get(CorrelationIDHeader))
}

func TestCorrelationID_ReplacesUntrustedIDs(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"too long", strings.Repeat("a", maxCorrelationIDLength+1)},
		{"control characters", "abc\x01def"},
		{"padded", " abc "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CorrelationID())
			router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header[CorrelationIDHeader] = []string{tt.id}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			got := w.Header().Get(CorrelationIDHeader)
			assert.NotEmpty(t, got)
			assert.NotEqual(t, tt.id, got)
		})
	}
}

func observeLogs(t *testing.T) *observer.ObservedLogs {
	core, logs := observer.New(zapcore.DebugLevel)
	t.Cleanup(logger.SetForTest(zap.New(core)))
	return logs
}

func TestRecovery_Returns500(t *testing.T) {
	logs := observeLogs(t)
	router := gin.New()
	router.Use(Recovery())
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, parseResponse(w)["success"].(bool))

	entries := logs.FilterMessage("panic recovered").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "boom", fields["panic"])
	assert.Equal(t, "/boom", fields["endpoint"])
}

func TestRequestLogger_LevelsByStatus(t *testing.T) {
	logs := observeLogs(t)
	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	router.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/ok", "/bad", "/fail", "/healthz"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "/fail", entries[2].ContextMap()["endpoint"])
}

type analyzeBody struct {
	InputType  string `json:"inputType" validate:"required,input_type"`
	InputValue string `json:"inputValue" validate:"required"`
}

func validationRouter() *gin.Engine {
	router := gin.New()
	router.POST("/", func(c *gin.Context) {
		var req analyzeBody
		if !ValidateAndBind(c, &req) {
			return
		}
		c.JSON(http.StatusOK, req)
	})
	return router
}

func TestValidateAndBind_FieldErrors(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"inputType":"fax"}`))
	req.Header.Set("Content-Type", "application/json")
	validationRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := parseResponse(w)
	assert.Equal(t, "validation failed", response["message"])
	errs := response["errors"].(map[string]interface{})
	assert.Contains(t, errs, "inputType")
	assert.Contains(t, errs, "inputValue")
}

func TestValidateAndBind_MalformedJSON(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	validationRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, parseResponse(w)["message"], "invalid request format")
}

func TestValidateAndBind_EmptyBody(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/json")
	validationRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "request body is required", parseResponse(w)["message"])
}

func TestValidateAndBind_Valid(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"inputType":"url","inputValue":"http://x.test"}`))
	req.Header.Set("Content-Type", "application/json")
	validationRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name string
		hsts bool
	}{
		{"plain", false},
		{"behind tls", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(SecurityHeaders(tt.hsts))
			router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
			assert.Equal(t, tt.hsts, w.Header().Get("Strict-Transport-Security") != "")
		})
	}
}

func TestMaxBodySize_RejectsLargeBodies(t *testing.T) {
	router := gin.New()
	router.Use(MaxBodySize(32))
	router.POST("/", func(c *gin.Context) {
		var req analyzeBody
		if !ValidateAndBind(c, &req) {
			return
		}
		c.Status(http.StatusOK)
	})

	body := `{"inputType":"url","inputValue":"` + strings.Repeat("a", 64) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, parseResponse(w)["message"], "invalid request format")
}

type lookupQuery struct {
	Value string `form:"value" json:"value" validate:"required,notblank"`
}

func TestValidateAndBindQuery(t *testing.T) {
	router := gin.New()
	router.GET("/", func(c *gin.Context) {
		var q lookupQuery
		if !ValidateAndBindQuery(c, &q) {
			return
		}
		c.String(http.StatusOK, q.Value)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?value=fake.tk", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fake.tk", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?value=%20%20", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, parseResponse(w)["errors"], "value")
}
