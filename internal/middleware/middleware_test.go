package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/university-api/pkg/errors"
	"github.com/jwalitptl/university-api/pkg/logger"
	"github.com/jwalitptl/university-api/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(e *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func TestRequestIDIsGeneratedOrPropagated(t *testing.T) {
	e := gin.New()
	e.Use(RequestID())
	e.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRequestID))
	})

	w := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(HeaderXRequestID))
	assert.Equal(t, w.Header().Get(HeaderXRequestID), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "abc-123")
	w = serve(e, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderXRequestID))
	assert.Equal(t, "abc-123", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "has spaces\tand tabs")
	w = serve(e, req)
	assert.NotEqual(t, "has spaces\tand tabs", w.Header().Get(HeaderXRequestID))
	assert.Len(t, w.Header().Get(HeaderXRequestID), 36)
}

func TestRecoveryReturns500(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(&logger.Config{Format: "json", Output: &buf})

	e := gin.New()
	e.Use(RequestID(), Recovery(log))
	e.GET("/", func(c *gin.Context) {
		panic("boom")
	})

	w := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Internal server error", resp.Message)
	assert.NotEmpty(t, resp.TraceID)
	assert.Contains(t, buf.String(), "boom")
}

func TestErrorHandlerMapsAppErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", apperrors.NotFound("course", nil), http.StatusNotFound, "course not found"},
		{"bad request", apperrors.BadRequest("invalid id", nil), http.StatusBadRequest, "invalid id"},
		{"internal hides detail", apperrors.Internal(errors.New("pq: connection refused")), http.StatusInternalServerError, "Internal server error"},
		{"plain error", errors.New("whatever"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := gin.New()
			e.Use(ErrorHandler(logger.NewNop()))
			e.GET("/", func(c *gin.Context) {
				_ = c.Error(tt.err)
			})

			w := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.status, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, resp.Code)
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestErrorHandlerLeavesWrittenResponses(t *testing.T) {
	e := gin.New()
	e.Use(ErrorHandler(logger.NewNop()))
	e.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": false})
		_ = c.Error(errors.New("late"))
	})

	w := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":false}`, w.Body.String())
}

type payload struct {
	Title   string `json:"title" binding:"required,min=3"`
	Credits int    `json:"credits" binding:"max=5"`
}

func TestValidationRendersFieldErrors(t *testing.T) {
	e := gin.New()
	e.Use(ErrorHandler(logger.NewNop()), Validation(DefaultValidationConfig()))
	e.POST("/", func(c *gin.Context) {
		var p payload
		if err := c.ShouldBindJSON(&p); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"credits":9}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(e, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Errors []ValidationError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.ElementsMatch(t, []ValidationError{
		{Field: "title", Message: "Field is required"},
		{Field: "credits", Message: "Value is too long or too large"},
	}, resp.Errors)
}

func TestRateLimitPerClient(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 2})

	e := gin.New()
	e.Use(rl.RateLimit())
	e.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	request := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(e, req).Code
	}

	assert.Equal(t, http.StatusOK, request("10.0.0.1"))
	assert.Equal(t, http.StatusOK, request("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, request("10.0.0.1"))
	assert.Equal(t, http.StatusOK, request("10.0.0.2"))
}

func TestSizeLimitRejectsLargeBodies(t *testing.T) {
	e := gin.New()
	e.Use(SizeLimit(SizeLimitConfig{MaxBodySize: 8, ErrorMessage: "too big"}))
	e.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(e, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "too big")

	w = serve(e, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	e := gin.New()
	e.Use(CORS(DefaultCORSConfig()))
	e.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := serve(e, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	e := gin.New()
	e.Use(CORS(CORSConfig{AllowOrigins: []string{"https://admin.university.edu"}}))
	e.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	w := serve(e, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://admin.university.edu")
	w = serve(e, req)
	assert.Equal(t, "https://admin.university.edu", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsRecordsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New("test", reg)

	e := gin.New()
	e.Use(Metrics(m))
	e.GET("/courses/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(e, httptest.NewRequest(http.MethodGet, "/courses/1", nil))
	serve(e, httptest.NewRequest(http.MethodGet, "/courses/2", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestTotal.WithLabelValues("GET", "/courses/:id", "200")))
}
