package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/university-api/internal/handler"
	courseHandler "github.com/jwalitptl/university-api/internal/handler/course"
	departmentHandler "github.com/jwalitptl/university-api/internal/handler/department"
	"github.com/jwalitptl/university-api/internal/handler/health"
	notificationHandler "github.com/jwalitptl/university-api/internal/handler/notification"
	studentHandler "github.com/jwalitptl/university-api/internal/handler/student"
	"github.com/jwalitptl/university-api/internal/migration"
	"github.com/jwalitptl/university-api/internal/repository/postgres"
	courseService "github.com/jwalitptl/university-api/internal/service/course"
	departmentService "github.com/jwalitptl/university-api/internal/service/department"
	"github.com/jwalitptl/university-api/internal/service/notification"
	studentService "github.com/jwalitptl/university-api/internal/service/student"
	"github.com/jwalitptl/university-api/pkg/messaging"
	"github.com/jwalitptl/university-api/pkg/messaging/memory"
	"github.com/jwalitptl/university-api/pkg/metrics"
	"github.com/jwalitptl/university-api/pkg/validator"
)

func setupRouter(t *testing.T, transport messaging.Transport) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := postgres.NewDB(postgres.Config{Driver: postgres.DriverSQLite})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.Up(db.DB, postgres.DriverSQLite, nil))

	reg := prometheus.NewRegistry()
	m := metrics.New("test", reg)
	base := postgres.NewBaseRepository(db, m)
	courses := postgres.NewCourseRepository(base)
	departments := postgres.NewDepartmentRepository(base)
	students := postgres.NewStudentRepository(base)

	notifications := notification.NewService(transport, nil, m, notification.Options{ReceiveTimeout: 10 * time.Millisecond})
	emitter := notification.NewEmitter(notifications, nil)
	v := validator.New()

	r := NewRouter(handler.NewHandler(reg), health.NewHandler(db, notifications), RouterConfig{
		MetricsPath: "/metrics",
		Metrics:     m,
	},
		courseHandler.NewHandler(courseService.NewService(courses, departments, v, emitter)),
		departmentHandler.NewHandler(departmentService.NewService(departments, v, emitter)),
		studentHandler.NewHandler(studentService.NewService(students, v, emitter)),
		notificationHandler.NewHandler(notification.NewPoller(notifications, 10), notifications, nil),
	)
	r.Setup()
	return r.Engine()
}

func do(t *testing.T, e *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func TestCourseChangesReachDashboard(t *testing.T) {
	e := setupRouter(t, memory.New(messaging.DefaultQueue, 64))

	w := do(t, e, http.MethodPost, "/api/v1/departments", map[string]interface{}{
		"name":       "Biology",
		"budget":     350000,
		"start_date": "2007-09-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, e, http.MethodPost, "/api/v1/courses", map[string]interface{}{
		"title":         "Intro to Biology",
		"credits":       4,
		"department_id": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, e, http.MethodDelete, "/api/v1/courses/1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, e, http.MethodGet, "/api/v1/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp notificationHandler.PollResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Equal(t, 3, resp.Count)
	assert.Equal(t, "New Department 'Biology' has been created", resp.Notifications[0].Message)
	assert.Equal(t, "New Course 'Intro to Biology' has been created", resp.Notifications[1].Message)
	assert.Equal(t, "Course 'Intro to Biology' has been deleted", resp.Notifications[2].Message)
}

func TestBusinessOperationsSurviveDegradedTransport(t *testing.T) {
	e := setupRouter(t, messaging.Degraded{})

	w := do(t, e, http.MethodPost, "/api/v1/students", map[string]interface{}{
		"first_mid_name":  "Carson",
		"last_name":       "Alexander",
		"enrollment_date": "2025-09-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, e, http.MethodGet, "/api/v1/students/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, e, http.MethodGet, "/api/v1/notifications", nil)
	assert.JSONEq(t, `{"success":true,"notifications":[],"count":0}`, w.Body.String())

	w = do(t, e, http.MethodGet, "/api/v1/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP","notifications":"degraded"}`, w.Body.String())
}

func TestValidationErrorsAreRendered(t *testing.T) {
	e := setupRouter(t, memory.New(messaging.DefaultQueue, 8))

	w := do(t, e, http.MethodPost, "/api/v1/courses", map[string]interface{}{
		"title":   "X",
		"credits": 9,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	fields := map[string]bool{}
	for _, fe := range body.Errors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["title"])
	assert.True(t, fields["credits"])
	assert.True(t, fields["department_id"])
}

func TestAppErrorsMapToStatus(t *testing.T) {
	e := setupRouter(t, memory.New(messaging.DefaultQueue, 8))

	w := do(t, e, http.MethodGet, "/api/v1/courses/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "course not found")

	w = do(t, e, http.MethodGet, "/api/v1/courses/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, e, http.MethodPost, "/api/v1/courses", map[string]interface{}{
		"title":         "Orphan Course",
		"credits":       3,
		"department_id": 7,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "department 7 does not exist")
}

func TestMetricsAndRequestID(t *testing.T) {
	e := setupRouter(t, memory.New(messaging.DefaultQueue, 8))

	w := do(t, e, http.MethodGet, "/api/v1/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "1.0", w.Header().Get("X-API-Version"))

	w = do(t, e, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_requests_total")
	assert.Contains(t, w.Body.String(), "test_notifications_transport_degraded 0")
}
