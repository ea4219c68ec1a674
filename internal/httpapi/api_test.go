package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roster/internal/queue"
	"roster/internal/roster"
)

type memPersister struct {
	snap roster.Snapshot
	ok   bool
}

func (m *memPersister) Save(_ context.Context, snap roster.Snapshot) error {
	m.snap = snap
	m.ok = true
	return nil
}

func (m *memPersister) Load(context.Context) (roster.Snapshot, bool, error) {
	return m.snap, m.ok, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *roster.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := roster.NewStore(&memPersister{})
	h := New(store, roster.NewAggregator(store), nil, queue.NewInMemory(4), zerolog.Nop())
	r := gin.New()
	h.Register(r)
	return r, store
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	return w, decoded
}

func addClassAndStudent(t *testing.T, r *gin.Engine) (classID, studentID string) {
	t.Helper()
	w, body := doJSON(t, r, http.MethodPost, "/v1/classes", gin.H{
		"name": "Youth", "startTime": "16:00", "endTime": "17:30", "dayOfWeek": 6,
	})
	require.Equal(t, http.StatusOK, w.Code)
	classID = body["class"].(map[string]any)["id"].(string)

	w, body = doJSON(t, r, http.MethodPost, "/v1/students", gin.H{"name": "Amy", "classId": classID})
	require.Equal(t, http.StatusOK, w.Code)
	studentID = body["student"].(map[string]any)["id"].(string)
	return classID, studentID
}

func TestEnvelopeAndStatusMapping(t *testing.T) {
	r, _ := newTestRouter(t)
	classID, studentID := addClassAndStudent(t, r)

	// Validation -> 400.
	w, body := doJSON(t, r, http.MethodPost, "/v1/students", gin.H{"name": "", "classId": classID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])

	// Not found -> 404.
	w, body = doJSON(t, r, http.MethodGet, "/v1/students/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])

	// Conflict -> 409.
	w, _ = doJSON(t, r, http.MethodPost, "/v1/students", gin.H{"name": "Amy", "classId": classID})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Success envelope.
	w, body = doJSON(t, r, http.MethodGet, "/v1/students/"+studentID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
}

func TestAttendanceFlow(t *testing.T) {
	r, _ := newTestRouter(t)
	classID, studentID := addClassAndStudent(t, r)

	w, _ := doJSON(t, r, http.MethodPost, "/v1/attendance", gin.H{
		"studentId": studentID, "date": "2024-01-06", "status": "present",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, r, http.MethodGet, "/v1/attendance/day?classId="+classID+"&date=2024-01-06", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(1), stats["total"])
	assert.Equal(t, float64(1), stats["present"])
	assert.Equal(t, float64(100), stats["rate"])

	w, body = doJSON(t, r, http.MethodGet, "/v1/students/"+studentID+"/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(100), body["stats"].(map[string]any)["attendanceRate"])
}

func TestTwoPhaseDeleteEndpoints(t *testing.T) {
	r, store := newTestRouter(t)
	_, studentID := addClassAndStudent(t, r)

	w, _ := doJSON(t, r, http.MethodPost, "/v1/attendance", gin.H{
		"studentId": studentID, "date": "2024-01-06", "status": "absent",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, r, http.MethodGet, "/v1/students/"+studentID+"/delete-plan", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["plan"].(map[string]any)["attendanceRecords"])

	w, _ = doJSON(t, r, http.MethodDelete, "/v1/students/"+studentID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.ListAttendance())
}

func TestSyncRoutesWithoutAdapter(t *testing.T) {
	r, _ := newTestRouter(t)

	w, body := doJSON(t, r, http.MethodPost, "/v1/sync/push", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, false, body["success"])

	w, _ = doJSON(t, r, http.MethodPost, "/v1/sync/pull", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestActionSurface(t *testing.T) {
	r, _ := newTestRouter(t)
	classID, _ := addClassAndStudent(t, r)

	w, body := doJSON(t, r, http.MethodGet, "/api?action=getStudents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["students"], 1)

	w, body = doJSON(t, r, http.MethodGet, "/api?action=getClasses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"Youth"}, body["classes"])

	w, body = doJSON(t, r, http.MethodGet, "/api?action=getAttendance&className=Youth", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["attendance"], 0)

	w, body = doJSON(t, r, http.MethodGet, "/api?action=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])

	// Legacy append resolves the class by name.
	w, body = doJSON(t, r, http.MethodPost, "/api", gin.H{
		"action": "appendStudent", "className": "Youth",
		"student": gin.H{"name": "Ben"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, classID, body["student"].(map[string]any)["classId"])
}
