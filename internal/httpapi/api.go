// Package httpapi exposes the roster over HTTP. Every response is a
// {success: bool, ...} envelope; errors map onto the taxonomy
// (validation 400, not found 404, conflict 409, sync 502).
package httpapi

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"roster/internal/queue"
	"roster/internal/roster"
	"roster/internal/sheets"
)

// Handler carries the dependencies of the API routes. Sync may be nil when
// no remote endpoint is configured; the sync routes then answer 503.
type Handler struct {
	Store *roster.Store
	Stats *roster.Aggregator
	Sync  *sheets.Adapter
	Queue queue.Queue
	Log   zerolog.Logger

	mu         sync.Mutex
	lastEvents map[string]sheets.SyncEvent
}

// New builds a handler and, when a sync adapter is present, subscribes to
// its status events so /v1/sync/status can report them.
func New(store *roster.Store, stats *roster.Aggregator, sync *sheets.Adapter, q queue.Queue, log zerolog.Logger) *Handler {
	h := &Handler{
		Store:      store,
		Stats:      stats,
		Sync:       sync,
		Queue:      q,
		Log:        log,
		lastEvents: make(map[string]sheets.SyncEvent),
	}
	if sync != nil {
		sync.Subscribe(h.recordEvent)
	}
	return h
}

// Register mounts every route on the given router group.
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/v1")

	v1.GET("/students", h.listStudents)
	v1.POST("/students", h.addStudent)
	v1.GET("/students/:id", h.getStudent)
	v1.PUT("/students/:id", h.updateStudent)
	v1.GET("/students/:id/delete-plan", h.planDeleteStudent)
	v1.DELETE("/students/:id", h.deleteStudent)
	v1.GET("/students/:id/stats", h.studentStats)

	v1.GET("/classes", h.listClasses)
	v1.POST("/classes", h.addClass)
	v1.GET("/classes/:id", h.getClass)
	v1.PUT("/classes/:id", h.updateClass)
	v1.GET("/classes/:id/delete-plan", h.planDeleteClass)
	v1.DELETE("/classes/:id", h.deleteClass)
	v1.GET("/classes/:id/stats", h.classStats)
	v1.GET("/classes/:id/sessions", h.listSessions)
	v1.POST("/classes/:id/sessions", h.addSession)
	v1.DELETE("/classes/:id/sessions/:date", h.deleteSession)
	v1.POST("/classes/:id/sessions/generate", h.generateSessions)

	v1.POST("/attendance", h.markAttendance)
	v1.GET("/attendance", h.listAttendance)
	v1.GET("/attendance/day", h.dayStats)
	v1.POST("/attendance/batch", h.markBatch)
	v1.POST("/attendance/copy-last", h.copyLast)
	v1.DELETE("/attendance", h.deleteAttendanceRange)

	v1.GET("/stats/daily", h.dailyRollup)
	v1.GET("/stats/most-absent", h.mostAbsent)
	v1.GET("/stats/lowest-attendance", h.lowestAttendance)

	v1.POST("/sync/push", h.pushSync)
	v1.POST("/sync/pull", h.pullSync)
	v1.GET("/sync/status", h.syncStatus)

	v1.GET("/export", h.exportSnapshot)
	v1.POST("/import", h.importSnapshot)

	// Compatibility surface for the spreadsheet action protocol.
	r.GET("/api", h.actionGet)
	r.POST("/api", h.actionPost)
}

func ok(c *gin.Context, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true
	c.JSON(http.StatusOK, body)
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, roster.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, roster.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, roster.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, roster.ErrSync):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		h.Log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}

func (h *Handler) recordEvent(evt sheets.SyncEvent) {
	h.mu.Lock()
	h.lastEvents[evt.Op] = evt
	h.mu.Unlock()
}
