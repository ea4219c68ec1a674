package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"roster/internal/queue"
	"roster/internal/roster"
)

// pushSync enqueues a push job for the worker. The edit path never waits on
// the remote; 202 means "queued", not "synced".
func (h *Handler) pushSync(c *gin.Context) {
	if h.Sync == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "remote sync not configured"})
		return
	}
	job := queue.Job{Op: queue.OpPush, RequestedAt: time.Now().UTC()}
	if err := h.Queue.Publish(c.Request.Context(), job); err != nil {
		h.fail(c, &roster.SyncError{Op: "enqueue", Err: err})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true, "queued": true})
}

// pullSync runs synchronously: the caller asked to overwrite local state and
// wants to know whether it happened.
func (h *Handler) pullSync(c *gin.Context) {
	if h.Sync == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "remote sync not configured"})
		return
	}
	if err := h.Sync.Pull(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *Handler) syncStatus(c *gin.Context) {
	h.mu.Lock()
	events := make(map[string]gin.H, len(h.lastEvents))
	for op, evt := range h.lastEvents {
		e := gin.H{"state": evt.State, "at": evt.At}
		if evt.Err != nil {
			e["error"] = evt.Err.Error()
		}
		events[op] = e
	}
	h.mu.Unlock()
	ok(c, gin.H{"operations": events})
}

func (h *Handler) exportSnapshot(c *gin.Context) {
	ok(c, gin.H{"snapshot": h.Store.Export()})
}

func (h *Handler) importSnapshot(c *gin.Context) {
	var in struct {
		Snapshot roster.Snapshot `json:"snapshot"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.Store.Import(c.Request.Context(), in.Snapshot); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, nil)
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}
