package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"roster/internal/queue"
	"roster/internal/roster"
)

// The /api routes speak the spreadsheet action protocol over the local
// store, so clients written against the original proxy keep working. Reads
// are GETs with an action query parameter; writes are POSTs with an action
// field in the body.

func (h *Handler) actionGet(c *gin.Context) {
	switch action := c.Query("action"); action {
	case "getStudents":
		ok(c, gin.H{"students": h.Store.ListStudents("", "")})
	case "getClasses":
		classes := h.Store.ListClasses()
		names := make([]string, 0, len(classes))
		for _, cl := range classes {
			names = append(names, cl.Name)
		}
		ok(c, gin.H{"classes": names})
	case "getSchedule":
		ok(c, gin.H{"schedule": h.Store.ListClasses()})
	case "getAttendance":
		ok(c, gin.H{"attendance": h.filteredAttendance(c.Query("date"), c.Query("className"))})
	default:
		badRequest(c, "unknown action: "+action)
	}
}

func (h *Handler) actionPost(c *gin.Context) {
	var body struct {
		Action  string              `json:"action"`
		Student roster.StudentInput `json:"student"`
		// Legacy clients send the class name, not the id.
		ClassName string `json:"className"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}

	switch body.Action {
	case "appendStudent":
		in := body.Student
		if in.ClassID == "" && body.ClassName != "" {
			class, found := h.Store.GetClassByName(body.ClassName)
			if !found {
				h.fail(c, &roster.NotFoundError{Entity: "class", ID: body.ClassName})
				return
			}
			in.ClassID = class.ID
		}
		student, err := h.Store.AddStudent(c.Request.Context(), in)
		if err != nil {
			h.fail(c, err)
			return
		}
		// The original proxy appended the row remotely in the same call;
		// here the remote append is fire-and-forget so a slow sheet cannot
		// block the add.
		if h.Sync != nil {
			go func(st roster.Student) {
				if err := h.Sync.AppendStudent(context.Background(), st); err != nil {
					h.Log.Warn().Err(err).Msg("remote append failed")
				}
			}(student)
		}
		ok(c, gin.H{"student": student})
	case "syncStudents", "syncSchedule", "syncAttendance":
		// All three collections travel together in a snapshot push.
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
	default:
		badRequest(c, "unknown action: "+body.Action)
	}
}

func (h *Handler) filteredAttendance(date, className string) []roster.AttendanceRecord {
	classID := ""
	if className != "" {
		if class, found := h.Store.GetClassByName(className); found {
			classID = class.ID
		} else {
			return []roster.AttendanceRecord{}
		}
	}
	all := h.Store.ListAttendance()
	out := make([]roster.AttendanceRecord, 0, len(all))
	for _, rec := range all {
		if date != "" && rec.Date != date {
			continue
		}
		if classID != "" && rec.ClassID != classID {
			continue
		}
		out = append(out, rec)
	}
	return out
}
