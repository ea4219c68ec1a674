package httpapi

import (
	"github.com/gin-gonic/gin"

	"roster/internal/roster"
)

func (h *Handler) markAttendance(c *gin.Context) {
	var in struct {
		StudentID string `json:"studentId"`
		Date      string `json:"date"`
		Status    string `json:"status"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.Store.MarkAttendance(c.Request.Context(), in.StudentID, in.Date, in.Status); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *Handler) listAttendance(c *gin.Context) {
	ok(c, gin.H{"attendance": h.Store.ListAttendance()})
}

func (h *Handler) dayStats(c *gin.Context) {
	classID := c.Query("classId")
	date := c.Query("date")
	if classID == "" || !roster.ValidDate(date) {
		badRequest(c, "classId and date (YYYY-MM-DD) required")
		return
	}
	ok(c, gin.H{"stats": h.Store.AttendanceStats(classID, date)})
}

func (h *Handler) markBatch(c *gin.Context) {
	var in struct {
		Date  string             `json:"date"`
		Marks []roster.BatchMark `json:"marks"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	res := h.Store.MarkBatch(c.Request.Context(), in.Date, in.Marks)
	ok(c, gin.H{"result": res})
}

func (h *Handler) copyLast(c *gin.Context) {
	var in struct {
		ClassID    string `json:"classId"`
		TargetDate string `json:"targetDate"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.Store.CopyLastAttendance(c.Request.Context(), in.ClassID, in.TargetDate)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"result": res})
}

func (h *Handler) deleteAttendanceRange(c *gin.Context) {
	deleted, err := h.Store.DeleteAttendanceRange(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"deleted": deleted})
}

func (h *Handler) dailyRollup(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if !roster.ValidDate(from) || !roster.ValidDate(to) {
		badRequest(c, "from and to (YYYY-MM-DD) required")
		return
	}
	ok(c, gin.H{"days": h.Stats.DailyRollup(from, to, c.Query("classId"))})
}

func (h *Handler) mostAbsent(c *gin.Context) {
	ranked := h.Stats.MostAbsent(intQuery(c, "limit", 10), c.Query("from"), c.Query("to"))
	ok(c, gin.H{"students": ranked})
}

func (h *Handler) lowestAttendance(c *gin.Context) {
	ranked := h.Stats.LowestAttendance(intQuery(c, "limit", 10), intQuery(c, "minMarked", 0))
	ok(c, gin.H{"students": ranked})
}
