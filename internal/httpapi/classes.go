package httpapi

import (
	"github.com/gin-gonic/gin"

	"roster/internal/roster"
)

func (h *Handler) listClasses(c *gin.Context) {
	ok(c, gin.H{"classes": h.Store.ListClasses()})
}

func (h *Handler) addClass(c *gin.Context) {
	var in roster.ClassInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	class, err := h.Store.AddClass(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"class": class})
}

func (h *Handler) getClass(c *gin.Context) {
	class, err := h.Store.GetClass(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"class": class})
}

func (h *Handler) updateClass(c *gin.Context) {
	var in roster.ClassInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	class, err := h.Store.UpdateClass(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"class": class})
}

func (h *Handler) planDeleteClass(c *gin.Context) {
	plan, err := h.Store.PlanDeleteClass(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"plan": plan})
}

func (h *Handler) deleteClass(c *gin.Context) {
	if err := h.Store.ConfirmDeleteClass(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *Handler) classStats(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.Store.GetClass(id); err != nil {
		h.fail(c, err)
		return
	}
	stats := h.Stats.ClassStats(id, c.Query("from"), c.Query("to"))
	ok(c, gin.H{"stats": stats})
}

func (h *Handler) listSessions(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.Store.GetClass(id); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"dates": h.Store.SessionDates(id)})
}

func (h *Handler) addSession(c *gin.Context) {
	var in struct {
		Date string `json:"date"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.Store.AddSession(c.Request.Context(), c.Param("id"), in.Date); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *Handler) deleteSession(c *gin.Context) {
	if err := h.Store.DeleteSession(c.Request.Context(), c.Param("id"), c.Param("date")); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *Handler) generateSessions(c *gin.Context) {
	var in struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	added, err := h.Store.GenerateSessions(c.Request.Context(), c.Param("id"), in.From, in.To)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"added": added})
}
