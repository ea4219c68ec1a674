package httpapi

import (
	"github.com/gin-gonic/gin"

	"roster/internal/roster"
)

func (h *Handler) listStudents(c *gin.Context) {
	students := h.Store.ListStudents(c.Query("classId"), c.Query("status"))
	ok(c, gin.H{"students": students})
}

func (h *Handler) addStudent(c *gin.Context) {
	var in roster.StudentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	student, err := h.Store.AddStudent(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"student": student})
}

func (h *Handler) getStudent(c *gin.Context) {
	student, err := h.Store.GetStudent(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"student": student})
}

func (h *Handler) updateStudent(c *gin.Context) {
	var in roster.StudentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	student, err := h.Store.UpdateStudent(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"student": student})
}

func (h *Handler) planDeleteStudent(c *gin.Context) {
	plan, err := h.Store.PlanDeleteStudent(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"plan": plan})
}

func (h *Handler) deleteStudent(c *gin.Context) {
	if err := h.Store.ConfirmDeleteStudent(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *Handler) studentStats(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.Store.GetStudent(id); err != nil {
		h.fail(c, err)
		return
	}
	stats := h.Stats.StudentStats(id, c.Query("from"), c.Query("to"))
	ok(c, gin.H{"stats": stats})
}
