package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campusd/internal/attendance"
)

func (h *Handler) ListClasses(c *gin.Context) {
	classes, err := h.session(c).Attendance.Classes(c.Request.Context())
	if err != nil {
		h.internalError(c, "failed to load classes", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": classes})
}

// TakeAttendance starts a session for the class. An unknown class changes nothing
// and is reported with taken=false.
func (h *Handler) TakeAttendance(c *gin.Context) {
	p := h.session(c).Attendance
	ctx := c.Request.Context()
	if err := p.TakeAttendance(ctx, c.Param("id")); err != nil {
		h.internalError(c, "failed to start attendance", err)
		return
	}
	st, err := p.State(ctx)
	if err != nil {
		h.internalError(c, "failed to load attendance", err)
		return
	}
	taken := st.Selected != nil && st.Selected.ID == c.Param("id") && st.DialogOpen
	c.JSON(http.StatusOK, gin.H{"taken": taken, "state": st})
}

func (h *Handler) ClassAttendance(c *gin.Context) {
	records, err := h.session(c).Attendance.ViewAttendanceHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.internalError(c, "failed to load attendance", err)
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "rate": attendance.Rate(records)})
}

func (h *Handler) AttendanceState(c *gin.Context) {
	st, err := h.session(c).Attendance.State(c.Request.Context())
	if err != nil {
		h.internalError(c, "failed to load attendance", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) Roster(c *gin.Context) {
	c.JSON(http.StatusOK, h.session(c).Attendance.Roster(c.Query("q")))
}

func (h *Handler) ToggleStudent(c *gin.Context) {
	p := h.session(c).Attendance
	if !p.ToggleStudent(c.Param("studentId")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not in roster"})
		return
	}
	c.JSON(http.StatusOK, p.Roster(c.Query("q")))
}

type saveRequest struct {
	Date     string               `json:"date" binding:"required,datetime=2006-01-02"`
	Students []attendance.Student `json:"students"`
}

// SaveAttendance persists the given roster, or the working roster when none is sent.
func (h *Handler) SaveAttendance(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := h.session(c).Attendance
	ctx := c.Request.Context()

	if p.Selected() == nil {
		c.JSON(http.StatusConflict, gin.H{"error": attendance.ErrNoActiveClass.Error()})
		return
	}

	students := req.Students
	if students == nil {
		students = p.WorkingRoster()
	}
	students = attendance.UniqueStudents(students)
	if !p.SaveAttendance(ctx, students, req.Date) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save attendance. Please try again."})
		return
	}
	present, absent := attendance.CountPresence(students)
	c.JSON(http.StatusOK, gin.H{
		"saved":   true,
		"present": present,
		"absent":  absent,
		"rate":    attendance.FormatRate(present, absent),
	})
}

type dialogRequest struct {
	Open *bool `json:"open" binding:"required"`
}

func (h *Handler) AttendanceDialog(c *gin.Context) {
	var req dialogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.session(c).Attendance.SetDialogOpen(*req.Open)
	c.JSON(http.StatusOK, gin.H{"isAttendanceDialogOpen": *req.Open})
}

type classNameRequest struct {
	ClassName string `json:"className" binding:"required"`
}

func (h *Handler) AttendanceAnalysis(c *gin.Context) {
	var req classNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	text := h.session(c).Attendance.AttendanceAnalysis(c.Request.Context(), req.ClassName)
	c.JSON(http.StatusOK, gin.H{"analysis": text})
}

// SuggestImprovements asks for suggestions from the history of the class being viewed.
func (h *Handler) SuggestImprovements(c *gin.Context) {
	var req classNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := h.session(c).Attendance
	ctx := c.Request.Context()
	history, err := p.Records(ctx)
	if err != nil {
		h.internalError(c, "failed to load attendance", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": p.SuggestImprovements(ctx, req.ClassName, history)})
}

// SmartReminders asks for reminders from the history of the class being viewed.
func (h *Handler) SmartReminders(c *gin.Context) {
	var req classNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := h.session(c).Attendance
	ctx := c.Request.Context()
	history, err := p.Records(ctx)
	if err != nil {
		h.internalError(c, "failed to load attendance", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reminders": p.SmartReminders(ctx, req.ClassName, history)})
}
