// Package handler exposes the operator workflows as a JSON API.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campusd/internal/auth"
	"campusd/internal/session"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) bool

type Handler struct {
	sessions *session.Registry
	issuer   *auth.Issuer
	log      *zap.Logger
	checks   map[string]Check
}

func New(sessions *session.Registry, issuer *auth.Issuer, log *zap.Logger, checks map[string]Check) *Handler {
	return &Handler{sessions: sessions, issuer: issuer, log: log, checks: checks}
}

// Register mounts the session routes on v1 and every other route behind operator auth.
func (h *Handler) Register(v1 gin.IRouter) {
	v1.POST("/sessions", h.CreateSession)
	v1.POST("/sessions/refresh", h.RefreshSession)

	authed := v1.Group("", auth.OperatorAuth(h.issuer))

	authed.GET("/classes", h.ListClasses)
	authed.POST("/classes/:id/attendance/take", h.TakeAttendance)
	authed.GET("/classes/:id/attendance", h.ClassAttendance)

	authed.GET("/attendance", h.AttendanceState)
	authed.GET("/attendance/roster", h.Roster)
	authed.POST("/attendance/roster/:studentId/toggle", h.ToggleStudent)
	authed.POST("/attendance/save", h.SaveAttendance)
	authed.POST("/attendance/dialog", h.AttendanceDialog)
	authed.POST("/attendance/analysis", h.AttendanceAnalysis)
	authed.POST("/attendance/improvements", h.SuggestImprovements)
	authed.POST("/attendance/reminders", h.SmartReminders)

	authed.GET("/rooms", h.ListRooms)
	authed.GET("/rooms/:id", h.RoomDetails)
	authed.GET("/bookings", h.ListBookings)
	authed.POST("/bookings", h.BookRoom)
	authed.POST("/bookings/:id/cancel", h.CancelBooking)
	authed.GET("/bookings/state", h.BookingState)
	authed.POST("/bookings/dialog", h.BookingDialog)
	authed.GET("/bookings/selection", h.GetSelection)
	authed.PUT("/bookings/selection", h.PutSelection)

	authed.GET("/notifications", h.Notifications)
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range h.checks {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}

// ---------- Sessions ----------

type sessionRequest struct {
	Operator string `json:"operator" binding:"required,max=120"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *Handler) CreateSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.issue(c, http.StatusCreated, req.Operator)
}

func (h *Handler) RefreshSession(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	claims, err := h.issuer.Parse(req.RefreshToken, auth.KindRefresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	h.issue(c, http.StatusOK, claims.Subject)
}

func (h *Handler) issue(c *gin.Context, status int, operator string) {
	tokens, err := h.issuer.Issue(operator, auth.RoleOperator)
	if err != nil {
		h.log.Error("token issue failed", zap.String("operator", operator), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	h.sessions.Get(operator)

	c.JSON(status, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
		"operator":      operator,
	})
}

// session returns the caller's session. OperatorAuth guarantees the claims.
func (h *Handler) session(c *gin.Context) *session.Session {
	claims, _ := auth.ClaimsFrom(c)
	return h.sessions.Get(claims.Subject)
}

// ---------- Notifications ----------

func (h *Handler) Notifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": h.session(c).Feed.Drain()})
}

func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	h.log.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
