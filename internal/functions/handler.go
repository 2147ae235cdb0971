package functions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campusd/internal/completion"
	"campusd/internal/config"
	"campusd/internal/httpmiddleware"
	"campusd/internal/metrics"
)

const (
	attendanceFunction = "groq-attendance"
	remindersFunction  = "groq-reminders"
)

// ErrNotConfigured is reported when no completion API credential is configured.
var ErrNotConfigured = errors.New("GROQ_API_KEY is not configured")

// Completer forwards one prompt to the completion API.
type Completer interface {
	Complete(ctx context.Context, req completion.Request) (string, error)
}

// Handlers serves the two completion proxy functions. They keep no state between requests.
type Handlers struct {
	completer Completer
	log       *zap.Logger
}

// New creates the handlers. A nil completer means the credential is missing:
// every forward then fails with ErrNotConfigured.
func New(completer Completer, log *zap.Logger) *Handlers {
	return &Handlers{completer: completer, log: log}
}

// FromConfig wires the handlers to the Groq API described by cfg.
func FromConfig(cfg config.Groq, log *zap.Logger) *Handlers {
	if cfg.APIKey == "" {
		log.Warn("GROQ_API_KEY not set, completion functions will answer 500")
		return New(nil, log)
	}
	return New(completion.New(cfg.APIKey, cfg.BaseURL, cfg.Model), log)
}

// Register mounts the functions and their preflight routes on r.
func (h *Handlers) Register(r gin.IRouter) {
	g := r.Group("", httpmiddleware.CORS(httpmiddleware.FunctionCORS))
	g.OPTIONS("/"+attendanceFunction, func(*gin.Context) {})
	g.OPTIONS("/"+remindersFunction, func(*gin.Context) {})
	g.POST("/"+attendanceFunction, h.Attendance)
	g.POST("/"+remindersFunction, h.Reminders)
}

// Attendance handles {action, data} analysis requests.
func (h *Handlers) Attendance(c *gin.Context) {
	var req struct {
		Action string          `json:"action"`
		Data   json.RawMessage `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	var creq completion.Request
	switch req.Action {
	case ActionAnalyzeAttendance:
		var in AnalysisInput
		if err := decodeData(req.Data, &in); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid data: " + err.Error()})
			return
		}
		creq = analysisRequest(in)
	case ActionSuggestImprovements:
		var in ImprovementsInput
		if err := decodeData(req.Data, &in); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid data: " + err.Error()})
			return
		}
		creq = improvementsRequest(in)
	default:
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid action specified"})
		return
	}

	text, err := h.forward(c.Request.Context(), attendanceFunction, creq)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, analysisResponse{Analysis: text})
}

// Reminders handles smart reminder requests.
func (h *Handlers) Reminders(c *gin.Context) {
	var req struct {
		ClassName         string          `json:"className"`
		AttendanceHistory *[]HistoryEntry `json:"attendanceHistory"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	var missing []string
	if req.ClassName == "" {
		missing = append(missing, "className")
	}
	if req.AttendanceHistory == nil {
		missing = append(missing, "attendanceHistory")
	}
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing " + strings.Join(missing, " or ")})
		return
	}

	in := RemindersInput{ClassName: req.ClassName, AttendanceHistory: *req.AttendanceHistory}
	text, err := h.forward(c.Request.Context(), remindersFunction, remindersRequest(in))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, remindersResponse{Reminders: text})
}

func (h *Handlers) forward(ctx context.Context, function string, req completion.Request) (string, error) {
	if h.completer == nil {
		metrics.CompletionRequests.WithLabelValues(function, "unconfigured").Inc()
		h.log.Error("completion forward refused", zap.String("function", function), zap.Error(ErrNotConfigured))
		return "", ErrNotConfigured
	}

	start := time.Now()
	text, err := h.completer.Complete(ctx, req)
	metrics.CompletionLatency.WithLabelValues(function).Observe(time.Since(start).Seconds())
	metrics.CompletionRequests.WithLabelValues(function, metrics.Outcome(err == nil)).Inc()
	if err != nil {
		h.log.Error("completion forward failed", zap.String("function", function), zap.Error(err))
		return "", err
	}
	return text, nil
}

func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
