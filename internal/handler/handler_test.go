package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campusd/internal/auth"
	"campusd/internal/functions"
	"campusd/internal/query"
	"campusd/internal/session"
	"campusd/internal/store/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAdvisor struct{}

func (stubAdvisor) AnalyzeAttendance(_ context.Context, in functions.AnalysisInput) (string, error) {
	return "analysis of " + in.ClassName, nil
}

func (stubAdvisor) SuggestImprovements(_ context.Context, in functions.ImprovementsInput) (string, error) {
	return "suggestions for " + in.ClassName, nil
}

func (stubAdvisor) SmartReminders(_ context.Context, in functions.RemindersInput) (string, error) {
	return "reminders for " + in.ClassName, nil
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newServer(t *testing.T, checks map[string]Check) *testServer {
	st := memory.Seeded()
	reg := session.NewRegistry(session.Deps{
		Cache:      query.NewClient(0),
		Attendance: st,
		Booking:    st,
		Advisor:    stubAdvisor{},
		Log:        zap.NewNop(),
	})
	h := New(reg, auth.NewIssuer("campusd", "test-key", time.Minute, time.Hour), zap.NewNop(), checks)

	r := gin.New()
	r.GET("/healthz", h.Healthz)
	h.Register(r.Group("/v1"))
	return &testServer{t: t, router: r}
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(operator string) string {
	rec := s.do(http.MethodPost, "/v1/sessions", "", `{"operator":"`+operator+`"}`)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.AccessToken
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestRoutesRequireBearerToken(t *testing.T) {
	s := newServer(t, nil)

	for _, path := range []string{"/v1/classes", "/v1/attendance", "/v1/bookings", "/v1/notifications"} {
		rec := s.do(http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestCreateSessionValidates(t *testing.T) {
	s := newServer(t, nil)
	rec := s.do(http.MethodPost, "/v1/sessions", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshSession(t *testing.T) {
	s := newServer(t, nil)
	rec := s.do(http.MethodPost, "/v1/sessions", "", `{"operator":"Prof. Smith"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var pair struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decodeInto(t, rec, &pair)

	rec = s.do(http.MethodPost, "/v1/sessions/refresh", "", `{"refresh_token":"`+pair.AccessToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/v1/sessions/refresh", "", `{"refresh_token":"`+pair.RefreshToken+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAttendanceFlow(t *testing.T) {
	s := newServer(t, nil)
	token := s.login("Prof. Smith")

	rec := s.do(http.MethodGet, "/v1/classes", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var classes struct {
		Classes []struct {
			ID             string `json:"id"`
			Students       int    `json:"students"`
			AttendanceRate string `json:"attendanceRate"`
		} `json:"classes"`
	}
	decodeInto(t, rec, &classes)
	require.Len(t, classes.Classes, 3)
	assert.Equal(t, "0%", classes.Classes[0].AttendanceRate)

	rec = s.do(http.MethodPost, "/v1/classes/cs101/attendance/take", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var taken struct {
		Taken bool `json:"taken"`
	}
	decodeInto(t, rec, &taken)
	assert.True(t, taken.Taken)

	rec = s.do(http.MethodPost, "/v1/attendance/roster/st-101-02/toggle", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var roster struct {
		Total   int `json:"total"`
		Present int `json:"present"`
		Absent  int `json:"absent"`
	}
	decodeInto(t, rec, &roster)
	assert.Equal(t, 5, roster.Total)
	assert.Equal(t, 4, roster.Present)
	assert.Equal(t, 1, roster.Absent)

	rec = s.do(http.MethodPost, "/v1/attendance/roster/nobody/toggle", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/v1/attendance/save", token, `{"date":"2024-01-15"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var saved struct {
		Rate string `json:"rate"`
	}
	decodeInto(t, rec, &saved)
	assert.Equal(t, "80%", saved.Rate)

	rec = s.do(http.MethodGet, "/v1/classes/cs101/attendance", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Records []struct {
			Date    string `json:"date"`
			Present int    `json:"present"`
			Absent  int    `json:"absent"`
			Rate    string `json:"rate"`
		} `json:"records"`
		Rate string `json:"rate"`
	}
	decodeInto(t, rec, &history)
	require.Len(t, history.Records, 1)
	assert.Equal(t, 4, history.Records[0].Present)
	assert.Equal(t, 1, history.Records[0].Absent)
	assert.Equal(t, "80%", history.Rate)

	rec = s.do(http.MethodGet, "/v1/notifications", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var notes struct {
		Notifications []struct {
			Title    string `json:"title"`
			Operator string `json:"operator"`
		} `json:"notifications"`
	}
	decodeInto(t, rec, &notes)
	require.Len(t, notes.Notifications, 1)
	assert.Equal(t, "Attendance Saved", notes.Notifications[0].Title)
	assert.Equal(t, "Prof. Smith", notes.Notifications[0].Operator)

	rec = s.do(http.MethodGet, "/v1/notifications", token, "")
	decodeInto(t, rec, &notes)
	assert.Empty(t, notes.Notifications)
}

func TestSaveWithoutSelection(t *testing.T) {
	s := newServer(t, nil)
	token := s.login("Prof. Smith")

	rec := s.do(http.MethodPost, "/v1/attendance/save", token, `{"date":"2024-01-15"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/v1/attendance/save", token, `{"date":"Jan 15"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTakeUnknownClass(t *testing.T) {
	s := newServer(t, nil)
	token := s.login("Prof. Smith")

	rec := s.do(http.MethodPost, "/v1/classes/nope/attendance/take", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Taken bool `json:"taken"`
		State struct {
			Selected   any  `json:"selectedClass"`
			DialogOpen bool `json:"isAttendanceDialogOpen"`
		} `json:"state"`
	}
	decodeInto(t, rec, &out)
	assert.False(t, out.Taken)
	assert.Nil(t, out.State.Selected)
	assert.False(t, out.State.DialogOpen)
}

func TestAnalysisAndReminders(t *testing.T) {
	s := newServer(t, nil)
	token := s.login("Prof. Smith")

	rec := s.do(http.MethodPost, "/v1/attendance/analysis", token, `{"className":"CS101"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"analysis":"analysis of CS101"}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/v1/attendance/reminders", token, `{"className":"CS101"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reminders":"reminders for CS101"}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/v1/attendance/reminders", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/v1/attendance/improvements", token, `{"className":"CS101"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"suggestions":"suggestions for CS101"}`, rec.Body.String())
}

func TestBookingFlow(t *testing.T) {
	s := newServer(t, nil)
	token := s.login("Dr. Johnson")

	rec := s.do(http.MethodGet, "/v1/rooms?q=library", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rooms struct {
		Rooms []struct {
			ID string `json:"id"`
		} `json:"rooms"`
	}
	decodeInto(t, rec, &rooms)
	require.Len(t, rooms.Rooms, 1)
	assert.Equal(t, "rm-422", rooms.Rooms[0].ID)

	rec = s.do(http.MethodGet, "/v1/rooms/rm-404", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	form := `{"roomId":"rm-422","date":"2030-05-12","startTime":"15:00","endTime":"17:00","purpose":"Project Meeting"}`
	rec = s.do(http.MethodPost, "/v1/bookings", token, form)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/v1/bookings", token, strings.Replace(form, "rm-422", "rm-999", 1))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/v1/bookings", token, strings.Replace(form, `"17:00"`, `"14:00"`, 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/v1/bookings", token, strings.Replace(form, `"17:00"`, `"9:30"`, 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/v1/notifications", token, "")
	var notes struct {
		Notifications []struct {
			Description string `json:"description"`
		} `json:"notifications"`
	}
	decodeInto(t, rec, &notes)
	require.Len(t, notes.Notifications, 4)
	assert.Equal(t, "Room booked successfully", notes.Notifications[0].Description)
	assert.Equal(t, "No room selected", notes.Notifications[1].Description)
	assert.Equal(t, "Please fill in all fields", notes.Notifications[2].Description)
	assert.Equal(t, "Please fill in all fields", notes.Notifications[3].Description)

	rec = s.do(http.MethodGet, "/v1/bookings", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Bookings []struct {
			ID        string `json:"id"`
			Organizer string `json:"organizer"`
			Status    string `json:"status"`
			Room      struct {
				Name string `json:"name"`
			} `json:"room"`
		} `json:"bookings"`
	}
	decodeInto(t, rec, &list)
	require.Len(t, list.Bookings, 1)
	b := list.Bookings[0]
	assert.Equal(t, "Dr. Johnson", b.Organizer)
	assert.Equal(t, "upcoming", b.Status)
	assert.Equal(t, "Study Room 422", b.Room.Name)

	for i := 0; i < 2; i++ {
		rec = s.do(http.MethodPost, "/v1/bookings/"+b.ID+"/cancel", token, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec = s.do(http.MethodPost, "/v1/bookings/missing/cancel", token, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBookingSelectionAndDialogs(t *testing.T) {
	s := newServer(t, nil)
	token := s.login("Dr. Johnson")

	rec := s.do(http.MethodPut, "/v1/bookings/selection", token, `{"selectedDate":"2030-01-02","searchQuery":"projector"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/v1/rooms", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rooms struct {
		Rooms []struct {
			ID string `json:"id"`
		} `json:"rooms"`
	}
	decodeInto(t, rec, &rooms)
	assert.Len(t, rooms.Rooms, 3)

	rec = s.do(http.MethodPost, "/v1/bookings/dialog", token, `{"dialog":"detail","open":true,"roomId":"rm-305"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var st struct {
		SelectedRoom struct {
			ID string `json:"id"`
		} `json:"selectedRoom"`
		DetailDialogOpen bool `json:"isDetailDialogOpen"`
		Selection        struct {
			Date string `json:"selectedDate"`
		} `json:"selection"`
	}
	decodeInto(t, rec, &st)
	assert.Equal(t, "rm-305", st.SelectedRoom.ID)
	assert.True(t, st.DetailDialogOpen)
	assert.Equal(t, "2030-01-02", st.Selection.Date)

	rec = s.do(http.MethodPost, "/v1/bookings/dialog", token, `{"dialog":"booking","open":true,"roomId":"rm-000"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/v1/bookings/dialog", token, `{"dialog":"sideways","open":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	s := newServer(t, map[string]Check{
		"db":    func(context.Context) bool { return true },
		"redis": func(context.Context) bool { return false },
	})

	rec := s.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","db":true,"redis":false}`, rec.Body.String())
}
