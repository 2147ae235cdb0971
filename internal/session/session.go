// Package session keeps one attendance and one booking workflow per operator.
package session

import (
	"sync"

	"go.uber.org/zap"

	"campusd/internal/attendance"
	"campusd/internal/booking"
	"campusd/internal/notify"
	"campusd/internal/query"
)

const feedLimit = 50

// Session is the state of one signed-in operator.
type Session struct {
	Operator   string
	Attendance *attendance.Provider
	Booking    *booking.Provider
	Feed       *notify.Feed
}

// Deps are shared by every session. Publisher is optional; when set it receives
// every notification in addition to the session feed.
type Deps struct {
	Cache      *query.Client
	Attendance attendance.Repository
	Booking    booking.Repository
	Advisor    attendance.Advisor
	Publisher  notify.Notifier
	Log        *zap.Logger
}

// Registry creates sessions on first use and hands the same one back afterwards.
type Registry struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(deps Deps) *Registry {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Registry{deps: deps, sessions: make(map[string]*Session)}
}

// Get returns operator's session, creating it if needed.
func (r *Registry) Get(operator string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[operator]; ok {
		return s
	}

	feed := notify.NewFeed(feedLimit)
	tee := notify.Tee{Operator: operator, Targets: []notify.Notifier{feed}}
	if r.deps.Publisher != nil {
		tee.Targets = append(tee.Targets, r.deps.Publisher)
	}
	log := r.deps.Log.With(zap.String("operator", operator))

	s := &Session{
		Operator:   operator,
		Attendance: attendance.NewProvider(r.deps.Cache, r.deps.Attendance, r.deps.Advisor, tee, log),
		Booking:    booking.NewProvider(r.deps.Cache, r.deps.Booking, tee, operator, log),
		Feed:       feed,
	}
	r.sessions[operator] = s
	log.Debug("session created")
	return s
}

// Len reports how many sessions exist.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
