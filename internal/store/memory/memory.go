// Package memory is an in-process backing store for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"campusd/internal/attendance"
	"campusd/internal/booking"
)

// Store keeps classes, students, attendance entries, rooms and bookings in maps.
// It satisfies both attendance.Repository and booking.Repository.
type Store struct {
	mu       sync.RWMutex
	classes  []attendance.Class
	students map[string][]attendance.Student
	entries  []attendance.Entry
	rooms    []booking.Room
	bookings []booking.Booking
	now      func() time.Time
}

var (
	_ attendance.Repository = (*Store)(nil)
	_ booking.Repository    = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{students: make(map[string][]attendance.Student), now: time.Now}
}

func (s *Store) ListClasses(context.Context) ([]attendance.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]attendance.Class(nil), s.classes...), nil
}

func (s *Store) ListStudents(_ context.Context, classID string) ([]attendance.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]attendance.Student(nil), s.students[classID]...), nil
}

func (s *Store) ListEntries(_ context.Context, classID string) ([]attendance.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []attendance.Entry
	for _, e := range s.entries {
		if e.ClassID == classID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) ReplaceEntries(_ context.Context, classID, date string, entries []attendance.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]attendance.Entry, 0, len(s.entries)+len(entries))
	for _, e := range s.entries {
		if e.ClassID != classID || e.Date != date {
			kept = append(kept, e)
		}
	}
	for _, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		e.ClassID = classID
		e.Date = date
		kept = append(kept, e)
	}
	s.entries = kept
	return nil
}

func (s *Store) ListRooms(context.Context) ([]booking.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]booking.Room, len(s.rooms))
	for i, r := range s.rooms {
		r.Features = append([]string(nil), r.Features...)
		out[i] = r
	}
	return out, nil
}

func (s *Store) ListBookings(context.Context) ([]booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make(map[string]string, len(s.rooms))
	for _, r := range s.rooms {
		names[r.ID] = r.Name
	}
	out := make([]booking.Booking, len(s.bookings))
	for i, b := range s.bookings {
		b.Room.Name = names[b.RoomID]
		out[i] = b
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (s *Store) InsertBooking(_ context.Context, b booking.Booking) (booking.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasRoomLocked(b.RoomID) {
		return booking.Booking{}, booking.ErrUnknownRoom
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = booking.StatusUpcoming
	}
	created := s.now().UTC()
	b.CreatedAt = &created
	s.bookings = append(s.bookings, b)
	return b, nil
}

func (s *Store) CancelBooking(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bookings {
		if s.bookings[i].ID != id {
			continue
		}
		if s.bookings[i].Status == booking.StatusCompleted {
			return booking.ErrNotCancellable
		}
		s.bookings[i].Status = booking.StatusCancelled
		return nil
	}
	return booking.ErrNotFound
}

func (s *Store) CompletePast(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.bookings {
		b := &s.bookings[i]
		if b.Status != booking.StatusUpcoming {
			continue
		}
		end, err := b.Ends(now.Location())
		if err != nil || !end.Before(now) {
			continue
		}
		b.Status = booking.StatusCompleted
		n++
	}
	return n, nil
}

func (s *Store) hasRoomLocked(id string) bool {
	for _, r := range s.rooms {
		if r.ID == id {
			return true
		}
	}
	return false
}

// AddClass registers a class with its roster.
func (s *Store) AddClass(c attendance.Class, students ...attendance.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes = append(s.classes, c)
	s.students[c.ID] = append(s.students[c.ID], students...)
}

// AddRoom registers a room.
func (s *Store) AddRoom(r booking.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = append(s.rooms, r)
}

// AddBooking stores b as is.
func (s *Store) AddBooking(b booking.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = append(s.bookings, b)
}
