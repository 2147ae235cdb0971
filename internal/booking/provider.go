package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"campusd/internal/metrics"
	"campusd/internal/notify"
	"campusd/internal/query"
)

// Selection holds the operator's search and date/time pickers. It is never persisted.
type Selection struct {
	Date      string `json:"selectedDate"`
	StartTime string `json:"selectedStartTime"`
	EndTime   string `json:"selectedEndTime"`
	Search    string `json:"searchQuery"`
}

// State is a snapshot of everything the booking views render.
type State struct {
	Rooms             []Room    `json:"rooms"`
	Bookings          []Booking `json:"bookings"`
	Selection         Selection `json:"selection"`
	SelectedRoom      *Room     `json:"selectedRoom"`
	Loading           bool      `json:"isLoading"`
	BookingDialogOpen bool      `json:"isBookingDialogOpen"`
	DetailDialogOpen  bool      `json:"isDetailDialogOpen"`
}

// Provider holds one operator's room-booking workflow.
type Provider struct {
	queries  *Queries
	repo     Repository
	cache    *query.Client
	notifier notify.Notifier
	log      *zap.Logger
	operator string
	now      func() time.Time

	mu            sync.Mutex
	selection     Selection
	selectedRoom  *Room
	bookingDialog bool
	detailDialog  bool
	pending       int
}

// NewProvider creates a provider acting for operator, who becomes the organizer
// of every booking it makes.
func NewProvider(cache *query.Client, repo Repository, notifier notify.Notifier, operator string, log *zap.Logger) *Provider {
	p := &Provider{
		queries:  NewQueries(cache, repo),
		repo:     repo,
		cache:    cache,
		notifier: notifier,
		log:      log,
		operator: operator,
		now:      time.Now,
	}
	p.selection.Date = p.now().Format("2006-01-02")
	return p
}

// AllRooms returns the room inventory.
func (p *Provider) AllRooms(ctx context.Context) ([]Room, error) {
	rooms, err := p.queries.Rooms().Data(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}
	return rooms, nil
}

// Rooms returns the rooms matching the current search text.
func (p *Provider) Rooms(ctx context.Context) ([]Room, error) {
	rooms, err := p.AllRooms(ctx)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	q := p.selection.Search
	p.mu.Unlock()
	return FilterRooms(rooms, q), nil
}

// Bookings returns every booking.
func (p *Provider) Bookings(ctx context.Context) ([]Booking, error) {
	bookings, err := p.queries.Bookings().Data(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	if bookings == nil {
		bookings = []Booking{}
	}
	return bookings, nil
}

// ViewRoomDetails looks a room up in the inventory.
func (p *Provider) ViewRoomDetails(ctx context.Context, roomID string) (Room, bool) {
	room, err := p.FindRoom(ctx, roomID)
	if err != nil {
		if !errors.Is(err, ErrUnknownRoom) {
			p.log.Error("view room details failed", zap.String("room_id", roomID), zap.Error(err))
		}
		return Room{}, false
	}
	return room, true
}

// FindRoom returns the room with roomID, or ErrUnknownRoom. Read failures are
// returned as they are.
func (p *Provider) FindRoom(ctx context.Context, roomID string) (Room, error) {
	rooms, err := p.AllRooms(ctx)
	if err != nil {
		return Room{}, err
	}
	for _, r := range rooms {
		if r.ID == roomID {
			return r, nil
		}
	}
	return Room{}, fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
}

// BookRoom validates form and creates an upcoming booking organised by the operator.
// Overlapping bookings are accepted.
func (p *Provider) BookRoom(ctx context.Context, form Form) bool {
	return p.Book(ctx, form) == nil
}

// Book is BookRoom reporting why a booking failed: ErrInvalidForm,
// ErrUnknownRoom, or the read or insert error. The operator is notified either way.
func (p *Provider) Book(ctx context.Context, form Form) error {
	p.begin()
	defer p.end()

	if err := form.Validate(); err != nil {
		p.fail(ctx, "book", "Please fill in all fields", err)
		return err
	}
	form = form.normalized()

	room, err := p.FindRoom(ctx, form.RoomID)
	switch {
	case errors.Is(err, ErrUnknownRoom):
		p.fail(ctx, "book", "No room selected", err)
		return err
	case err != nil:
		p.fail(ctx, "book", "Failed to book room. Please try again.", err)
		return err
	}

	ctx = context.WithoutCancel(ctx)
	b, err := p.repo.InsertBooking(ctx, Booking{
		RoomID:    room.ID,
		Room:      RoomRef{Name: room.Name},
		Date:      form.Date,
		StartTime: form.StartTime,
		EndTime:   form.EndTime,
		Purpose:   form.Purpose,
		Organizer: p.operator,
		Status:    StatusUpcoming,
		CreatedBy: p.operator,
	})
	if err != nil {
		p.fail(ctx, "book", "Failed to book room. Please try again.", err)
		return err
	}

	p.cache.Invalidate(KeyBookings)
	metrics.BookingActions.WithLabelValues("book", metrics.Outcome(true)).Inc()
	p.log.Info("room booked", zap.String("booking_id", b.ID), zap.String("room_id", room.ID),
		zap.String("date", b.Date), zap.String("organizer", p.operator))
	p.notifier.Notify(ctx, notify.Success("Success", "Room booked successfully"))

	p.mu.Lock()
	p.bookingDialog = false
	p.mu.Unlock()
	return nil
}

// CancelBooking moves a booking to cancelled. Cancelling twice succeeds both times.
func (p *Provider) CancelBooking(ctx context.Context, id string) bool {
	p.begin()
	defer p.end()

	ctx = context.WithoutCancel(ctx)
	if err := p.repo.CancelBooking(ctx, id); err != nil {
		p.fail(ctx, "cancel", "Failed to cancel booking. Please try again.", err)
		return false
	}

	p.cache.Invalidate(KeyBookings)
	metrics.BookingActions.WithLabelValues("cancel", metrics.Outcome(true)).Inc()
	p.notifier.Notify(ctx, notify.Success("Success", "Booking cancelled successfully"))
	return true
}

func (p *Provider) fail(ctx context.Context, action, msg string, err error) {
	metrics.BookingActions.WithLabelValues(action, metrics.Outcome(false)).Inc()
	lvl := p.log.Error
	if errors.Is(err, ErrInvalidForm) || errors.Is(err, ErrUnknownRoom) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotCancellable) {
		lvl = p.log.Warn
	}
	lvl(action+" booking failed", zap.String("operator", p.operator), zap.Error(err))
	p.notifier.Notify(ctx, notify.Failure("Error", msg))
}

func (p *Provider) begin() {
	p.mu.Lock()
	p.pending++
	p.mu.Unlock()
}

func (p *Provider) end() {
	p.mu.Lock()
	p.pending--
	p.mu.Unlock()
}

// Selection returns the current pickers.
func (p *Provider) Selection() Selection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selection
}

// SetSelection replaces the pickers. An empty date resets to today.
func (p *Provider) SetSelection(s Selection) Selection {
	if s.Date == "" {
		s.Date = p.now().Format("2006-01-02")
	}
	p.mu.Lock()
	p.selection = s
	p.mu.Unlock()
	return s
}

// SelectRoom sets or, with nil, clears the selected room.
func (p *Provider) SelectRoom(r *Room) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r == nil {
		p.selectedRoom = nil
		return
	}
	cp := *r
	p.selectedRoom = &cp
}

// OpenBookingDialog selects roomID and opens the booking form.
func (p *Provider) OpenBookingDialog(ctx context.Context, roomID string) bool {
	return p.openWith(ctx, roomID, func() { p.bookingDialog = true })
}

// OpenRoomDetails selects roomID and opens the room detail dialog.
func (p *Provider) OpenRoomDetails(ctx context.Context, roomID string) bool {
	return p.openWith(ctx, roomID, func() { p.detailDialog = true })
}

func (p *Provider) openWith(ctx context.Context, roomID string, open func()) bool {
	room, ok := p.ViewRoomDetails(ctx, roomID)
	if !ok {
		return false
	}
	p.mu.Lock()
	p.selectedRoom = &room
	open()
	p.mu.Unlock()
	return true
}

func (p *Provider) SetBookingDialogOpen(open bool) {
	p.mu.Lock()
	p.bookingDialog = open
	p.mu.Unlock()
}

func (p *Provider) SetDetailDialogOpen(open bool) {
	p.mu.Lock()
	p.detailDialog = open
	p.mu.Unlock()
}

// Loading reports whether a read is in flight or a write is pending.
func (p *Provider) Loading() bool {
	p.mu.Lock()
	pending := p.pending
	p.mu.Unlock()
	return pending > 0 || p.queries.Fetching()
}

// State snapshots the provider for rendering. Rooms are filtered by the search text.
func (p *Provider) State(ctx context.Context) (State, error) {
	rooms, err := p.Rooms(ctx)
	if err != nil {
		return State{}, err
	}
	bookings, err := p.Bookings(ctx)
	if err != nil {
		return State{}, err
	}

	p.mu.Lock()
	st := State{
		Rooms:             rooms,
		Bookings:          bookings,
		Selection:         p.selection,
		BookingDialogOpen: p.bookingDialog,
		DetailDialogOpen:  p.detailDialog,
	}
	if p.selectedRoom != nil {
		r := *p.selectedRoom
		st.SelectedRoom = &r
	}
	p.mu.Unlock()

	st.Loading = p.Loading()
	return st, nil
}

// FilterRooms keeps rooms whose name, building or any feature contains q, ignoring case.
func FilterRooms(rooms []Room, q string) []Room {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]Room, 0, len(rooms))
	for _, r := range rooms {
		if q == "" || roomMatches(r, q) {
			out = append(out, r)
		}
	}
	return out
}

func roomMatches(r Room, q string) bool {
	if strings.Contains(strings.ToLower(r.Name), q) || strings.Contains(strings.ToLower(r.Building), q) {
		return true
	}
	for _, f := range r.Features {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
