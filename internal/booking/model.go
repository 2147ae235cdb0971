package booking

import (
	"context"
	"errors"
	"time"
)

// RoomStatus is the operational state of a room.
type RoomStatus string

const (
	RoomOnline      RoomStatus = "online"
	RoomOffline     RoomStatus = "offline"
	RoomMaintenance RoomStatus = "maintenance"
	RoomWarning     RoomStatus = "warning"
)

// Room is a bookable space.
type Room struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Building  string     `json:"building"`
	Capacity  int        `json:"capacity"`
	Features  []string   `json:"features"`
	Status    RoomStatus `json:"status"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Status is the lifecycle state of a booking. Cancelled is terminal.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// RoomRef is the part of a room carried on a booking listing.
type RoomRef struct {
	Name string `json:"name"`
}

// Booking reserves a room for a time window on a date.
// Date is YYYY-MM-DD, StartTime and EndTime are HH:MM.
type Booking struct {
	ID        string     `json:"id"`
	Room      RoomRef    `json:"room"`
	RoomID    string     `json:"room_id"`
	Date      string     `json:"date"`
	StartTime string     `json:"start_time"`
	EndTime   string     `json:"end_time"`
	Organizer string     `json:"organizer"`
	Purpose   string     `json:"purpose"`
	Status    Status     `json:"status"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	CreatedBy string     `json:"created_by,omitempty"`
}

// Ends returns the instant the booking's window closes, in loc.
func (b Booking) Ends(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", b.Date+" "+b.EndTime, loc)
}

// Repository is the backing store for rooms and bookings.
type Repository interface {
	ListRooms(ctx context.Context) ([]Room, error)
	// ListBookings returns every booking with its room name filled in.
	ListBookings(ctx context.Context) ([]Booking, error)
	InsertBooking(ctx context.Context, b Booking) (Booking, error)
	// CancelBooking moves a booking to cancelled. Cancelling a cancelled booking
	// succeeds; a completed one yields ErrNotCancellable.
	CancelBooking(ctx context.Context, id string) error
	// CompletePast marks upcoming bookings whose window closed before now as completed.
	CompletePast(ctx context.Context, now time.Time) (int, error)
}

var (
	ErrNotFound       = errors.New("booking not found")
	ErrNotCancellable = errors.New("booking already completed")
	ErrUnknownRoom    = errors.New("room not found")
)
