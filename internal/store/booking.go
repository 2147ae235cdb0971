package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"campusd/internal/booking"
)

// BookingRepo persists rooms and room bookings in Postgres.
type BookingRepo struct {
	db    *sql.DB
	types *pgtype.Map
}

func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db, types: pgtype.NewMap()}
}

var _ booking.Repository = (*BookingRepo)(nil)

// ListRooms returns the room inventory ordered by name.
func (r *BookingRepo) ListRooms(ctx context.Context) ([]booking.Room, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, building, capacity, features, status, created_at
		FROM rooms
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []booking.Room
	for rows.Next() {
		var (
			room    booking.Room
			created time.Time
		)
		if err := rows.Scan(&room.ID, &room.Name, &room.Building, &room.Capacity,
			r.types.SQLScanner(&room.Features), &room.Status, &created); err != nil {
			return nil, err
		}
		room.CreatedAt = &created
		res = append(res, room)
	}
	return res, rows.Err()
}

const bookingColumns = `
	b.id, b.room_id, rm.name, to_char(b.date, 'YYYY-MM-DD'),
	to_char(b.start_time, 'HH24:MI'), to_char(b.end_time, 'HH24:MI'),
	b.organizer, b.purpose, b.status, b.created_by, b.created_at`

func scanBooking(row interface{ Scan(...any) error }) (booking.Booking, error) {
	var (
		b       booking.Booking
		created time.Time
	)
	err := row.Scan(&b.ID, &b.RoomID, &b.Room.Name, &b.Date, &b.StartTime, &b.EndTime,
		&b.Organizer, &b.Purpose, &b.Status, &b.CreatedBy, &created)
	if err != nil {
		return booking.Booking{}, err
	}
	b.CreatedAt = &created
	return b, nil
}

// ListBookings returns every booking joined with its room name, soonest first.
func (r *BookingRepo) ListBookings(ctx context.Context) ([]booking.Booking, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM room_bookings b
		JOIN rooms rm ON rm.id = b.room_id
		ORDER BY b.date, b.start_time
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

// InsertBooking writes a new booking.
func (r *BookingRepo) InsertBooking(ctx context.Context, b booking.Booking) (booking.Booking, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = booking.StatusUpcoming
	}
	var created time.Time
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO room_bookings (id, room_id, date, start_time, end_time, organizer, purpose, status, created_by)
		VALUES ($1, $2, $3::date, $4::time, $5::time, $6, $7, $8, $9)
		RETURNING created_at
	`, b.ID, b.RoomID, b.Date, b.StartTime, b.EndTime, b.Organizer, b.Purpose, string(b.Status), b.CreatedBy)
	if err := row.Scan(&created); err != nil {
		return booking.Booking{}, err
	}
	b.CreatedAt = &created
	return b, nil
}

// CancelBooking sets status to cancelled unless the booking is completed.
func (r *BookingRepo) CancelBooking(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE room_bookings SET status = 'cancelled'
		WHERE id = $1 AND status <> 'completed'
	`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil || n > 0 {
		return err
	}

	var status string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM room_bookings WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.ErrNotFound
	}
	if err != nil {
		return err
	}
	return booking.ErrNotCancellable
}

// CompletePast marks upcoming bookings whose end lies before now as completed.
// Booking times are wall-clock times in now's location.
func (r *BookingRepo) CompletePast(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE room_bookings SET status = 'completed'
		WHERE status = 'upcoming' AND (date + end_time) < $1::timestamp
	`, now.Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
