package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"campusd/internal/attendance"
)

// AttendanceRepo persists classes, students and attendance entries in Postgres.
type AttendanceRepo struct {
	db *sql.DB
}

func NewAttendanceRepo(db *sql.DB) *AttendanceRepo {
	return &AttendanceRepo{db: db}
}

var _ attendance.Repository = (*AttendanceRepo)(nil)

// ListClasses returns every class ordered by code.
func (r *AttendanceRepo) ListClasses(ctx context.Context) ([]attendance.Class, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, code, time, location
		FROM classes
		ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []attendance.Class
	for rows.Next() {
		var c attendance.Class
		if err := rows.Scan(&c.ID, &c.Name, &c.Code, &c.Time, &c.Location); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// ListStudents returns the roster of a class ordered by roll number.
func (r *AttendanceRepo) ListStudents(ctx context.Context, classID string) ([]attendance.Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, roll_number
		FROM students
		WHERE class_id = $1
		ORDER BY roll_number
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []attendance.Student
	for rows.Next() {
		var s attendance.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.RollNumber); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// ListEntries returns every attendance entry of a class.
func (r *AttendanceRepo) ListEntries(ctx context.Context, classID string) ([]attendance.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, class_id, student_id, student_name, to_char(date, 'YYYY-MM-DD'), status
		FROM attendance_records
		WHERE class_id = $1
		ORDER BY date DESC, student_name
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []attendance.Entry
	for rows.Next() {
		var e attendance.Entry
		if err := rows.Scan(&e.ID, &e.ClassID, &e.StudentID, &e.StudentName, &e.Date, &e.Status); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// ReplaceEntries deletes the entries of (classID, date) and inserts entries in
// one transaction, so a repeated save never duplicates rows.
func (r *AttendanceRepo) ReplaceEntries(ctx context.Context, classID, date string, entries []attendance.Entry) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM attendance_records WHERE class_id = $1 AND date = $2::date
		`, classID, date); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO attendance_records (id, class_id, student_id, student_name, date, status)
			VALUES ($1, $2, $3, $4, $5::date, $6)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range entries {
			if e.ID == "" {
				e.ID = uuid.NewString()
			}
			if _, err := stmt.ExecContext(ctx, e.ID, classID, e.StudentID, e.StudentName, date, string(e.Status)); err != nil {
				return err
			}
		}
		return nil
	})
}
