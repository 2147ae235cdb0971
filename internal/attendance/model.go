package attendance

import (
	"context"
	"errors"
)

// Class is a class section attendance is taken for.
type Class struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Code           string `json:"code"`
	Time           string `json:"time"`
	Location       string `json:"location"`
	Students       int    `json:"students"`
	AttendanceRate string `json:"attendanceRate"`
}

// Student is a roster member. Present only has meaning inside an
// attendance-taking session and is not persisted until the session is saved.
type Student struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RollNumber string `json:"rollNumber"`
	Present    bool   `json:"present"`
}

// Status is the persisted outcome for one student on one date.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// Entry is a persisted per-student attendance row.
type Entry struct {
	ID          string `json:"id"`
	ClassID     string `json:"class_id"`
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name,omitempty"`
	Date        string `json:"date"`
	Status      Status `json:"status"`
}

// Record aggregates the entries of one class on one date.
type Record struct {
	Date        string  `json:"date"`
	DisplayDate string  `json:"displayDate"`
	Class       string  `json:"class"`
	Present     int     `json:"present"`
	Absent      int     `json:"absent"`
	Rate        string  `json:"rate"`
	Entries     []Entry `json:"records,omitempty"`
}

// Repository is the backing store for classes, students and attendance entries.
type Repository interface {
	ListClasses(ctx context.Context) ([]Class, error)
	ListStudents(ctx context.Context, classID string) ([]Student, error)
	ListEntries(ctx context.Context, classID string) ([]Entry, error)
	// ReplaceEntries deletes every entry for (classID, date) and inserts entries in their place.
	ReplaceEntries(ctx context.Context, classID, date string, entries []Entry) error
}

var (
	ErrNoActiveClass = errors.New("no class selected")
	ErrInvalidDate   = errors.New("date must be formatted YYYY-MM-DD")
)
