package memory

import (
	"campusd/internal/attendance"
	"campusd/internal/booking"
)

// Seeded returns a store holding the demo campus the Postgres seed migration also loads.
func Seeded() *Store {
	s := New()

	for _, r := range []booking.Room{
		{ID: "rm-101", Name: "Lecture Hall 101", Building: "Main Building", Capacity: 120, Features: []string{"Projector", "Audio System", "Whiteboard"}, Status: booking.RoomOnline},
		{ID: "rm-203", Name: "Computer Lab 203", Building: "Science Wing", Capacity: 40, Features: []string{"Computers", "Projector", "Specialized Software"}, Status: booking.RoomOnline},
		{ID: "rm-305", Name: "Conference Room 305", Building: "Administrative Building", Capacity: 20, Features: []string{"Video Conferencing", "Whiteboard", "Coffee Station"}, Status: booking.RoomMaintenance},
		{ID: "rm-422", Name: "Study Room 422", Building: "Library", Capacity: 8, Features: []string{"Whiteboard", "Reference Materials"}, Status: booking.RoomOnline},
		{ID: "rm-510", Name: "Seminar Room 510", Building: "Main Building", Capacity: 50, Features: []string{"Projector", "Audio System", "Flexible Seating"}, Status: booking.RoomWarning},
		{ID: "rm-602", Name: "Collaboration Space 602", Building: "Student Center", Capacity: 30, Features: []string{"Movable Furniture", "Whiteboards", "Display Screens"}, Status: booking.RoomOnline},
	} {
		s.AddRoom(r)
	}

	s.AddClass(attendance.Class{ID: "cs101", Name: "Introduction to Computer Science", Code: "CS101", Time: "Mon, Wed, Fri • 10:00 AM - 11:30 AM", Location: "Lecture Hall 101"},
		attendance.Student{ID: "st-101-01", Name: "Emma Johnson", RollNumber: "CS101-001"},
		attendance.Student{ID: "st-101-02", Name: "Liam Smith", RollNumber: "CS101-002"},
		attendance.Student{ID: "st-101-03", Name: "Olivia Brown", RollNumber: "CS101-003"},
		attendance.Student{ID: "st-101-04", Name: "Noah Davis", RollNumber: "CS101-004"},
		attendance.Student{ID: "st-101-05", Name: "Ava Wilson", RollNumber: "CS101-005"},
	)
	s.AddClass(attendance.Class{ID: "cs203", Name: "Data Structures and Algorithms", Code: "CS203", Time: "Tue, Thu • 1:00 PM - 3:00 PM", Location: "Computer Lab 203"},
		attendance.Student{ID: "st-203-01", Name: "Sophia Martinez", RollNumber: "CS203-001"},
		attendance.Student{ID: "st-203-02", Name: "Mason Anderson", RollNumber: "CS203-002"},
		attendance.Student{ID: "st-203-03", Name: "Isabella Thomas", RollNumber: "CS203-003"},
	)
	s.AddClass(attendance.Class{ID: "cs305", Name: "Database Management Systems", Code: "CS305", Time: "Mon, Wed • 3:30 PM - 5:00 PM", Location: "Room 305"},
		attendance.Student{ID: "st-305-01", Name: "James Taylor", RollNumber: "CS305-001"},
		attendance.Student{ID: "st-305-02", Name: "Mia Moore", RollNumber: "CS305-002"},
	)

	return s
}
