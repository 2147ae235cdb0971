package functions

// Actions accepted by the attendance analysis function.
const (
	ActionAnalyzeAttendance   = "analyze_attendance"
	ActionSuggestImprovements = "suggest_improvements"
)

// RosterEntry is one student as sent to the analysis function.
type RosterEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RollNumber string `json:"rollNumber"`
	Present    bool   `json:"present"`
}

// HistoryEntry summarises one attendance date.
type HistoryEntry struct {
	Date    string `json:"date"`
	Rate    string `json:"rate"`
	Present int    `json:"present"`
	Absent  int    `json:"absent"`
}

// AnalysisInput is the data of an analyze_attendance request.
// AttendanceRecords is the session's working roster, Students the persisted roster.
type AnalysisInput struct {
	ClassName         string        `json:"className"`
	AttendanceRecords []RosterEntry `json:"attendanceRecords"`
	Students          []RosterEntry `json:"students"`
}

// ImprovementsInput is the data of a suggest_improvements request.
type ImprovementsInput struct {
	ClassName         string         `json:"className"`
	AttendanceHistory []HistoryEntry `json:"attendanceHistory"`
}

// RemindersInput is the body of a smart reminders request.
type RemindersInput struct {
	ClassName         string         `json:"className"`
	AttendanceHistory []HistoryEntry `json:"attendanceHistory"`
}

type attendanceRequest struct {
	Action string `json:"action"`
	Data   any    `json:"data"`
}

type analysisResponse struct {
	Analysis string `json:"analysis"`
}

type remindersResponse struct {
	Reminders string `json:"reminders"`
}

type errorResponse struct {
	Error string `json:"error"`
}
