package attendance

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"campusd/internal/functions"
	"campusd/internal/metrics"
	"campusd/internal/notify"
	"campusd/internal/query"
)

// Fallback texts returned when the advisory functions cannot be reached.
const (
	AnalysisFallback     = "Unable to generate analysis at this time."
	ImprovementsFallback = "Unable to generate suggestions at this time."
	RemindersFallback    = "Unable to generate reminders at this time."
)

// Advisor produces natural-language attendance insights.
type Advisor interface {
	AnalyzeAttendance(ctx context.Context, in functions.AnalysisInput) (string, error)
	SuggestImprovements(ctx context.Context, in functions.ImprovementsInput) (string, error)
	SmartReminders(ctx context.Context, in functions.RemindersInput) (string, error)
}

// Provider holds one operator's attendance workflow: the class being viewed,
// the class attendance is being taken for and the working roster of that session.
// Reads go through the shared query cache; writes go to the repository and then
// invalidate the affected reads.
type Provider struct {
	queries  *Queries
	repo     Repository
	cache    *query.Client
	advisor  Advisor
	notifier notify.Notifier
	log      *zap.Logger

	mu         sync.Mutex
	classID    string
	active     *Class
	roster     []Student
	dialogOpen bool
	pending    int
}

// NewProvider creates a provider. The cache may be shared between providers.
func NewProvider(cache *query.Client, repo Repository, advisor Advisor, notifier notify.Notifier, log *zap.Logger) *Provider {
	return &Provider{
		queries:  NewQueries(cache, repo),
		repo:     repo,
		cache:    cache,
		advisor:  advisor,
		notifier: notifier,
		log:      log,
	}
}

// State is a snapshot of everything the attendance views render.
type State struct {
	Classes     []Class   `json:"classes"`
	Records     []Record  `json:"attendanceRecords"`
	Selected    *Class    `json:"selectedClass"`
	Students    []Student `json:"students"`
	Loading     bool      `json:"isLoading"`
	DialogOpen  bool      `json:"isAttendanceDialogOpen"`
	ViewClassID string    `json:"viewClassId,omitempty"`
}

// RosterView is a filtered view of the working roster with its tallies.
type RosterView struct {
	Students []Student `json:"students"`
	Total    int       `json:"total"`
	Present  int       `json:"present"`
	Absent   int       `json:"absent"`
}

// Classes returns every class with its roster size and attendance rate derived
// from that class's current records.
func (p *Provider) Classes(ctx context.Context) ([]Class, error) {
	classes, err := p.queries.Classes().Data(ctx)
	if err != nil {
		return nil, fmt.Errorf("load classes: %w", err)
	}
	out := make([]Class, len(classes))
	for i, c := range classes {
		students, err := p.queries.Students(c.ID).Data(ctx)
		if err != nil {
			return nil, fmt.Errorf("load students of %s: %w", c.ID, err)
		}
		records, err := p.queries.Records(c.ID).Data(ctx)
		if err != nil {
			return nil, fmt.Errorf("load attendance of %s: %w", c.ID, err)
		}
		c.Students = len(students)
		c.AttendanceRate = Rate(records)
		out[i] = c
	}
	return out, nil
}

// TakeAttendance starts an attendance session for classID: the class becomes the
// active selection, its roster is loaded with everyone present and the dialog opens.
// An unknown class leaves the provider untouched.
func (p *Provider) TakeAttendance(ctx context.Context, classID string) error {
	classes, err := p.Classes(ctx)
	if err != nil {
		return err
	}
	var found *Class
	for i := range classes {
		if classes[i].ID == classID {
			found = &classes[i]
			break
		}
	}
	if found == nil {
		return nil
	}

	students, err := p.queries.Students(classID).Data(ctx)
	if err != nil {
		return fmt.Errorf("load students of %s: %w", classID, err)
	}
	roster := make([]Student, len(students))
	for i, s := range students {
		s.Present = true
		roster[i] = s
	}

	p.mu.Lock()
	p.active = found
	p.classID = classID
	p.roster = roster
	p.dialogOpen = true
	p.mu.Unlock()
	return nil
}

// SaveAttendance persists students as the attendance of the active class on date,
// replacing anything saved earlier for that pair. A student listed more than once
// is recorded once, with the last entry's presence. It returns false without touching
// the store when no class is active, and false after notifying the operator when
// the date is malformed or the write fails; the dialog then stays open. The write
// is not aborted when ctx is cancelled.
func (p *Provider) SaveAttendance(ctx context.Context, students []Student, date string) bool {
	p.mu.Lock()
	active := p.active
	if active == nil {
		p.mu.Unlock()
		return false
	}
	p.pending++
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.pending--
		p.mu.Unlock()
	}()

	ctx = context.WithoutCancel(ctx)
	if err := p.save(ctx, active, students, date); err != nil {
		metrics.AttendanceSaves.WithLabelValues(metrics.Outcome(false)).Inc()
		p.log.Error("save attendance failed",
			zap.String("class_id", active.ID), zap.String("date", date), zap.Error(err))
		p.notifier.Notify(ctx, notify.Failure("Error", "Failed to save attendance. Please try again."))
		return false
	}

	p.cache.Invalidate(KeyAttendance)
	metrics.AttendanceSaves.WithLabelValues(metrics.Outcome(true)).Inc()

	students = UniqueStudents(students)
	present, absent := CountPresence(students)
	p.notifier.Notify(ctx, notify.Success("Attendance Saved",
		fmt.Sprintf("Recorded attendance for %s with %d present and %d absent", active.Name, present, absent)))

	p.mu.Lock()
	p.roster = append([]Student(nil), students...)
	p.dialogOpen = false
	p.mu.Unlock()
	return true
}

func (p *Provider) save(ctx context.Context, class *Class, students []Student, date string) error {
	if !validDate(date) {
		return ErrInvalidDate
	}
	entries := make([]Entry, 0, len(students))
	for _, s := range UniqueStudents(students) {
		status := StatusAbsent
		if s.Present {
			status = StatusPresent
		}
		entries = append(entries, Entry{
			ClassID:     class.ID,
			StudentID:   s.ID,
			StudentName: s.Name,
			Date:        date,
			Status:      status,
		})
	}
	return p.repo.ReplaceEntries(ctx, class.ID, date, entries)
}

// ViewAttendanceHistory points the attendance read at classID and returns its records.
func (p *Provider) ViewAttendanceHistory(ctx context.Context, classID string) ([]Record, error) {
	p.mu.Lock()
	p.classID = classID
	p.mu.Unlock()
	return p.queries.Records(classID).Data(ctx)
}

// Records returns the records of the class currently viewed.
func (p *Provider) Records(ctx context.Context) ([]Record, error) {
	p.mu.Lock()
	classID := p.classID
	p.mu.Unlock()
	records, err := p.queries.Records(classID).Data(ctx)
	if records == nil && err == nil {
		records = []Record{}
	}
	return records, err
}

// ToggleStudent flips one student's presence in the working roster.
// Nothing is written until the session is saved.
func (p *Provider) ToggleStudent(studentID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.roster {
		if p.roster[i].ID == studentID {
			p.roster[i].Present = !p.roster[i].Present
			return true
		}
	}
	return false
}

// Roster returns the working roster filtered by name or roll number.
func (p *Provider) Roster(q string) RosterView {
	p.mu.Lock()
	students := FilterStudents(p.roster, q)
	p.mu.Unlock()
	present, absent := CountPresence(students)
	return RosterView{Students: students, Total: len(students), Present: present, Absent: absent}
}

// WorkingRoster returns a copy of the session roster.
func (p *Provider) WorkingRoster() []Student {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Student{}, p.roster...)
}

// SetDialogOpen opens or closes the attendance dialog.
func (p *Provider) SetDialogOpen(open bool) {
	p.mu.Lock()
	p.dialogOpen = open
	p.mu.Unlock()
}

// Loading reports whether a read is in flight or a save is pending.
func (p *Provider) Loading() bool {
	p.mu.Lock()
	pending := p.pending
	p.mu.Unlock()
	return pending > 0 || p.queries.Fetching()
}

// Selected returns the class attendance is being taken for, or nil.
func (p *Provider) Selected() *Class {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil {
		return nil
	}
	c := *p.active
	return &c
}

// State snapshots the provider for rendering.
func (p *Provider) State(ctx context.Context) (State, error) {
	classes, err := p.Classes(ctx)
	if err != nil {
		return State{}, err
	}
	records, err := p.Records(ctx)
	if err != nil {
		return State{}, err
	}

	p.mu.Lock()
	st := State{
		Classes:     classes,
		Records:     records,
		Students:    append([]Student{}, p.roster...),
		DialogOpen:  p.dialogOpen,
		ViewClassID: p.classID,
	}
	if p.active != nil {
		sel := *p.active
		st.Selected = &sel
	}
	p.mu.Unlock()

	st.Loading = p.Loading()
	return st, nil
}

// AttendanceAnalysis asks the analysis function about the current session.
// Any failure yields AnalysisFallback.
func (p *Provider) AttendanceAnalysis(ctx context.Context, className string) string {
	p.mu.Lock()
	roster := append([]Student(nil), p.roster...)
	classID := p.classID
	p.mu.Unlock()

	persisted, err := p.queries.Students(classID).Data(ctx)
	if err != nil {
		p.log.Warn("attendance analysis: load students failed", zap.String("class_id", classID), zap.Error(err))
		return AnalysisFallback
	}

	text, err := p.advisor.AnalyzeAttendance(ctx, functions.AnalysisInput{
		ClassName:         className,
		AttendanceRecords: rosterEntries(roster),
		Students:          rosterEntries(persisted),
	})
	if err != nil {
		p.log.Warn("attendance analysis failed", zap.String("class", className), zap.Error(err))
		return AnalysisFallback
	}
	return text
}

// SuggestImprovements asks the analysis function for ways to improve attendance
// given history. Any failure yields ImprovementsFallback.
func (p *Provider) SuggestImprovements(ctx context.Context, className string, history []Record) string {
	text, err := p.advisor.SuggestImprovements(ctx, functions.ImprovementsInput{ClassName: className, AttendanceHistory: historyEntries(history)})
	if err != nil {
		p.log.Warn("improvement suggestions failed", zap.String("class", className), zap.Error(err))
		return ImprovementsFallback
	}
	return text
}

// SmartReminders asks the reminders function for suggestions from history.
// Any failure yields RemindersFallback.
func (p *Provider) SmartReminders(ctx context.Context, className string, history []Record) string {
	text, err := p.advisor.SmartReminders(ctx, functions.RemindersInput{ClassName: className, AttendanceHistory: historyEntries(history)})
	if err != nil {
		p.log.Warn("smart reminders failed", zap.String("class", className), zap.Error(err))
		return RemindersFallback
	}
	return text
}

func historyEntries(history []Record) []functions.HistoryEntry {
	entries := make([]functions.HistoryEntry, 0, len(history))
	for _, r := range history {
		date := r.DisplayDate
		if date == "" {
			date = r.Date
		}
		entries = append(entries, functions.HistoryEntry{Date: date, Rate: r.Rate, Present: r.Present, Absent: r.Absent})
	}
	return entries
}

func rosterEntries(students []Student) []functions.RosterEntry {
	out := make([]functions.RosterEntry, 0, len(students))
	for _, s := range students {
		out = append(out, functions.RosterEntry{ID: s.ID, Name: s.Name, RollNumber: s.RollNumber, Present: s.Present})
	}
	return out
}
