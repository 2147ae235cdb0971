package attendance

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// FormatRate renders present/(present+absent) as a whole percentage, "0%" when there is nobody.
func FormatRate(present, absent int) string {
	total := present + absent
	if total <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%d%%", int(math.Round(float64(present)/float64(total)*100)))
}

// Rate computes the overall attendance rate across records.
func Rate(records []Record) string {
	present, absent := 0, 0
	for _, r := range records {
		present += r.Present
		absent += r.Absent
	}
	return FormatRate(present, absent)
}

// GroupByDate folds per-student entries into one record per date, newest first.
func GroupByDate(className string, entries []Entry) []Record {
	byDate := make(map[string]*Record)
	for _, e := range entries {
		rec, ok := byDate[e.Date]
		if !ok {
			rec = &Record{Date: e.Date, DisplayDate: displayDate(e.Date), Class: className}
			byDate[e.Date] = rec
		}
		if e.Status == StatusPresent {
			rec.Present++
		} else {
			rec.Absent++
		}
		rec.Entries = append(rec.Entries, e)
	}

	out := make([]Record, 0, len(byDate))
	for _, rec := range byDate {
		rec.Rate = FormatRate(rec.Present, rec.Absent)
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// CountPresence tallies a roster.
func CountPresence(students []Student) (present, absent int) {
	for _, s := range students {
		if s.Present {
			present++
		} else {
			absent++
		}
	}
	return present, absent
}

// UniqueStudents keeps one entry per student ID in first-seen order. A later
// duplicate overrides the earlier one's fields.
func UniqueStudents(students []Student) []Student {
	out := make([]Student, 0, len(students))
	seen := make(map[string]int, len(students))
	for _, s := range students {
		if i, ok := seen[s.ID]; ok {
			out[i] = s
			continue
		}
		seen[s.ID] = len(out)
		out = append(out, s)
	}
	return out
}

// FilterStudents keeps students whose name or roll number contains q, ignoring case.
func FilterStudents(students []Student, q string) []Student {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]Student, 0, len(students))
	for _, s := range students {
		if q == "" || strings.Contains(strings.ToLower(s.Name), q) || strings.Contains(strings.ToLower(s.RollNumber), q) {
			out = append(out, s)
		}
	}
	return out
}

func validDate(date string) bool {
	_, err := time.Parse(dateLayout, date)
	return err == nil
}

func displayDate(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("January 2, 2006")
}
