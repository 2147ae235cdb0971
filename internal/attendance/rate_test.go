package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatRate(t *testing.T) {
	cases := []struct {
		present, absent int
		want            string
	}{
		{0, 0, "0%"},
		{8, 2, "80%"},
		{1, 2, "33%"},
		{2, 1, "67%"},
		{5, 0, "100%"},
		{0, 4, "0%"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatRate(tc.present, tc.absent), "%d/%d", tc.present, tc.absent)
	}
}

func TestRateAcrossRecords(t *testing.T) {
	assert.Equal(t, "0%", Rate(nil))
	assert.Equal(t, "0%", Rate([]Record{{Present: 0, Absent: 0}, {}}))
	assert.Equal(t, "65%", Rate([]Record{{Present: 8, Absent: 2}, {Present: 4, Absent: 6}, {Present: 3, Absent: 0}}))
}

func TestGroupByDateNewestFirst(t *testing.T) {
	entries := []Entry{
		{StudentID: "s1", Date: "2024-01-14", Status: StatusPresent},
		{StudentID: "s1", Date: "2024-01-15", Status: StatusPresent},
		{StudentID: "s2", Date: "2024-01-15", Status: StatusAbsent},
		{StudentID: "s2", Date: "2024-01-14", Status: StatusPresent},
		{StudentID: "s3", Date: "2024-01-15", Status: StatusPresent},
	}

	records := GroupByDate("Physics 101", entries)

	if assert.Len(t, records, 2) {
		assert.Equal(t, "2024-01-15", records[0].Date)
		assert.Equal(t, "January 15, 2024", records[0].DisplayDate)
		assert.Equal(t, "Physics 101", records[0].Class)
		assert.Equal(t, 2, records[0].Present)
		assert.Equal(t, 1, records[0].Absent)
		assert.Equal(t, "67%", records[0].Rate)
		assert.Len(t, records[0].Entries, 3)

		assert.Equal(t, "2024-01-14", records[1].Date)
		assert.Equal(t, "100%", records[1].Rate)
	}
}

func TestFilterStudents(t *testing.T) {
	students := []Student{
		{ID: "1", Name: "Ada Lovelace", RollNumber: "CS-001"},
		{ID: "2", Name: "Alan Turing", RollNumber: "CS-002"},
		{ID: "3", Name: "Grace Hopper", RollNumber: "EE-010"},
	}

	assert.Len(t, FilterStudents(students, ""), 3)
	assert.Len(t, FilterStudents(students, "  "), 3)

	got := FilterStudents(students, "TURING")
	if assert.Len(t, got, 1) {
		assert.Equal(t, "2", got[0].ID)
	}

	got = FilterStudents(students, "cs-")
	assert.Len(t, got, 2)

	assert.Empty(t, FilterStudents(students, "nobody"))
}

func TestCountPresence(t *testing.T) {
	present, absent := CountPresence([]Student{{Present: true}, {Present: false}, {Present: true}})
	assert.Equal(t, 2, present)
	assert.Equal(t, 1, absent)
}

func TestValidDate(t *testing.T) {
	assert.True(t, validDate("2024-01-15"))
	assert.False(t, validDate("15/01/2024"))
	assert.False(t, validDate("2024-13-01"))
	assert.False(t, validDate(""))
}
