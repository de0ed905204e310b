package brief

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCleanForSpeech(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Q3 roadmap - review", "Q3 roadmap review"},
		{"team_sync/weekly|ops", "team sync weekly ops"},
		{"1:1 w/ Jane (HR)!!", "11 w Jane HR"},
		{"  lots   of\tspace ", "lots of space"},
		{"Café ☕ planning", "Café planning"},
		{"ＦＵＬＬ width", "FULL width"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanForSpeech(tt.in))
		})
	}
}

func TestFixMilitaryTimes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Shift 1200 to 1800", "Shift noon to 6 PM"},
		{"Deploy window 0000 0030", "Deploy window midnight 12 30 AM"},
		{"Call at 0930", "Call at 9 30 AM"},
		{"Handover 1230", "Handover 12 30 PM"},
		{"Dinner from 1930", "Dinner from 7 30 PM"},
		{"Planning 2026 kickoff", "Planning 2026 kickoff"},
		{"Code 2460", "Code 2460"},
		{"Ticket 12345", "Ticket 12345"},
		{"no digits", "no digits"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FixMilitaryTimes(tt.in))
		})
	}
}

func TestSpokenTime(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2026, 3, 2, h, m, 0, 0, time.UTC) }

	assert.Equal(t, "9 AM", SpokenTime(at(9, 0)))
	assert.Equal(t, "9 05 AM", SpokenTime(at(9, 5)))
	assert.Equal(t, "noon", SpokenTime(at(12, 0)))
	assert.Equal(t, "12 45 PM", SpokenTime(at(12, 45)))
	assert.Equal(t, "midnight", SpokenTime(at(0, 0)))
	assert.Equal(t, "12 15 AM", SpokenTime(at(0, 15)))
	assert.Equal(t, "6 PM", SpokenTime(at(18, 0)))
	assert.Equal(t, "11 59 PM", SpokenTime(at(23, 59)))
}

func TestSpokenClock(t *testing.T) {
	assert.Equal(t, "9 AM", SpokenClock("09:00 AM"))
	assert.Equal(t, "2 30 PM", SpokenClock("02:30 PM"))
	assert.Equal(t, "noon", SpokenClock("12:00 PM"))
	assert.Equal(t, "midnight", SpokenClock("12:00 AM"))
	assert.Equal(t, "4 PM", SpokenClock("4:00pm"))
	assert.Equal(t, "13:00 PM", SpokenClock("13:00 PM"))
	assert.Equal(t, "soon", SpokenClock("soon"))
}
