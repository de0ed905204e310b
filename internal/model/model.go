package model

import (
	"fmt"
	"strings"
	"time"
)

// Outlook importance levels (OlImportance).
const (
	ImportanceLow    = 0
	ImportanceNormal = 1
	ImportanceHigh   = 2
)

// Event is a single concrete calendar entry for one day, after recurrence
// expansion. Both the Outlook and the ICS sources produce it.
type Event struct {
	Source string // "outlook" or the ICS source ID

	Subject   string
	Location  string
	Organizer string

	// Categories as assigned in Outlook (e.g. "Birthday", "Holiday").
	Categories []string

	// Start / End are in the display timezone.
	Start time.Time
	End   time.Time

	AllDay      bool
	IsRecurring bool
	Importance  int
	ReminderSet bool
}

// Duration renders the event length as "1h 30m" or "45m".
func (e Event) Duration() string {
	d := e.End.Sub(e.Start)
	if d < 0 {
		return "Unknown"
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// MeetingType guesses how the meeting is held from its location text.
func (e Event) MeetingType() string {
	loc := strings.ToLower(e.Location)
	switch {
	case strings.Contains(loc, "teams"):
		return "Microsoft Teams"
	case strings.Contains(loc, "zoom"):
		return "Zoom"
	case strings.Contains(loc, "webex"):
		return "WebEx"
	case strings.Contains(loc, "http"):
		return "Online Meeting"
	default:
		return "In-person"
	}
}

func (e Event) IsOnline() bool {
	return e.MeetingType() != "In-person"
}

func (e Event) HighPriority() bool {
	return e.Importance == ImportanceHigh
}

// HasCategory reports whether any category equals name, ignoring case.
func (e Event) HasCategory(name string) bool {
	for _, c := range e.Categories {
		if strings.EqualFold(strings.TrimSpace(c), name) {
			return true
		}
	}
	return false
}

// Day groups the filtered events of one calendar date.
type Day struct {
	Date   time.Time // local midnight
	Events []Event
}

// SameDate reports whether a and b fall on the same calendar date in a's location.
func SameDate(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay returns local midnight of t's date.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
