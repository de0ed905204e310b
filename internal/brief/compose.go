package brief

import (
	"math/rand/v2"
	"strings"

	"dailybrief/internal/model"
)

// Transitions join consecutive meetings in the spoken summary.
var Transitions = []string{"followed by", "then", "next"}

// Greeting picks the salutation for the given hour of day.
func Greeting(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Good morning"
	case hour >= 12 && hour < 17:
		return "Good afternoon"
	case hour >= 17 && hour < 21:
		return "Good evening"
	default:
		return "Good night"
	}
}

// Composer assembles the natural-language summary.
type Composer struct {
	// Pick chooses a transition; nil picks at random.
	Pick func(options []string) string
}

func (c *Composer) transition() string {
	if c != nil && c.Pick != nil {
		return c.Pick(Transitions)
	}
	return Transitions[rand.IntN(len(Transitions))]
}

// MeetingPhrase describes one event for speech, e.g. "Standup from 9 AM to
// 9 15 AM with Jane Doe". The organizer is omitted when it is the user.
func MeetingPhrase(ev model.Event, userName string) string {
	subject := FixMilitaryTimes(CleanForSpeech(ev.Subject))
	if subject == "" {
		subject = "an untitled event"
	}

	var b strings.Builder
	b.WriteString(subject)
	if ev.AllDay {
		b.WriteString(" all day")
	} else {
		b.WriteString(" from ")
		b.WriteString(SpokenTime(ev.Start))
		b.WriteString(" to ")
		b.WriteString(SpokenTime(ev.End))
	}

	if !IsOrganizer(userName, ev.Organizer) {
		organizer := CleanForSpeech(DisplayOrganizer(ev.Organizer))
		if organizer == "" {
			organizer = "Unknown organizer"
		}
		b.WriteString(" with ")
		b.WriteString(organizer)
	}
	return b.String()
}

// Summary builds the spoken day summary. tomorrow is nil when the tomorrow
// section is disabled.
func (c *Composer) Summary(greeting, userName string, today []model.Event, tomorrow []model.Event) string {
	opener := greeting + "!"
	if name := strings.TrimSpace(userName); name != "" {
		opener = greeting + " " + name + "!"
	}

	if len(today) == 0 && len(tomorrow) == 0 {
		return opener + " You have a free day with no scheduled meetings - perfect time to catch up on personal projects or take a well-deserved break!"
	}

	var b strings.Builder
	b.WriteString(opener)

	if len(today) > 0 {
		b.WriteString(" You start your day with ")
		b.WriteString(c.chain(phrases(today, userName)))
		b.WriteString(".")
	} else {
		b.WriteString(" You have a free day today.")
	}

	if tomorrow != nil {
		parts := phrases(tomorrow, userName)
		switch len(parts) {
		case 0:
			b.WriteString(" Tomorrow is free with no scheduled meetings.")
		case 1:
			b.WriteString(" Tomorrow you have ")
			b.WriteString(parts[0])
			b.WriteString(".")
		default:
			b.WriteString(" Tomorrow you start with ")
			b.WriteString(c.chain(parts))
			b.WriteString(".")
		}
	}

	return b.String()
}

// chain links phrases: "A", "A, then B", "A, then B, next C, and finally D".
func (c *Composer) chain(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	case 2:
		return parts[0] + ", " + c.transition() + " " + parts[1]
	}

	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1 : len(parts)-1] {
		b.WriteString(", ")
		b.WriteString(c.transition())
		b.WriteString(" ")
		b.WriteString(p)
	}
	b.WriteString(", and finally ")
	b.WriteString(parts[len(parts)-1])
	return b.String()
}

func phrases(events []model.Event, userName string) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, MeetingPhrase(ev, userName))
	}
	return out
}
