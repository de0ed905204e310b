package brief

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dailybrief/internal/model"
)

func firstTransition(options []string) string { return options[0] }

func meeting(subject string, startHour, startMin, endHour, endMin int, organizer string) model.Event {
	return model.Event{
		Subject:   subject,
		Start:     time.Date(2026, 3, 2, startHour, startMin, 0, 0, time.UTC),
		End:       time.Date(2026, 3, 2, endHour, endMin, 0, 0, time.UTC),
		Organizer: organizer,
	}
}

func TestGreeting(t *testing.T) {
	assert.Equal(t, "Good night", Greeting(4))
	assert.Equal(t, "Good morning", Greeting(5))
	assert.Equal(t, "Good morning", Greeting(11))
	assert.Equal(t, "Good afternoon", Greeting(12))
	assert.Equal(t, "Good evening", Greeting(17))
	assert.Equal(t, "Good evening", Greeting(20))
	assert.Equal(t, "Good night", Greeting(21))
	assert.Equal(t, "Good night", Greeting(0))
}

func TestMeetingPhrase(t *testing.T) {
	t.Run("should name the organizer when it is someone else", func(t *testing.T) {
		ev := meeting("Design review", 14, 0, 15, 30, "Bob Stone")
		assert.Equal(t, "Design review from 2 PM to 3 30 PM with Bob Stone", MeetingPhrase(ev, "Alice"))
	})

	t.Run("should omit the organizer when it is the user", func(t *testing.T) {
		ev := meeting("1:1 prep", 9, 0, 9, 30, "Alice Walker")
		assert.Equal(t, "11 prep from 9 AM to 9 30 AM", MeetingPhrase(ev, "alice"))
	})

	t.Run("should fall back to an unknown organizer", func(t *testing.T) {
		ev := meeting("Focus", 10, 0, 12, 0, "")
		assert.Equal(t, "Focus from 10 AM to noon with Unknown organizer", MeetingPhrase(ev, ""))
	})

	t.Run("should clean exchange legacy DNs", func(t *testing.T) {
		ev := meeting("Sync", 16, 0, 16, 30, "/o=ExchangeLabs/ou=Exchange Administrative Group (FYDIBOHF23SPDLT)/cn=Recipients/cn=0a1b2c3d4e5f-john_smith")
		assert.Equal(t, "Sync from 4 PM to 4 30 PM with John Smith", MeetingPhrase(ev, "Alice"))
	})

	t.Run("should say all day for all-day events", func(t *testing.T) {
		ev := model.Event{Subject: "Offsite", AllDay: true, Organizer: "Alice"}
		assert.Equal(t, "Offsite all day", MeetingPhrase(ev, "Alice"))
	})

	t.Run("should rewrite 24-hour times in the subject", func(t *testing.T) {
		ev := meeting("On call 1200-1800", 12, 0, 18, 0, "Alice")
		assert.Equal(t, "On call noon 6 PM from noon to 6 PM", MeetingPhrase(ev, "Alice"))
	})
}

func TestComposer_Summary(t *testing.T) {
	c := &Composer{Pick: firstTransition}
	a := meeting("Standup", 9, 0, 9, 15, "Alice")
	b := meeting("Review", 11, 0, 12, 0, "Bob")
	d := meeting("Retro", 15, 0, 16, 0, "Alice")
	e := meeting("Wrap up", 17, 0, 17, 30, "Alice")

	t.Run("should announce a free day when nothing is scheduled", func(t *testing.T) {
		got := c.Summary("Good morning", "Alice", nil, []model.Event{})
		assert.Equal(t, "Good morning Alice! You have a free day with no scheduled meetings - perfect time to catch up on personal projects or take a well-deserved break!", got)
	})

	t.Run("should describe a single meeting", func(t *testing.T) {
		got := c.Summary("Good morning", "Alice", []model.Event{a}, nil)
		assert.Equal(t, "Good morning Alice! You start your day with Standup from 9 AM to 9 15 AM.", got)
	})

	t.Run("should join two meetings with a transition", func(t *testing.T) {
		got := c.Summary("Good morning", "Alice", []model.Event{a, b}, nil)
		assert.Equal(t, "Good morning Alice! You start your day with Standup from 9 AM to 9 15 AM, followed by Review from 11 AM to noon with Bob.", got)
	})

	t.Run("should end longer days with and finally", func(t *testing.T) {
		got := c.Summary("Good morning", "Alice", []model.Event{a, b, d, e}, nil)
		assert.Equal(t, "Good morning Alice! You start your day with Standup from 9 AM to 9 15 AM"+
			", followed by Review from 11 AM to noon with Bob"+
			", followed by Retro from 3 PM to 4 PM"+
			", and finally Wrap up from 5 PM to 5 30 PM.", got)
	})

	t.Run("should add tomorrow after a free today", func(t *testing.T) {
		got := c.Summary("Good evening", "Alice", nil, []model.Event{b})
		assert.Equal(t, "Good evening Alice! You have a free day today. Tomorrow you have Review from 11 AM to noon with Bob.", got)
	})

	t.Run("should chain several meetings tomorrow", func(t *testing.T) {
		got := c.Summary("Good evening", "Alice", []model.Event{a}, []model.Event{a, b, d})
		assert.True(t, strings.HasSuffix(got, " Tomorrow you start with Standup from 9 AM to 9 15 AM, followed by Review from 11 AM to noon with Bob, and finally Retro from 3 PM to 4 PM."), got)
	})

	t.Run("should mention a free tomorrow when enabled", func(t *testing.T) {
		got := c.Summary("Good morning", "Alice", []model.Event{a}, []model.Event{})
		assert.True(t, strings.HasSuffix(got, ". Tomorrow is free with no scheduled meetings."), got)
	})

	t.Run("should greet without a name", func(t *testing.T) {
		got := c.Summary("Good night", "", []model.Event{a}, nil)
		assert.True(t, strings.HasPrefix(got, "Good night! You start your day with Standup"), got)
	})

	t.Run("should only use known transitions when picking at random", func(t *testing.T) {
		random := &Composer{}
		got := random.Summary("Good morning", "Alice", []model.Event{a, b}, nil)

		found := false
		for _, tr := range Transitions {
			if strings.Contains(got, ", "+tr+" Review") {
				found = true
			}
		}
		assert.True(t, found, got)
	})
}

func TestDisplayOrganizer(t *testing.T) {
	assert.Equal(t, "Jane Doe", DisplayOrganizer(" Jane Doe "))
	assert.Equal(t, "Mary Ann Lee", DisplayOrganizer("/o=ExchangeLabs/ou=Exchange Administrative Group/cn=Recipients/cn=mary.ann_lee-4f1e2d3c"))
	assert.Equal(t, "/o=ExchangeLabs/cn=Recipients/cn=0a1b2c3d4e5f", DisplayOrganizer("/o=ExchangeLabs/cn=Recipients/cn=0a1b2c3d4e5f"))
}

func TestIsOrganizer(t *testing.T) {
	assert.True(t, IsOrganizer("alice", "Alice Walker"))
	assert.True(t, IsOrganizer("john smith", "/o=ExchangeLabs/cn=Recipients/cn=abcdef0123-john_smith"))
	assert.False(t, IsOrganizer("", "Alice Walker"))
	assert.False(t, IsOrganizer("Alice", ""))
}
