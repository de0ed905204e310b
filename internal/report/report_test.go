package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailybrief/internal/brief"
	"dailybrief/internal/model"
)

func sampleBriefing() brief.Briefing {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return brief.Briefing{
		Today: model.Day{Date: day, Events: []model.Event{
			{
				Subject:    "Standup",
				Start:      day.Add(9 * time.Hour),
				End:        day.Add(9*time.Hour + 15*time.Minute),
				Location:   "Microsoft Teams Meeting",
				Organizer:  "/o=ExchangeLabs/ou=Exchange Administrative Group/cn=Recipients/cn=0a1b2c3d4e5f-jane_doe",
				Importance: model.ImportanceHigh,
			},
			{
				Subject:     "Lunch",
				Start:       day.Add(12 * time.Hour),
				End:         day.Add(13 * time.Hour),
				Location:    "Cafeteria",
				IsRecurring: true,
			},
		}},
		Tomorrow: &model.Day{Date: day.AddDate(0, 0, 1), Events: []model.Event{}},
		Summary:  "Good morning Alice! You start your day with Standup.",
	}
}

func TestPrint(t *testing.T) {
	t.Run("should render the full layout", func(t *testing.T) {
		// given
		var buf bytes.Buffer

		// when
		err := Print(&buf, sampleBriefing(), Options{})

		// then
		require.NoError(t, err)
		out := buf.String()
		assert.Contains(t, out, "YOUR DAILY BRIEFING - Monday, March 02, 2026")
		assert.Contains(t, out, "TODAY'S EVENTS (2 total):")
		assert.Contains(t, out, "1. 📅 Standup")
		assert.Contains(t, out, "🕐 09:00 AM - 09:15 AM")
		assert.Contains(t, out, "💻 Microsoft Teams Meeting")
		assert.Contains(t, out, "🔴 HIGH PRIORITY")
		assert.Contains(t, out, "👤 Organizer: Jane Doe")
		assert.Contains(t, out, "📍 Cafeteria")
		assert.Contains(t, out, "TOMORROW - Free day with no scheduled events!")
		assert.Contains(t, out, "Good morning Alice! You start your day with Standup.")
		assert.NotContains(t, out, "ℹ️")
	})

	t.Run("should add details when asked", func(t *testing.T) {
		var buf bytes.Buffer

		require.NoError(t, Print(&buf, sampleBriefing(), Options{ShowDetails: true}))

		out := buf.String()
		assert.Contains(t, out, "15m · Microsoft Teams")
		assert.Contains(t, out, "1h 0m · In-person · recurring")
	})

	t.Run("should show free days and warnings", func(t *testing.T) {
		br := brief.Briefing{
			Today:    model.Day{Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
			Warnings: []string{"outlook is not running"},
			Summary:  "Good morning!",
		}
		var buf bytes.Buffer

		require.NoError(t, Print(&buf, br, Options{}))

		out := buf.String()
		assert.Contains(t, out, "Calendar unavailable: outlook is not running")
		assert.Contains(t, out, "TODAY - Free day with no scheduled events!")
		assert.NotContains(t, out, "TOMORROW")
	})

	t.Run("should list tomorrow with its date", func(t *testing.T) {
		br := sampleBriefing()
		br.Tomorrow.Events = []model.Event{{
			Subject:  "Retro",
			Start:    br.Tomorrow.Date.Add(15 * time.Hour),
			End:      br.Tomorrow.Date.Add(16 * time.Hour),
			Location: "https://zoom.us/j/1",
		}}
		var buf bytes.Buffer

		require.NoError(t, Print(&buf, br, Options{}))

		out := buf.String()
		assert.Contains(t, out, "TOMORROW'S EVENTS (1 total) - Tuesday, March 03:")
		// Tomorrow's section keeps the plain location marker.
		assert.Contains(t, out, "📍 https://zoom.us/j/1")
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestPrint_WriteError(t *testing.T) {
	err := Print(failingWriter{}, sampleBriefing(), Options{})
	assert.Error(t, err)
}

func TestSpeechFallback(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, SpeechFallback(&buf, "Good morning!"))

	assert.True(t, strings.HasSuffix(buf.String(), "Good morning!\n"))
	assert.Contains(t, buf.String(), "TTS not available")
}
