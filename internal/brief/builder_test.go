package brief

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailybrief/internal/calendar"
	"dailybrief/internal/model"
)

var defaultFilter = Filter{
	SkipKeywords:   []string{"birthday", "holiday", "anniversary"},
	SkipCategories: []string{"Birthday", "Holiday"},
	IncludeAllDay:  true,
}

func TestFilter_Skip(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	base := meeting("Planning", 10, 0, 11, 0, "Bob")

	t.Run("should keep ordinary meetings", func(t *testing.T) {
		skip, _ := defaultFilter.Skip(base, day)
		assert.False(t, skip)
	})

	t.Run("should skip subjects with excluded keywords", func(t *testing.T) {
		ev := base
		ev.Subject = "Bob's BIRTHDAY lunch"
		skip, reason := defaultFilter.Skip(ev, day)
		assert.True(t, skip)
		assert.Equal(t, "keyword birthday", reason)
	})

	t.Run("should skip excluded categories", func(t *testing.T) {
		ev := base
		ev.Categories = []string{"birthday"}
		skip, reason := defaultFilter.Skip(ev, day)
		assert.True(t, skip)
		assert.Equal(t, "category Birthday", reason)
	})

	t.Run("should skip all-day events when disabled", func(t *testing.T) {
		ev := base
		ev.AllDay = true
		f := defaultFilter
		f.IncludeAllDay = false

		skip, _ := f.Skip(ev, day)
		assert.True(t, skip)

		skip, _ = defaultFilter.Skip(ev, day)
		assert.False(t, skip)
	})

	t.Run("should skip events on another date", func(t *testing.T) {
		skip, reason := defaultFilter.Skip(base, day.AddDate(0, 0, 1))
		assert.True(t, skip)
		assert.Equal(t, "outside day", reason)
	})
}

type countingSource struct {
	calendar.Static
	calls int
}

func (c *countingSource) Events(ctx context.Context, from, to time.Time) ([]model.Event, error) {
	c.calls++
	return c.Static.Events(ctx, from, to)
}

type brokenSource struct{}

func (brokenSource) Events(context.Context, time.Time, time.Time) ([]model.Event, error) {
	return nil, errors.New("outlook is not running")
}

func TestBuilder_Build(t *testing.T) {
	ctx := context.Background()
	clock := &MockClock{FixedNow: time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)}

	tomorrow := meeting("Retro", 15, 0, 16, 0, "Alice")
	tomorrow.Start = tomorrow.Start.AddDate(0, 0, 1)
	tomorrow.End = tomorrow.End.AddDate(0, 0, 1)

	src := calendar.Static{
		meeting("Review", 11, 0, 12, 0, "Bob"),
		meeting("Standup", 9, 0, 9, 15, "Alice"),
		meeting("Mom's birthday", 18, 0, 19, 0, "Alice"),
		tomorrow,
	}

	t.Run("should build today and tomorrow", func(t *testing.T) {
		// given
		b := &Builder{
			Source:          src,
			Filter:          defaultFilter,
			Clock:           clock,
			Location:        time.UTC,
			IncludeTomorrow: true,
			Composer:        &Composer{Pick: firstTransition},
		}

		// when
		br := b.Build(ctx, "Alice")

		// then
		require.Len(t, br.Today.Events, 2)
		assert.Equal(t, "Standup", br.Today.Events[0].Subject)
		require.NotNil(t, br.Tomorrow)
		require.Len(t, br.Tomorrow.Events, 1)
		assert.Empty(t, br.Warnings)
		assert.Equal(t, "Good morning Alice! You start your day with Standup from 9 AM to 9 15 AM, followed by Review from 11 AM to noon with Bob. Tomorrow you have Retro from 3 PM to 4 PM.", br.Summary)
	})

	t.Run("should read the calendar once for today and tomorrow", func(t *testing.T) {
		// given
		counting := &countingSource{Static: src}
		b := &Builder{
			Source:          counting,
			Filter:          defaultFilter,
			Clock:           clock,
			Location:        time.UTC,
			IncludeTomorrow: true,
			Composer:        &Composer{Pick: firstTransition},
		}

		// when
		br := b.Build(ctx, "Alice")

		// then
		assert.Equal(t, 1, counting.calls)
		assert.Len(t, br.Today.Events, 2)
		require.NotNil(t, br.Tomorrow)
		require.Len(t, br.Tomorrow.Events, 1)
		assert.Equal(t, "Retro", br.Tomorrow.Events[0].Subject)
	})

	t.Run("should leave tomorrow out when disabled", func(t *testing.T) {
		b := &Builder{Source: src, Filter: defaultFilter, Clock: clock, Location: time.UTC, Composer: &Composer{Pick: firstTransition}}

		br := b.Build(ctx, "Alice")

		assert.Nil(t, br.Tomorrow)
		assert.False(t, strings.Contains(br.Summary, "Tomorrow"))
	})

	t.Run("should degrade to an empty day when the calendar fails", func(t *testing.T) {
		b := &Builder{Source: brokenSource{}, Filter: defaultFilter, Clock: clock, Location: time.UTC, IncludeTomorrow: true}

		br := b.Build(ctx, "Alice")

		assert.Empty(t, br.Today.Events)
		require.NotNil(t, br.Tomorrow)
		assert.Len(t, br.Warnings, 1)
		assert.Contains(t, br.Summary, "You have a free day with no scheduled meetings")
	})

	t.Run("should decide today in the configured timezone", func(t *testing.T) {
		tokyo := time.FixedZone("JST", 9*3600)
		late := &MockClock{FixedNow: time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)} // 08:00 on the 2nd in Tokyo
		b := &Builder{Source: calendar.Static{}, Filter: defaultFilter, Clock: late, Location: tokyo}

		br := b.Build(ctx, "")

		assert.Equal(t, 2, br.Today.Date.Day())
		assert.True(t, strings.HasPrefix(br.Summary, "Good morning!"), br.Summary)
	})
}
