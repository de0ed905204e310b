package brief

import (
	"context"
	"time"

	"dailybrief/internal/calendar"
	appLog "dailybrief/internal/log"
	"dailybrief/internal/model"
)

// Briefing is everything one run produces: the filtered days and the
// spoken summary.
type Briefing struct {
	GeneratedAt time.Time
	UserName    string
	Today       model.Day
	// Tomorrow is nil when the tomorrow section is disabled.
	Tomorrow *model.Day
	Summary  string
	// Warnings lists calendar read failures; the affected day is shown empty.
	Warnings []string
}

// Builder runs fetch, filter and compose against a calendar source.
type Builder struct {
	Source          calendar.Source
	Filter          Filter
	Clock           Clock
	Location        *time.Location
	IncludeTomorrow bool
	Composer        *Composer
}

func (b *Builder) now() time.Time {
	clock := b.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	loc := b.Location
	if loc == nil {
		loc = time.Local
	}
	return clock.Now().In(loc)
}

// Build produces the briefing for the clock's current day. A calendar
// failure is logged and recorded as a warning; it never aborts the build.
func (b *Builder) Build(ctx context.Context, userName string) Briefing {
	now := b.now()
	today := model.StartOfDay(now)

	br := Briefing{
		GeneratedAt: now,
		UserName:    userName,
		Today:       model.Day{Date: today},
	}

	n := 1
	if b.IncludeTomorrow {
		n = 2
	}
	days, err := b.readDays(ctx, today, n)
	if err != nil {
		br.Warnings = append(br.Warnings, err.Error())
	}
	br.Today.Events = days[0]

	var tomorrowEvents []model.Event
	if b.IncludeTomorrow {
		tomorrowEvents = days[1]
		br.Tomorrow = &model.Day{Date: today.AddDate(0, 0, 1), Events: tomorrowEvents}
	}

	br.Summary = b.Composer.Summary(Greeting(now.Hour()), userName, br.Today.Events, tomorrowEvents)
	appLog.Info("briefing built",
		"today", len(br.Today.Events),
		"tomorrow_enabled", b.IncludeTomorrow,
		"tomorrow", len(tomorrowEvents),
		"warnings", len(br.Warnings),
	)
	return br
}

// readDays reads today and, when enabled, tomorrow in one calendar call.
// On failure every day comes back empty.
func (b *Builder) readDays(ctx context.Context, first time.Time, n int) ([][]model.Event, error) {
	days, err := calendar.ForDays(ctx, b.Source, first, n)
	if err != nil {
		appLog.Error("calendar read failed", err, "day", first.Format("2006-01-02"), "days", n)
		empty := make([][]model.Event, n)
		for i := range empty {
			empty[i] = []model.Event{}
		}
		return empty, err
	}
	for i, events := range days {
		days[i] = b.Filter.Apply(events, first.AddDate(0, 0, i))
	}
	return days, nil
}
