package ics

import (
	"context"
	"errors"
	"time"

	appLog "dailybrief/internal/log"
	"dailybrief/internal/model"
)

// Calendar reads events from one or more ICS feeds. It satisfies
// calendar.Source.
type Calendar struct {
	fetcher *Fetcher
	sources []Source
	loc     *time.Location
}

func NewCalendar(fetcher *Fetcher, sources []Source, loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{fetcher: fetcher, sources: sources, loc: loc}
}

// Events fetches, parses and expands every feed and returns the events
// starting in [from, to). It fails only when no feed could be read.
func (c *Calendar) Events(ctx context.Context, from, to time.Time) ([]model.Event, error) {
	if len(c.sources) == 0 {
		return nil, errors.New("no ICS sources configured")
	}

	results, fetchErrs := c.fetcher.FetchAll(ctx, c.sources)
	if len(results) == 0 {
		return nil, errors.Join(fetchErrs...)
	}

	parsed := make([]ParsedEvent, 0)
	parseErrs := make([]error, 0)
	for _, res := range results {
		events, err := ParseICS(res.Source, res.Body)
		if err != nil {
			parseErrs = append(parseErrs, err)
			continue
		}
		parsed = append(parsed, events...)
	}
	if len(parseErrs) == len(results) {
		return nil, errors.Join(append(fetchErrs, parseErrs...)...)
	}

	expanded, err := ExpandOccurrences(parsed, ExpandConfig{
		DisplayLocation: c.loc,
		RangeStart:      from,
		RangeEnd:        to,
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Event, 0, len(expanded.Events))
	for _, ev := range expanded.Events {
		if !ev.Start.Before(from) && ev.Start.Before(to) {
			out = append(out, ev)
		}
	}

	appLog.Info("ics events read", "count", len(out), "sources", len(results), "from", from.Format("2006-01-02"))
	return out, nil
}
