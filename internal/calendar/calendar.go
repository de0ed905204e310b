// Package calendar defines where events come from and how a single day's
// worth of them is read.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	appLog "dailybrief/internal/log"
	"dailybrief/internal/model"
)

// ErrUnsupported is returned by sources that cannot run on this platform.
var ErrUnsupported = errors.New("calendar source not supported on this platform")

// Source yields the events starting in [from, to).
type Source interface {
	Events(ctx context.Context, from, to time.Time) ([]model.Event, error)
}

// ForDay reads the events of day's calendar date, keeping only those that
// start on it, sorted by start time.
func ForDay(ctx context.Context, src Source, day time.Time) ([]model.Event, error) {
	days, err := ForDays(ctx, src, day, 1)
	if err != nil {
		return nil, err
	}
	return days[0], nil
}

// ForDays reads n consecutive calendar days starting at first with a single
// Source call and splits the result per day. Each day keeps only the events
// starting on it, sorted by start time.
func ForDays(ctx context.Context, src Source, first time.Time, n int) ([][]model.Event, error) {
	if n < 1 {
		n = 1
	}
	from := model.StartOfDay(first)
	to := from.AddDate(0, 0, n)

	events, err := src.Events(ctx, from, to)
	if err != nil {
		if n == 1 {
			return nil, fmt.Errorf("read events for %s: %w", from.Format("2006-01-02"), err)
		}
		return nil, fmt.Errorf("read events for %s to %s: %w",
			from.Format("2006-01-02"), to.AddDate(0, 0, -1).Format("2006-01-02"), err)
	}

	days := make([][]model.Event, n)
	for i := range days {
		days[i] = make([]model.Event, 0)
	}
	for _, ev := range events {
		i := dayIndex(from, n, ev.Start)
		if i < 0 {
			appLog.Debug("event outside requested days", "subject", ev.Subject, "start", ev.Start.Format(time.RFC3339))
			continue
		}
		days[i] = append(days[i], ev)
	}

	for _, d := range days {
		sort.SliceStable(d, func(i, j int) bool {
			return d[i].Start.Before(d[j].Start)
		})
	}
	return days, nil
}

func dayIndex(from time.Time, n int, t time.Time) int {
	for i := 0; i < n; i++ {
		if model.SameDate(from.AddDate(0, 0, i), t) {
			return i
		}
	}
	return -1
}

// Static is an in-memory Source, handy for tests and dry runs.
type Static []model.Event

func (s Static) Events(_ context.Context, from, to time.Time) ([]model.Event, error) {
	out := make([]model.Event, 0, len(s))
	for _, ev := range s {
		if !ev.Start.Before(from) && ev.Start.Before(to) {
			out = append(out, ev)
		}
	}
	return out, nil
}
