package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "dailybrief/internal/log"
	"dailybrief/internal/model"
)

const defaultMaxOccurrencesPerEvent = 5000

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// DisplayLocation is the zone every occurrence is converted to. Nil
	// means time.Local.
	DisplayLocation *time.Location

	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps runaway rules. Zero means 5000.
	MaxOccurrencesPerEvent int
}

// ExpandResult wraps the expanded events and the UIDs that hit the cap.
type ExpandResult struct {
	Events          []model.Event
	TruncatedEvents []string
}

// ExpandOccurrences turns parsed VEVENTs into concrete events within the
// range. It handles single events, RRULE recurrence, EXDATE removals,
// RECURRENCE-ID overrides and all-day semantics.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)
	order := make([]string, 0)

	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
			continue
		}
		if _, seen := baseByUID[ev.UID]; !seen {
			order = append(order, ev.UID)
		}
		baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
	}

	all := make([]model.Event, 0)
	for _, uid := range order {
		ov := overridesByUID[uid]
		truncated := false
		consumed := make(map[int64]bool)
		excluded := make(map[int64]bool)

		for _, ev := range baseByUID[uid] {
			occ, hitCap := expandEvent(ev, ov, consumed, cfg)
			if hitCap {
				truncated = true
			}
			all = append(all, occ...)
			for _, ex := range ev.ExDates {
				excluded[ex.UnixNano()] = true
			}
		}
		all = append(all, movedIntoRange(ov, consumed, excluded, cfg)...)

		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, uid)
			appLog.Error("expand: truncated occurrences for UID due to cap",
				errors.New("max occurrences reached"),
				"uid", uid,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	result.Events = all
	return result, nil
}

// expandEvent records in consumed the RECURRENCE-ID of every override it
// applies to one of ev's own slots.
func expandEvent(ev ParsedEvent, overrides []ParsedEvent, consumed map[int64]bool, cfg ExpandConfig) ([]model.Event, bool) {
	if ev.RawRRule == "" {
		return expandSingleEvent(ev, overrides, consumed, cfg), false
	}
	return expandRecurringEvent(ev, overrides, consumed, cfg)
}

func expandSingleEvent(ev ParsedEvent, overrides []ParsedEvent, consumed map[int64]bool, cfg ExpandConfig) []model.Event {
	start, end, base := ev.Start, ev.End, ev
	if o, ok := findOverrideForStart(overrides, start); ok {
		consumed[o.Recurrence.UnixNano()] = true
		start, end, base = o.Start, o.End, o
	}
	if !timeRangesOverlap(start, end, cfg.RangeStart, cfg.RangeEnd) {
		return nil
	}
	return []model.Event{makeEvent(base, start, end, false, cfg.DisplayLocation)}
}

func expandRecurringEvent(ev ParsedEvent, overrides []ParsedEvent, consumed map[int64]bool, cfg ExpandConfig) ([]model.Event, bool) {
	out := make([]model.Event, 0)

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return out, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Pull the range start back by the event length so occurrences that
	// began before the window but still run into it are kept.
	dur := ev.End.Sub(ev.Start)
	rangeStart := cfg.RangeStart.Add(-dur).In(ev.Start.Location())
	rangeEnd := cfg.RangeEnd.In(ev.Start.Location())

	occTimes := set.Between(rangeStart, rangeEnd, true)
	hitCap := false
	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	for _, occStart := range occTimes {
		var occEnd time.Time
		if ev.AllDay {
			date := time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, occStart.Location())
			occStart = date
			occEnd = date.AddDate(0, 0, 1)
		} else {
			occEnd = occStart.Add(dur)
		}

		start, end, base := occStart, occEnd, ev
		if o, ok := findOverrideForStart(overrides, occStart); ok {
			consumed[o.Recurrence.UnixNano()] = true
			start, end, base = o.Start, o.End, o
		}
		if !timeRangesOverlap(start, end, cfg.RangeStart, cfg.RangeEnd) {
			continue
		}
		out = append(out, makeEvent(base, start, end, true, cfg.DisplayLocation))
	}

	return out, hitCap
}

// movedIntoRange returns the overrides whose original slot lies outside the
// expanded window but whose new time overlaps it. Overrides of slots removed
// by EXDATE stay out.
func movedIntoRange(overrides []ParsedEvent, consumed, excluded map[int64]bool, cfg ExpandConfig) []model.Event {
	var out []model.Event
	for _, o := range overrides {
		key := o.Recurrence.UnixNano()
		if consumed[key] || excluded[key] {
			continue
		}
		if !timeRangesOverlap(o.Start, o.End, cfg.RangeStart, cfg.RangeEnd) {
			continue
		}
		consumed[key] = true
		out = append(out, makeEvent(o, o.Start, o.End, true, cfg.DisplayLocation))
	}
	return out
}

// findOverrideForStart finds the override whose RECURRENCE-ID equals
// baseStart.
func findOverrideForStart(overrides []ParsedEvent, baseStart time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence == nil {
			continue
		}
		if ov.Recurrence.Equal(baseStart) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

// makeEvent converts a (possibly overridden) ParsedEvent at a concrete
// start/end into a model.Event in displayLoc. All-day dates keep their
// calendar date rather than shifting across zones.
func makeEvent(ev ParsedEvent, start, end time.Time, recurring bool, displayLoc *time.Location) model.Event {
	if ev.AllDay {
		start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, displayLoc)
		end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, displayLoc)
	} else {
		start = start.In(displayLoc)
		end = end.In(displayLoc)
	}

	return model.Event{
		Source:      ev.Source.ID,
		Subject:     ev.Summary,
		Location:    ev.Location,
		Organizer:   ev.Organizer,
		Categories:  ev.Categories,
		Start:       start,
		End:         end,
		AllDay:      ev.AllDay,
		IsRecurring: recurring || ev.IsOverride,
		Importance:  ev.Importance,
		ReminderSet: ev.HasAlarm,
	}
}

// timeRangesOverlap treats both ranges as half-open.
func timeRangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	if !aEnd.After(aStart) {
		// Zero-length events overlap when their instant is inside b.
		return !aStart.Before(bStart) && aStart.Before(bEnd)
	}
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
