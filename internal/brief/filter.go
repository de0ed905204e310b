package brief

import (
	"strings"
	"time"

	appLog "dailybrief/internal/log"
	"dailybrief/internal/model"
)

// Filter decides which events make it into a briefing.
type Filter struct {
	// SkipKeywords drops events whose subject contains any keyword,
	// ignoring case.
	SkipKeywords []string
	// SkipCategories drops events carrying any of these categories.
	SkipCategories []string
	// IncludeAllDay keeps all-day events when true.
	IncludeAllDay bool
}

// Skip reports whether ev should be left out of day's briefing, and why.
func (f Filter) Skip(ev model.Event, day time.Time) (bool, string) {
	subject := strings.ToLower(ev.Subject)
	for _, kw := range f.SkipKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(subject, kw) {
			return true, "keyword " + kw
		}
	}
	for _, cat := range f.SkipCategories {
		if ev.HasCategory(cat) {
			return true, "category " + cat
		}
	}
	if ev.AllDay && !f.IncludeAllDay {
		return true, "all-day"
	}
	if !model.SameDate(day, ev.Start) {
		return true, "outside day"
	}
	return false, ""
}

// Apply returns the events of day that pass the filter, logging each
// decision at debug level.
func (f Filter) Apply(events []model.Event, day time.Time) []model.Event {
	out := make([]model.Event, 0, len(events))
	skipped := 0
	for _, ev := range events {
		if skip, reason := f.Skip(ev, day); skip {
			skipped++
			appLog.Debug("[FILTERED] event", "subject", ev.Subject, "reason", reason,
				"start", ev.Start.Format("2006-01-02 15:04"))
			continue
		}
		appLog.Debug("[INCLUDED] event", "subject", ev.Subject, "start", ev.Start.Format("2006-01-02 15:04"))
		out = append(out, ev)
	}
	if skipped > 0 {
		appLog.Info("filtered events", "day", day.Format("2006-01-02"), "kept", len(out), "skipped", skipped)
	}
	return out
}
