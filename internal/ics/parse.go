package ics

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "dailybrief/internal/log"
	"dailybrief/internal/model"
)

// ParsedEvent is the normalized representation of a VEVENT before
// recurrence expansion.
type ParsedEvent struct {
	Source Source

	UID string
	Seq int

	Summary   string
	Location  string
	Organizer string

	Categories []string
	Status     string
	Importance int
	HasAlarm   bool

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID in the event's own timezone
	IsOverride bool
}

// ParseICS parses a single ICS payload. Malformed VEVENTs are logged and
// skipped; cancelled ones are dropped.
func ParseICS(src Source, body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, err
	}

	events := make([]ParsedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(src, comp)
		if perr != nil {
			appLog.Error("ics vevent parse failed", perr, "id", src.ID)
			continue
		}
		if strings.EqualFold(ev.Status, "CANCELLED") {
			appLog.Debug("ics dropping cancelled event", "id", src.ID, "summary", ev.Summary)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "id", src.ID, "event_count", len(events))
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent
	out.Source = src
	out.Importance = model.ImportanceNormal

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySequence); p != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(p.Value)); err == nil {
			out.Seq = n
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyOrganizer); p != nil {
		out.Organizer = organizerFromProperty(p)
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		out.Status = strings.TrimSpace(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyPriority); p != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(p.Value)); err == nil {
			out.Importance = importanceFromPriority(n)
		}
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyCategories) {
		for _, c := range strings.Split(p.Value, ",") {
			if c = strings.TrimSpace(c); c != "" {
				out.Categories = append(out.Categories, c)
			}
		}
	}
	for _, c := range ve.Components {
		if _, ok := c.(*ical.VAlarm); ok {
			out.HasAlarm = true
			break
		}
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, err
	}
	end, err := ve.GetEndAt()
	if err != nil {
		// DTEND is optional; a missing one means a zero-length event.
		end = start
	}
	out.Start = start
	out.End = end

	// VALUE=DATE or a value without a time part is an all-day event.
	if dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart); dtStartProp != nil {
		if vs, ok := dtStartProp.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			out.AllDay = true
		}
		if !strings.Contains(dtStartProp.Value, "T") {
			out.AllDay = true
		}
	}
	if out.AllDay && !out.End.After(out.Start) {
		out.End = out.Start.AddDate(0, 0, 1)
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			if t, err := parseICSTime(part, tzParam(p)); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseICSTime(p.Value, tzParam(p)); err == nil {
			out.Recurrence = &t
			out.IsOverride = true
		}
	}

	return out, nil
}

// organizerFromProperty prefers the CN parameter and falls back to the
// mailto address.
func organizerFromProperty(p *ical.IANAProperty) string {
	if cns, ok := p.ICalParameters["CN"]; ok && len(cns) > 0 {
		if cn := strings.Trim(strings.TrimSpace(cns[0]), `"`); cn != "" {
			return cn
		}
	}
	v := strings.TrimSpace(p.Value)
	if len(v) >= 7 && strings.EqualFold(v[:7], "mailto:") {
		v = v[7:]
	}
	return v
}

// importanceFromPriority maps RFC 5545 PRIORITY (1 highest, 9 lowest, 0
// undefined) onto Outlook's three importance levels.
func importanceFromPriority(p int) int {
	switch {
	case p >= 1 && p <= 4:
		return model.ImportanceHigh
	case p >= 6 && p <= 9:
		return model.ImportanceLow
	default:
		return model.ImportanceNormal
	}
}

func tzParam(p *ical.IANAProperty) *time.Location {
	if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		if loc, err := time.LoadLocation(tzs[0]); err == nil {
			return loc
		}
	}
	return time.Local
}

// parseICSTime parses DATE, local DATE-TIME and UTC DATE-TIME values.
// Local forms are interpreted in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if loc == nil {
		loc = time.Local
	}

	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	return time.ParseInLocation("20060102", v, loc)
}
