// Package report prints the human-readable daily briefing.
package report

import (
	"fmt"
	"io"
	"strings"

	"dailybrief/internal/brief"
	"dailybrief/internal/model"
)

const (
	bannerWidth  = 70
	dividerWidth = 50
	timeLayout   = "03:04 PM"
)

// Options tweaks the printed layout.
type Options struct {
	// ShowDetails adds duration, meeting type, recurrence and reminder lines.
	ShowDetails bool
}

// Print writes the full briefing to w.
func Print(w io.Writer, br brief.Briefing, opts Options) error {
	p := &printer{w: w}
	banner := strings.Repeat("=", bannerWidth)

	p.line("")
	p.line(banner)
	p.linef("🗓️  YOUR DAILY BRIEFING - %s", br.Today.Date.Format("Monday, January 02, 2006"))
	p.line(banner)

	for _, warn := range br.Warnings {
		p.linef("\n⚠️  Calendar unavailable: %s", warn)
	}

	if len(br.Today.Events) > 0 {
		p.linef("\n📋 TODAY'S EVENTS (%d total):", len(br.Today.Events))
		p.line(strings.Repeat("-", dividerWidth))
		p.events(br.Today.Events, opts, true)
	} else {
		p.line("\n🎉 TODAY - Free day with no scheduled events!")
	}

	if br.Tomorrow != nil {
		if len(br.Tomorrow.Events) > 0 {
			p.linef("\n📋 TOMORROW'S EVENTS (%d total) - %s:", len(br.Tomorrow.Events), br.Tomorrow.Date.Format("Monday, January 02"))
			p.line(strings.Repeat("-", dividerWidth))
			p.events(br.Tomorrow.Events, opts, false)
		} else {
			p.line("\n🎉 TOMORROW - Free day with no scheduled events!")
		}
	}

	p.line("\n" + banner)
	p.line("📝 DAY SUMMARY:")
	p.line(banner)
	p.line(br.Summary)

	p.line("\n" + banner)
	p.line("✨ Have a great day! ✨")
	p.line(banner)

	return p.err
}

// SpeechFallback repeats the summary when it could not be spoken.
func SpeechFallback(w io.Writer, summary string) error {
	_, err := fmt.Fprintf(w, "\n🔇 TTS not available, but here's your summary again:\n%s\n", summary)
	return err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, s)
}

func (p *printer) linef(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}

// events prints one numbered block per event. The today section carries
// the richer markers (online location, priority).
func (p *printer) events(events []model.Event, opts Options, rich bool) {
	for i, ev := range events {
		p.linef("\n%d. 📅 %s", i+1, ev.Subject)
		if ev.AllDay {
			p.line("   🕐 All day")
		} else {
			p.linef("   🕐 %s - %s", ev.Start.Format(timeLayout), ev.End.Format(timeLayout))
		}

		if ev.Location != "" {
			if rich && ev.IsOnline() {
				p.linef("   💻 %s", ev.Location)
			} else {
				p.linef("   📍 %s", ev.Location)
			}
		}

		if rich && ev.HighPriority() {
			p.line("   🔴 HIGH PRIORITY")
		}

		if organizer := brief.DisplayOrganizer(ev.Organizer); organizer != "" {
			p.linef("   👤 Organizer: %s", organizer)
		}

		if opts.ShowDetails {
			details := []string{ev.Duration(), ev.MeetingType()}
			if ev.IsRecurring {
				details = append(details, "recurring")
			}
			if ev.ReminderSet {
				details = append(details, "reminder set")
			}
			p.linef("   ℹ️  %s", strings.Join(details, " · "))
		}
	}
}
