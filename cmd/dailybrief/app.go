package main

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"dailybrief/internal/brief"
	"dailybrief/internal/calendar"
	"dailybrief/internal/config"
	"dailybrief/internal/ics"
	appLog "dailybrief/internal/log"
	"dailybrief/internal/namestore"
	"dailybrief/internal/report"
	"dailybrief/internal/scheduler"
	"dailybrief/internal/speech"
	"dailybrief/internal/web"
)

const version = "0.1.0"

// app wires configuration to the briefing pipeline for one process.
type app struct {
	conf    *config.Config
	flags   flagConfig
	loc     *time.Location
	builder *brief.Builder
	names   *namestore.Store
	// speaker is nil when TTS is muted or unavailable.
	speaker speech.Speaker

	stdin       io.Reader
	stdout      io.Writer
	interactive bool

	userName string
}

func newApp(conf *config.Config, flags flagConfig) *app {
	loc := resolveLocation(conf.Timezone)
	a := &app{
		conf:        conf,
		flags:       flags,
		loc:         loc,
		names:       namestore.New(conf.NameFile),
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		interactive: isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()),
	}
	a.builder = newBuilder(conf, newSource(conf, loc), loc)
	a.speaker = newSpeaker(conf.Speech)
	return a
}

func newBuilder(conf *config.Config, src calendar.Source, loc *time.Location) *brief.Builder {
	return &brief.Builder{
		Source: src,
		Filter: brief.Filter{
			SkipKeywords:   conf.Filter.SkipKeywords,
			SkipCategories: conf.Filter.SkipCategories,
			IncludeAllDay:  conf.IncludeAllDay,
		},
		Location:        loc,
		IncludeTomorrow: conf.IncludeTomorrow,
		Composer:        &brief.Composer{},
	}
}

// newSource picks the calendar backend. Outlook is only reachable on
// Windows; elsewhere the ICS feeds are used.
func newSource(conf *config.Config, loc *time.Location) calendar.Source {
	if conf.Source == config.SourceOutlook {
		return calendar.NewOutlook(calendar.OutlookOptions{
			MaxScan:  conf.Outlook.MaxScan,
			Location: loc,
		})
	}
	return ics.NewCalendar(ics.NewFetcher(conf.ICSCacheDir), icsSources(conf.ICS), loc)
}

// icsSources converts configured feeds, skipping ones without a URL. The
// ID falls back to the name, then the URL.
func icsSources(feeds []config.ICSConfig) []ics.Source {
	sources := make([]ics.Source, 0, len(feeds))
	for _, f := range feeds {
		if f.URL == "" {
			continue
		}
		id := f.ID
		if id == "" {
			if f.Name != "" {
				id = f.Name
			} else {
				id = f.URL
			}
		}
		sources = append(sources, ics.Source{ID: id, URL: f.URL})
	}
	return sources
}

// newSpeaker opens the configured engine. Any failure degrades to
// text-only output.
func newSpeaker(sc config.SpeechConfig) speech.Speaker {
	if sc.Engine == speech.EngineNone {
		appLog.Debug("speech disabled")
		return nil
	}
	s, err := speech.New(sc.Engine, speech.Options{
		Rate:       sc.Rate,
		Volume:     sc.Volume,
		VoiceIndex: sc.VoiceIndex,
		Voice:      sc.Voice,
	})
	if err != nil {
		appLog.Warn("text-to-speech unavailable; continuing with text only", "engine", sc.Engine, "error", err)
		return nil
	}
	appLog.Info("text-to-speech ready", "engine", sc.Engine, "rate", sc.Rate, "volume", sc.Volume)
	return s
}

func resolveLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func (a *app) close() {
	if a.speaker != nil {
		if err := a.speaker.Close(); err != nil {
			appLog.Error("failed to close speaker", err)
		}
	}
}

// run executes one briefing, or the schedule and/or HTTP API until ctx
// is cancelled.
func (a *app) run(ctx context.Context) error {
	a.resolveName()

	if a.conf.Schedule == "" && a.conf.Listen == "" {
		a.brief(ctx)
		return nil
	}

	var srv *web.Server
	if a.conf.Listen != "" {
		srv = web.NewServer(a.conf.BasicAuth, func(ctx context.Context) brief.Briefing {
			return a.builder.Build(ctx, a.userName)
		})
	}

	var sched *scheduler.Scheduler
	if a.conf.Schedule != "" {
		var err error
		if sched, err = scheduler.New(a.conf.Schedule, a.loc); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if srv != nil {
		g.Go(func() error { return srv.Serve(gctx, a.conf.Listen) })
	}
	if sched != nil {
		g.Go(func() error {
			return sched.Run(gctx, func(ctx context.Context) {
				br := a.brief(ctx)
				if srv != nil {
					srv.Publish(br)
				}
			})
		})
	}
	return g.Wait()
}

// resolveName loads the stored name, asking for it when stdin is a
// terminal. Without one the greeting has no name.
func (a *app) resolveName() {
	name, err := a.names.Resolve(a.stdin, a.stdout, a.interactive)
	if err != nil {
		if errors.Is(err, namestore.ErrNoName) {
			appLog.Warn("no user name configured; greeting without a name", "name_file", a.names.Path)
		} else {
			appLog.Error("failed to resolve user name", err)
		}
		return
	}
	a.userName = name
}

// brief builds, prints and speaks one briefing.
func (a *app) brief(ctx context.Context) brief.Briefing {
	br := a.builder.Build(ctx, a.userName)

	if err := report.Print(a.stdout, br, report.Options{ShowDetails: a.flags.details}); err != nil {
		appLog.Error("failed to print briefing", err)
	}
	a.speak(ctx, br.Summary)
	return br
}

func (a *app) speak(ctx context.Context, summary string) {
	if a.flags.mute {
		return
	}
	if a.speaker == nil {
		if err := report.SpeechFallback(a.stdout, summary); err != nil {
			appLog.Error("failed to print summary", err)
		}
		return
	}

	appLog.Debug("speaking summary", "chars", len(summary))
	if err := a.speaker.Speak(ctx, summary); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		appLog.Error("failed to speak summary", err)
		if err := report.SpeechFallback(a.stdout, summary); err != nil {
			appLog.Error("failed to print summary", err)
		}
	}
}
