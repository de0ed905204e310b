package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"dailybrief/internal/config"
	appLog "dailybrief/internal/log"
)

// flagConfig holds CLI flag values. Non-empty values win over the config
// file.
type flagConfig struct {
	configPath string
	listen     string
	todayOnly  bool
	mute       bool
	once       bool
	details    bool
	debug      bool
}

func main() {
	flags := parseFlags(flag.CommandLine, os.Args[1:])
	setupLogLevel(flags.debug, os.Getenv("LOG_LEVEL"), "")

	appLog.Info("dailybrief starting", "version", version)

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	setupLogLevel(flags.debug, os.Getenv("LOG_LEVEL"), conf.LogLevel)
	if err := applyFlags(conf, flags); err != nil {
		appLog.Error("invalid command line overrides", err)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"source", conf.Source,
		"timezone", conf.Timezone,
		"include_tomorrow", conf.IncludeTomorrow,
		"include_all_day", conf.IncludeAllDay,
		"ics_count", len(conf.ICS),
		"speech_engine", conf.Speech.Engine,
		"schedule", conf.Schedule,
		"listen", conf.Listen,
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	a := newApp(conf, flags)
	defer a.close()

	if err := a.run(ctx); err != nil {
		appLog.Error("dailybrief failed", err)
		os.Exit(1)
	}
	appLog.Info("dailybrief exiting")
}

func parseFlags(fs *flag.FlagSet, args []string) flagConfig {
	var cfg flagConfig

	fs.StringVar(&cfg.configPath, "config", config.DefaultPath(), "Path to config file")
	fs.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	fs.BoolVar(&cfg.todayOnly, "today-only", false, "Leave tomorrow out of the briefing")
	fs.BoolVar(&cfg.mute, "mute", false, "Print the briefing without speaking it")
	fs.BoolVar(&cfg.once, "once", false, "Run one briefing and exit, ignoring schedule and listen")
	fs.BoolVar(&cfg.details, "details", false, "Print duration, meeting type and recurrence per event")
	fs.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	// ExitOnError: a bad flag exits 2 with usage.
	_ = fs.Parse(args)

	return cfg
}

// applyFlags folds CLI overrides into the loaded config and validates the
// result again.
func applyFlags(conf *config.Config, flags flagConfig) error {
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.todayOnly {
		conf.IncludeTomorrow = false
	}
	if flags.mute {
		conf.Speech.Engine = "none"
	}
	if flags.once {
		conf.Schedule = ""
		conf.Listen = ""
	}
	return conf.Validate()
}

// setupLogLevel applies -debug, then LOG_LEVEL, then the configured level.
func setupLogLevel(debug bool, envLevel, confLevel string) {
	if debug {
		appLog.SetLevel(appLog.LevelDebug)
		return
	}
	for _, s := range []string{envLevel, confLevel} {
		if s == "" {
			continue
		}
		lvl, err := appLog.ParseLevel(s)
		if err != nil {
			appLog.Warn("ignoring invalid log level", "level", s)
			continue
		}
		appLog.SetLevel(lvl)
		return
	}
}
