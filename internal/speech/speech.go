// Package speech reads the briefing summary aloud through the platform's
// text-to-speech engine.
package speech

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
)

// ErrUnavailable means no usable TTS engine exists on this host; callers
// fall back to text-only output.
var ErrUnavailable = errors.New("text-to-speech unavailable")

const (
	EngineAuto   = "auto"
	EngineSAPI   = "sapi"
	EngineEspeak = "espeak"
	EngineSay    = "say"
	EngineNone   = "none"
)

// Speaker speaks text and blocks until it has been spoken.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Close() error
}

// Options holds the tunable voice parameters.
type Options struct {
	// Rate in words per minute.
	Rate int
	// Volume from 0.0 to 1.0.
	Volume float64
	// VoiceIndex picks the n-th installed voice when more than one exists;
	// negative keeps the default. Only SAPI enumerates voices.
	VoiceIndex int
	// Voice selects a voice by (partial) name and wins over VoiceIndex.
	Voice string
}

func (o Options) normalized() Options {
	if o.Rate <= 0 {
		o.Rate = 150
	}
	if o.Volume < 0 || o.Volume > 1 {
		o.Volume = 0.9
	}
	return o
}

// New opens the requested engine. "auto" picks SAPI on Windows, say on
// macOS and espeak elsewhere.
func New(engine string, opts Options) (Speaker, error) {
	opts = opts.normalized()

	var (
		s   Speaker
		err error
	)
	switch resolveEngine(engine, runtime.GOOS) {
	case EngineSAPI:
		s, err = NewSAPI(opts)
	case EngineSay:
		var say *Say
		if say, err = NewSay(opts); err == nil {
			s = say
		}
	case EngineEspeak:
		var es *Espeak
		if es, err = NewEspeak(opts); err == nil {
			s = es
		}
	case EngineNone:
		err = ErrUnavailable
	default:
		err = fmt.Errorf("unknown speech engine %q", engine)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func resolveEngine(engine, goos string) string {
	engine = strings.ToLower(strings.TrimSpace(engine))
	if engine != "" && engine != EngineAuto {
		return engine
	}
	switch goos {
	case "windows":
		return EngineSAPI
	case "darwin":
		return EngineSay
	default:
		return EngineEspeak
	}
}

// sapiRate maps words per minute onto SAPI's -10..10 scale, where each step
// is roughly 10% faster and 0 is about 200 wpm.
func sapiRate(wpm int) int {
	if wpm <= 0 {
		return 0
	}
	r := int(math.Round(math.Log(float64(wpm)/200) / math.Log(1.1)))
	return max(-10, min(10, r))
}

// percentVolume maps 0..1 onto 0..100.
func percentVolume(v float64) int {
	return int(math.Round(max(0, min(1, v)) * 100))
}
