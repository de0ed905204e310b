package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	appLog "dailybrief/internal/log"
)

var espeakBinaries = []string{"espeak-ng", "espeak"}

// Espeak synthesizes with espeak-ng (or classic espeak) and plays the WAV
// it writes to stdout.
type Espeak struct {
	binary string
	opts   Options

	// play is swapped out in tests.
	play func(ctx context.Context, wav []byte) error
}

// NewEspeak locates an espeak binary on PATH.
func NewEspeak(opts Options) (*Espeak, error) {
	for _, name := range espeakBinaries {
		if path, err := exec.LookPath(name); err == nil {
			appLog.Debug("using espeak", "binary", path)
			return &Espeak{binary: path, opts: opts.normalized(), play: playWAV}, nil
		}
	}
	return nil, fmt.Errorf("%w: neither espeak-ng nor espeak found on PATH", ErrUnavailable)
}

func (e *Espeak) args() []string {
	args := []string{
		"--stdout",
		"-s", strconv.Itoa(e.opts.Rate),
		// espeak amplitude runs 0..200 with 100 as normal.
		"-a", strconv.Itoa(percentVolume(e.opts.Volume)),
	}
	if e.opts.Voice != "" {
		args = append(args, "-v", e.opts.Voice)
	}
	return args
}

// Speak synthesizes text and plays it. Text goes through stdin so a
// leading dash is never read as a flag.
func (e *Espeak) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	cmd := exec.CommandContext(ctx, e.binary, e.args()...)
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	wav, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("espeak: %w: %s", err, msg)
		}
		return fmt.Errorf("espeak: %w", err)
	}

	return e.play(ctx, wav)
}

func (e *Espeak) Close() error { return nil }
