package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Say drives the macOS say command, which plays directly.
type Say struct {
	binary string
	opts   Options
}

func NewSay(opts Options) (*Say, error) {
	path, err := exec.LookPath("say")
	if err != nil {
		return nil, fmt.Errorf("%w: say not found on PATH", ErrUnavailable)
	}
	return &Say{binary: path, opts: opts.normalized()}, nil
}

func (s *Say) args() []string {
	args := []string{"-r", strconv.Itoa(s.opts.Rate)}
	if s.opts.Voice != "" {
		args = append(args, "-v", s.opts.Voice)
	}
	return args
}

// input prefixes the text with an embedded volume command.
func (s *Say) input(text string) string {
	return fmt.Sprintf("[[volm %.2f]] %s", s.opts.Volume, text)
}

func (s *Say) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	cmd := exec.CommandContext(ctx, s.binary, s.args()...)
	cmd.Stdin = strings.NewReader(s.input(text))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("say: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (s *Say) Close() error { return nil }
