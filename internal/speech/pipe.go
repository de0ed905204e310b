package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	appLog "dailybrief/internal/log"
)

// wavPlayers are command-line players that read a WAV stream on stdin.
var wavPlayers = []struct {
	name string
	args []string
}{
	{"aplay", []string{"-q", "-"}},
	{"paplay", nil},
}

// pipeWAV plays wav through the first player found on PATH. It returns
// ErrUnavailable when none is installed.
func pipeWAV(ctx context.Context, wav []byte) error {
	for _, p := range wavPlayers {
		path, err := exec.LookPath(p.name)
		if err != nil {
			continue
		}
		appLog.Debug("playing through external player", "binary", path)

		cmd := exec.CommandContext(ctx, path, p.args...)
		cmd.Stdin = bytes.NewReader(wav)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return fmt.Errorf("%s: %w: %s", p.name, err, msg)
			}
			return fmt.Errorf("%s: %w", p.name, err)
		}
		return nil
	}
	return fmt.Errorf("%w: no wav player found on PATH", ErrUnavailable)
}
