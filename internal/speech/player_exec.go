//go:build linux && !cgo

package speech

import "context"

// playWAV hands the buffer to an external player. oto needs cgo and ALSA
// on Linux, so static builds go through aplay or paplay.
func playWAV(ctx context.Context, wav []byte) error {
	if _, _, err := parseWAV(wav); err != nil {
		return err
	}
	return pipeWAV(ctx, wav)
}
