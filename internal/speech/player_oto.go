//go:build !linux || cgo

package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	appLog "dailybrief/internal/log"
)

// oto allows a single context per process, fixed to the first format seen.
var (
	audioCtx     *oto.Context
	audioFormat  wavFormat
	audioCtxErr  error
	audioCtxOnce sync.Once
)

func initAudioContext(format wavFormat) (*oto.Context, error) {
	audioCtxOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			audioCtxErr = fmt.Errorf("open audio device: %w", err)
			return
		}
		<-ready
		audioCtx = ctx
		audioFormat = format
		appLog.Debug("audio context initialized", "sample_rate", format.SampleRate, "channels", format.Channels)
	})
	if audioCtxErr != nil {
		return nil, audioCtxErr
	}
	if format != audioFormat {
		return nil, fmt.Errorf("audio format %+v differs from open device %+v", format, audioFormat)
	}
	return audioCtx, nil
}

// playWAV plays a 16-bit PCM WAV buffer and blocks until it finishes or
// ctx is cancelled.
func playWAV(ctx context.Context, wav []byte) error {
	format, pcm, err := parseWAV(wav)
	if err != nil {
		return err
	}
	if format.BitDepth != 16 {
		return fmt.Errorf("unsupported bit depth %d", format.BitDepth)
	}

	audio, err := initAudioContext(format)
	if err != nil {
		if perr := pipeWAV(ctx, wav); perr == nil {
			return nil
		} else if !errors.Is(perr, ErrUnavailable) {
			appLog.Warn("external wav player failed", "error", perr)
		}
		return err
	}

	player := audio.NewPlayer(bytes.NewReader(pcm))
	defer player.Close()
	player.Play()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return player.Err()
}
