//go:build windows

package speech

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"

	appLog "dailybrief/internal/log"
)

const (
	sFalse = 0x00000001

	svsfAsync          = 1
	svsfPurgeBeforeSpk = 2
	waitSliceMillis    = 200
)

type sapiRequest struct {
	ctx  context.Context
	text string
	done chan error
}

// SAPI speaks through SAPI.SpVoice. The COM object lives on one locked OS
// thread owned by a worker goroutine; Speak hands requests to it.
type SAPI struct {
	reqs      chan sapiRequest
	quit      chan struct{}
	closeOnce sync.Once
	stopped   chan struct{}
}

func NewSAPI(opts Options) (Speaker, error) {
	opts = opts.normalized()
	s := &SAPI{
		reqs:    make(chan sapiRequest),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	ready := make(chan error, 1)
	go s.run(opts, ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SAPI) run(opts Options, ready chan<- error) {
	defer close(s.stopped)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			ready <- fmt.Errorf("%w: initialize COM: %v", ErrUnavailable, err)
			return
		}
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("SAPI.SpVoice")
	if err != nil {
		ready <- fmt.Errorf("%w: create SAPI.SpVoice: %v", ErrUnavailable, err)
		return
	}
	defer unknown.Release()

	voice, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		ready <- fmt.Errorf("%w: query SpVoice dispatch: %v", ErrUnavailable, err)
		return
	}
	defer voice.Release()

	if err := configureVoice(voice, opts); err != nil {
		ready <- err
		return
	}
	ready <- nil

	for {
		select {
		case req := <-s.reqs:
			req.done <- speakSAPI(req.ctx, voice, req.text)
		case <-s.quit:
			return
		}
	}
}

func configureVoice(voice *ole.IDispatch, opts Options) error {
	if _, err := oleutil.PutProperty(voice, "Rate", sapiRate(opts.Rate)); err != nil {
		return fmt.Errorf("set SAPI rate: %w", err)
	}
	if _, err := oleutil.PutProperty(voice, "Volume", percentVolume(opts.Volume)); err != nil {
		return fmt.Errorf("set SAPI volume: %w", err)
	}

	result, err := oleutil.CallMethod(voice, "GetVoices")
	if err != nil {
		appLog.Warn("could not list SAPI voices", "error", err)
		return nil
	}
	voices := result.ToIDispatch()
	defer voices.Release()

	countVar, err := oleutil.GetProperty(voices, "Count")
	if err != nil {
		return nil
	}
	count := int(countVar.Val)

	index := -1
	for i := 0; i < count && opts.Voice != ""; i++ {
		if strings.Contains(strings.ToLower(voiceDescription(voices, i)), strings.ToLower(opts.Voice)) {
			index = i
			break
		}
	}
	if index < 0 && opts.Voice == "" && opts.VoiceIndex >= 0 && opts.VoiceIndex < count {
		index = opts.VoiceIndex
	}
	if index < 0 {
		if opts.Voice != "" {
			appLog.Warn("SAPI voice not found, keeping default", "voice", opts.Voice)
		}
		return nil
	}

	itemVar, err := oleutil.CallMethod(voices, "Item", index)
	if err != nil {
		return nil
	}
	token := itemVar.ToIDispatch()
	defer token.Release()

	if _, err := oleutil.PutPropertyRef(voice, "Voice", token); err != nil {
		appLog.Warn("could not select SAPI voice", "index", index, "error", err)
		return nil
	}
	appLog.Debug("selected SAPI voice", "index", index, "description", voiceDescription(voices, index))
	return nil
}

func voiceDescription(voices *ole.IDispatch, i int) string {
	itemVar, err := oleutil.CallMethod(voices, "Item", i)
	if err != nil {
		return ""
	}
	token := itemVar.ToIDispatch()
	defer token.Release()

	desc, err := oleutil.CallMethod(token, "GetDescription")
	if err != nil {
		return ""
	}
	return desc.ToString()
}

// speakSAPI queues the text asynchronously and polls WaitUntilDone so a
// cancelled context can purge the queue.
func speakSAPI(ctx context.Context, voice *ole.IDispatch, text string) error {
	if _, err := oleutil.CallMethod(voice, "Speak", text, svsfAsync); err != nil {
		return fmt.Errorf("SAPI speak: %w", err)
	}
	for {
		if err := ctx.Err(); err != nil {
			_, _ = oleutil.CallMethod(voice, "Speak", "", svsfAsync|svsfPurgeBeforeSpk)
			return err
		}
		done, err := oleutil.CallMethod(voice, "WaitUntilDone", waitSliceMillis)
		if err != nil {
			return fmt.Errorf("SAPI wait: %w", err)
		}
		if finished, ok := done.Value().(bool); ok && finished {
			return nil
		}
	}
}

func (s *SAPI) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	req := sapiRequest{ctx: ctx, text: text, done: make(chan error, 1)}
	select {
	case s.reqs <- req:
	case <-s.stopped:
		return errors.New("SAPI voice closed")
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-req.done
}

func (s *SAPI) Close() error {
	s.closeOnce.Do(func() {
		close(s.quit)
		<-s.stopped
	})
	return nil
}
