// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/hajimehoshi/go-mp3"
)

// pollInterval is how often playback progress is checked.
const pollInterval = 10 * time.Millisecond

// The audio device is opened once per process; oto allows a single context.
var (
	audioOnce sync.Once
	audioCtx  *oto.Context
	audioRate int
	audioErr  error
)

func audioContext(sampleRate int) (*oto.Context, error) {
	audioOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			audioErr = fmt.Errorf("failed to open audio device: %w", err)
			return
		}
		<-ready
		audioCtx = ctx
		audioRate = sampleRate
	})
	if audioErr != nil {
		return nil, audioErr
	}
	if sampleRate != audioRate {
		return nil, fmt.Errorf("audio sample rate %d Hz does not match device rate %d Hz", sampleRate, audioRate)
	}
	return audioCtx, nil
}

// MP3Player decodes MP3 and plays it on the default audio device as 16-bit
// stereo.
type MP3Player struct{}

var _ Player = MP3Player{}

// Play blocks until the stream has been played or ctx is done.
func (MP3Player) Play(ctx context.Context, audio io.Reader) error {
	dec, err := mp3.NewDecoder(audio)
	if err != nil {
		return fmt.Errorf("failed to decode mp3: %w", err)
	}

	otoCtx, err := audioContext(dec.SampleRate())
	if err != nil {
		return err
	}

	p := otoCtx.NewPlayer(dec)
	p.Play()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for p.IsPlaying() {
		select {
		case <-ctx.Done():
			p.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return p.Err()
}
