// Package playback owns speaker output: assistant speech clips and the
// ambient processing tone. The speaker is a singleton resource; at most one
// speech clip plays at a time and starting a new one stops the current one.
package playback

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

const playbackRate = beep.SampleRate(48000)

var speakerOnce sync.Once
var speakerErr error

func ensureSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(playbackRate, playbackRate.N(100*time.Millisecond))
	})
	return speakerErr
}

// Player plays one assistant clip at a time through the shared speaker.
// startMu serializes the stop-before-start handover so two clips can never
// reach the speaker at once.
type Player struct {
	mu      sync.Mutex
	startMu sync.Mutex
	ctrl    *beep.Ctrl
}

func NewPlayer() (*Player, error) {
	if err := ensureSpeaker(); err != nil {
		return nil, fmt.Errorf("speaker init: %w", err)
	}
	return &Player{}, nil
}

// Play decodes and plays the clip, blocking until it ends naturally or Stop
// pre-empts it. Any clip already playing is stopped first.
func (p *Player) Play(mimeType string, audio []byte) error {
	streamer, format, err := decodeClip(mimeType, audio)
	if err != nil {
		return err
	}
	defer streamer.Close()

	resampled := beep.Resample(4, format.SampleRate, playbackRate, streamer)
	ctrl := &beep.Ctrl{Streamer: resampled}
	done := make(chan struct{})

	p.startMu.Lock()
	p.Stop()
	p.mu.Lock()
	p.ctrl = ctrl
	p.mu.Unlock()
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		close(done)
	})))
	p.startMu.Unlock()

	<-done

	p.mu.Lock()
	if p.ctrl == ctrl {
		p.ctrl = nil
	}
	p.mu.Unlock()
	return nil
}

// Playing reports whether a clip is currently active.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ctrl != nil
}

// Stop halts the current clip immediately. Playing reports false the moment
// Stop returns. Safe to call when idle.
func (p *Player) Stop() {
	p.mu.Lock()
	ctrl := p.ctrl
	p.ctrl = nil
	p.mu.Unlock()
	if ctrl == nil {
		return
	}
	speaker.Lock()
	ctrl.Streamer = nil
	speaker.Unlock()
}

// Close stops playback; the shared speaker itself stays open for the process.
func (p *Player) Close() { p.Stop() }

// decodeClip picks a decoder from the clip's mime type. The backend reports
// audio/mpeg for synthesized speech; wav is kept for loopback testing.
func decodeClip(mimeType string, audio []byte) (beep.StreamSeekCloser, beep.Format, error) {
	if len(audio) == 0 {
		return nil, beep.Format{}, fmt.Errorf("playback: empty audio payload")
	}
	rc := io.NopCloser(bytes.NewReader(audio))
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.HasPrefix(mt, "audio/mpeg") || strings.HasPrefix(mt, "audio/mp3"):
		return mp3.Decode(rc)
	case strings.HasPrefix(mt, "audio/wav") || strings.HasPrefix(mt, "audio/x-wav"):
		return wav.Decode(rc)
	}
	return nil, beep.Format{}, fmt.Errorf("playback: unsupported mime type %q", mimeType)
}
