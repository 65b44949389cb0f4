package playback

import (
	"math"
	"sync"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

const (
	toneFrequency = 220.0
	toneSwellHz   = 0.5
	toneAmplitude = 0.045
)

// toneStreamer synthesizes a soft sine with a slow amplitude swell. It runs
// until removed from the speaker.
type toneStreamer struct {
	sampleRate beep.SampleRate
	pos        int
}

func (t *toneStreamer) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		at := float64(t.pos) / float64(t.sampleRate)
		env := 0.6 + 0.4*math.Sin(2*math.Pi*toneSwellHz*at)
		v := toneAmplitude * env * math.Sin(2*math.Pi*toneFrequency*at)
		samples[i][0] = v
		samples[i][1] = v
		t.pos++
	}
	return len(samples), true
}

func (t *toneStreamer) Err() error { return nil }

// Tone is the ambient "thinking" cue played while a submission is in flight.
// At most one tone runs at a time; Start stops any previous one first.
type Tone struct {
	mu   sync.Mutex
	ctrl *beep.Ctrl
}

func NewTone() (*Tone, error) {
	if err := ensureSpeaker(); err != nil {
		return nil, err
	}
	return &Tone{}, nil
}

func (t *Tone) Start() {
	t.Stop()
	ctrl := &beep.Ctrl{Streamer: &toneStreamer{sampleRate: playbackRate}}
	t.mu.Lock()
	t.ctrl = ctrl
	t.mu.Unlock()
	speaker.Play(ctrl)
}

// Stop removes the tone from the speaker immediately. Idempotent.
func (t *Tone) Stop() {
	t.mu.Lock()
	ctrl := t.ctrl
	t.ctrl = nil
	t.mu.Unlock()
	if ctrl == nil {
		return
	}
	speaker.Lock()
	ctrl.Streamer = nil
	speaker.Unlock()
}

// Active reports whether the tone is currently playing.
func (t *Tone) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ctrl != nil
}
