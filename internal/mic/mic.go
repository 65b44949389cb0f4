// Package mic owns microphone capture for the interview client: a Source
// abstraction over the OS input device and a push-to-talk Recorder that
// borrows it for one turn at a time.
package mic

import (
	"errors"
	"time"
)

// MinTurnDuration is the shortest capture accepted for submission; anything
// shorter is discarded with ErrTooShort and never reaches the network.
const MinTurnDuration = 500 * time.Millisecond

// Capture failure classes. Open errors are wrapped with one of these so the
// interview layer can map them to user-actionable messages.
var (
	ErrNoDevice    = errors.New("no audio input device found")
	ErrDeviceBusy  = errors.New("audio input device is already in use")
	ErrPermission  = errors.New("microphone access denied")
	ErrUnsupported = errors.New("audio capture is not supported on this host")

	ErrAlreadyRecording = errors.New("a recording is already active")
	ErrNotRecording     = errors.New("no recording is active")
	ErrTooShort         = errors.New("recording too short, hold longer")
	ErrNoAudio          = errors.New("no audio captured")
)

// Source is an exclusive handle on one audio input device. Open claims the
// device for the session; Start/Stop bracket a single turn's capture. The
// session lifecycle owns the Source; the Recorder only borrows it.
type Source interface {
	Open() error
	Start() error
	ReadFrame() ([]int16, error)
	Stop() error
	Close() error
	SampleRate() int
}

// Clip is one finalized push-to-talk capture.
type Clip struct {
	PCM        []int16
	SampleRate int
	Duration   time.Duration
}
