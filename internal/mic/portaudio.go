package mic

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const (
	captureSampleRate = 48000
	framesPerBuffer   = 960 // 20ms at 48kHz
)

// PortAudioSource captures mono 16-bit PCM from the default input device.
// portaudio.Initialize must have been called before Open.
type PortAudioSource struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	buf    []int16
}

func NewPortAudioSource() *PortAudioSource {
	return &PortAudioSource{buf: make([]int16, framesPerBuffer)}
}

func (s *PortAudioSource) SampleRate() int { return captureSampleRate }

func (s *PortAudioSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != nil {
		return nil
	}
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(captureSampleRate), len(s.buf), s.buf)
	if err != nil {
		return wrapOpenErr(err)
	}
	s.stream = stream
	return nil
}

func (s *PortAudioSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return ErrUnsupported
	}
	if err := s.stream.Start(); err != nil {
		return wrapOpenErr(err)
	}
	return nil
}

func (s *PortAudioSource) ReadFrame() ([]int16, error) {
	s.mu.Lock()
	stream := s.stream
	s.mu.Unlock()
	if stream == nil {
		return nil, ErrNotRecording
	}
	if err := stream.Read(); err != nil {
		// overflow happens when the turn loop falls behind briefly; the
		// frame buffer still holds valid samples
		if err != portaudio.InputOverflowed {
			return nil, err
		}
	}
	out := make([]int16, len(s.buf))
	copy(out, s.buf)
	return out, nil
}

func (s *PortAudioSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return nil
	}
	return s.stream.Stop()
}

func (s *PortAudioSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return nil
	}
	err := s.stream.Close()
	s.stream = nil
	return err
}

// wrapOpenErr maps portaudio failures onto the package's sentinel errors so
// callers can classify them without importing portaudio.
func wrapOpenErr(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no default input device") || strings.Contains(msg, "invalid device"):
		return fmt.Errorf("%w: %v", ErrNoDevice, err)
	case strings.Contains(msg, "device unavailable"):
		return fmt.Errorf("%w: %v", ErrDeviceBusy, err)
	case strings.Contains(msg, "permission") || strings.Contains(msg, "access denied"):
		return fmt.Errorf("%w: %v", ErrPermission, err)
	case strings.Contains(msg, "not initialized"):
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return err
}
