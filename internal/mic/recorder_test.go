package mic

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeSource emits a fixed frame per read with a small delay.
type fakeSource struct {
	mu      sync.Mutex
	frame   []int16
	started int
	stopped int
	readErr error
}

func (f *fakeSource) Open() error  { return nil }
func (f *fakeSource) Close() error { return nil }
func (f *fakeSource) Start() error {
	f.mu.Lock()
	f.started++
	f.mu.Unlock()
	return nil
}
func (f *fakeSource) Stop() error {
	f.mu.Lock()
	f.stopped++
	f.mu.Unlock()
	return nil
}
func (f *fakeSource) SampleRate() int { return 48000 }
func (f *fakeSource) ReadFrame() ([]int16, error) {
	f.mu.Lock()
	frame, err := f.frame, f.readErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	time.Sleep(2 * time.Millisecond)
	out := make([]int16, len(frame))
	copy(out, frame)
	return out, nil
}

func TestRecorder_SecondBeginIsRejected(t *testing.T) {
	r := NewRecorder(&fakeSource{frame: []int16{100, -100}})
	if err := r.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer r.Abort()
	if err := r.Begin(); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("expected ErrAlreadyRecording, got %v", err)
	}
}

func TestRecorder_TooShortIsDiscarded(t *testing.T) {
	src := &fakeSource{frame: []int16{100, -100}}
	r := NewRecorder(src)
	if err := r.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	clip, err := r.End()
	if !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got clip=%v err=%v", clip, err)
	}
	if r.Recording() {
		t.Fatalf("recorder should be idle after discard")
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	if src.stopped == 0 {
		t.Fatalf("source should be stopped after discard")
	}
}

func TestRecorder_EmptyCaptureIsDiscarded(t *testing.T) {
	src := &fakeSource{frame: nil, readErr: errors.New("stream closed")}
	r := NewRecorder(src)
	if err := r.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	// backdate the start so the duration gate passes and the empty-capture
	// gate is what rejects the clip
	r.mu.Lock()
	r.started = time.Now().Add(-time.Second)
	r.mu.Unlock()
	time.Sleep(10 * time.Millisecond)
	if _, err := r.End(); !errors.Is(err, ErrNoAudio) {
		t.Fatalf("expected ErrNoAudio, got %v", err)
	}
}

func TestRecorder_ProducesClip(t *testing.T) {
	src := &fakeSource{frame: []int16{500, -500, 250, -250}}
	r := NewRecorder(src)
	if err := r.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	// let a few frames accumulate, then backdate past the duration gate
	time.Sleep(20 * time.Millisecond)
	r.mu.Lock()
	r.started = time.Now().Add(-time.Second)
	r.mu.Unlock()
	clip, err := r.End()
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(clip.PCM) == 0 {
		t.Fatalf("expected captured samples")
	}
	if clip.SampleRate != 48000 {
		t.Fatalf("sample rate = %d", clip.SampleRate)
	}
	if clip.Duration < time.Second {
		t.Fatalf("duration = %v", clip.Duration)
	}
}

func TestRecorder_EndWithoutBegin(t *testing.T) {
	r := NewRecorder(&fakeSource{})
	if _, err := r.End(); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("expected ErrNotRecording, got %v", err)
	}
}

func TestRecorder_AbortIdempotent(t *testing.T) {
	r := NewRecorder(&fakeSource{frame: []int16{1}})
	if err := r.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	r.Abort()
	r.Abort()
	if r.Recording() {
		t.Fatalf("recorder should be idle after abort")
	}
}

func TestLevel_FeedAndReset(t *testing.T) {
	l := NewLevel()
	if l.Value() != 0 {
		t.Fatalf("fresh level should be 0")
	}
	for i := 0; i < 20; i++ {
		l.Feed([]int16{8000, -8000, 8000, -8000})
	}
	if l.Value() < 0.5 {
		t.Fatalf("loud input should raise level, got %f", l.Value())
	}
	l.Reset()
	if l.Value() != 0 {
		t.Fatalf("reset should zero the level")
	}
}
