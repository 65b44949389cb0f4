package mic

import (
	"log"
	"sync"
	"time"
)

// Recorder implements the push-to-talk capture lifecycle on top of a Source.
// At most one capture is active at a time; Begin while recording is rejected.
type Recorder struct {
	src   Source
	level *Level

	mu      sync.Mutex
	active  bool
	started time.Time
	frames  []int16
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRecorder(src Source) *Recorder {
	return &Recorder{src: src, level: NewLevel()}
}

// Level reports the smoothed input level of the most recent capture (0..1).
func (r *Recorder) Level() float64 { return r.level.Value() }

// Recording reports whether a capture is currently active.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Begin starts accumulating microphone frames for one turn.
func (r *Recorder) Begin() error {
	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}
	r.active = true
	r.started = time.Now()
	r.frames = r.frames[:0]
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	stop, done := r.stopCh, r.doneCh
	r.mu.Unlock()

	if err := r.src.Start(); err != nil {
		r.mu.Lock()
		r.active = false
		r.mu.Unlock()
		close(done)
		return err
	}

	go r.pump(stop, done)
	return nil
}

// pump copies frames from the source until stopped.
func (r *Recorder) pump(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}
		frame, err := r.src.ReadFrame()
		if err != nil {
			log.Printf("mic: read frame: %v", err)
			return
		}
		r.level.Feed(frame)
		r.mu.Lock()
		if r.active {
			r.frames = append(r.frames, frame...)
		}
		r.mu.Unlock()
	}
}

// End stops the capture and returns the finished clip. Clips shorter than
// MinTurnDuration come back as ErrTooShort; captures with no samples as
// ErrNoAudio. Either way the source is stopped and the recorder is idle again.
func (r *Recorder) End() (*Clip, error) {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return nil, ErrNotRecording
	}
	r.active = false
	elapsed := time.Since(r.started)
	close(r.stopCh)
	done := r.doneCh
	r.mu.Unlock()

	<-done
	_ = r.src.Stop()
	r.level.Reset()

	r.mu.Lock()
	pcm := make([]int16, len(r.frames))
	copy(pcm, r.frames)
	r.frames = r.frames[:0]
	r.mu.Unlock()

	if elapsed < MinTurnDuration {
		return nil, ErrTooShort
	}
	if len(pcm) == 0 {
		return nil, ErrNoAudio
	}
	return &Clip{PCM: pcm, SampleRate: r.src.SampleRate(), Duration: elapsed}, nil
}

// Abort discards any in-progress capture. Safe to call when idle.
func (r *Recorder) Abort() {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return
	}
	r.active = false
	close(r.stopCh)
	done := r.doneCh
	r.frames = r.frames[:0]
	r.mu.Unlock()
	<-done
	_ = r.src.Stop()
	r.level.Reset()
}
