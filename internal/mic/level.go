package mic

import (
	"math"
	"sync"
)

// fullScaleRMS normalizes int16 RMS into roughly 0..1 for display purposes.
const fullScaleRMS = 8000.0

// Level is a smoothed RMS meter over recent capture frames. It only feeds the
// monitor display and has no effect on turn acceptance.
type Level struct {
	mu    sync.Mutex
	value float64
}

func NewLevel() *Level { return &Level{} }

// Feed folds one frame's energy into the running level.
func (l *Level) Feed(frame []int16) {
	if len(frame) == 0 {
		return
	}
	var sum float64
	for _, s := range frame {
		f := float64(s)
		sum += f * f
	}
	rms := math.Sqrt(sum / float64(len(frame)))
	next := rms / fullScaleRMS
	if next > 1 {
		next = 1
	}
	l.mu.Lock()
	l.value = l.value*0.7 + next*0.3
	l.mu.Unlock()
}

func (l *Level) Value() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value
}

func (l *Level) Reset() {
	l.mu.Lock()
	l.value = 0
	l.mu.Unlock()
}
