package playback

import (
	"testing"

	"github.com/faiface/beep"
)

// Stop must make Playing report false immediately, not after the speaker
// drains the current buffer.
func TestPlayerStopClearsActiveClip(t *testing.T) {
	p := &Player{}
	p.mu.Lock()
	p.ctrl = &beep.Ctrl{Streamer: beep.Silence(-1)}
	p.mu.Unlock()

	if !p.Playing() {
		t.Fatalf("clip should report active")
	}
	p.Stop()
	if p.Playing() {
		t.Fatalf("Playing still true after Stop")
	}
	// idle Stop is a no-op
	p.Stop()
	if p.Playing() {
		t.Fatalf("Playing true on idle player")
	}
}
