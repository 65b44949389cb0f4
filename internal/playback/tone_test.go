package playback

import (
	"math"
	"testing"

	"github.com/faiface/beep"
)

func TestToneStreamer_SoftAndContinuous(t *testing.T) {
	ts := &toneStreamer{sampleRate: playbackRate}
	samples := make([][2]float64, 4800)
	n, ok := ts.Stream(samples)
	if n != len(samples) || !ok {
		t.Fatalf("stream: n=%d ok=%v", n, ok)
	}
	var peak float64
	nonZero := false
	for _, s := range samples {
		if s[0] != s[1] {
			t.Fatalf("tone should be centered, got %v", s)
		}
		if a := math.Abs(s[0]); a > peak {
			peak = a
		}
		if s[0] != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		t.Fatalf("tone produced silence")
	}
	if peak > toneAmplitude*1.01 {
		t.Fatalf("tone peak %f exceeds amplitude bound %f", peak, toneAmplitude)
	}
	// second read continues the phase rather than restarting
	before := ts.pos
	if n, ok := ts.Stream(samples); n != len(samples) || !ok {
		t.Fatalf("second stream: n=%d ok=%v", n, ok)
	}
	if ts.pos != before+len(samples) {
		t.Fatalf("phase position did not advance: %d -> %d", before, ts.pos)
	}
	if err := ts.Err(); err != nil {
		t.Fatalf("err: %v", err)
	}
}

func TestDecodeClip_WAV(t *testing.T) {
	// minimal 48kHz mono 16-bit wav with 4 samples
	wavBytes := []byte{
		'R', 'I', 'F', 'F', 44, 0, 0, 0, 'W', 'A', 'V', 'E',
		'f', 'm', 't', ' ', 16, 0, 0, 0, 1, 0, 1, 0,
		0x80, 0xBB, 0, 0, // 48000
		0x00, 0x77, 0x01, 0, // byte rate 96000
		2, 0, 16, 0,
		'd', 'a', 't', 'a', 8, 0, 0, 0,
		0, 0, 0x10, 0x27, 0xF0, 0xD8, 0, 0,
	}
	streamer, format, err := decodeClip("audio/wav", wavBytes)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	defer streamer.Close()
	if format.SampleRate != beep.SampleRate(48000) {
		t.Fatalf("sample rate = %d", format.SampleRate)
	}
	buf := make([][2]float64, 8)
	n, _ := streamer.Stream(buf)
	if n != 4 {
		t.Fatalf("expected 4 samples, got %d", n)
	}
}

func TestDecodeClip_Unsupported(t *testing.T) {
	if _, _, err := decodeClip("audio/flac", []byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for unsupported mime")
	}
	if _, _, err := decodeClip("audio/mpeg", nil); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}
