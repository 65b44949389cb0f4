package codec

import (
	"bytes"
	"fmt"

	"github.com/hraban/opus"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3/pkg/media/oggwriter"
)

// MimeOpus is reported alongside opus payloads so the backend can decode them.
const MimeOpus = "audio/ogg; codecs=opus"

const (
	opusFrameMs      = 20
	maxOpusFrameSize = 1275 // RFC 6716 maximum compressed frame
)

// OpusEncoder packages PCM as opus frames inside an Ogg container.
type OpusEncoder struct{}

func probeOpus(sampleRate int) error {
	_, err := opus.NewEncoder(sampleRate, 1, opus.AppVoIP)
	return err
}

func (OpusEncoder) Encode(pcm []int16, sampleRate int) ([]byte, string, error) {
	if len(pcm) == 0 {
		return nil, "", fmt.Errorf("opus encode: no samples")
	}
	enc, err := opus.NewEncoder(sampleRate, 1, opus.AppVoIP)
	if err != nil {
		return nil, "", fmt.Errorf("opus encoder: %w", err)
	}

	var buf bytes.Buffer
	ogg, err := oggwriter.NewWith(&buf, uint32(sampleRate), 1)
	if err != nil {
		return nil, "", fmt.Errorf("ogg writer: %w", err)
	}

	frameSamples := sampleRate * opusFrameMs / 1000
	frame := make([]int16, frameSamples)
	packet := make([]byte, maxOpusFrameSize)
	var seq uint16
	var ts uint32

	for off := 0; off < len(pcm); off += frameSamples {
		// zero-pad the trailing partial frame
		n := copy(frame, pcm[off:])
		for i := n; i < frameSamples; i++ {
			frame[i] = 0
		}
		written, err := enc.Encode(frame, packet)
		if err != nil {
			_ = ogg.Close()
			return nil, "", fmt.Errorf("opus encode: %w", err)
		}
		payload := make([]byte, written)
		copy(payload, packet[:written])
		if err := ogg.WriteRTP(&rtp.Packet{
			Header:  rtp.Header{SequenceNumber: seq, Timestamp: ts},
			Payload: payload,
		}); err != nil {
			_ = ogg.Close()
			return nil, "", fmt.Errorf("ogg write: %w", err)
		}
		seq++
		ts += uint32(frameSamples)
	}
	if err := ogg.Close(); err != nil {
		return nil, "", fmt.Errorf("ogg close: %w", err)
	}
	return buf.Bytes(), MimeOpus, nil
}
