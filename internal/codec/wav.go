package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// MimeWAV is the fallback encoding's mime type.
const MimeWAV = "audio/wav"

// WAVEncoder writes mono 16-bit PCM as a RIFF/WAVE payload.
type WAVEncoder struct{}

func (WAVEncoder) Encode(pcm []int16, sampleRate int) ([]byte, string, error) {
	if len(pcm) == 0 {
		return nil, "", fmt.Errorf("wav encode: no samples")
	}
	const (
		channels      = 1
		bitsPerSample = 16
	)
	dataLen := len(pcm) * 2
	byteRate := sampleRate * channels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*bitsPerSample/8))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	for _, s := range pcm {
		binary.Write(&buf, binary.LittleEndian, uint16(s))
	}
	return buf.Bytes(), MimeWAV, nil
}
