// Package codec packages captured PCM into a payload the backend can decode.
// Opus in an Ogg container is preferred; uncompressed WAV is the fallback when
// the opus encoder cannot be constructed on this platform.
package codec

import "log"

// Encoder converts mono 16-bit PCM into an upload payload plus its mime type.
type Encoder interface {
	Encode(pcm []int16, sampleRate int) (payload []byte, mimeType string, err error)
}

// Pick probes the opus encoder once and falls back to WAV when unsupported.
func Pick(sampleRate int) Encoder {
	if err := probeOpus(sampleRate); err != nil {
		log.Printf("codec: opus unavailable (%v), falling back to wav", err)
		return WAVEncoder{}
	}
	return OpusEncoder{}
}
