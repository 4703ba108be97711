package audio

import (
	"bytes"
	"fmt"

	"github.com/cwbudde/wav"
	"github.com/h2non/filetype"
)

// DecodeWAV parses a 16-bit PCM WAV file produced by EncodeWAV (or any
// canonical writer) back into a Buffer.
func DecodeWAV(data []byte) (*Buffer, error) {
	dec, err := newWAVDecoder(data)
	if err != nil {
		return nil, err
	}
	if dec.BitDepth != BitDepth {
		return nil, &DecodeError{Op: "wav", Err: fmt.Errorf("%w: bit depth %d, want %d", ErrFormatMismatch, dec.BitDepth, BitDepth)}
	}

	return readWAV(dec)
}

func newWAVDecoder(data []byte) (*wav.Decoder, error) {
	if len(data) == 0 {
		return nil, decodeErr("wav", "empty WAV input")
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, decodeErr("wav", "invalid WAV file")
	}

	return dec, nil
}

// readWAV decodes the PCM chunk at whatever bit depth the decoder supports.
// 16-bit samples are scaled by 1/32768, matching DecodeToBuffer.
func readWAV(dec *wav.Decoder) (*Buffer, error) {
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, &DecodeError{Op: "wav", Err: fmt.Errorf("reading PCM data: %w", err)}
	}
	if len(pcm.Data) == 0 {
		return nil, decodeErr("wav", "no samples in data chunk")
	}

	buf, err := FromFloat32Buffer(pcm)
	if err != nil {
		return nil, &DecodeError{Op: "wav", Err: err}
	}

	return buf, nil
}

// DecodePayload turns bytes received from a synthesis backend into a Buffer.
// WAV containers are parsed; anything else is treated as raw 16-bit PCM at
// the given rate and channel count.
func DecodePayload(data []byte, sampleRate, numChannels int) (*Buffer, error) {
	if len(data) == 0 {
		return nil, decodeErr("payload", "empty input")
	}

	kind, _ := filetype.Match(data)
	switch kind.Extension {
	case "wav":
		return DecodeWAV(data)
	case "mp3":
		// An MPEG sync word can also open a raw PCM stream.
		if buf, err := decodeMP3(data); err == nil {
			return buf, nil
		}
	}

	return DecodeToBuffer(data, sampleRate, numChannels)
}
