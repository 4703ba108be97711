package audio

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"strings"
)

// DecodeBase64 expands a base64 payload into raw bytes. An odd byte count is
// padded with one zero byte so the result can always be read as 16-bit
// samples.
func DecodeBase64(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, decodeErr("base64", "empty payload")
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, &DecodeError{Op: "base64", Err: err}
	}
	if len(raw)%2 != 0 {
		raw = append(raw, 0)
	}
	if len(raw) == 0 {
		return nil, decodeErr("base64", "payload decoded to zero bytes")
	}

	return raw, nil
}

// DecodeToBuffer reinterprets data as signed 16-bit little-endian interleaved
// samples and normalises them by 1/32768. Samples that do not complete a
// frame are discarded.
func DecodeToBuffer(data []byte, sampleRate, numChannels int) (*Buffer, error) {
	if len(data) == 0 {
		return nil, decodeErr("pcm", "empty input")
	}
	if numChannels <= 0 {
		return nil, decodeErr("pcm", "invalid channel count %d", numChannels)
	}
	if sampleRate <= 0 {
		return nil, decodeErr("pcm", "invalid sample rate %d", sampleRate)
	}

	samples := len(data) / 2
	frames := samples / numChannels
	if frames == 0 {
		return nil, decodeErr("pcm", "%d bytes do not hold one %d-channel frame", len(data), numChannels)
	}

	channels := make([][]float32, numChannels)
	for c := range channels {
		channels[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < numChannels; c++ {
			off := (i*numChannels + c) * 2
			v := int16(binary.LittleEndian.Uint16(data[off:]))
			channels[c][i] = float32(v) / 32768.0
		}
	}

	return &Buffer{sampleRate: sampleRate, channels: channels}, nil
}

// PCM16 quantises a float sample the way the WAV encoder does: negative
// values scale by 32768, the rest by 32767, after clamping to [-1, 1].
func PCM16(s float32) int16 {
	v := math.Max(-1.0, math.Min(1.0, float64(s)))
	if v < 0 {
		return int16(v * 32768)
	}

	return int16(v * 32767)
}

// AppendPCM16 appends frames [from, Len()) of buf as interleaved 16-bit
// little-endian samples, mapping output channel c to source channel
// min(c, NumChannels()-1).
func AppendPCM16(dst []byte, buf *Buffer, from, outChannels int) []byte {
	if outChannels <= 0 {
		outChannels = buf.NumChannels()
	}

	return appendFrames(dst, buf, max(from, 0), buf.Len(), outChannels)
}

func appendFrames(dst []byte, buf *Buffer, from, to, outChannels int) []byte {
	last := buf.NumChannels() - 1
	var tmp [2]byte
	for i := from; i < to; i++ {
		for c := 0; c < outChannels; c++ {
			src := min(c, last)
			binary.LittleEndian.PutUint16(tmp[:], uint16(PCM16(buf.channels[src][i])))
			dst = append(dst, tmp[0], tmp[1])
		}
	}

	return dst
}
