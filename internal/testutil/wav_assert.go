package testutil

import (
	"encoding/binary"
	"errors"
	"testing"
)

// WAVFormat is the subset of the fmt chunk the assertions check.
type WAVFormat struct {
	SampleRate int
	Channels   int
}

// AssertValidWAV checks that data is a 16-bit PCM WAV file in the expected
// format with at least one frame of audio, and returns the frame count.
func AssertValidWAV(tb testing.TB, data []byte, want WAVFormat) int {
	tb.Helper()

	if len(data) < 44 {
		tb.Fatalf("WAV data too short: %d bytes", len(data))
	}

	if string(data[0:4]) != "RIFF" {
		tb.Fatalf("WAV: missing RIFF header (got %q)", string(data[0:4]))
	}

	if string(data[8:12]) != "WAVE" {
		tb.Fatalf("WAV: missing WAVE marker (got %q)", string(data[8:12]))
	}

	if string(data[12:16]) != "fmt " {
		tb.Fatalf("WAV: missing fmt chunk (got %q)", string(data[12:16]))
	}

	// fmt chunk fields (little-endian).
	audioFmt := binary.LittleEndian.Uint16(data[20:22])
	if audioFmt != 1 {
		tb.Fatalf("WAV: expected PCM format (1), got %d", audioFmt)
	}

	got := readFormat(data)
	if got.Channels != want.Channels {
		tb.Fatalf("WAV: expected %d channel(s), got %d", want.Channels, got.Channels)
	}

	if got.SampleRate != want.SampleRate {
		tb.Fatalf("WAV: expected sample rate %d, got %d", want.SampleRate, got.SampleRate)
	}

	bitDepth := binary.LittleEndian.Uint16(data[34:36])
	if bitDepth != 16 {
		tb.Fatalf("WAV: expected 16-bit depth, got %d", bitDepth)
	}

	dataSize, err := findDataChunkSize(data)
	if err != nil {
		tb.Fatalf("WAV: %v", err)
	}

	frames := int(dataSize) / (2 * got.Channels)
	if frames == 0 {
		tb.Fatal("WAV: data chunk contains zero frames")
	}

	return frames
}

// AssertWAVDurationApprox asserts that the WAV audio duration falls within
// [minSec, maxSec], using the rate and channel count from the header.
func AssertWAVDurationApprox(tb testing.TB, data []byte, minSec, maxSec float64) {
	tb.Helper()

	if len(data) < 44 {
		tb.Fatalf("WAV duration check: data too short (%d bytes)", len(data))
	}

	dataSize, err := findDataChunkSize(data)
	if err != nil {
		tb.Fatalf("WAV duration check: %v", err)
	}

	f := readFormat(data)
	if f.SampleRate <= 0 || f.Channels <= 0 {
		tb.Fatalf("WAV duration check: invalid format %+v", f)
	}

	frames := int(dataSize) / (2 * f.Channels)

	durationSec := float64(frames) / float64(f.SampleRate)
	if durationSec < minSec || durationSec > maxSec {
		tb.Fatalf("WAV duration %.3fs out of expected range [%.3fs, %.3fs]", durationSec, minSec, maxSec)
	}
}

func readFormat(data []byte) WAVFormat {
	return WAVFormat{
		Channels:   int(binary.LittleEndian.Uint16(data[22:24])),
		SampleRate: int(binary.LittleEndian.Uint32(data[24:28])),
	}
}

// findDataChunkSize walks the WAV chunk list to locate the "data" sub-chunk
// and returns its size in bytes.
func findDataChunkSize(data []byte) (uint32, error) {
	// Start after the 12-byte RIFF/WAVE header.
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])

		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		if id == "data" {
			return size, nil
		}

		offset += 8 + int(size)
		// Pad to even boundary.
		if size%2 != 0 {
			offset++
		}
	}

	return 0, errors.New("data chunk not found in WAV")
}
