package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"testing"
)

func pcmBytes(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}

	return out
}

func TestDecodeBase64(t *testing.T) {
	t.Run("pads odd length with a zero byte", func(t *testing.T) {
		payload := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
		got, err := DecodeBase64(payload)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []byte{1, 2, 3, 0}
		if string(got) != string(want) {
			t.Errorf("DecodeBase64 = %v; want %v", got, want)
		}
	})

	t.Run("even length untouched", func(t *testing.T) {
		payload := base64.StdEncoding.EncodeToString([]byte{1, 2, 3, 4})
		got, err := DecodeBase64(payload)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 4 {
			t.Errorf("len = %d; want 4", len(got))
		}
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := DecodeBase64("   ")
		if !errors.Is(err, ErrDecode) {
			t.Fatalf("expected ErrDecode, got %v", err)
		}
	})

	t.Run("rejects malformed base64", func(t *testing.T) {
		_, err := DecodeBase64("!!not base64!!")
		var decErr *DecodeError
		if !errors.As(err, &decErr) {
			t.Fatalf("expected *DecodeError, got %v", err)
		}
		if decErr.Op != "base64" {
			t.Errorf("Op = %q; want base64", decErr.Op)
		}
	})
}

func TestDecodeToBuffer(t *testing.T) {
	t.Run("one second of silence", func(t *testing.T) {
		data := make([]byte, 24000*2)
		buf, err := DecodeToBuffer(data, 24000, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.Duration() != 1.0 {
			t.Errorf("Duration = %v; want 1.0", buf.Duration())
		}
		for i, s := range buf.Channel(0) {
			if s != 0 {
				t.Fatalf("sample[%d] = %v; want 0", i, s)
			}
		}
	})

	t.Run("normalises by 32768", func(t *testing.T) {
		buf, err := DecodeToBuffer(pcmBytes(-32768, 16384, 32767, 0), 8000, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []float32{-1.0, 0.5, 32767.0 / 32768.0, 0}
		for i, w := range want {
			if got := buf.Channel(0)[i]; got != w {
				t.Errorf("sample[%d] = %v; want %v", i, got, w)
			}
		}
	})

	t.Run("de-interleaves and drops partial frames", func(t *testing.T) {
		buf, err := DecodeToBuffer(pcmBytes(100, -100, 200, -200, 300), 8000, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.Len() != 2 {
			t.Fatalf("Len = %d; want 2", buf.Len())
		}
		if buf.Channel(0)[1] != 200.0/32768.0 {
			t.Errorf("left[1] = %v", buf.Channel(0)[1])
		}
		if buf.Channel(1)[1] != -200.0/32768.0 {
			t.Errorf("right[1] = %v", buf.Channel(1)[1])
		}
	})

	tests := []struct {
		name       string
		data       []byte
		sampleRate int
		channels   int
	}{
		{"empty", nil, 24000, 1},
		{"zero channels", pcmBytes(1), 24000, 0},
		{"negative channels", pcmBytes(1), 24000, -2},
		{"zero sample rate", pcmBytes(1), 0, 1},
		{"shorter than one frame", pcmBytes(1), 24000, 2},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := DecodeToBuffer(tt.data, tt.sampleRate, tt.channels)
			if !errors.Is(err, ErrDecode) {
				t.Errorf("expected ErrDecode, got %v", err)
			}
		})
	}
}

func TestPCM16(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32768},
		{0.5, 16383},
		{-0.5, -16384},
		{3, 32767},
		{-3, -32768},
	}
	for _, tt := range tests {
		if got := PCM16(tt.in); got != tt.want {
			t.Errorf("PCM16(%v) = %d; want %d", tt.in, got, tt.want)
		}
	}
}

func TestAppendPCM16_UpmixesMono(t *testing.T) {
	buf, err := NewBuffer(8000, [][]float32{{0.5, -0.5}})
	if err != nil {
		t.Fatal(err)
	}

	got := AppendPCM16(nil, buf, 1, 2)
	if len(got) != 4 {
		t.Fatalf("len = %d; want 4", len(got))
	}
	left := int16(binary.LittleEndian.Uint16(got[0:]))
	right := int16(binary.LittleEndian.Uint16(got[2:]))
	if left != -16384 || right != -16384 {
		t.Errorf("frame = (%d, %d); want (-16384, -16384)", left, right)
	}
}
