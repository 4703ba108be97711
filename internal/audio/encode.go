package audio

import (
	"errors"
	"fmt"
	"io"
)

// blockFrames is the number of frames WriteWAV converts per write.
const blockFrames = 4096

// EncodeWAV serializes buf as a canonical 16-bit PCM WAV file.
func EncodeWAV(buf *Buffer) ([]byte, error) {
	if buf == nil {
		return nil, errors.New("encode wav: nil buffer")
	}

	dataSize := buf.Len() * buf.NumChannels() * 2
	out := make([]byte, WAVHeaderSize, WAVHeaderSize+dataSize)
	putWAVHeader(out, buf.SampleRate(), buf.NumChannels(), uint32(dataSize))

	return AppendPCM16(out, buf, 0, buf.NumChannels()), nil
}

// WriteWAV streams the same bytes EncodeWAV would produce to w without
// materialising the whole file.
func WriteWAV(w io.Writer, buf *Buffer) (int64, error) {
	if buf == nil {
		return 0, errors.New("write wav: nil buffer")
	}

	var hdr [WAVHeaderSize]byte
	putWAVHeader(hdr[:], buf.SampleRate(), buf.NumChannels(), uint32(buf.Len()*buf.NumChannels()*2))
	n, err := w.Write(hdr[:])
	written := int64(n)
	if err != nil {
		return written, fmt.Errorf("writing header: %w", err)
	}

	block := make([]byte, 0, blockFrames*buf.NumChannels()*2)
	for from := 0; from < buf.Len(); from += blockFrames {
		end := min(from+blockFrames, buf.Len())
		block = appendFrames(block[:0], buf, from, end, buf.NumChannels())
		n, err := w.Write(block)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("writing PCM: %w", err)
		}
	}

	return written, nil
}
