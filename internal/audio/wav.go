package audio

import (
	"encoding/binary"
	"io"
)

// WAVHeaderSize is the size of the canonical RIFF/WAVE header.
const WAVHeaderSize = 44

// unknownLength marks the RIFF and data sizes of a stream whose length is
// not known up front.
const unknownLength = 0xFFFFFFFF

// putWAVHeader fills hdr with a canonical 16-bit PCM header.
func putWAVHeader(hdr []byte, sampleRate, channels int, dataSize uint32) {
	riffSize := uint32(unknownLength)
	if dataSize != unknownLength {
		riffSize = WAVHeaderSize - 8 + dataSize
	}

	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], riffSize)
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(sampleRate*2*channels))
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(channels*2))
	binary.LittleEndian.PutUint16(hdr[34:36], BitDepth)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], dataSize)
}

// WriteWAVHeaderStreaming writes a 44-byte header whose RIFF and data sizes
// are 0xFFFFFFFF, the conventional marker for a stream of unknown length.
func WriteWAVHeaderStreaming(w io.Writer, sampleRate, channels int) (int, error) {
	var hdr [WAVHeaderSize]byte
	putWAVHeader(hdr[:], sampleRate, channels, unknownLength)

	return w.Write(hdr[:])
}
