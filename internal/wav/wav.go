// Package wav reads and writes the one audio shape the capture pipeline
// produces: RIFF/WAVE, PCM format 1, mono, 16-bit little-endian. Anything
// else is rejected rather than resampled; format conversion belongs to the
// recording tools, not this package.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrUnsupportedFormat is returned for valid RIFF files that are not mono
// 16-bit PCM.
var ErrUnsupportedFormat = errors.New("unsupported WAV format")

// ErrMalformed is returned for files that are not parseable RIFF/WAVE at all.
var ErrMalformed = errors.New("malformed WAV file")

// maxFmtChunkSize bounds the fmt chunk body. Real fmt chunks are 16-40 bytes;
// the declared size comes from the file and is not trusted for allocation.
const maxFmtChunkSize = 1 << 16

// header mirrors the fmt chunk fields we validate.
type header struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// ReadFile loads a mono 16-bit PCM WAV file and returns its samples and
// sample rate.
func ReadFile(path string) ([]int16, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a mono 16-bit PCM WAV stream.
func Read(r io.Reader) ([]int16, int, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !bytes.Equal(riff[0:4], []byte("RIFF")) || !bytes.Equal(riff[8:12], []byte("WAVE")) {
		return nil, 0, fmt.Errorf("%w: missing RIFF/WAVE signature", ErrMalformed)
	}

	var hdr *header
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, 0, fmt.Errorf("%w: no data chunk", ErrMalformed)
			}
			return nil, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		chunkID := string(chunk[0:4])
		chunkSize := binary.LittleEndian.Uint32(chunk[4:8])

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, 0, fmt.Errorf("%w: fmt chunk too small", ErrMalformed)
			}
			if chunkSize > maxFmtChunkSize {
				return nil, 0, fmt.Errorf("%w: fmt chunk size %d", ErrMalformed, chunkSize)
			}
			body := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			hdr = &header{
				AudioFormat:   binary.LittleEndian.Uint16(body[0:2]),
				NumChannels:   binary.LittleEndian.Uint16(body[2:4]),
				SampleRate:    binary.LittleEndian.Uint32(body[4:8]),
				ByteRate:      binary.LittleEndian.Uint32(body[8:12]),
				BlockAlign:    binary.LittleEndian.Uint16(body[12:14]),
				BitsPerSample: binary.LittleEndian.Uint16(body[14:16]),
			}
			if hdr.AudioFormat != 1 {
				return nil, 0, fmt.Errorf("%w: audio format %d (want PCM)", ErrUnsupportedFormat, hdr.AudioFormat)
			}
			if hdr.NumChannels != 1 {
				return nil, 0, fmt.Errorf("%w: %d channels (want mono)", ErrUnsupportedFormat, hdr.NumChannels)
			}
			if hdr.BitsPerSample != 16 {
				return nil, 0, fmt.Errorf("%w: %d bits per sample (want 16)", ErrUnsupportedFormat, hdr.BitsPerSample)
			}

		case "data":
			if hdr == nil {
				return nil, 0, fmt.Errorf("%w: data chunk before fmt chunk", ErrMalformed)
			}
			// The declared size is untrusted: read incrementally so a
			// crafted header cannot demand a multi-gigabyte allocation
			// up front.
			raw, err := io.ReadAll(io.LimitReader(r, int64(chunkSize)))
			if err != nil {
				return nil, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			if uint32(len(raw)) != chunkSize {
				return nil, 0, fmt.Errorf("%w: truncated data chunk: %d of %d bytes", ErrMalformed, len(raw), chunkSize)
			}
			samples := make([]int16, len(raw)/2)
			for i := range samples {
				samples[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
			}
			return samples, int(hdr.SampleRate), nil

		default:
			// Skip LIST, fact, and other metadata chunks. Chunks are
			// word-aligned: odd sizes carry a pad byte.
			skip := int64(chunkSize)
			if chunkSize%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return nil, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
		}
	}
}

// WriteFile writes samples as a mono 16-bit PCM WAV file.
func WriteFile(path string, samples []int16, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, samples, sampleRate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write encodes samples as a mono 16-bit PCM WAV stream.
func Write(w io.Writer, samples []int16, sampleRate int) error {
	const (
		numChannels   = 1
		bitsPerSample = 16
	)
	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8
	dataSize := len(samples) * 2
	fileSize := 36 + dataSize

	buf := bytesWriter{w: w}
	buf.raw([]byte("RIFF"))
	buf.u32(uint32(fileSize))
	buf.raw([]byte("WAVE"))

	buf.raw([]byte("fmt "))
	buf.u32(16)
	buf.u16(1) // PCM
	buf.u16(numChannels)
	buf.u32(uint32(sampleRate))
	buf.u32(uint32(byteRate))
	buf.u16(uint16(blockAlign))
	buf.u16(bitsPerSample)

	buf.raw([]byte("data"))
	buf.u32(uint32(dataSize))
	for _, s := range samples {
		buf.u16(uint16(s))
	}
	return buf.err
}

// bytesWriter collects the first write error so header emission reads as a
// flat sequence instead of a ladder of error checks.
type bytesWriter struct {
	w   io.Writer
	err error
}

func (b *bytesWriter) raw(p []byte) {
	if b.err != nil {
		return
	}
	_, b.err = b.w.Write(p)
}

func (b *bytesWriter) u16(v uint16) {
	var p [2]byte
	binary.LittleEndian.PutUint16(p[:], v)
	b.raw(p[:])
}

func (b *bytesWriter) u32(v uint32) {
	var p [4]byte
	binary.LittleEndian.PutUint32(p[:], v)
	b.raw(p[:])
}
