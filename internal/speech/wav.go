package speech

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// wavFormat holds the fmt chunk fields playback needs.
type wavFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// parseWAV returns the format and PCM payload of a RIFF/WAVE stream.
//
// espeak writes 0xFFFFFFFF as the data size when streaming to stdout, so
// the size is clamped to what is actually there.
func parseWAV(data []byte) (wavFormat, []byte, error) {
	var format wavFormat
	r := bytes.NewReader(data)

	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return format, nil, fmt.Errorf("wav header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return format, nil, errors.New("not a RIFF/WAVE stream")
	}

	haveFormat := false
	for {
		var chunkID [4]byte
		if _, err := io.ReadFull(r, chunkID[:]); err != nil {
			return format, nil, errors.New("wav: no data chunk")
		}
		var chunkSize uint32
		if err := binary.Read(r, binary.LittleEndian, &chunkSize); err != nil {
			return format, nil, fmt.Errorf("wav chunk size: %w", err)
		}

		switch string(chunkID[:]) {
		case "fmt ":
			var fmtChunk struct {
				AudioFormat   uint16
				Channels      uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if err := binary.Read(r, binary.LittleEndian, &fmtChunk); err != nil {
				return format, nil, fmt.Errorf("wav fmt chunk: %w", err)
			}
			if fmtChunk.AudioFormat != 1 {
				return format, nil, fmt.Errorf("wav: unsupported encoding %d", fmtChunk.AudioFormat)
			}
			format = wavFormat{
				SampleRate: int(fmtChunk.SampleRate),
				Channels:   int(fmtChunk.Channels),
				BitDepth:   int(fmtChunk.BitsPerSample),
			}
			haveFormat = true
			if extra := int64(chunkSize) - 16; extra > 0 {
				if _, err := r.Seek(extra, io.SeekCurrent); err != nil {
					return format, nil, err
				}
			}

		case "data":
			if !haveFormat {
				return format, nil, errors.New("wav: data before fmt chunk")
			}
			start := len(data) - r.Len()
			end := len(data)
			if int64(chunkSize) < int64(r.Len()) {
				end = start + int(chunkSize)
			}
			return format, data[start:end], nil

		default:
			if _, err := r.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				return format, nil, err
			}
		}
	}
}
