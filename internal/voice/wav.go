package voice

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

var ErrUnsupportedWAV = errors.New("unsupported wav stream")

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

type WAVFormat struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

type chunkHeader struct {
	ID   [4]byte
	Size uint32
}

// ReadWAVHeader consumes the RIFF header up to the start of the sample data
//
// Only 48kHz stereo signed 16 bit pcm is accepted. The data chunk size is
// ignored since a streaming encoder cannot know it up front.
func ReadWAVHeader(r io.Reader) (WAVFormat, error) {
	var f WAVFormat

	var riff struct {
		ID     [4]byte
		Size   uint32
		Format [4]byte
	}
	if err := binary.Read(r, binary.LittleEndian, &riff); err != nil {
		return f, errors.Wrap(err, "read riff header")
	}

	if string(riff.ID[:]) != "RIFF" || string(riff.Format[:]) != "WAVE" {
		return f, errors.Wrap(ErrUnsupportedWAV, "not a riff wave stream")
	}

	var haveFormat bool
	for {
		var ch chunkHeader
		if err := binary.Read(r, binary.LittleEndian, &ch); err != nil {
			return f, errors.Wrap(err, "read chunk header")
		}

		switch string(ch.ID[:]) {
		case "fmt ":
			if ch.Size < 16 {
				return f, errors.Wrapf(ErrUnsupportedWAV, "fmt chunk too small: %d", ch.Size)
			}

			if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
				return f, errors.Wrap(err, "read fmt chunk")
			}

			if err := skip(r, int64(ch.Size)-16+int64(ch.Size&1)); err != nil {
				return f, err
			}

			if err := f.validate(); err != nil {
				return f, err
			}

			haveFormat = true
		case "data":
			if !haveFormat {
				return f, errors.Wrap(ErrUnsupportedWAV, "data chunk before fmt chunk")
			}

			return f, nil
		default:
			if err := skip(r, int64(ch.Size)+int64(ch.Size&1)); err != nil {
				return f, err
			}
		}
	}
}

func (f WAVFormat) validate() error {
	if f.AudioFormat != wavFormatPCM && f.AudioFormat != wavFormatExtensible {
		return errors.Wrapf(ErrUnsupportedWAV, "audio format %d", f.AudioFormat)
	}

	if f.Channels != NumChannels {
		return errors.Wrapf(ErrUnsupportedWAV, "%d channels", f.Channels)
	}

	if f.SampleRate != SampleRate {
		return errors.Wrapf(ErrUnsupportedWAV, "sample rate %d", f.SampleRate)
	}

	if f.BitsPerSample != 8*BytesPerInt16 {
		return errors.Wrapf(ErrUnsupportedWAV, "%d bits per sample", f.BitsPerSample)
	}

	return nil
}

func skip(r io.Reader, n int64) error {
	if n <= 0 {
		return nil
	}

	if _, err := io.CopyN(io.Discard, r, n); err != nil {
		return errors.Wrap(err, "skip wav chunk")
	}

	return nil
}

// PCMReader reads whole frames of interleaved samples following a wav header
type PCMReader struct {
	r *bufio.Reader
}

func NewPCMReader(r io.Reader) (*PCMReader, error) {
	br := bufio.NewReaderSize(r, 4*FrameBytes)

	if _, err := ReadWAVHeader(br); err != nil {
		return nil, err
	}

	return &PCMReader{r: br}, nil
}

// ReadFrame fills pcm, returning io.EOF once no complete frame remains
func (pr *PCMReader) ReadFrame(pcm []int16) error {
	err := binary.Read(pr.r, binary.LittleEndian, pcm)
	if err == io.ErrUnexpectedEOF {
		return io.EOF
	}

	return err
}
