package voice

import (
	"bufio"
	"encoding/binary"
	"io"
	"time"

	"github.com/josephcopenhaver/gopus"
	"github.com/pkg/errors"
)

// transcoding constants
const (
	SampleRate     = 48000
	NumChannels    = 2
	FrameSize      = 960 // int16 samples per channel in each audio frame
	FrameDuration  = 20 * time.Millisecond
	BytesPerInt16  = 2
	FrameBytes     = FrameSize * BytesPerInt16 * NumChannels
	MaxPacketBytes = FrameBytes

	DefaultBitrate = 256000
)

//nolint:gochecknoinits
func init() {
	// verify on startup FrameBytes is correct

	if BytesPerInt16 != binary.Size(int16(0))/binary.Size(byte(0)) {
		panic(errors.New("BytesPerInt16 constant is wrong somehow"))
	}
}

// opus silence, discord expects a few of these after the last real packet
var silenceFrame = []byte{0xF8, 0xFF, 0xFE}

type frameEncoder interface {
	Encode(pcm []int16) ([]byte, error)
}

type Encoder struct {
	enc *gopus.Encoder
}

// NewEncoder returns a 48kHz stereo opus encoder
func NewEncoder(bitrate int) (*Encoder, error) {
	enc, err := gopus.NewEncoder(SampleRate, NumChannels, gopus.Audio)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create opus encoder")
	}

	if bitrate > 0 {
		enc.SetBitrate(bitrate)
	}

	return &Encoder{enc: enc}, nil
}

// Encode returns a freshly allocated packet; senders hand it off to other
// goroutines so the buffer is never reused
func (e *Encoder) Encode(pcm []int16) ([]byte, error) {
	buf := make([]byte, MaxPacketBytes)

	n, err := e.enc.Encode(pcm, FrameSize, buf)
	if err != nil {
		return nil, errors.Wrap(err, "opus encode")
	}

	return buf[:n], nil
}

// OpusWriter writes discord opus packets, each prefixed by its little endian int16 length
type OpusWriter struct {
	w   *bufio.Writer
	enc frameEncoder
}

func NewOpusWriter(w io.Writer, bitrate int) (*OpusWriter, error) {
	enc, err := NewEncoder(bitrate)
	if err != nil {
		return nil, err
	}

	return &OpusWriter{
		w:   bufio.NewWriter(w),
		enc: enc,
	}, nil
}

// WritePacket encodes one frame of interleaved stereo pcm
func (ow *OpusWriter) WritePacket(pcm []int16) error {
	b, err := ow.enc.Encode(pcm)
	if err != nil {
		return err
	}

	if err := binary.Write(ow.w, binary.LittleEndian, int16(len(b))); err != nil {
		return errors.Wrap(err, "write packet length")
	}

	if _, err := ow.w.Write(b); err != nil {
		return errors.Wrap(err, "write packet")
	}

	return nil
}

func (ow *OpusWriter) Flush() error {
	return ow.w.Flush()
}
