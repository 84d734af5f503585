package voice

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/josephcopenhaver/gopus"
	. "github.com/smartystreets/goconvey/convey"
)

func toneFrame(step int) []int16 {
	pcm := make([]int16, FrameSize*NumChannels)

	for i := 0; i < FrameSize; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(step*FrameSize+i)/SampleRate))
		pcm[i*NumChannels] = v
		pcm[i*NumChannels+1] = v
	}

	return pcm
}

func TestEncoder(t *testing.T) {
	Convey("a 20ms stereo frame encodes to one decodable opus packet", t, func() {
		enc, err := NewEncoder(DefaultBitrate)
		So(err, ShouldBeNil)

		dec, err := gopus.NewDecoder(SampleRate, NumChannels)
		So(err, ShouldBeNil)

		first, err := enc.Encode(toneFrame(0))
		So(err, ShouldBeNil)
		So(len(first), ShouldBeGreaterThan, 0)
		So(len(first), ShouldBeLessThanOrEqualTo, MaxPacketBytes)

		Convey("a later encode leaves earlier packets untouched", func() {
			kept := append([]byte(nil), first...)

			second, err := enc.Encode(toneFrame(1))
			So(err, ShouldBeNil)
			So(len(second), ShouldBeGreaterThan, 0)
			So(first, ShouldResemble, kept)
		})

		Convey("the packet decodes back to a full frame", func() {
			out := make([]int16, FrameSize*NumChannels)

			n, err := dec.Decode(first, out, false)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, FrameSize*NumChannels)
		})
	})
}

func TestOpusWriter(t *testing.T) {
	Convey("packets are written length prefixed", t, func() {
		var buf bytes.Buffer

		ow, err := NewOpusWriter(&buf, DefaultBitrate)
		So(err, ShouldBeNil)

		So(ow.WritePacket(toneFrame(0)), ShouldBeNil)
		So(ow.WritePacket(toneFrame(1)), ShouldBeNil)
		So(ow.Flush(), ShouldBeNil)

		r := bytes.NewReader(buf.Bytes())
		for i := 0; i < 2; i++ {
			var size int16
			So(binary.Read(r, binary.LittleEndian, &size), ShouldBeNil)
			So(size, ShouldBeGreaterThan, 0)

			packet := make([]byte, size)
			n, err := r.Read(packet)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, int(size))
		}

		So(r.Len(), ShouldEqual, 0)
	})
}
