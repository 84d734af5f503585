package timecode

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("plain seconds", t, func() {
		So(Parse("90"), ShouldEqual, 90)
		So(Parse(" 7 "), ShouldEqual, 7)
	})

	Convey("colon separated offsets", t, func() {
		So(Parse("1:30"), ShouldEqual, 90)
		So(Parse("0:01:30"), ShouldEqual, 90)
		So(Parse("1:00:00"), ShouldEqual, 3600)
	})

	Convey("unit suffixed offsets", t, func() {
		So(Parse("1h2m3s"), ShouldEqual, 3723)
		So(Parse("2m3s"), ShouldEqual, 123)
		So(Parse("1h3s"), ShouldEqual, 3603)
		So(Parse("45s"), ShouldEqual, 45)
	})

	Convey("garbage components count as zero", t, func() {
		So(Parse("abc"), ShouldEqual, 0)
		So(Parse("x:30"), ShouldEqual, 30)
		So(Parse(""), ShouldEqual, 0)
	})
}

func TestFormat(t *testing.T) {
	Convey("offsets render as [h:]mm:ss", t, func() {
		So(Format(0), ShouldEqual, "0")
		So(Format(-3), ShouldEqual, "-3")
		So(Format(5), ShouldEqual, "00:05")
		So(Format(90.9), ShouldEqual, "01:30")
		So(Format(3723), ShouldEqual, "1:02:03")
	})
}
