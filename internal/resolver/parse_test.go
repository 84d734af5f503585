package resolver

import (
	"encoding/json"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

func mustObject(s string) object {
	var o object
	So(json.Unmarshal([]byte(s), &o), ShouldBeNil)

	return o
}

var parseNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestParseTrack(t *testing.T) {
	Convey("a full extractor record maps every field", t, func() {
		o := mustObject(`{
			"title": "Song",
			"description": "desc",
			"webpage_url": "https://www.youtube.com/watch?v=abc",
			"formats": [
				{"url": "https://cdn/low", "abr": 48},
				{"url": "https://cdn/high", "abr": "160.5"},
				{"url": "https://cdn/video"}
			],
			"thumbnails": [
				{"url": "https://img/none"},
				{"url": "https://img/small", "height": 90},
				{"url": "https://img/big", "height": "720"}
			],
			"channel": "Chan",
			"uploader": "Up",
			"uploader_url": "https://www.youtube.com/@up",
			"channel_verified": true,
			"view_count": 1200,
			"like_count": "34",
			"duration": 200,
			"release_date": "20230102",
			"upload_date": "20200101",
			"chapters": [
				{"title": "one", "start_time": 0},
				{"title": "two", "start_time": 90}
			]
		}`)

		tr, err := ParseTrack(o, parseNow)
		So(err, ShouldBeNil)
		So(*tr.Title, ShouldEqual, "Song")
		So(*tr.Description, ShouldEqual, "desc")
		So(tr.URL, ShouldEqual, "https://cdn/high")
		So(*tr.Thumbnail, ShouldEqual, "https://img/big")
		So(*tr.Author.Name, ShouldEqual, "Chan")
		So(*tr.Author.URL, ShouldEqual, "https://www.youtube.com/@up")
		So(tr.Author.Verified, ShouldBeTrue)
		So(*tr.Views, ShouldEqual, 1200)
		So(*tr.Likes, ShouldEqual, 34)
		So(*tr.Duration, ShouldEqual, 200)
		So(tr.EditDate.Equal(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
		So(tr.Origin, ShouldEqual, service.OriginYtDl)
		So(tr.ParseTime, ShouldEqual, parseNow)
		So(len(tr.Chapters), ShouldEqual, 2)
		So(tr.Chapters[0].EndTime, ShouldEqual, 90)
		So(tr.Chapters[1].EndTime, ShouldEqual, 200)
	})

	Convey("fallbacks", t, func() {
		Convey("original_url and a bare url", func() {
			tr, err := ParseTrack(mustObject(`{
				"original_url": "https://example.com/a.mp3",
				"url": "https://example.com/a.mp3",
				"duration_string": "3:05",
				"artist": "Someone",
				"timestamp": 1700000000
			}`), parseNow)
			So(err, ShouldBeNil)
			So(tr.WebpageURL, ShouldEqual, "https://example.com/a.mp3")
			So(*tr.Duration, ShouldEqual, 185)
			So(*tr.Author.Name, ShouldEqual, "Someone")
			So(tr.EditDate.Unix(), ShouldEqual, 1700000000)
			So(tr.Title, ShouldBeNil)
			So(tr.Views, ShouldBeNil)
		})

		Convey("formats without bitrates use the first url", func() {
			tr, err := ParseTrack(mustObject(`{
				"webpage_url": "https://example.com/x",
				"formats": [{"ext": "none"}, {"url": "https://cdn/first"}, {"url": "https://cdn/second"}]
			}`), parseNow)
			So(err, ShouldBeNil)
			So(tr.URL, ShouldEqual, "https://cdn/first")
		})

		Convey("twitch needs a rendition above 700 kbit/s", func() {
			tr, err := ParseTrack(mustObject(`{
				"webpage_url": "https://www.twitch.tv/someone",
				"formats": [{"url": "https://cdn/audio", "tbr": 160}, {"url": "https://cdn/720p", "tbr": 2500}]
			}`), parseNow)
			So(err, ShouldBeNil)
			So(tr.URL, ShouldEqual, "https://cdn/720p")

			_, err = ParseTrack(mustObject(`{
				"webpage_url": "https://www.twitch.tv/someone",
				"formats": [{"url": "https://cdn/audio", "tbr": 160}]
			}`), parseNow)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("records without a page or stream url are rejected", t, func() {
		_, err := ParseTrack(mustObject(`{"url": "https://cdn/x"}`), parseNow)
		So(err, ShouldNotBeNil)

		_, err = ParseTrack(mustObject(`{"webpage_url": "https://example.com"}`), parseNow)
		So(err, ShouldNotBeNil)
	})
}

func TestPlaylistEntries(t *testing.T) {
	Convey("flat playlist entries yield their urls", t, func() {
		o := mustObject(`{"_type": "playlist", "entries": [{"url": "a"}, {"title": "no url"}, {"url": "b"}]}`)
		So(isPlaylist(o), ShouldBeTrue)
		So(playlistEntries(o), ShouldResemble, []string{"a", "b"})
	})
}

func TestParseVk(t *testing.T) {
	Convey("a single vk track", t, func() {
		res, err := parseVk([]byte(`{"title":"T","author":"A","duration":61,"webpage_url":"https://vk.com/audio1","url":"https://cdn/1.mp3"}`), parseNow)
		So(err, ShouldBeNil)

		single, ok := res.(Single)
		So(ok, ShouldBeTrue)
		So(single.Track.Origin, ShouldEqual, service.OriginVk)
		So(*single.Track.Duration, ShouldEqual, 61)
		So(single.Track.DisplayAuthor(), ShouldEqual, "A")
	})

	Convey("a vk playlist", t, func() {
		res, err := parseVk([]byte(`{"_type":"playlist","title":"P","entries":[
			{"title":"1","author":"A","duration":1,"webpage_url":"w1","url":"u1"},
			{"title":"2","author":"A","duration":2,"webpage_url":"w2","url":"u2"}
		]}`), parseNow)
		So(err, ShouldBeNil)

		pl, ok := res.(VkPlaylist)
		So(ok, ShouldBeTrue)
		So(len(pl.Tracks), ShouldEqual, 2)
		So(*pl.Title, ShouldEqual, "P")
	})
}

func TestParseProbe(t *testing.T) {
	Convey("ffprobe format tags become metadata", t, func() {
		tr, err := parseProbe([]byte(`{"format":{"duration":"12.5","tags":{"TITLE":"Radio","artist":"Station"}}}`), "https://radio/stream", parseNow)
		So(err, ShouldBeNil)
		So(tr.Origin, ShouldEqual, service.OriginFfprobe)
		So(*tr.Title, ShouldEqual, "Radio")
		So(*tr.Author.Name, ShouldEqual, "Station")
		So(*tr.Duration, ShouldEqual, 12.5)
		So(tr.URL, ShouldEqual, "https://radio/stream")
	})
}
