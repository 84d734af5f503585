package resolver

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
	"github.com/josephcopenhaver/cadence-bot/internal/timecode"
)

var ErrUnparsable = errors.New("extractor output has no playable url")

type object = map[string]interface{}

func str(o object, keys ...string) *string {
	for _, k := range keys {
		if v, ok := o[k].(string); ok {
			return &v
		}
	}

	return nil
}

// number accepts json numbers and numeric strings
func number(v interface{}) (float64, bool) {
	switch tv := v.(type) {
	case float64:
		return tv, true
	case json.Number:
		f, err := tv.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(tv), 64)
		return f, err == nil
	}

	return 0, false
}

func count(o object, key string) *int64 {
	f, ok := number(o[key])
	if !ok {
		return nil
	}

	v := int64(f)

	return &v
}

func bestAudio(formats []interface{}) *string {
	var (
		bestAbr float64
		best    *string
	)

	for _, f := range formats {
		fo, ok := f.(object)
		if !ok {
			continue
		}

		abr, ok := number(fo["abr"])
		if !ok || abr <= bestAbr {
			continue
		}

		if u := str(fo, "url"); u != nil {
			bestAbr = abr
			best = u
		}
	}

	if best != nil {
		return best
	}

	for _, f := range formats {
		if fo, ok := f.(object); ok {
			if u := str(fo, "url"); u != nil {
				return u
			}
		}
	}

	return nil
}

// twitch streams list video renditions too, the first above 700 kbit/s has usable audio
func bestAudioTwitch(formats []interface{}) *string {
	for _, f := range formats {
		fo, ok := f.(object)
		if !ok {
			continue
		}

		if tbr, ok := number(fo["tbr"]); ok && tbr > 700 {
			if u := str(fo, "url"); u != nil {
				return u
			}
		}
	}

	return nil
}

func bestThumbnail(thumbs []interface{}) *string {
	var (
		bestHeight float64
		best       *string
	)

	for _, t := range thumbs {
		to, ok := t.(object)
		if !ok {
			continue
		}

		u := str(to, "url")
		if u == nil {
			continue
		}

		h, ok := number(to["height"])
		if !ok {
			if best == nil {
				best = u
			}
			continue
		}

		if h > bestHeight {
			bestHeight = h
			best = u
		}
	}

	return best
}

func editDate(o object) *time.Time {
	type source struct {
		key  string
		date bool
	}

	for _, src := range []source{
		{"modified_timestamp", false},
		{"modified_date", true},
		{"release_timestamp", false},
		{"release_date", true},
		{"timestamp", false},
		{"upload_date", true},
	} {
		if src.date {
			s, ok := o[src.key].(string)
			if !ok {
				continue
			}

			t, err := time.ParseInLocation("20060102", s, time.UTC)
			if err != nil {
				continue
			}

			return &t
		}

		f, ok := o[src.key].(float64)
		if !ok {
			continue
		}

		t := time.Unix(int64(f), 0).UTC()

		return &t
	}

	return nil
}

func duration(o object) *float64 {
	switch v := o["duration"].(type) {
	case float64:
		return &v
	case string:
		d := timecode.Parse(v)
		return &d
	}

	if s, ok := o["duration_string"].(string); ok {
		d := timecode.Parse(s)
		return &d
	}

	return nil
}

func chapters(o object, dur float64) []service.Chapter {
	raw, ok := o["chapters"].([]interface{})
	if !ok {
		return nil
	}

	marks := make([]service.ChapterMark, 0, len(raw))
	for _, c := range raw {
		co, ok := c.(object)
		if !ok {
			return nil
		}

		title, _ := co["title"].(string)
		start, ok := number(co["start_time"])
		if !ok {
			return nil
		}

		m := service.ChapterMark{Title: title, StartTime: start}
		if end, ok := number(co["end_time"]); ok {
			m.EndTime = &end
		}

		marks = append(marks, m)
	}

	return service.BuildChapters(marks, dur)
}

func author(o object) service.Author {
	verified, _ := o["channel_verified"].(bool)

	return service.Author{
		Name:     str(o, "channel", "uploader", "artist"),
		URL:      str(o, "channel_url", "uploader_url"),
		Verified: verified,
	}
}

// ParseTrack maps one extractor json object onto a Track
func ParseTrack(o object, now time.Time) (service.Track, error) {
	webpage := str(o, "webpage_url", "original_url")
	if webpage == nil {
		return service.Track{}, errors.Wrap(ErrUnparsable, "no webpage url")
	}

	var url *string
	if formats, ok := o["formats"].([]interface{}); ok {
		if strings.HasPrefix(*webpage, "https://www.twitch.tv") {
			url = bestAudioTwitch(formats)
		} else {
			url = bestAudio(formats)
		}
	} else {
		url = str(o, "url")
	}

	if url == nil {
		return service.Track{}, errors.Wrapf(ErrUnparsable, "no stream url for %s", *webpage)
	}

	thumbnail := str(o, "thumbnail")
	if thumbnail == nil {
		if thumbs, ok := o["thumbnails"].([]interface{}); ok {
			thumbnail = bestThumbnail(thumbs)
		}
	}

	dur := duration(o)
	var durV float64
	if dur != nil {
		durV = *dur
	}

	return service.Track{
		Title:       str(o, "title"),
		Description: str(o, "description"),
		Thumbnail:   thumbnail,
		Author:      author(o),
		URL:         *url,
		Views:       count(o, "view_count"),
		Likes:       count(o, "like_count"),
		Chapters:    chapters(o, durV),
		WebpageURL:  *webpage,
		Duration:    dur,
		ParseTime:   now.UTC(),
		Origin:      service.OriginYtDl,
		EditDate:    editDate(o),
	}, nil
}

func isPlaylist(o object) bool {
	t, _ := o["_type"].(string)
	return t == "playlist"
}

// playlistEntries lists the entry urls of a flat playlist
func playlistEntries(o object) []string {
	raw, _ := o["entries"].([]interface{})

	result := make([]string, 0, len(raw))
	for _, e := range raw {
		if eo, ok := e.(object); ok {
			if u := str(eo, "url"); u != nil {
				result = append(result, *u)
			}
		}
	}

	return result
}

// VkTrack is what the external vk parser prints
type VkTrack struct {
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	Duration   float64 `json:"duration"`
	WebpageURL string  `json:"webpage_url"`
	URL        string  `json:"url"`
}

func (v VkTrack) Track(now time.Time) service.Track {
	title, author, dur := v.Title, v.Author, v.Duration

	return service.Track{
		Title:      &title,
		Author:     service.Author{Name: &author},
		URL:        v.URL,
		WebpageURL: v.WebpageURL,
		Duration:   &dur,
		ParseTime:  now.UTC(),
		Origin:     service.OriginVk,
	}
}
