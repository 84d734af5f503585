package service

import (
	"time"

	"github.com/josephcopenhaver/cadence-bot/internal/timecode"
)

// Origin names the resolver that produced a Track
type Origin string

const (
	OriginYtDl    Origin = "YtDl"
	OriginFfprobe Origin = "Ffprobe"
	OriginVk      Origin = "Vk"
)

type Author struct {
	Name      *string `json:"name"`
	URL       *string `json:"url"`
	Thumbnail *string `json:"thumbnail"`
	Verified  bool    `json:"verified"`
}

type Chapter struct {
	Title        string  `json:"title"`
	StartTime    float64 `json:"start_time"`
	StartTimeStr string  `json:"start_time_str"`
	EndTime      float64 `json:"end_time"`
}

// Track is immutable once resolved; copies are handed out freely
type Track struct {
	ID          uint64     `json:"id"`
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Thumbnail   *string    `json:"thumbnail"`
	Author      Author     `json:"author"`
	URL         string     `json:"url"`
	Views       *int64     `json:"views"`
	Likes       *int64     `json:"likes"`
	Chapters    []Chapter  `json:"chapters"`
	WebpageURL  string     `json:"webpage_url"`
	Duration    *float64   `json:"duration"`
	ParseTime   time.Time  `json:"parse_time"`
	Origin      Origin     `json:"parser_type"`
	EditDate    *time.Time `json:"edit_date"`
}

// Clone returns a copy that shares nothing mutable with t
func (t Track) Clone() Track {
	if t.Chapters != nil {
		chapters := make([]Chapter, len(t.Chapters))
		copy(chapters, t.Chapters)
		t.Chapters = chapters
	}

	return t
}

func (t Track) DisplayTitle() string {
	if t.Title != nil && *t.Title != "" {
		return *t.Title
	}

	return "Unknown title"
}

func (t Track) DisplayAuthor() string {
	if t.Author.Name != nil && *t.Author.Name != "" {
		return *t.Author.Name
	}

	return "Unknown author"
}

// ChapterMark is a chapter as reported by a resolver, end optional
type ChapterMark struct {
	Title     string
	StartTime float64
	EndTime   *float64
}

// BuildChapters infers each missing end offset from the next chapter's start,
// or from the total duration for the last one
func BuildChapters(marks []ChapterMark, duration float64) []Chapter {
	if len(marks) == 0 {
		return nil
	}

	result := make([]Chapter, len(marks))
	for i, m := range marks {
		end := duration
		if m.EndTime != nil {
			end = *m.EndTime
		} else if i+1 < len(marks) {
			end = marks[i+1].StartTime
		}

		result[i] = Chapter{
			Title:        m.Title,
			StartTime:    m.StartTime,
			StartTimeStr: timecode.Format(m.StartTime),
			EndTime:      end,
		}
	}

	return result
}
