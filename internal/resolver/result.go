// Package resolver turns urls and search queries into playable tracks.
package resolver

import "github.com/josephcopenhaver/cadence-bot/internal/service"

// Result is one of Single, Playlist or VkPlaylist
type Result interface {
	isResult()
}

type Single struct {
	Track service.Track
}

// Playlist came from the generic extractor; only First is resolved, the rest
// are entry urls to resolve one by one
type Playlist struct {
	Title *string
	URL   string
	First service.Track
	Rest  []string
}

// VkPlaylist arrives fully resolved
type VkPlaylist struct {
	Title  *string
	Tracks []service.Track
}

func (Single) isResult()     {}
func (Playlist) isResult()   {}
func (VkPlaylist) isResult() {}

// SearchType selects the platform a plain-text query is searched on
type SearchType string

const (
	SearchYouTube    SearchType = "youtube"
	SearchSoundCloud SearchType = "soundcloud"
	SearchVk         SearchType = "vk"
)

// ParseSearchType defaults to YouTube
func ParseSearchType(s string) (SearchType, bool) {
	switch SearchType(s) {
	case "", SearchYouTube:
		return SearchYouTube, true
	case SearchSoundCloud:
		return SearchSoundCloud, true
	case SearchVk:
		return SearchVk, true
	default:
		return "", false
	}
}
