package resolver

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pkg/errors"
)

// youtubePlaylist lists a playlist through the youtube api when the extractor cannot
func (r *Resolver) youtubePlaylist(ctx context.Context, input string, limit int) (Result, error) {
	pl, err := r.youtube.GetPlaylistContext(ctx, input)
	if err != nil {
		return nil, errors.Wrap(err, "failed to download playlist")
	}

	if len(pl.Videos) == 0 {
		return nil, errors.Wrap(ErrNoResults, "youtube playlist was empty")
	}

	entries := make([]string, 0, len(pl.Videos))
	for _, v := range pl.Videos {
		entries = append(entries, fmt.Sprintf("https://www.youtube.com/watch?v=%s", url.QueryEscape(v.ID)))
	}

	if err := r.listings.Set(input, entries); err != nil {
		return nil, errors.Wrap(err, "cache playlist listing")
	}

	title := pl.Title

	return r.playlistFrom(ctx, &title, input, entries, limit)
}
