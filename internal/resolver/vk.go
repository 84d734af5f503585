package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

type vkPlaylistOutput struct {
	Type    string    `json:"_type"`
	Title   *string   `json:"title"`
	Entries []VkTrack `json:"entries"`
}

// runVk invokes the external vk parser with a url or "search:<query>"
func (r *Resolver) runVk(ctx context.Context, arg string) ([]byte, error) {
	if r.conf.VkParserPath == "" {
		return nil, errors.Wrap(ErrUnsupported, "vk parser is not configured")
	}

	cmd := exec.CommandContext(ctx, "python", r.conf.VkParserPath, arg)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "vk parser: %s", strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), nil
}

func (r *Resolver) resolveVk(ctx context.Context, u string) (Result, error) {
	b, err := r.runVk(ctx, u)
	if err != nil {
		return nil, err
	}

	return parseVk(b, r.now())
}

func (r *Resolver) searchVk(ctx context.Context, query string) (service.Track, error) {
	b, err := r.runVk(ctx, "search:"+query)
	if err != nil {
		return service.Track{}, err
	}

	var vt VkTrack
	if err := json.Unmarshal(b, &vt); err != nil {
		return service.Track{}, errors.Wrap(err, "decode vk parser output")
	}

	if vt.URL == "" {
		return service.Track{}, errors.Wrapf(ErrNoResults, "no results for %q", query)
	}

	return vt.Track(r.now()), nil
}

func parseVk(b []byte, now time.Time) (Result, error) {
	var pl vkPlaylistOutput
	if err := json.Unmarshal(b, &pl); err != nil {
		return nil, errors.Wrap(err, "decode vk parser output")
	}

	if pl.Type == "playlist" {
		tracks := make([]service.Track, 0, len(pl.Entries))
		for _, e := range pl.Entries {
			if e.URL != "" {
				tracks = append(tracks, e.Track(now))
			}
		}

		if len(tracks) == 0 {
			return nil, errors.Wrap(ErrNoResults, "vk playlist is empty")
		}

		return VkPlaylist{Title: pl.Title, Tracks: tracks}, nil
	}

	var vt VkTrack
	if err := json.Unmarshal(b, &vt); err != nil {
		return nil, errors.Wrap(err, "decode vk parser output")
	}

	if vt.URL == "" {
		return nil, errors.Wrap(ErrUnparsable, "vk track has no url")
	}

	return Single{Track: vt.Track(now)}, nil
}
