package handlers

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/josephcopenhaver/cadence-bot/internal/resolver"
	"github.com/josephcopenhaver/cadence-bot/internal/service"
	"github.com/josephcopenhaver/cadence-bot/internal/service/server/reactions"
)

const (
	DefaultPlaylistLimit = 25
	MaxPlaylistLimit     = 35
)

type playArgs struct {
	Input  string
	Limit  int
	Search string
}

func (a playArgs) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Input, validation.Required),
		validation.Field(&a.Limit, validation.Min(1), validation.Max(MaxPlaylistLimit)),
		validation.Field(&a.Search, validation.In(
			string(resolver.SearchYouTube),
			string(resolver.SearchSoundCloud),
			string(resolver.SearchVk),
		)),
	)
}

// parsePlayArgs splits trailing key=value options off the input
func parsePlayArgs(s string) (playArgs, error) {
	a := playArgs{
		Limit:  DefaultPlaylistLimit,
		Search: string(resolver.SearchYouTube),
	}

	fields := strings.Fields(s)
	for len(fields) > 1 {
		last := fields[len(fields)-1]

		k, v, ok := strings.Cut(last, "=")
		if !ok {
			break
		}

		switch strings.ToLower(k) {
		case "limit":
			n, err := strconv.Atoi(v)
			if err != nil {
				return a, errors.Wrapf(service.ErrInvalidArgument, "limit must be a whole number: %q", v)
			}
			a.Limit = n
		case "search":
			a.Search = strings.ToLower(v)
		default:
			return a, errors.Wrapf(service.ErrInvalidArgument, "unknown option %q", k)
		}

		fields = fields[:len(fields)-1]
	}

	a.Input = strings.Join(fields, " ")

	if err := a.Validate(); err != nil {
		return a, errors.Wrap(service.ErrInvalidArgument, err.Error())
	}

	return a, nil
}

func Play(deps Deps) HandleMessageCreate {

	return newHandleMessageCreate(
		"play",
		"play <url|query> [limit=1..35] [search=youtube|soundcloud|vk]",
		"resolves a track or playlist and adds it to the queue, joining your voice channel if needed",
		newRegexMatcher(
			true,
			regexp.MustCompile(`^\s*play\s+(?P<args>[^\s]+.*?)\s*$`),
			func(ctx context.Context, s Session, m *discordgo.MessageCreate, p *service.Player, args map[string]string) error {
				return handlePlayRequest(ctx, deps, s, m, p, args["args"])
			},
		),
	)
}

func handlePlayRequest(ctx context.Context, deps Deps, s Session, m *discordgo.MessageCreate, p *service.Player, raw string) error {
	a, err := parsePlayArgs(raw)
	if err != nil {
		return err
	}

	st, _ := resolver.ParseSearchType(a.Search)

	// ensure that the bot is first in a voice channel
	if err := ensureVoice(ctx, deps, s, m); err != nil {
		return err
	}

	res, err := deps.Resolver.Resolve(ctx, a.Input, a.Limit, st)
	if err != nil {
		return err
	}

	switch v := res.(type) {
	case resolver.Single:
		t, err := p.Enqueue(ctx, v.Track)
		if err != nil {
			return err
		}

		return reply(s, m, "queued "+trackLine(t))
	case resolver.VkPlaylist:
		return enqueueTracks(ctx, s, m, p, v.Title, v.Tracks)
	case resolver.Playlist:
		return enqueuePlaylist(ctx, deps, s, m, p, v)
	}

	return errors.Errorf("unexpected resolve result %T", res)
}

func playlistName(title *string) string {
	if title == nil || *title == "" {
		return "playlist"
	}

	return "playlist " + *title
}

func enqueueTracks(ctx context.Context, s Session, m *discordgo.MessageCreate, p *service.Player, title *string, tracks []service.Track) error {
	err := p.Batch(ctx, func(ctx context.Context, q service.Queuer) error {
		for _, t := range tracks {
			if _, err := q.Enqueue(ctx, t); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	return reply(s, m, fmt.Sprintf("queued %d tracks from %s", len(tracks), playlistName(title)))
}

// enqueuePlaylist adds the already resolved first entry, then resolves the rest
// one at a time so the extractor is never hammered
func enqueuePlaylist(ctx context.Context, deps Deps, s Session, m *discordgo.MessageCreate, p *service.Player, pl resolver.Playlist) error {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if deps.PlaylistAddInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(deps.PlaylistAddInterval), 1)
	}

	var numFailed, numSuccess int

	err := p.Batch(ctx, func(ctx context.Context, q service.Queuer) error {
		if _, err := q.Enqueue(ctx, pl.First); err != nil {
			return err
		}
		numSuccess++

		for _, u := range pl.Rest {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}

			t, err := deps.Resolver.Track(ctx, u)
			if err != nil {
				log.Ctx(ctx).Warn().
					Err(err).
					Str("track", u).
					Msg("failed to resolve playlist entry")

				numFailed++
				continue
			}

			if _, err := q.Enqueue(ctx, t); err != nil {
				return err
			}
			numSuccess++
		}

		return nil
	})
	if err != nil {
		return err
	}

	if err := reply(s, m, fmt.Sprintf("queued %d tracks from %s", numSuccess, playlistName(pl.Title))); err != nil {
		return err
	}

	if numFailed > 0 {
		return reactions.NewWarning(fmt.Errorf("%d out of %d tracks could not be imported from playlist", numFailed, numFailed+numSuccess))
	}

	return nil
}
