package handlers

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
	"github.com/josephcopenhaver/cadence-bot/internal/timecode"
)

func NowPlaying() HandleMessageCreate {

	return newHandleMessageCreate(
		"now-playing",
		"<now|np>",
		"shows the current track and how far into it playback is",
		newWordMatcher(
			true,
			[]string{"now", "np"},
			func(ctx context.Context, s Session, m *discordgo.MessageCreate, p *service.Player, _ map[string]string) error {

				snap := p.Snapshot()
				if snap.Current == nil {
					return reply(s, m, "nothing is playing")
				}

				msg := snap.State.Public() + ": " + trackLine(*snap.Current)

				pos, err := p.Position(ctx)
				switch {
				case err == nil:
					msg += "\nat " + timecode.Format(pos)
					if d := snap.Current.Duration; d != nil {
						msg += " / " + timecode.Format(*d)
					}
				case !errors.Is(err, service.ErrNotFound):
					return err
				}

				return reply(s, m, msg)
			},
		),
	)
}
