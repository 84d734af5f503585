package handlers

import (
	"context"
	"regexp"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

func Skip() HandleMessageCreate {

	return newHandleMessageCreate(
		"skip",
		"<skip|next> [track id|title]",
		"skips the current track, or drops a queued one",
		newRegexMatcher(
			true,
			regexp.MustCompile(`^\s*(?:skip|next)(?:\s+(?P<track>[^\s]+.*?))?\s*$`),
			func(ctx context.Context, s Session, m *discordgo.MessageCreate, p *service.Player, args map[string]string) error {

				arg := args["track"]
				if arg == "" {
					if err := p.Skip(ctx, nil); err != nil {
						return err
					}

					return reply(s, m, "Skipped")
				}

				id, ok := findTrack(p.Snapshot(), arg)
				if !ok {
					return errors.Wrapf(service.ErrNotFound, "no track matches %q", arg)
				}

				if err := p.Skip(ctx, &id); err != nil {
					return err
				}

				return reply(s, m, "Skipped track "+formatID(id))
			},
		),
	)
}
