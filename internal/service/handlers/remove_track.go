package handlers

import (
	"context"
	"regexp"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

func RemoveTrack() HandleMessageCreate {

	return newHandleMessageCreate(
		"remove-track",
		"remove <track id|title>",
		"removes a queued track from the playlist",
		newRegexMatcher(
			true,
			regexp.MustCompile(`^\s*remove\s+(?P<track>[^\s]+.*?)\s*$`),
			func(ctx context.Context, s Session, m *discordgo.MessageCreate, p *service.Player, args map[string]string) error {

				arg := args["track"]

				snap := p.Snapshot()

				id, ok := findTrack(snap, arg)
				if !ok {
					return reply(s, m, "track not found: `"+arg+"`")
				}

				if snap.Current != nil && snap.Current.ID == id {
					return errors.Wrap(service.ErrConflict, "track is playing, use skip instead")
				}

				if err := p.Skip(ctx, &id); err != nil {
					return err
				}

				return reply(s, m, "track removed: "+formatID(id))
			},
		),
	)
}
