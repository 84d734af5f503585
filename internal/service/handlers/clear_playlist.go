package handlers

import (
	"context"
	"regexp"

	"github.com/bwmarrin/discordgo"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

func ClearPlaylist() HandleMessageCreate {

	return newHandleMessageCreate(
		"clear-playlist",
		"<clear|reset> [playlist]",
		"stops playback and empties the queue, settings are kept",
		newRegexMatcher(
			true,
			regexp.MustCompile(`^\s*(?:clear|reset)(?:\s+playlist)?\s*$`),
			func(ctx context.Context, s Session, m *discordgo.MessageCreate, p *service.Player, _ map[string]string) error {

				p.Clear(ctx)

				return reply(s, m, "playlist cleared")
			},
		),
	)
}
