package handlers

import (
	"context"
	"regexp"

	"github.com/bwmarrin/discordgo"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

func RestartTrack() HandleMessageCreate {

	return newHandleMessageCreate(
		"restart-track",
		"restart track",
		"if playback is in the middle of a track, rewind to the start of the track",
		newRegexMatcher(
			true,
			regexp.MustCompile(`^\s*restart(?:\s+track)?\s*$`),
			func(ctx context.Context, _ Session, _ *discordgo.MessageCreate, p *service.Player, _ map[string]string) error {
				return p.Seek(ctx, 0)
			},
		),
	)
}
