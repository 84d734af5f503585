package handlers

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

func Disconnect() HandleMessageCreate {

	return newHandleMessageCreate(
		"disconnect",
		"<disconnect|leave|stop>",
		"clears the playlist and leaves the voice channel",
		newWordMatcher(
			true,
			[]string{"disconnect", "leave", "stop"},
			func(ctx context.Context, _ Session, _ *discordgo.MessageCreate, p *service.Player, _ map[string]string) error {
				return p.Disconnect(ctx)
			},
		),
	)
}
