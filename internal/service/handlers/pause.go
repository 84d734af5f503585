package handlers

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

func Pause() HandleMessageCreate {

	return newHandleMessageCreate(
		"pause",
		"pause",
		"pauses the current track",
		newWordMatcher(
			true,
			[]string{"pause"},
			func(ctx context.Context, s Session, m *discordgo.MessageCreate, p *service.Player, _ map[string]string) error {

				if err := p.Pause(ctx); err != nil {
					return err
				}

				return reply(s, m, "Paused playing")
			},
		),
	)
}
