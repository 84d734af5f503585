package handlers

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

func Resume() HandleMessageCreate {

	return newHandleMessageCreate(
		"resume",
		"<resume|play>",
		"if paused, resumes playback",
		newWordMatcher(
			true,
			[]string{"resume", "play"},
			func(ctx context.Context, s Session, m *discordgo.MessageCreate, p *service.Player, _ map[string]string) error {

				if err := p.Resume(ctx); err != nil {
					return err
				}

				return reply(s, m, "Resumed playing")
			},
		),
	)
}
