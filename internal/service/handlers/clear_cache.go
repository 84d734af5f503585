package handlers

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

func ClearCache(deps Deps) HandleMessageCreate {

	return newHandleMessageCreate(
		"clearcache",
		"clearcache",
		"drops every cached playlist listing",
		newWordMatcher(
			false,
			[]string{"clearcache"},
			func(_ context.Context, s Session, m *discordgo.MessageCreate, _ *service.Player, _ map[string]string) error {

				if err := deps.Resolver.ClearCache(); err != nil {
					return err
				}

				return reply(s, m, "cache cleared")
			},
		),
	)
}
