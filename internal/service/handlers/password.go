package handlers

import (
	"context"
	"regexp"

	"github.com/bwmarrin/discordgo"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
	"github.com/josephcopenhaver/cadence-bot/internal/store"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 256
)

func validatePassword(pw string) error {
	if err := validation.Validate(pw, validation.Required, validation.RuneLength(minPasswordLen, maxPasswordLen)); err != nil {
		return errors.Wrap(service.ErrInvalidArgument, "password "+err.Error())
	}

	return nil
}

func Password(deps Deps) HandleMessageCreate {

	return newHandleMessageCreate(
		"password",
		"password <8 to 256 characters>",
		"sets your password for the http api, best sent as a direct message",
		newRegexMatcher(
			false,
			regexp.MustCompile(`^\s*password\s+(?P<password>\S.*?)\s*$`),
			func(ctx context.Context, s Session, m *discordgo.MessageCreate, _ *service.Player, args map[string]string) error {

				// never leave a password sitting in a guild channel
				if m.GuildID != "" {
					if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
						log.Ctx(ctx).Warn().
							Err(err).
							Msg("failed to delete password message")
					}
				}

				pw := args["password"]
				if err := validatePassword(pw); err != nil {
					return err
				}

				hash, err := store.HashPassword(pw)
				if err != nil {
					return err
				}

				if err := deps.Passwords.SetPassword(ctx, m.Author.ID, hash); err != nil {
					return err
				}

				return reply(s, m, "password updated")
			},
		),
	)
}
