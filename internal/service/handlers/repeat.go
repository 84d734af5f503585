package handlers

import (
	"context"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

func parseRepeatMode(s string) (service.RepeatMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "0":
		return service.RepeatOff, nil
	case "track", "1":
		return service.RepeatTrack, nil
	case "queue", "2":
		return service.RepeatQueue, nil
	}

	return service.RepeatOff, errors.Wrapf(service.ErrInvalidArgument, "unknown repeat mode %q", s)
}

func Repeat() HandleMessageCreate {

	return newHandleMessageCreate(
		"repeat",
		"repeat [off|track|queue]",
		"sets the repeat mode, or shows it when no mode is given",
		newRegexMatcher(
			true,
			regexp.MustCompile(`^\s*(?:repeat|loop)(?:\s+(?P<mode>[^\s]+))?\s*$`),
			func(ctx context.Context, s Session, m *discordgo.MessageCreate, p *service.Player, args map[string]string) error {

				if args["mode"] == "" {
					return reply(s, m, "repeat mode is: "+p.Repeat().String())
				}

				mode, err := parseRepeatMode(args["mode"])
				if err != nil {
					return err
				}

				if err := p.SetRepeat(ctx, mode); err != nil {
					return err
				}

				return reply(s, m, "repeat mode is now: "+mode.String())
			},
		),
	)
}
