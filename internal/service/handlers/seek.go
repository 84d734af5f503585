package handlers

import (
	"context"
	"regexp"

	"github.com/bwmarrin/discordgo"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
	"github.com/josephcopenhaver/cadence-bot/internal/timecode"
)

func Seek() HandleMessageCreate {

	return newHandleMessageCreate(
		"seek",
		"<move|seek> <90|1:30|1h2m3s>",
		"restarts the current track at the given offset",
		newRegexMatcher(
			true,
			regexp.MustCompile(`^\s*(?P<op>move|seek)\s+(?P<time>[0-9hms:]+)\s*$`),
			func(ctx context.Context, s Session, m *discordgo.MessageCreate, p *service.Player, args map[string]string) error {

				offset := timecode.Parse(args["time"])

				var err error
				if args["op"] == "move" {
					err = p.Move(ctx, offset)
				} else {
					err = p.Seek(ctx, offset)
				}
				if err != nil {
					return err
				}

				return reply(s, m, "Seeked to "+timecode.Format(offset))
			},
		),
	)
}
