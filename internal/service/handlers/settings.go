package handlers

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

func Volume() HandleMessageCreate {

	return newHandleMessageCreate(
		"volume",
		"volume <0..10>",
		"sets the playback volume, 1 is unchanged",
		newRegexMatcher(
			true,
			regexp.MustCompile(`^\s*(?:volume|vol)\s+(?P<value>[^\s]+)\s*$`),
			func(ctx context.Context, s Session, m *discordgo.MessageCreate, p *service.Player, args map[string]string) error {

				v, err := parseFloat("volume", args["value"])
				if err != nil {
					return err
				}

				if err := p.SetVolume(ctx, v); err != nil {
					return err
				}

				return reply(s, m, "volume is now "+strconv.FormatFloat(v, 'f', -1, 64))
			},
		),
	)
}

func Speed() HandleMessageCreate {

	return newHandleMessageCreate(
		"speed",
		"speed <0.5..2>",
		"sets the playback speed",
		newRegexMatcher(
			true,
			regexp.MustCompile(`^\s*speed\s+(?P<value>[^\s]+)\s*$`),
			func(ctx context.Context, s Session, m *discordgo.MessageCreate, p *service.Player, args map[string]string) error {

				v, err := parseFloat("speed", args["value"])
				if err != nil {
					return err
				}

				if err := p.SetSpeed(ctx, v); err != nil {
					return err
				}

				return reply(s, m, "speed is now "+strconv.FormatFloat(v, 'f', -1, 64))
			},
		),
	)
}

func Bass() HandleMessageCreate {

	return newHandleMessageCreate(
		"bass",
		"bass <on|off> [gain -100..100]",
		"toggles the bass boost, optionally setting its gain in dB",
		newRegexMatcher(
			true,
			regexp.MustCompile(`^\s*bass\s+(?P<toggle>on|off)(?:\s+(?P<gain>[^\s]+))?\s*$`),
			func(ctx context.Context, s Session, m *discordgo.MessageCreate, p *service.Player, args map[string]string) error {

				enabled := args["toggle"] == "on"

				var gain *float64
				if g := args["gain"]; g != "" {
					v, err := parseFloat("gain", strings.TrimSuffix(strings.ToLower(g), "db"))
					if err != nil {
						return err
					}
					gain = &v
				}

				if err := p.SetBass(ctx, enabled, gain); err != nil {
					return err
				}

				st := p.Settings()
				if !st.BassEnabled {
					return reply(s, m, "bass boost is off")
				}

				return reply(s, m, fmt.Sprintf("bass boost is on at %sdB", strconv.FormatFloat(st.BassGain, 'f', -1, 64)))
			},
		),
	)
}

func Equalizer() HandleMessageCreate {

	return newHandleMessageCreate(
		"equalizer",
		"eq <32|64|125|250|500|1k|2k|4k|8k|16k> <gain -20..20>",
		"sets the gain of one equalizer band in dB",
		newRegexMatcher(
			true,
			regexp.MustCompile(`^\s*(?:eq|equalizer)\s+(?P<band>[^\s]+)\s+(?P<gain>[^\s]+)\s*$`),
			func(ctx context.Context, s Session, m *discordgo.MessageCreate, p *service.Player, args map[string]string) error {

				band, ok := service.ParseBand(args["band"])
				if !ok {
					return errors.Wrapf(service.ErrInvalidArgument, "unknown band %q", args["band"])
				}

				gain, err := parseFloat("gain", strings.TrimSuffix(strings.ToLower(args["gain"]), "db"))
				if err != nil {
					return err
				}

				if err := p.SetEqualizerBand(ctx, band, gain); err != nil {
					return err
				}

				return reply(s, m, fmt.Sprintf("%s band is now %sdB", band.Freq(), strconv.FormatFloat(gain, 'f', -1, 64)))
			},
		),
	)
}
