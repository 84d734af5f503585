package handlers

import (
	"context"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

// findVoiceChannel looks a voice channel up by name, ignoring case
func findVoiceChannel(s Session, guildID, name string) (string, error) {
	channels, err := s.GuildChannels(guildID)
	if err != nil {
		return "", err
	}

	for _, c := range channels {
		if c.Type != discordgo.ChannelTypeGuildVoice || !strings.EqualFold(strings.TrimSpace(c.Name), name) {
			continue
		}

		return c.ID, nil
	}

	return "", ErrVoiceChannelNotFound
}

func JoinChannel(deps Deps) HandleMessageCreate {

	return newHandleMessageCreate(
		"join-channel",
		"join [channel name]",
		"joins the named voice channel, or the one you are in",
		newRegexMatcher(
			true,
			regexp.MustCompile(`^\s*join(?:\s+(?P<channel_name>[^\s]+.*?))?\s*$`),
			func(ctx context.Context, s Session, m *discordgo.MessageCreate, _ *service.Player, args map[string]string) error {

				var (
					chanID string
					err    error
				)

				if name := args["channel_name"]; name != "" {
					chanID, err = findVoiceChannel(s, m.GuildID, name)
				} else {
					chanID, err = s.UserVoiceChannel(m.GuildID, m.Author.ID)
					if err == nil && chanID == "" {
						err = ErrVoiceChannelNotFound
					}
				}
				if err != nil {
					return err
				}

				return deps.Voice.Join(ctx, m.GuildID, chanID)
			},
		),
	)
}
