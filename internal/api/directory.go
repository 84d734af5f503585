package api

import (
	"github.com/bwmarrin/discordgo"
)

// StateDirectory reads guilds and channels from a discord state cache
type StateDirectory struct {
	State *discordgo.State
}

func (d StateDirectory) HasGuild(guildID string) bool {
	_, err := d.State.Guild(guildID)
	return err == nil
}

func (d StateDirectory) Channel(guildID, channelID string) (*discordgo.Channel, bool) {
	c, err := d.State.Channel(channelID)
	if err != nil || c.GuildID != guildID {
		return nil, false
	}

	return c, true
}
