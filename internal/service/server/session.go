package server

import (
	"github.com/bwmarrin/discordgo"
)

// session adapts a discord session to what command handlers need
type session struct {
	*discordgo.Session
}

func (s session) UserVoiceChannel(guildID, userID string) (string, error) {
	g, err := s.State.Guild(guildID)
	if err != nil {
		return "", err
	}

	s.State.RLock()
	defer s.State.RUnlock()

	for _, vs := range g.VoiceStates {
		if vs.UserID == userID {
			return vs.ChannelID, nil
		}
	}

	return "", nil
}
