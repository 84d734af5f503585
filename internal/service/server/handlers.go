package server

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/josephcopenhaver/cadence-bot/internal/logging"
	"github.com/josephcopenhaver/cadence-bot/internal/service"
	"github.com/josephcopenhaver/cadence-bot/internal/service/handlers"
	"github.com/josephcopenhaver/cadence-bot/internal/service/server/reactions"
)

// commandSession is what the mux needs beyond the handlers' view of discord
type commandSession interface {
	handlers.Session
	MessageReactionAdd(channelID, messageID, emojiID string) error
}

func (s *Server) Handlers(deps handlers.Deps) error {

	if deps.Registry == nil {
		return errors.New("handlers require a player registry")
	}

	s.Registry = deps.Registry
	if deps.Tasks == nil {
		deps.Tasks = s.Tasks
	}

	// https://discord.com/developers/docs/topics/gateway#event-names

	s.addMuxHandlers()

	for _, h := range handlers.All(deps) {
		s.AddHandler(h)
	}

	s.DiscordSession.AddHandler(func(ds *discordgo.Session, v *discordgo.VoiceStateUpdate) {
		// https://discord.com/developers/docs/topics/gateway#voice-state-update
		log.Debug().
			Interface("payload", v).
			Msg("event: voice state update")

		// a moderator pulled the bot out of voice
		if ds.State.User == nil || v.UserID != ds.State.User.ID || v.ChannelID != "" {
			return
		}

		s.disconnectGuild(v.GuildID, "removed from voice channel")
	})

	s.DiscordSession.AddHandler(func(_ *discordgo.Session, v *discordgo.GuildDelete) {
		// https://discord.com/developers/docs/topics/gateway#guild-delete
		log.Debug().
			Interface("payload", v).
			Msg("event: guild delete")

		// unavailable means an outage, not a kick
		if v.Unavailable {
			return
		}

		s.disconnectGuild(v.ID, "removed from guild")
	})

	return nil
}

func (s *Server) disconnectGuild(guildID, reason string) {
	p, ok := s.Registry.Lookup(guildID)
	if !ok {
		return
	}

	logger := logging.Guild(guildID)
	ctx := logger.WithContext(context.Background())

	if err := p.Disconnect(ctx); err != nil {
		log.Ctx(ctx).Warn().
			Err(err).
			Str("reason", reason).
			Msg("failed to disconnect player")
		return
	}

	log.Ctx(ctx).Info().
		Str("reason", reason).
		Msg("player disconnected")
}

// stripMention returns the command text after a leading mention of the bot,
// ok is false when the message is not addressed to it
func stripMention(s *discordgo.Session, m *discordgo.MessageCreate, trimMsg string) (string, bool) {

	// verify the user is giving me a direct command in a guild channel
	if !strings.HasPrefix(trimMsg, "<@") {
		return "", false
	}

	prefix := func() string {

		prefix := s.State.User.Mention()
		if strings.HasPrefix(trimMsg, prefix) {
			return prefix
		}

		// nickname mentions use <@!id>
		prefix = "<@!" + s.State.User.ID + ">"
		if strings.HasPrefix(trimMsg, prefix) {
			return prefix
		}

		member, err := s.State.Member(m.GuildID, s.State.User.ID)
		if err != nil {
			log.Err(err).
				Msg("failed to get my own member status")
			return ""
		}

		for _, roleId := range member.Roles {

			r, err := s.State.Role(m.GuildID, roleId)
			if err != nil {
				log.Err(err).
					Str("role_id", roleId).
					Msg("failed to get role info")
				continue
			}

			if r.Name != s.State.User.Username {
				continue
			}

			prefix = r.Mention()
			if strings.HasPrefix(trimMsg, prefix) {
				return prefix
			}
		}

		return ""
	}()

	if prefix == "" {
		return "", false
	}

	// get message without @bot directive
	withoutMetion := trimMsg[len(prefix):]
	newTrimMsg := strings.TrimSpace(withoutMetion)
	if newTrimMsg == withoutMetion {
		return "", false
	}

	return newTrimMsg, true
}

func (srv *Server) addMuxHandlers() {
	srv.DiscordSession.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {

		// ignore messages I (the bot) create
		if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
			return
		}

		trimMsg := strings.TrimSpace(m.Message.Content)

		if m.GuildID != "" {
			msg, ok := stripMention(s, m, trimMsg)
			if !ok {
				return
			}

			trimMsg = msg
		}

		srv.dispatch(srv.ctx, session{s}, m, trimMsg)
	})
}

func react(s commandSession, m *discordgo.MessageCreate, status reactions.ReactionStatus) {
	if err := s.MessageReactionAdd(m.ChannelID, m.ID, status.String()); err != nil {
		log.Debug().
			Err(err).
			Str("reaction", status.String()).
			Msg("failed to add reaction")
	}
}

// dispatch runs the first handler that matches trimMsg
func (srv *Server) dispatch(ctx context.Context, s commandSession, m *discordgo.MessageCreate, trimMsg string) {
	var p *service.Player

	logger := log.Logger
	if m.GuildID != "" {
		logger = logging.Guild(m.GuildID)
	}
	ctx = logger.WithContext(ctx)

	if m.GuildID != "" {
		var err error

		p, err = srv.Registry.Initialize(ctx, m.GuildID)
		if err != nil {
			logger.Err(err).
				Msg("failed to initialize player")

			p = srv.Registry.Player(m.GuildID)
		}
	}

	for i := range srv.EventHandlers.MessageCreate {

		h := &srv.EventHandlers.MessageCreate[i]

		handler := h.Matcher(p, trimMsg)
		if handler == nil {
			continue
		}

		err := handler(ctx, s, m)

		status := reactions.For(err)
		react(s, m, status)

		switch status {
		case reactions.ReactionStatusOK:
			return
		case reactions.ReactionStatusWarning:
			logger.Warn().
				Err(err).
				Str("handler_name", h.Name).
				Msg("handler finished with a warning")

			if _, err := s.ChannelMessageSend(m.ChannelID, "warning: "+err.Error()); err != nil {
				logger.Err(err).
					Msg("failed to send warning reply")
			}
			return
		case reactions.ReactionStatusRejected:
			logger.Info().
				Err(err).
				Str("handler_name", h.Name).
				Msg("command rejected")
		default:
			logger.Err(err).
				Str("handler_name", h.Name).
				Str("author_id", m.Author.ID).
				Str("author_username", m.Author.Username).
				Str("message_content", m.Message.Content).
				Interface("message_id", m.Message.ID).
				Interface("message_timestamp", m.Message.Timestamp).
				Msg("error in handler")
		}

		if _, err := s.ChannelMessageSend(m.ChannelID, "error: "+err.Error()); err != nil {
			logger.Err(err).
				Msg("failed to send error reply")
		}
		return
	}

	if _, err := s.ChannelMessageSend(m.ChannelID, "command not recognized"); err != nil {
		logger.Error().
			Err(err).
			Msg("failed to send default reply")
	}
}

func (s *Server) AddHandler(v interface{}) {

	switch h := v.(type) {

	case handlers.HandleMessageCreate:
		s.EventHandlers.MessageCreate = append(s.EventHandlers.MessageCreate, h)

	default:
		log.Fatal().
			Interface("handler", v).
			Msg("code-error: failed to register handler")
	}
}
