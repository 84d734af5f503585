package handlers

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/josephcopenhaver/cadence-bot/internal/resolver"
	"github.com/josephcopenhaver/cadence-bot/internal/service"
	"github.com/josephcopenhaver/cadence-bot/internal/store"
)

var (
	ErrGuildOnly            = errors.New("this command only works in a guild channel")
	ErrVoiceChannelNotFound = errors.New("could not find voice channel")
)

// Session is the part of the discord session the handlers talk to
type Session interface {
	ChannelMessageSend(channelID, content string) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string) error
	UserChannelCreate(recipientID string) (*discordgo.Channel, error)
	GuildChannels(guildID string) ([]*discordgo.Channel, error)
	// UserVoiceChannel finds the voice channel a member sits in, empty when none
	UserVoiceChannel(guildID, userID string) (string, error)
}

type Voice interface {
	Join(ctx context.Context, guildID, channelID string) error
	ChannelID(guildID string) string
}

type Resolver interface {
	Resolve(ctx context.Context, input string, limit int, st resolver.SearchType) (resolver.Result, error)
	Track(ctx context.Context, u string) (service.Track, error)
	ClearCache() error
}

// Deps are shared by every handler
type Deps struct {
	Registry  *service.Registry
	Voice     Voice
	Resolver  Resolver
	Passwords store.PasswordStore
	Tasks     *SerialTaskRunner

	// PlaylistAddInterval paces playlist expansion
	PlaylistAddInterval time.Duration
}

// HandlerFunc runs a matched command; p is nil outside of guilds
type HandlerFunc func(ctx context.Context, s Session, m *discordgo.MessageCreate, p *service.Player, args map[string]string) error

type HandleMessageCreate struct {
	Name        string
	Usage       string
	Description string
	// Matcher returns nil when msg is not this command
	Matcher func(p *service.Player, msg string) func(ctx context.Context, s Session, m *discordgo.MessageCreate) error
}

func newHandleMessageCreate(name, usage, description string, matcher func(*service.Player, string) func(context.Context, Session, *discordgo.MessageCreate) error) HandleMessageCreate {
	return HandleMessageCreate{
		Name:        name,
		Usage:       usage,
		Description: description,
		Matcher:     matcher,
	}
}

func bind(requiresGuild bool, p *service.Player, args map[string]string, f HandlerFunc) func(context.Context, Session, *discordgo.MessageCreate) error {
	return func(ctx context.Context, s Session, m *discordgo.MessageCreate) error {
		if requiresGuild && p == nil {
			return ErrGuildOnly
		}

		return f(ctx, s, m, p, args)
	}
}

func newRegexMatcher(requiresGuild bool, r *regexp.Regexp, f HandlerFunc) func(*service.Player, string) func(context.Context, Session, *discordgo.MessageCreate) error {
	return func(p *service.Player, msg string) func(context.Context, Session, *discordgo.MessageCreate) error {
		args := regexMap(r, msg)
		if args == nil {
			return nil
		}

		return bind(requiresGuild, p, args, f)
	}
}

func newWordMatcher(requiresGuild bool, words []string, f HandlerFunc) func(*service.Player, string) func(context.Context, Session, *discordgo.MessageCreate) error {
	return func(p *service.Player, msg string) func(context.Context, Session, *discordgo.MessageCreate) error {
		msg = strings.ToLower(strings.TrimSpace(msg))

		for _, w := range words {
			if msg == w {
				return bind(requiresGuild, p, map[string]string{}, f)
			}
		}

		return nil
	}
}

func reply(s Session, m *discordgo.MessageCreate, msg string) error {
	_, err := s.ChannelMessageSend(m.ChannelID, msg)
	return err
}

// All returns every command, help last
func All(deps Deps) []HandleMessageCreate {
	result := []HandleMessageCreate{
		Ping(),
		JoinChannel(deps),
		Disconnect(),
		Play(deps),
		Cache(deps),
		ClearCache(deps),
		Pause(),
		Resume(),
		Skip(),
		RemoveTrack(),
		Seek(),
		RestartTrack(),
		Volume(),
		Speed(),
		Bass(),
		Equalizer(),
		Repeat(),
		ClearPlaylist(),
		ShowPlaylist(),
		NowPlaying(),
		Password(deps),
	}

	return append(result, Help(result))
}
