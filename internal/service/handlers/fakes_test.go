package handlers

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/josephcopenhaver/cadence-bot/internal/resolver"
	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

type sentMessage struct {
	channelID string
	content   string
}

type fakeSession struct {
	mu          sync.Mutex
	sent        []sentMessage
	deleted     []string
	channels    []*discordgo.Channel
	userVoice   map[string]string
	dmChannelID string
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		userVoice:   map[string]string{},
		dmChannelID: "dm-1",
	}
}

func (s *fakeSession) ChannelMessageSend(channelID, content string) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = append(s.sent, sentMessage{channelID, content})

	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (s *fakeSession) ChannelMessageDelete(_, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleted = append(s.deleted, messageID)

	return nil
}

func (s *fakeSession) UserChannelCreate(string) (*discordgo.Channel, error) {
	return &discordgo.Channel{ID: s.dmChannelID, Type: discordgo.ChannelTypeDM}, nil
}

func (s *fakeSession) GuildChannels(string) ([]*discordgo.Channel, error) {
	return s.channels, nil
}

func (s *fakeSession) UserVoiceChannel(_, userID string) (string, error) {
	return s.userVoice[userID], nil
}

func (s *fakeSession) last() sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sent) == 0 {
		return sentMessage{}
	}

	return s.sent[len(s.sent)-1]
}

type fakeHandle struct {
	id uuid.UUID
}

func (h *fakeHandle) ID() uuid.UUID { return h.id }
func (h *fakeHandle) Stop() error   { return nil }
func (h *fakeHandle) Pause() error  { return nil }
func (h *fakeHandle) Resume() error { return nil }

func (h *fakeHandle) Info() (service.TrackInfo, error) {
	return service.TrackInfo{Position: 10 * time.Second}, nil
}

type fakeConn struct{}

func (fakeConn) Play(src io.ReadCloser) (service.TrackHandle, error) {
	return &fakeHandle{id: uuid.New()}, nil
}

func (fakeConn) PlayNoop() error { return nil }

// fakeVoice is both the player's transport and the handlers' voice manager
type fakeVoice struct {
	mu       sync.Mutex
	channels map[string]string
	joins    []string
}

func newFakeVoice() *fakeVoice {
	return &fakeVoice{channels: map[string]string{}}
}

func (v *fakeVoice) Join(_ context.Context, guildID, channelID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.channels[guildID] = channelID
	v.joins = append(v.joins, channelID)

	return nil
}

func (v *fakeVoice) ChannelID(guildID string) string {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.channels[guildID]
}

func (v *fakeVoice) Connection(guildID string) (service.Connection, bool) {
	if v.ChannelID(guildID) == "" {
		return nil, false
	}

	return fakeConn{}, true
}

func (v *fakeVoice) Leave(guildID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	delete(v.channels, guildID)

	return nil
}

type nopWriteCloser struct{}

func (nopWriteCloser) Write(p []byte) (int, error) { return len(p), nil }
func (nopWriteCloser) Close() error                { return nil }

type fakeSpawner struct{}

func (fakeSpawner) Spawn(service.PipelineRequest) (*service.Pipeline, error) {
	return &service.Pipeline{
		Control: nopWriteCloser{},
		Audio:   io.NopCloser(strings.NewReader("")),
	}, nil
}

type fakeResolver struct {
	mu       sync.Mutex
	results  map[string]resolver.Result
	tracks   map[string]service.Track
	resolved []string
	cleared  int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		results: map[string]resolver.Result{},
		tracks:  map[string]service.Track{},
	}
}

func (r *fakeResolver) Resolve(_ context.Context, input string, _ int, _ resolver.SearchType) (resolver.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resolved = append(r.resolved, input)

	res, ok := r.results[input]
	if !ok {
		return nil, resolver.ErrNoResults
	}

	return res, nil
}

func (r *fakeResolver) Track(_ context.Context, u string) (service.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tracks[u]
	if !ok {
		return service.Track{}, errors.New("video unavailable")
	}

	return t, nil
}

func (r *fakeResolver) ClearCache() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cleared++

	return nil
}

type fakePasswords struct {
	mu     sync.Mutex
	hashes map[string]string
}

func (p *fakePasswords) SetPassword(_ context.Context, userID, hash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.hashes[userID] = hash

	return nil
}

func (p *fakePasswords) PasswordHash(_ context.Context, userID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.hashes[userID], nil
}

func track(name string) service.Track {
	title := name
	u := "https://example.com/" + name

	return service.Track{
		Title:      &title,
		URL:        u,
		WebpageURL: u,
		Origin:     service.OriginYtDl,
	}
}

type harness struct {
	session   *fakeSession
	voice     *fakeVoice
	resolver  *fakeResolver
	passwords *fakePasswords
	deps      Deps
	commands  []HandleMessageCreate
}

const (
	guildID = "guild-1"
	userID  = "user-1"
)

func newHarness() *harness {
	h := &harness{
		session:   newFakeSession(),
		voice:     newFakeVoice(),
		resolver:  newFakeResolver(),
		passwords: &fakePasswords{hashes: map[string]string{}},
	}

	h.deps = Deps{
		Registry: service.NewRegistry(service.Deps{
			Transport: h.voice,
			Spawner:   fakeSpawner{},
		}),
		Voice:     h.voice,
		Resolver:  h.resolver,
		Passwords: h.passwords,
		Tasks:     NewSerialTaskRunner(4),
	}

	h.commands = All(h.deps)

	return h
}

func (h *harness) player() *service.Player {
	return h.deps.Registry.Player(guildID)
}

func message(guild, content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID:        "msg-1",
			ChannelID: "text-1",
			GuildID:   guild,
			Content:   content,
			Author:    &discordgo.User{ID: userID},
		},
	}
}

var errNoMatch = errors.New("no command matched")

// run dispatches msg the way the server mux does, first match wins
func (h *harness) run(guild, msg string) error {
	var p *service.Player
	if guild != "" {
		p = h.player()
	}

	for _, c := range h.commands {
		f := c.Matcher(p, msg)
		if f == nil {
			continue
		}

		return f(context.Background(), h.session, message(guild, msg))
	}

	return errNoMatch
}
