package voice

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

const (
	joinAttempts   = 6
	joinRetryDelay = 1 * time.Second
)

// Events receives transport notifications, always on a goroutine of their own
type Events interface {
	TrackEnded(ctx context.Context, guildID string, id uuid.UUID)
	DriverConnected(ctx context.Context, guildID string)
}

type nopEvents struct{}

func (nopEvents) TrackEnded(context.Context, string, uuid.UUID) {}
func (nopEvents) DriverConnected(context.Context, string)       {}

type joinFunc func(guildID, channelID string) (voiceConn, error)

// Manager owns the voice connections of every guild
type Manager struct {
	join       joinFunc
	newEncoder func() (frameEncoder, error)
	retryDelay time.Duration

	mutex  sync.RWMutex
	conns  map[string]*Connection
	events Events
}

func NewManager(s *discordgo.Session, bitrate int) *Manager {
	if bitrate <= 0 {
		bitrate = DefaultBitrate
	}

	return newManager(
		discordJoin(s),
		func() (frameEncoder, error) {
			return NewEncoder(bitrate)
		},
	)
}

func newManager(join joinFunc, newEncoder func() (frameEncoder, error)) *Manager {
	return &Manager{
		join:       join,
		newEncoder: newEncoder,
		retryDelay: joinRetryDelay,
		conns:      map[string]*Connection{},
		events:     nopEvents{},
	}
}

func discordJoin(s *discordgo.Session) joinFunc {
	return func(guildID, channelID string) (voiceConn, error) {
		mute := false
		deaf := true

		// can take up to 10 seconds to return a timeout error
		vc, err := s.ChannelVoiceJoin(guildID, channelID, mute, deaf)
		if err != nil {
			if vc != nil {
				// a failed join closes the connection but leaves it registered on the session
				func() {
					s.Lock()
					defer s.Unlock()

					delete(s.VoiceConnections, guildID)
				}()
			}

			return nil, err
		}

		return discordVoice{vc: vc}, nil
	}
}

// Notify sets the receiver of track and driver events
func (m *Manager) Notify(e Events) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.events = e
}

func (m *Manager) notifier() Events {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.events
}

// AddHandlers subscribes to the session events that signal a voice driver (re)connect
func (m *Manager) AddHandlers(s *discordgo.Session) {
	s.AddHandler(func(_ *discordgo.Session, e *discordgo.VoiceServerUpdate) {
		m.onVoiceServerUpdate(e.GuildID)
	})
}

func (m *Manager) onVoiceServerUpdate(guildID string) {
	if _, ok := m.lookup(guildID); !ok {
		return
	}

	log.Debug().Str("guild_id", guildID).Msg("voice: server update")

	go m.notifier().DriverConnected(context.Background(), guildID)
}

// Join connects to channelID, moving an existing connection when there is one
func (m *Manager) Join(ctx context.Context, guildID, channelID string) error {
	var (
		v   voiceConn
		err error
	)

	for try := 0; try < joinAttempts; try++ {
		v, err = m.join(guildID, channelID)
		if err == nil {
			break
		}

		log.Debug().
			Err(err).
			Str("guild_id", guildID).
			Str("channel_id", channelID).
			Int("attempt", try+1).
			Msg("voice: join failed")

		if try+1 == joinAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.retryDelay):
		}
	}

	if err != nil {
		return errors.Wrapf(err, "failed to join voice channel %s", channelID)
	}

	m.mutex.Lock()
	if c, ok := m.conns[guildID]; ok {
		c.rebind(channelID, v)
	} else {
		m.conns[guildID] = newConnection(guildID, channelID, v, m.newEncoder, func(id uuid.UUID) {
			m.notifier().TrackEnded(context.Background(), guildID, id)
		})
	}
	m.mutex.Unlock()

	go m.notifier().DriverConnected(context.Background(), guildID)

	return nil
}

func (m *Manager) lookup(guildID string) (*Connection, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	c, ok := m.conns[guildID]

	return c, ok
}

func (m *Manager) Connection(guildID string) (service.Connection, bool) {
	c, ok := m.lookup(guildID)
	if !ok {
		return nil, false
	}

	return c, true
}

// ChannelID reports the voice channel the bot sits in, empty when not connected
func (m *Manager) ChannelID(guildID string) string {
	c, ok := m.lookup(guildID)
	if !ok {
		return ""
	}

	return c.ChannelID()
}

func (m *Manager) Leave(guildID string) error {
	m.mutex.Lock()
	c, ok := m.conns[guildID]
	delete(m.conns, guildID)
	m.mutex.Unlock()

	if !ok {
		return nil
	}

	if err := c.close(); err != nil {
		return errors.Wrap(err, "failed to disconnect voice")
	}

	return nil
}

// Close leaves every voice channel
func (m *Manager) Close() error {
	m.mutex.RLock()
	guildIDs := make([]string, 0, len(m.conns))
	for id := range m.conns {
		guildIDs = append(guildIDs, id)
	}
	m.mutex.RUnlock()

	var result error
	for _, id := range guildIDs {
		if err := m.Leave(id); err != nil && result == nil {
			result = err
		}
	}

	return result
}
