package voice

import (
	"io"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/josephcopenhaver/cadence-bot/internal/logging"
	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

const numSilenceFrames = 5

// voiceConn is the part of a discord voice connection the sender drives
type voiceConn interface {
	// OpusSend returns the packet channel, false while the connection is not ready
	OpusSend() (chan<- []byte, bool)
	Speaking(bool) error
	Disconnect() error
}

type discordVoice struct {
	vc *discordgo.VoiceConnection
}

func (d discordVoice) OpusSend() (chan<- []byte, bool) {
	d.vc.RLock()
	defer d.vc.RUnlock()

	if !d.vc.Ready || d.vc.OpusSend == nil {
		return nil, false
	}

	return d.vc.OpusSend, true
}

func (d discordVoice) Speaking(b bool) error {
	return d.vc.Speaking(b)
}

func (d discordVoice) Disconnect() error {
	return d.vc.Disconnect()
}

// Connection plays one track at a time into a guild's voice channel
type Connection struct {
	guildID    string
	log        zerolog.Logger
	newEncoder func() (frameEncoder, error)
	ended      func(id uuid.UUID)

	mutex     sync.Mutex
	channelID string
	voice     voiceConn
	current   *track

	wg sync.WaitGroup
}

func newConnection(guildID, channelID string, v voiceConn, newEncoder func() (frameEncoder, error), ended func(uuid.UUID)) *Connection {
	return &Connection{
		guildID:    guildID,
		log:        logging.Guild(guildID),
		newEncoder: newEncoder,
		ended:      ended,
		channelID:  channelID,
		voice:      v,
	}
}

func (c *Connection) ChannelID() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.channelID
}

func (c *Connection) rebind(channelID string, v voiceConn) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.channelID = channelID
	c.voice = v
}

func (c *Connection) currentVoice() voiceConn {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.voice
}

// Play replaces whatever is playing with src, a wav stream
func (c *Connection) Play(src io.ReadCloser) (service.TrackHandle, error) {
	enc, err := c.newEncoder()
	if err != nil {
		ignoredErr := src.Close()
		_ = ignoredErr

		return nil, errors.Wrapf(service.ErrTransport, "%v", err)
	}

	t := newTrack(src)

	c.mutex.Lock()
	prev := c.current
	c.current = t
	c.mutex.Unlock()

	if prev != nil {
		ignoredErr := prev.Stop()
		_ = ignoredErr

		<-prev.done
	}

	c.wg.Add(1)
	go c.send(t, enc)

	return t, nil
}

func (c *Connection) send(t *track, enc frameEncoder) {
	defer c.wg.Done()

	log := c.log.With().Str("track_handle", t.id.String()).Logger()

	var speaking bool
	defer func() {
		t.closeSource()

		if speaking {
			if err := c.currentVoice().Speaking(false); err != nil {
				log.Debug().Err(err).Msg("voice: failed to clear speaking")
			}
		}

		close(t.done)

		// never call back into the player from the sender
		go c.ended(t.id)
	}()

	pr, err := NewPCMReader(t.src)
	if err != nil {
		select {
		case <-t.stop:
		default:
			log.Err(err).Msg("voice: unreadable audio stream")
		}
		return
	}

	pcm := make([]int16, FrameSize*NumChannels)

	for t.wait() {
		if err := pr.ReadFrame(pcm); err != nil {
			if err != io.EOF {
				select {
				case <-t.stop:
				default:
					log.Err(err).Msg("voice: audio stream read failed")
				}
			}
			return
		}

		packet, err := enc.Encode(pcm)
		if err != nil {
			log.Err(err).Msg("voice: encode failed")
			return
		}

		v := c.currentVoice()
		sendChan, ok := v.OpusSend()
		if !ok {
			log.Warn().Msg("voice: connection not ready, ending track")
			return
		}

		if !speaking {
			if err := v.Speaking(true); err != nil {
				log.Debug().Err(err).Msg("voice: failed to set speaking")
			}
			speaking = true
		}

		select {
		case sendChan <- packet:
			t.frames.Add(1)
		case <-t.stop:
			return
		}
	}
}

// PlayNoop sends a few silence frames when nothing is playing
func (c *Connection) PlayNoop() error {
	c.mutex.Lock()
	busy := c.current != nil && !c.current.ended()
	v := c.voice
	c.mutex.Unlock()

	if busy {
		return nil
	}

	sendChan, ok := v.OpusSend()
	if !ok {
		return errors.Wrap(service.ErrNotConnected, "voice connection is not ready")
	}

	timeout := time.NewTimer(numSilenceFrames * 2 * FrameDuration)
	defer timeout.Stop()

	for i := 0; i < numSilenceFrames; i++ {
		select {
		case sendChan <- silenceFrame:
		case <-timeout.C:
			return nil
		}
	}

	return nil
}

// close stops the current track and waits for its sender
func (c *Connection) close() error {
	c.mutex.Lock()
	cur := c.current
	v := c.voice
	c.mutex.Unlock()

	if cur != nil {
		ignoredErr := cur.Stop()
		_ = ignoredErr
	}

	c.wg.Wait()

	return v.Disconnect()
}
