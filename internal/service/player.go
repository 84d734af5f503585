package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/josephcopenhaver/cadence-bot/internal/logging"
)

// Deps are the collaborators shared by every Player
type Deps struct {
	Transport    Transport
	Spawner      Spawner
	Store        SettingsStore
	StoreTimeout time.Duration
	Recorder     Recorder
}

// lockSet selects Player fields for withLocks
//
// Bits are declared in acquisition order.
type lockSet uint8

const (
	lockPlaylist lockSet = 1 << iota
	lockState
	lockHandle
	lockSettings
	lockPosition
	lockControl
	//
	lockAll = lockPlaylist | lockState | lockHandle | lockSettings | lockPosition | lockControl
)

// Player is the per-guild playback aggregate
//
// Each field group has its own lock and multi-field operations go through
// withLocks so the acquisition order is always
// playlist, state, handle, settings, position, control.
type Player struct {
	guildID string
	log     zerolog.Logger
	deps    Deps

	initMu      sync.Mutex
	initialized bool

	// seqMu serializes enqueue sequences so a playlist expansion is contiguous
	seqMu  sync.Mutex
	nextID uint64

	playlistMu sync.RWMutex
	playlist   Playlist

	stateMu sync.RWMutex
	state   State

	handleMu sync.RWMutex
	handle   TrackHandle

	settingsMu sync.RWMutex
	settings   Settings

	positionMu sync.RWMutex
	position   Position

	controlMu sync.Mutex
	control   io.WriteCloser
}

func NewPlayer(guildID string, deps Deps) *Player {
	if deps.Recorder == nil {
		deps.Recorder = nopRecorder{}
	}

	if deps.StoreTimeout <= 0 {
		deps.StoreTimeout = 3 * time.Second
	}

	return &Player{
		guildID:  guildID,
		log:      logging.Guild(guildID),
		deps:     deps,
		state:    StateEnded,
		settings: DefaultSettings(),
	}
}

func (p *Player) GuildID() string {
	return p.guildID
}

// withLocks write-locks the fields in w and read-locks the ones in r, always
// in declaration order, and releases them in reverse once fn returns
func (p *Player) withLocks(w, r lockSet, f func() error) error {

	type rw struct {
		lock   func()
		unlock func()
	}

	order := [...]struct {
		bit lockSet
		w   rw
		r   rw
	}{
		{lockPlaylist, rw{p.playlistMu.Lock, p.playlistMu.Unlock}, rw{p.playlistMu.RLock, p.playlistMu.RUnlock}},
		{lockState, rw{p.stateMu.Lock, p.stateMu.Unlock}, rw{p.stateMu.RLock, p.stateMu.RUnlock}},
		{lockHandle, rw{p.handleMu.Lock, p.handleMu.Unlock}, rw{p.handleMu.RLock, p.handleMu.RUnlock}},
		{lockSettings, rw{p.settingsMu.Lock, p.settingsMu.Unlock}, rw{p.settingsMu.RLock, p.settingsMu.RUnlock}},
		{lockPosition, rw{p.positionMu.Lock, p.positionMu.Unlock}, rw{p.positionMu.RLock, p.positionMu.RUnlock}},
		{lockControl, rw{p.controlMu.Lock, p.controlMu.Unlock}, rw{p.controlMu.Lock, p.controlMu.Unlock}},
	}

	for i := range order {
		v := &order[i]

		var l rw
		switch {
		case w&v.bit != 0:
			l = v.w
		case r&v.bit != 0:
			l = v.r
		default:
			continue
		}

		l.lock()
		defer l.unlock()
	}

	return f()
}

func (p *Player) setState(ctx context.Context, s State) {
	if p.state == s {
		return
	}

	p.deps.Recorder.Transition(ctx, p.state.String(), s.String())
	p.log.Debug().
		Str("from", p.state.String()).
		Str("to", s.String()).
		Msg("player state changed")

	p.state = s
}

// Initialize loads the guild's settings once, writing defaults when none exist
func (p *Player) Initialize(ctx context.Context) error {
	p.initMu.Lock()
	defer p.initMu.Unlock()

	if p.initialized || p.deps.Store == nil {
		p.initialized = true
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.deps.StoreTimeout)
	defer cancel()

	s, err := p.deps.Store.LoadSettings(ctx, p.guildID)
	if errors.Is(err, ErrSettingsNotFound) {
		s = DefaultSettings()
		err = p.deps.Store.SaveSettings(ctx, p.guildID, s)
	}

	if err != nil {
		// keep playing on defaults and retry the store on the next command
		p.log.Warn().Err(err).Msg("failed to load player settings")
		return nil
	}

	if verr := s.Validate(); verr != nil {
		p.log.Warn().Err(verr).Msg("stored player settings out of range, using defaults")
		s = DefaultSettings()
	}

	p.settingsMu.Lock()
	p.settings = s
	p.settingsMu.Unlock()

	p.initialized = true

	return nil
}

// startTrack spawns a pipeline for t and hands its audio to the voice connection
//
// Must be called with playlist, state, handle, position and control write-locked
// and settings at least read-locked.
func (p *Player) startTrack(ctx context.Context, t Track, offset float64) error {
	conn, ok := p.deps.Transport.Connection(p.guildID)
	if !ok {
		return errors.WithStack(ErrNotConnected)
	}

	pl, err := p.deps.Spawner.Spawn(PipelineRequest{
		URL:    t.URL,
		Start:  offset,
		Filter: p.settings.FilterChain(),
	})
	p.deps.Recorder.Spawn(ctx, err)
	if err != nil {
		return errors.Wrapf(ErrTransport, "spawn pipeline: %v", err)
	}

	h, err := conn.Play(pl.Audio)
	if err != nil {
		_ = pl.Control.Close()
		_ = pl.Audio.Close()

		return errors.Wrapf(ErrTransport, "play: %v", err)
	}

	p.closeControl()

	p.playlist.SetCurrent(t)
	p.handle = h
	p.control = pl.Control
	p.position = PositionAt(offset)

	p.log.Info().
		Uint64("track_id", t.ID).
		Str("url", t.URL).
		Float64("offset", offset).
		Str("handle", h.ID().String()).
		Msg("track started")

	return nil
}

func (p *Player) closeControl() {
	if p.control == nil {
		return
	}

	if err := p.control.Close(); err != nil {
		p.log.Debug().Err(err).Msg("closing pipeline control stream")
	}

	p.control = nil
}

// writeControl pushes a live parameter change; controlMu must be held
func (p *Player) writeControl(cmd string) {
	if p.control == nil {
		return
	}

	if _, err := io.WriteString(p.control, cmd); err != nil {
		p.log.Warn().Err(err).Str("command", cmd).Msg("failed to write pipeline control command")
	}
}

// Enqueue assigns the next track id and either starts playback or appends to the queue
func (p *Player) Enqueue(ctx context.Context, t Track) (Track, error) {
	p.seqMu.Lock()
	defer p.seqMu.Unlock()

	return p.enqueue(ctx, t)
}

// Queuer adds tracks inside a Batch
type Queuer interface {
	Enqueue(ctx context.Context, t Track) (Track, error)
}

type batchQueuer struct {
	p *Player
}

func (b batchQueuer) Enqueue(ctx context.Context, t Track) (Track, error) {
	return b.p.enqueue(ctx, t)
}

// Batch holds the enqueue sequence for the whole of f so the tracks it adds stay contiguous
func (p *Player) Batch(ctx context.Context, f func(ctx context.Context, q Queuer) error) error {
	p.seqMu.Lock()
	defer p.seqMu.Unlock()

	return f(ctx, batchQueuer{p})
}

func (p *Player) enqueue(ctx context.Context, t Track) (_ Track, err error) {
	defer func() { p.deps.Recorder.Command(ctx, "enqueue", err) }()

	p.nextID++
	t.ID = p.nextID

	err = p.withLocks(lockPlaylist|lockState|lockHandle|lockPosition|lockControl, lockSettings, func() error {
		if p.state != StateEnded {
			p.playlist.Push(t)
			return nil
		}

		if err := p.startTrack(ctx, t, 0); err != nil {
			return err
		}

		p.setState(ctx, StatePlaying)

		return nil
	})
	if err != nil {
		return Track{}, err
	}

	return t.Clone(), nil
}

func (p *Player) seek(ctx context.Context, op string, offset float64) (err error) {
	defer func() { p.deps.Recorder.Command(ctx, op, err) }()

	if offset < 0 {
		return errors.Wrap(ErrInvalidArgument, "offset must not be negative")
	}

	return p.withLocks(lockState|lockPosition, lockHandle, func() error {
		if p.handle == nil {
			return errors.Wrap(ErrNotFound, "no active player")
		}

		if p.state != StatePlaying && p.state != StatePaused {
			return errors.Wrapf(ErrConflict, "cannot %s while %s", op, p.state)
		}

		if err := p.handle.Stop(); err != nil {
			return errors.Wrapf(ErrTransport, "failed to %s: %v", op, err)
		}

		p.setState(ctx, StateSeeking)
		p.position = PositionAt(offset)

		return nil
	})
}

// Seek restarts the current track at offset seconds once the transport reports the stop
func (p *Player) Seek(ctx context.Context, offset float64) error {
	return p.seek(ctx, "seek", offset)
}

// Move is Seek under the name the chat front-end exposes
func (p *Player) Move(ctx context.Context, offset float64) error {
	return p.seek(ctx, "move", offset)
}

// Skip stops the current track when id is nil or names it; otherwise removes
// the queued track with that id
func (p *Player) Skip(ctx context.Context, id *uint64) (err error) {
	defer func() { p.deps.Recorder.Command(ctx, "skip", err) }()

	return p.withLocks(lockPlaylist|lockState, lockHandle, func() error {
		switch p.state {
		case StatePlaying, StatePaused, StateSeeking:
		default:
			return errors.Wrapf(ErrConflict, "cannot skip while %s", p.state)
		}

		cur, hasCur := p.playlist.Current()
		if id == nil || (hasCur && cur.ID == *id) {
			if p.handle == nil {
				return errors.Wrap(ErrNotFound, "no active player")
			}

			if err := p.handle.Stop(); err != nil {
				return errors.Wrapf(ErrTransport, "failed to skip: %v", err)
			}

			p.setState(ctx, StateInSkip)

			return nil
		}

		if !p.playlist.Remove(*id) {
			return errors.Wrapf(ErrNotFound, "track %d", *id)
		}

		return nil
	})
}

func (p *Player) Pause(ctx context.Context) (err error) {
	defer func() { p.deps.Recorder.Command(ctx, "pause", err) }()

	return p.withLocks(lockState, lockHandle, func() error {
		if p.handle == nil || (p.state != StatePlaying && p.state != StatePaused) {
			return errors.Wrap(ErrConflict, "player is not playing")
		}

		if err := p.handle.Pause(); err != nil {
			return errors.Wrapf(ErrTransport, "failed to pause: %v", err)
		}

		p.setState(ctx, StatePaused)

		return nil
	})
}

func (p *Player) Resume(ctx context.Context) (err error) {
	defer func() { p.deps.Recorder.Command(ctx, "resume", err) }()

	return p.withLocks(lockState, lockHandle, func() error {
		if p.handle == nil || (p.state != StatePlaying && p.state != StatePaused) {
			return errors.Wrap(ErrConflict, "player is not playing")
		}

		if err := p.handle.Resume(); err != nil {
			return errors.Wrapf(ErrTransport, "failed to resume: %v", err)
		}

		p.setState(ctx, StatePlaying)

		return nil
	})
}

// Clear stops playback and resets the player to Ended, keeping settings
func (p *Player) Clear(ctx context.Context) {
	p.deps.Recorder.Command(ctx, "clear", nil)

	_ = p.withLocks(lockAll, 0, func() error {
		if p.handle != nil {
			if err := p.handle.Stop(); err != nil {
				p.log.Warn().Err(err).Msg("failed to stop track while clearing")
			}
		}

		p.playlist.Reset()
		p.position = Position{}
		p.handle = nil
		p.closeControl()
		p.setState(ctx, StateEnded)

		return nil
	})
}

// Disconnect clears the player and leaves the voice channel
func (p *Player) Disconnect(ctx context.Context) error {
	p.Clear(ctx)

	if err := p.deps.Transport.Leave(p.guildID); err != nil {
		return errors.Wrapf(ErrTransport, "leave voice channel: %v", err)
	}

	return nil
}

func (p *Player) State() State {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()

	return p.state
}

func (p *Player) Settings() Settings {
	p.settingsMu.RLock()
	defer p.settingsMu.RUnlock()

	return p.settings
}

func (p *Player) Repeat() RepeatMode {
	return p.Settings().Repeat
}

// Position reports the logical offset into the current track in seconds
//
// While seeking the installed handle is the stopped track, so the seek target
// is reported as is.
func (p *Player) Position(ctx context.Context) (float64, error) {
	var (
		h       TrackHandle
		seeking bool
		target  time.Duration
	)
	_ = p.withLocks(0, lockState|lockHandle|lockPosition, func() error {
		h = p.handle
		seeking = p.state == StateSeeking
		target = p.position.Last
		return nil
	})

	if h == nil {
		return 0, errors.Wrap(ErrNotFound, "no active player")
	}

	if seeking {
		return target.Seconds(), nil
	}

	// transport info is queried without holding any player lock
	info, err := h.Info()
	if err != nil {
		return 0, errors.Wrapf(ErrTransport, "track info: %v", err)
	}

	var result time.Duration
	_ = p.withLocks(0, lockSettings|lockPosition, func() error {
		result = p.position.At(info.Position, p.settings.Speed)
		return nil
	})

	return result.Seconds(), nil
}

type Snapshot struct {
	State    State
	Current  *Track
	Queue    []Track
	Settings Settings
}

func (p *Player) Snapshot() Snapshot {
	var s Snapshot

	_ = p.withLocks(0, lockPlaylist|lockState|lockSettings, func() error {
		s.State = p.state
		if cur, ok := p.playlist.Current(); ok {
			s.Current = &cur
		}
		s.Queue = p.playlist.Tracks()
		s.Settings = p.settings

		return nil
	})

	return s
}

// persist saves next; failures are logged and otherwise ignored
//
// settingsMu must be write-locked.
func (p *Player) persist(ctx context.Context, next Settings) {
	if p.deps.Store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.deps.StoreTimeout)
	defer cancel()

	if err := p.deps.Store.SaveSettings(ctx, p.guildID, next); err != nil {
		p.log.Warn().Err(err).Msg("failed to persist player settings")
	}
}

// updateSettings persists, applies and then pushes cmd to a live pipeline
func (p *Player) updateSettings(ctx context.Context, op string, mutate func(s *Settings) string) {
	p.deps.Recorder.Command(ctx, op, nil)

	_ = p.withLocks(lockSettings|lockControl, 0, func() error {
		next := p.settings
		cmd := mutate(&next)

		p.persist(ctx, next)
		p.settings = next

		if cmd != "" {
			p.writeControl(cmd)
		}

		return nil
	})
}

func (p *Player) SetVolume(ctx context.Context, v float64) error {
	if err := ValidateVolume(v); err != nil {
		return err
	}

	p.updateSettings(ctx, "volume", func(s *Settings) string {
		s.Volume = v
		return VolumeCommand(v)
	})

	return nil
}

// SetSpeed folds the time played at the old speed into the position before switching
func (p *Player) SetSpeed(ctx context.Context, v float64) error {
	if err := ValidateSpeed(v); err != nil {
		return err
	}

	p.deps.Recorder.Command(ctx, "speed", nil)

	p.handleMu.RLock()
	h := p.handle
	p.handleMu.RUnlock()

	var info *TrackInfo
	if h != nil {
		if ti, err := h.Info(); err != nil {
			p.log.Debug().Err(err).Msg("speed change without transport position")
		} else {
			info = &ti
		}
	}

	return p.withLocks(lockSettings|lockPosition|lockControl, lockHandle, func() error {
		// only reconcile against the handle the info came from
		if info != nil && p.handle == h {
			p.position.Reconcile(info.Position, p.settings.Speed)
		}

		next := p.settings
		next.Speed = v

		p.persist(ctx, next)
		p.settings = next
		p.writeControl(TempoCommand(v))

		return nil
	})
}

func (p *Player) SetBass(ctx context.Context, enabled bool, gain *float64) error {
	if gain != nil {
		if err := ValidateBassGain(*gain); err != nil {
			return err
		}
	}

	p.updateSettings(ctx, "bass", func(s *Settings) string {
		s.BassEnabled = enabled
		if gain != nil {
			s.BassGain = *gain
		}

		return BassCommand(*s)
	})

	return nil
}

func (p *Player) SetEqualizerBand(ctx context.Context, b Band, gain float64) error {
	if b < 0 || b >= NumBands {
		return errors.Wrapf(ErrInvalidArgument, "unknown equalizer band %d", b)
	}

	if err := ValidateEqualizerGain(gain); err != nil {
		return err
	}

	p.updateSettings(ctx, "equalizer", func(s *Settings) string {
		s.Equalizer[b] = gain
		return EqualizerCommand(b, gain)
	})

	return nil
}

func (p *Player) SetRepeat(ctx context.Context, m RepeatMode) error {
	if m < RepeatOff || m > RepeatQueue {
		return errors.Wrapf(ErrInvalidArgument, "unknown repeat mode %d", m)
	}

	p.updateSettings(ctx, "repeat", func(s *Settings) string {
		s.Repeat = m
		return ""
	})

	return nil
}
