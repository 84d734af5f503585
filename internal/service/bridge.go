package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// TrackEnded advances the player after the transport stopped the track with handle id
//
// Signals for any handle other than the one installed are stale and dropped.
func (p *Player) TrackEnded(ctx context.Context, id uuid.UUID) {
	_ = p.withLocks(lockPlaylist|lockState|lockHandle|lockPosition|lockControl, lockSettings, func() error {
		if p.handle == nil || p.handle.ID() != id {
			p.deps.Recorder.StaleSignal(ctx)
			p.log.Debug().
				Str("handle", id.String()).
				Msg("ignoring track end for superseded handle")

			return nil
		}

		switch p.state {
		case StateSeeking:
			cur, ok := p.playlist.Current()
			if !ok {
				p.advance(ctx, false)
				return nil
			}

			if err := p.startTrack(ctx, cur, p.position.Seconds()); err != nil {
				p.log.Err(err).Uint64("track_id", cur.ID).Msg("failed to restart track after seek")
				p.advance(ctx, false)

				return nil
			}

			p.setState(ctx, StatePlaying)
		case StateInSkip:
			p.advance(ctx, true)
		default:
			cur, ok := p.playlist.Current()
			if ok && p.settings.Repeat == RepeatTrack {
				err := p.startTrack(ctx, cur, 0)
				if err == nil {
					p.setState(ctx, StatePlaying)
					return nil
				}

				p.log.Err(err).Uint64("track_id", cur.ID).Msg("failed to repeat track")
			}

			p.advance(ctx, true)
		}

		return nil
	})
}

// advance pops the queue head into current and starts it; with recycle set
// and RepeatQueue on, the old current goes to the tail once a next track
// exists
//
// Tracks that fail to start are dropped; with nothing left the player ends.
func (p *Player) advance(ctx context.Context, recycle bool) {
	prev, hasPrev := p.playlist.Current()

	for {
		next, ok := p.playlist.Pop()
		if !ok {
			break
		}

		if recycle && hasPrev && p.settings.Repeat == RepeatQueue {
			p.playlist.Push(prev)
			hasPrev = false
		}

		err := p.startTrack(ctx, next, 0)
		if err == nil {
			p.setState(ctx, StatePlaying)
			return
		}

		p.log.Err(err).Uint64("track_id", next.ID).Msg("dropping track that failed to start")

		if errors.Is(err, ErrNotConnected) {
			break
		}
	}

	p.playlist.ClearCurrent()
	p.handle = nil
	p.position = Position{}
	p.closeControl()
	p.setState(ctx, StateEnded)
}

// DriverConnected activates a fresh voice connection by sending it silence
func (p *Player) DriverConnected(ctx context.Context) {
	conn, ok := p.deps.Transport.Connection(p.guildID)
	if !ok {
		return
	}

	if err := conn.PlayNoop(); err != nil {
		p.log.Warn().Err(err).Msg("failed to activate voice connection")
	}
}
