package service

import (
	"io"
	"time"

	"github.com/google/uuid"
)

type TrackInfo struct {
	// Position is how much audio the transport has sent for this handle
	Position time.Duration
	Paused   bool
}

// TrackHandle controls one track submitted to a voice connection
//
// Stopping a handle, or the source running dry, makes the transport deliver
// exactly one track-ended signal carrying ID().
type TrackHandle interface {
	ID() uuid.UUID
	Stop() error
	Pause() error
	Resume() error
	Info() (TrackInfo, error)
}

type Connection interface {
	// Play replaces whatever the connection is currently playing
	Play(src io.ReadCloser) (TrackHandle, error)
	// PlayNoop nudges an idle connection into its sending state
	PlayNoop() error
}

type Transport interface {
	Connection(guildID string) (Connection, bool)
	// Leave disconnects from the guild's voice channel, a no-op when not connected
	Leave(guildID string) error
}

// PipelineRequest parameterizes one transcoding process
type PipelineRequest struct {
	URL    string
	Start  float64
	Filter string
}

// Pipeline is a running transcoding process
//
// Closing Audio terminates the process.
type Pipeline struct {
	Control io.WriteCloser
	Audio   io.ReadCloser
}

type Spawner interface {
	Spawn(req PipelineRequest) (*Pipeline, error)
}
