package voice

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

var ErrTrackEnded = errors.New("track already ended")

// track is the handle the sender goroutine and the player share
type track struct {
	id  uuid.UUID
	src io.ReadCloser

	closeOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}

	mutex sync.Mutex
	// gate is non-nil while paused, closed on resume
	gate chan struct{}

	frames atomic.Int64
}

func newTrack(src io.ReadCloser) *track {
	return &track{
		id:   uuid.New(),
		src:  src,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (t *track) ID() uuid.UUID {
	return t.id
}

func (t *track) ended() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Stop ends the track, the sender closes out asynchronously
func (t *track) Stop() error {
	t.stopOnce.Do(func() {
		close(t.stop)
	})

	// unblock a sender waiting on the source
	t.closeSource()

	return nil
}

func (t *track) closeSource() {
	t.closeOnce.Do(func() {
		ignoredErr := t.src.Close()
		_ = ignoredErr
	})
}

func (t *track) Pause() error {
	if t.ended() {
		return ErrTrackEnded
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.gate == nil {
		t.gate = make(chan struct{})
	}

	return nil
}

func (t *track) Resume() error {
	if t.ended() {
		return ErrTrackEnded
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.gate != nil {
		close(t.gate)
		t.gate = nil
	}

	return nil
}

func (t *track) paused() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.gate != nil
}

// wait blocks while paused, false means the track was stopped
func (t *track) wait() bool {
	t.mutex.Lock()
	gate := t.gate
	t.mutex.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-t.stop:
			return false
		}
	}

	select {
	case <-t.stop:
		return false
	default:
		return true
	}
}

func (t *track) Info() (service.TrackInfo, error) {
	return service.TrackInfo{
		Position: time.Duration(t.frames.Load()) * FrameDuration,
		Paused:   t.paused(),
	}, nil
}
