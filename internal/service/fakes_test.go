package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type fakeHandle struct {
	mu       sync.Mutex
	id       uuid.UUID
	src      io.ReadCloser
	stopped  int
	paused   bool
	position time.Duration
	failStop bool
}

func (h *fakeHandle) ID() uuid.UUID { return h.id }

func (h *fakeHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.failStop {
		return errors.New("stop refused")
	}

	h.stopped++

	return nil
}

func (h *fakeHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.paused = true

	return nil
}

func (h *fakeHandle) Resume() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.paused = false

	return nil
}

func (h *fakeHandle) Info() (TrackInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return TrackInfo{Position: h.position, Paused: h.paused}, nil
}

func (h *fakeHandle) stopCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.stopped
}

type fakeConn struct {
	mu      sync.Mutex
	handles []*fakeHandle
	noops   int
}

func (c *fakeConn) Play(src io.ReadCloser) (TrackHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := &fakeHandle{id: uuid.New(), src: src}
	c.handles = append(c.handles, h)

	return h, nil
}

func (c *fakeConn) PlayNoop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.noops++

	return nil
}

func (c *fakeConn) last() *fakeHandle {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.handles) == 0 {
		return nil
	}

	return c.handles[len(c.handles)-1]
}

type fakeTransport struct {
	conn      *fakeConn
	connected bool
	left      int
}

func (t *fakeTransport) Connection(string) (Connection, bool) {
	if !t.connected {
		return nil, false
	}

	return t.conn, true
}

func (t *fakeTransport) Leave(string) error {
	t.left++
	t.connected = false

	return nil
}

type controlBuffer struct {
	bytes.Buffer
	closed bool
}

func (b *controlBuffer) Close() error {
	b.closed = true
	return nil
}

type fakeSpawner struct {
	mu       sync.Mutex
	requests []PipelineRequest
	controls []*controlBuffer
	failURL  string
}

func (s *fakeSpawner) Spawn(req PipelineRequest) (*Pipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failURL != "" && req.URL == s.failURL {
		return nil, errors.New("ffmpeg exploded")
	}

	s.requests = append(s.requests, req)

	ctl := &controlBuffer{}
	s.controls = append(s.controls, ctl)

	return &Pipeline{
		Control: ctl,
		Audio:   io.NopCloser(strings.NewReader("")),
	}, nil
}

func (s *fakeSpawner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.requests)
}

func (s *fakeSpawner) lastRequest() PipelineRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.requests[len(s.requests)-1]
}

func (s *fakeSpawner) lastControl() *controlBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.controls[len(s.controls)-1]
}

type fakeStore struct {
	mu    sync.Mutex
	rows  map[string]Settings
	saves int
	fail  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]Settings{}}
}

func (s *fakeStore) LoadSettings(_ context.Context, guildID string) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail {
		return Settings{}, errors.New("store unreachable")
	}

	v, ok := s.rows[guildID]
	if !ok {
		return Settings{}, ErrSettingsNotFound
	}

	return v, nil
}

func (s *fakeStore) SaveSettings(_ context.Context, guildID string, v Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saves++

	if s.fail {
		return errors.New("store unreachable")
	}

	s.rows[guildID] = v

	return nil
}

type fakeRecorder struct {
	nopRecorder
	mu          sync.Mutex
	transitions []string
	stale       int
}

func (r *fakeRecorder) Transition(_ context.Context, from, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.transitions = append(r.transitions, from+">"+to)
}

func (r *fakeRecorder) StaleSignal(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stale++
}

type harness struct {
	player    *Player
	transport *fakeTransport
	spawner   *fakeSpawner
	store     *fakeStore
	recorder  *fakeRecorder
}

func newHarness() *harness {
	h := &harness{
		transport: &fakeTransport{conn: &fakeConn{}, connected: true},
		spawner:   &fakeSpawner{},
		store:     newFakeStore(),
		recorder:  &fakeRecorder{},
	}

	h.player = NewPlayer("guild-1", Deps{
		Transport:    h.transport,
		Spawner:      h.spawner,
		Store:        h.store,
		StoreTimeout: time.Second,
		Recorder:     h.recorder,
	})

	return h
}

// endCurrent delivers the track-ended signal for the most recent handle
func (h *harness) endCurrent() {
	h.player.TrackEnded(context.Background(), h.transport.conn.last().ID())
}

func track(url string) Track {
	title := strings.TrimPrefix(url, "https://example.com/")

	return Track{
		Title:      &title,
		URL:        url,
		WebpageURL: url,
		Origin:     OriginYtDl,
	}
}
