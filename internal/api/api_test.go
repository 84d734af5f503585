package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
	"github.com/josephcopenhaver/cadence-bot/internal/store"
)

type fakeDirectory struct {
	guilds   map[string]bool
	channels map[string]*discordgo.Channel
}

func (d *fakeDirectory) HasGuild(guildID string) bool {
	return d.guilds[guildID]
}

func (d *fakeDirectory) Channel(guildID, channelID string) (*discordgo.Channel, bool) {
	c, ok := d.channels[channelID]
	if !ok || c.GuildID != guildID {
		return nil, false
	}

	return c, true
}

type fakeHandle struct {
	id uuid.UUID
}

func (h *fakeHandle) ID() uuid.UUID { return h.id }
func (h *fakeHandle) Stop() error   { return nil }
func (h *fakeHandle) Pause() error  { return nil }
func (h *fakeHandle) Resume() error { return nil }

func (h *fakeHandle) Info() (service.TrackInfo, error) {
	return service.TrackInfo{}, nil
}

type fakeConn struct{}

func (fakeConn) Play(io.ReadCloser) (service.TrackHandle, error) {
	return &fakeHandle{id: uuid.New()}, nil
}

func (fakeConn) PlayNoop() error { return nil }

type fakeVoice struct {
	mu       sync.Mutex
	channels map[string]string
}

func (v *fakeVoice) Join(_ context.Context, guildID, channelID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.channels[guildID] = channelID

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

type fakePasswords map[string]string

func (p fakePasswords) SetPassword(_ context.Context, userID, hash string) error {
	p[userID] = hash
	return nil
}

func (p fakePasswords) PasswordHash(_ context.Context, userID string) (string, error) {
	h, ok := p[userID]
	if !ok {
		return "", store.ErrUserNotFound
	}

	return h, nil
}

type harness struct {
	voice    *fakeVoice
	registry *service.Registry
	handler  http.Handler
}

func newHarness(auth bool, passwords fakePasswords) *harness {
	h := &harness{
		voice: &fakeVoice{channels: map[string]string{}},
	}

	h.registry = service.NewRegistry(service.Deps{
		Transport: h.voice,
		Spawner:   fakeSpawner{},
	})

	a, err := New(Config{
		Registry: h.registry,
		Directory: &fakeDirectory{
			guilds: map[string]bool{"g1": true},
			channels: map[string]*discordgo.Channel{
				"v1": {ID: "v1", GuildID: "g1", Type: discordgo.ChannelTypeGuildVoice},
				"t1": {ID: "t1", GuildID: "g1", Type: discordgo.ChannelTypeGuildText},
			},
		},
		Voice:          h.voice,
		Passwords:      passwords,
		AuthEnabled:    auth,
		MetricsHandler: http.NotFoundHandler(),
	})
	if err != nil {
		panic(err)
	}

	h.handler = a.Handler()

	return h
}

func (h *harness) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	return rec
}

const trackJSON = `{"title":"one","url":"https://cdn.example.com/one.webm","webpage_url":"https://example.com/one","parser_type":"YtDl","author":{"verified":false},"chapters":[]}`

func TestPlaylistRoutes(t *testing.T) {
	Convey("Given an api without auth", t, func() {
		h := newHarness(false, nil)

		Convey("unknown guilds are not found", func() {
			rec := h.do(http.MethodGet, "/api/nope/state", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(rec.Body.String(), ShouldEqual, "Guild not found")
		})

		Convey("adding before joining is a conflict", func() {
			rec := h.do(http.MethodPost, "/api/g1/playlist", trackJSON)
			So(rec.Code, ShouldEqual, http.StatusConflict)
			So(rec.Body.String(), ShouldEqual, "Join a channel first")
		})

		Convey("invalid tracks are rejected", func() {
			h.voice.channels["g1"] = "v1"

			rec := h.do(http.MethodPost, "/api/g1/playlist", `{"url":"not a url"}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)

			rec = h.do(http.MethodPost, "/api/g1/playlist", `{`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("once joined", func() {
			rec := h.do(http.MethodGet, "/api/g1/channel/join/v1", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldEqual, "ok")

			rec = h.do(http.MethodGet, "/api/g1/state", "")
			So(rec.Body.String(), ShouldEqual, `"ended"`)

			rec = h.do(http.MethodPost, "/api/g1/playlist", trackJSON)
			So(rec.Code, ShouldEqual, http.StatusOK)

			var got service.Track
			So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
			So(got.ID, ShouldEqual, 1)
			So(got.DisplayTitle(), ShouldEqual, "one")

			Convey("the state is playing", func() {
				rec := h.do(http.MethodGet, "/api/g1/state", "")
				So(rec.Body.String(), ShouldEqual, `"playing"`)

				rec = h.do(http.MethodPost, "/api/g1/state/pause", "")
				So(rec.Body.String(), ShouldEqual, "Paused playing")

				rec = h.do(http.MethodGet, "/api/g1/state", "")
				So(rec.Body.String(), ShouldEqual, `"paused"`)

				rec = h.do(http.MethodPost, "/api/g1/state/resume", "")
				So(rec.Body.String(), ShouldEqual, "Resumed playing")
			})

			Convey("the position is reported in seconds", func() {
				rec := h.do(http.MethodGet, "/api/g1/seek", "")
				So(rec.Code, ShouldEqual, http.StatusOK)

				var pos float64
				So(json.Unmarshal(rec.Body.Bytes(), &pos), ShouldBeNil)
				So(pos, ShouldAlmostEqual, 0.2)
			})

			Convey("seek moves to the offset", func() {
				rec := h.do(http.MethodPost, "/api/g1/seek/42.5", "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldEqual, "Seeked")

				p, _ := h.registry.Lookup("g1")
				So(p.State(), ShouldEqual, service.StateSeeking)

				rec = h.do(http.MethodPost, "/api/g1/seek/abc", "")
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("settings are range checked", func() {
				rec := h.do(http.MethodPost, "/api/g1/settings/volume/2", "")
				So(rec.Code, ShouldEqual, http.StatusOK)

				rec = h.do(http.MethodPost, "/api/g1/settings/speed/9", "")
				So(rec.Code, ShouldEqual, http.StatusBadRequest)

				p, _ := h.registry.Lookup("g1")
				So(p.Settings().Volume, ShouldEqual, 2)
				So(p.Settings().Speed, ShouldEqual, 1)
			})

			Convey("the playlist is listed and skipped", func() {
				rec := h.do(http.MethodPost, "/api/g1/playlist", trackJSON)
				So(rec.Code, ShouldEqual, http.StatusOK)

				rec = h.do(http.MethodGet, "/api/g1/playlist", "")
				var view playlistView
				So(json.Unmarshal(rec.Body.Bytes(), &view), ShouldBeNil)
				So(view.State, ShouldEqual, "playing")
				So(view.Current.ID, ShouldEqual, 1)
				So(len(view.Queue), ShouldEqual, 1)

				rec = h.do(http.MethodPost, "/api/g1/skip/2", "")
				So(rec.Code, ShouldEqual, http.StatusOK)

				rec = h.do(http.MethodPost, "/api/g1/skip/9", "")
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("pause with nothing playing is a conflict", func() {
			rec := h.do(http.MethodPost, "/api/g1/state/pause", "")
			So(rec.Code, ShouldEqual, http.StatusConflict)
			So(rec.Body.String(), ShouldEqual, "Player is not playing")
		})

		Convey("the position without a track is not found", func() {
			rec := h.do(http.MethodGet, "/api/g1/seek", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(rec.Body.String(), ShouldEqual, "Player handler not found")
		})

		Convey("seek without a track fails", func() {
			rec := h.do(http.MethodPost, "/api/g1/seek/10", "")
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(rec.Body.String(), ShouldEqual, "Player not found")
		})

		Convey("join checks the channel", func() {
			rec := h.do(http.MethodGet, "/api/g1/channel/join/t1", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(rec.Body.String(), ShouldEqual, "Invalid channel type")

			rec = h.do(http.MethodGet, "/api/g1/channel/join/x", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestBasicAuth(t *testing.T) {
	Convey("Given an api with auth", t, func() {
		hash, err := store.HashPassword("hunter2hunter2")
		So(err, ShouldBeNil)

		h := newHarness(true, fakePasswords{"u1": hash})

		request := func(user, pw string) int {
			req := httptest.NewRequest(http.MethodGet, "/api/g1/state", nil)
			if user != "" {
				req.SetBasicAuth(user, pw)
			}

			rec := httptest.NewRecorder()
			h.handler.ServeHTTP(rec, req)

			return rec.Code
		}

		So(request("", ""), ShouldEqual, http.StatusUnauthorized)
		So(request("u1", "wrong"), ShouldEqual, http.StatusUnauthorized)
		So(request("u2", "hunter2hunter2"), ShouldEqual, http.StatusUnauthorized)
		So(request("u1", "hunter2hunter2"), ShouldEqual, http.StatusOK)
	})

	Convey("auth requires a password store", t, func() {
		_, err := New(Config{
			Registry:    service.NewRegistry(service.Deps{}),
			Directory:   &fakeDirectory{},
			Voice:       &fakeVoice{},
			AuthEnabled: true,
		})
		So(err, ShouldNotBeNil)
	})
}
