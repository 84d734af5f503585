package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/josephcopenhaver/cadence-bot/internal/logging"
	"github.com/josephcopenhaver/cadence-bot/internal/observe"
	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

type ctxKey int

const playerKey ctxKey = iota

func (a *API) routes() {
	a.router.Use(observe.Middleware(a.conf.Metrics))

	a.router.Handle("/metrics", a.conf.MetricsHandler).Methods(http.MethodGet)

	g := a.router.PathPrefix("/api/{guild_id}").Subrouter()
	g.Use(a.basicAuth, a.guildPlayer)

	g.HandleFunc("/playlist", a.addTrack).Methods(http.MethodPost)
	g.HandleFunc("/playlist", a.getPlaylist).Methods(http.MethodGet)
	g.HandleFunc("/seek", a.getPosition).Methods(http.MethodGet)
	g.HandleFunc("/seek/{value}", a.seek).Methods(http.MethodPost)
	g.HandleFunc("/state", a.getState).Methods(http.MethodGet)
	g.HandleFunc("/state/resume", a.resume).Methods(http.MethodPost)
	g.HandleFunc("/state/pause", a.pause).Methods(http.MethodPost)
	g.HandleFunc("/skip", a.skip).Methods(http.MethodPost)
	g.HandleFunc("/skip/{track_id:[0-9]+}", a.skip).Methods(http.MethodPost)
	g.HandleFunc("/settings/{name:volume|speed}/{value}", a.setting).Methods(http.MethodPost)
	g.HandleFunc("/channel/join/{channel_id}", a.join).Methods(http.MethodGet)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)

	_, err := w.Write([]byte(body))
	ignoredErr := err
	_ = ignoredErr
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		writeText(w, http.StatusInternalServerError, "Failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	_, err = w.Write(b)
	ignoredErr := err
	_ = ignoredErr
}

// writeError maps player error kinds to status codes
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeText(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotConnected):
		writeText(w, http.StatusConflict, "Join a channel first")
	case errors.Is(err, service.ErrConflict):
		writeText(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidArgument):
		writeText(w, http.StatusBadRequest, err.Error())
	default:
		log.Ctx(r.Context()).Err(err).
			Str("path", r.URL.Path).
			Msg("api request failed")

		writeText(w, http.StatusInternalServerError, err.Error())
	}
}

// guildPlayer rejects unknown guilds and attaches the guild's player and logger
func (a *API) guildPlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		guildID := mux.Vars(r)["guild_id"]

		if !a.conf.Directory.HasGuild(guildID) {
			writeText(w, http.StatusNotFound, "Guild not found")
			return
		}

		logger := logging.Guild(guildID)
		ctx := logger.WithContext(r.Context())

		p, err := a.conf.Registry.Initialize(ctx, guildID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx = context.WithValue(ctx, playerKey, p)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func player(r *http.Request) *service.Player {
	return r.Context().Value(playerKey).(*service.Player)
}

// webTrack is a track submitted by a client; the id is always assigned here
type webTrack struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Thumbnail   *string           `json:"thumbnail"`
	Author      service.Author    `json:"author"`
	URL         string            `json:"url"`
	Views       *int64            `json:"views"`
	Likes       *int64            `json:"likes"`
	Chapters    []service.Chapter `json:"chapters"`
	WebpageURL  string            `json:"webpage_url"`
	Duration    *float64          `json:"duration"`
	ParseTime   time.Time         `json:"parse_time"`
	Origin      service.Origin    `json:"parser_type"`
	EditDate    *time.Time        `json:"edit_date"`
}

func (t webTrack) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.URL, validation.Required, is.URL),
		validation.Field(&t.WebpageURL, validation.Required, is.URL),
		validation.Field(&t.Origin, validation.In(service.OriginYtDl, service.OriginFfprobe, service.OriginVk)),
		validation.Field(&t.Duration, validation.Min(0.0)),
	)
}

func (t webTrack) Track() service.Track {
	if t.ParseTime.IsZero() {
		t.ParseTime = time.Now().UTC()
	}

	return service.Track{
		Title:       t.Title,
		Description: t.Description,
		Thumbnail:   t.Thumbnail,
		Author:      t.Author,
		URL:         t.URL,
		Views:       t.Views,
		Likes:       t.Likes,
		Chapters:    t.Chapters,
		WebpageURL:  t.WebpageURL,
		Duration:    t.Duration,
		ParseTime:   t.ParseTime,
		Origin:      t.Origin,
		EditDate:    t.EditDate,
	}
}

func (a *API) addTrack(w http.ResponseWriter, r *http.Request) {
	p := player(r)

	var wt webTrack
	if err := json.NewDecoder(r.Body).Decode(&wt); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid track: "+err.Error())
		return
	}

	if err := wt.Validate(); err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	if a.conf.Voice.ChannelID(p.GuildID()) == "" {
		writeText(w, http.StatusConflict, "Join a channel first")
		return
	}

	t, err := p.Enqueue(r.Context(), wt.Track())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, t)
}

type playlistView struct {
	State   string          `json:"state"`
	Current *service.Track  `json:"current"`
	Queue   []service.Track `json:"queue"`
	Repeat  string          `json:"repeat"`
	Volume  float64         `json:"volume"`
	Speed   float64         `json:"speed"`
}

func (a *API) getPlaylist(w http.ResponseWriter, r *http.Request) {
	snap := player(r).Snapshot()

	queue := snap.Queue
	if queue == nil {
		queue = []service.Track{}
	}

	writeJSON(w, playlistView{
		State:   snap.State.Public(),
		Current: snap.Current,
		Queue:   queue,
		Repeat:  snap.Settings.Repeat.String(),
		Volume:  snap.Settings.Volume,
		Speed:   snap.Settings.Speed,
	})
}

func (a *API) getPosition(w http.ResponseWriter, r *http.Request) {
	pos, err := player(r).Position(r.Context())
	switch {
	case err == nil:
		writeJSON(w, pos)
	case errors.Is(err, service.ErrNotFound):
		writeText(w, http.StatusNotFound, "Player handler not found")
	default:
		log.Ctx(r.Context()).Err(err).Msg("failed to read player position")
		writeText(w, http.StatusInternalServerError, "Error getting player info")
	}
}

func (a *API) seek(w http.ResponseWriter, r *http.Request) {
	value, err := strconv.ParseFloat(mux.Vars(r)["value"], 64)
	if err != nil {
		writeText(w, http.StatusBadRequest, "Invalid seek value")
		return
	}

	err = player(r).Seek(r.Context(), value)
	switch {
	case err == nil:
		writeText(w, http.StatusOK, "Seeked")
	case errors.Is(err, service.ErrInvalidArgument):
		writeText(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrTransport):
		writeText(w, http.StatusInternalServerError, "Failed to seek")
	default:
		writeText(w, http.StatusInternalServerError, "Player not found")
	}
}

func (a *API) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, player(r).State().Public())
}

func (a *API) resume(w http.ResponseWriter, r *http.Request) {
	err := player(r).Resume(r.Context())
	switch {
	case err == nil:
		writeText(w, http.StatusOK, "Resumed playing")
	case errors.Is(err, service.ErrConflict):
		writeText(w, http.StatusConflict, "Player is not playing")
	default:
		writeText(w, http.StatusInternalServerError, "Failed to resume")
	}
}

func (a *API) pause(w http.ResponseWriter, r *http.Request) {
	err := player(r).Pause(r.Context())
	switch {
	case err == nil:
		writeText(w, http.StatusOK, "Paused playing")
	case errors.Is(err, service.ErrConflict):
		writeText(w, http.StatusConflict, "Player is not playing")
	default:
		writeText(w, http.StatusInternalServerError, "Failed to pause")
	}
}

func (a *API) skip(w http.ResponseWriter, r *http.Request) {
	var id *uint64
	if s, ok := mux.Vars(r)["track_id"]; ok {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			writeText(w, http.StatusBadRequest, "Invalid track id")
			return
		}
		id = &v
	}

	if err := player(r).Skip(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeText(w, http.StatusOK, "Skipped")
}

func (a *API) setting(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	value, err := strconv.ParseFloat(vars["value"], 64)
	if err != nil {
		writeText(w, http.StatusBadRequest, "Invalid "+vars["name"]+" value")
		return
	}

	p := player(r)
	if vars["name"] == "volume" {
		err = p.SetVolume(r.Context(), value)
	} else {
		err = p.SetSpeed(r.Context(), value)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeText(w, http.StatusOK, "ok")
}

func (a *API) join(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	guildID := vars["guild_id"]

	c, ok := a.conf.Directory.Channel(guildID, vars["channel_id"])
	if !ok {
		writeText(w, http.StatusNotFound, "Channel not found")
		return
	}

	if c.Type != discordgo.ChannelTypeGuildVoice {
		writeText(w, http.StatusBadRequest, "Invalid channel type")
		return
	}

	if err := a.conf.Voice.Join(r.Context(), guildID, c.ID); err != nil {
		writeText(w, http.StatusInternalServerError, "Failed to join channel: "+err.Error())
		return
	}

	writeText(w, http.StatusOK, "ok")
}
