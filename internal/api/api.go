// Package api serves the per-guild player over HTTP.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/josephcopenhaver/cadence-bot/internal/observe"
	"github.com/josephcopenhaver/cadence-bot/internal/service"
	"github.com/josephcopenhaver/cadence-bot/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Directory answers guild and channel lookups, usually from the discord state cache
type Directory interface {
	HasGuild(guildID string) bool
	Channel(guildID, channelID string) (*discordgo.Channel, bool)
}

type Voice interface {
	Join(ctx context.Context, guildID, channelID string) error
	ChannelID(guildID string) string
}

type Config struct {
	Registry  *service.Registry
	Directory Directory
	Voice     Voice
	Passwords store.PasswordStore
	Metrics   *observe.Metrics

	AuthEnabled bool
	// MetricsHandler defaults to the prometheus default registry
	MetricsHandler http.Handler
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Registry, validation.Required),
		validation.Field(&c.Directory, validation.Required),
		validation.Field(&c.Voice, validation.Required),
		validation.Field(&c.Passwords, validation.When(c.AuthEnabled, validation.Required)),
	)
}

type API struct {
	conf   Config
	router *mux.Router
}

func New(conf Config) (*API, error) {
	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid api config")
	}

	if conf.MetricsHandler == nil {
		conf.MetricsHandler = promhttp.Handler()
	}

	a := &API{
		conf:   conf,
		router: mux.NewRouter().StrictSlash(false),
	}

	a.routes()

	return a, nil
}

// Handler wraps the router with panic recovery and CORS
func (a *API) Handler() http.Handler {
	headersOk := handlers.AllowedHeaders([]string{"Authorization", "Content-Type"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions})

	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(true),
	)(handlers.CORS(originsOk, headersOk, methodsOk)(a.router))
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	log.Error().
		Interface("panic", v).
		Msg("recovered from panic in http handler")
}

// ListenAndServe blocks until ctx is done or the listener fails
func (a *API) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", addr).
			Msg("http api listening")

		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
