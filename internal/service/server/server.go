package server

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
	"github.com/josephcopenhaver/cadence-bot/internal/service/handlers"
)

type EventHandlers struct {
	MessageCreate []handlers.HandleMessageCreate
}

// Closer is anything that must be shut down after the discord session
type Closer interface {
	Close() error
}

type Server struct {
	// ctx is canceled when serving stops so long running commands give up
	ctx            context.Context
	DiscordSession *discordgo.Session
	EventHandlers  EventHandlers
	Registry       *service.Registry
	Tasks          *handlers.SerialTaskRunner
	// Voice is closed before the discord session so every voice connection
	// gets to disconnect cleanly
	Voice Closer
}

func New() *Server {
	return &Server{
		EventHandlers: EventHandlers{
			MessageCreate: []handlers.HandleMessageCreate{},
		},
		Tasks: handlers.NewSerialTaskRunner(128),
		ctx:   context.Background(),
	}
}

func (s *Server) ListenAndServe(ctx context.Context) (err_result error) {

	if err := ctx.Err(); err != nil {
		return err
	}

	s.ctx = ctx

	s.Tasks.Start(ctx)
	defer func() {
		log.Warn().
			Msg("waiting for background tasks to terminate")

		s.Tasks.Wait()
	}()

	// open a connection to discord
	if err := s.DiscordSession.Open(); err != nil {
		return err
	}
	defer func() {
		log.Warn().
			Msg("waiting for discord session to close")

		err_result = errors.Join(err_result, s.DiscordSession.Close())
	}()

	defer func() {
		if s.Voice == nil {
			return
		}

		log.Warn().
			Msg("waiting for all voice connections to close")

		err_result = errors.Join(err_result, s.Voice.Close())
	}()

	log.Info().
		Msg("listening")

	<-ctx.Done()

	return nil // fake return, err_result can be set elsewhere
}
