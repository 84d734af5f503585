package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/josephcopenhaver/cadence-bot/internal/api"
	"github.com/josephcopenhaver/cadence-bot/internal/logging"
	"github.com/josephcopenhaver/cadence-bot/internal/observe"
	"github.com/josephcopenhaver/cadence-bot/internal/resolver"
	"github.com/josephcopenhaver/cadence-bot/internal/service"
	"github.com/josephcopenhaver/cadence-bot/internal/service/config"
	"github.com/josephcopenhaver/cadence-bot/internal/service/handlers"
	"github.com/josephcopenhaver/cadence-bot/internal/service/server"
	"github.com/josephcopenhaver/cadence-bot/internal/serviceinfo"
	"github.com/josephcopenhaver/cadence-bot/internal/store"
	"github.com/josephcopenhaver/cadence-bot/internal/voice"
)

// rootContext returns a context that is canceled when the
// system process receives an interrupt, sigint, or sigterm
//
// Also returns a function that can be used to cancel the context.
func rootContext() (context.Context, func()) {

	ctx, cancel := context.WithCancel(context.Background())

	procDone := make(chan os.Signal, 1)

	signal.Notify(procDone, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer cancel()

		done := ctx.Done()

		requester := "unknown"
		select {
		case <-procDone:
			requester = "user"
		case <-done:
			requester = "process"
		}

		log.Warn().
			Str("requester", requester).
			Msg("shutdown requested")
	}()

	return ctx, cancel
}

var GitSHA string
var Version string

func main() {
	var ctx context.Context
	{
		newCtx, cancel := rootContext()
		defer cancel()

		ctx = newCtx
	}

	logLevelStr := os.Getenv("LOG_LEVEL")
	if logLevelStr != "" {
		if err := logging.SetGlobalLevel(logLevelStr); err != nil {
			log.Panic().
				Str("LOG_LEVEL", logLevelStr).
				Msg("invalid log level")
		}
	}

	serviceinfo.Version = Version
	serviceinfo.Commit = GitSHA
	logging.WithService("cadence-bot", serviceinfo.VersionOrDev())
	serviceinfo.StartupMessage()

	conf, err := config.New()
	if err != nil {
		log.Panic().
			Err(err).
			Msg("failed to read configuration")
	}

	if err := run(ctx, conf); err != nil {
		log.Panic().
			Err(err).
			Msg("server stopped unexpectedly")
	}

	log.Warn().
		Msg("server shutdown complete")
}

func run(ctx context.Context, conf *config.Config) error {

	metrics, shutdownMetrics, err := observe.InitProvider(serviceinfo.VersionOrDev())
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := shutdownMetrics(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("failed to shut down metrics provider")
		}
	}()

	st, err := store.Open(ctx, conf.StoreDriver, conf.StoreDSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close store")
		}
	}()

	res, err := resolver.New(resolver.Config{
		YtdlpPath:    conf.YtdlpPath,
		FfprobePath:  conf.FfprobePath,
		VkParserPath: conf.VkParserPath,
		CacheDir:     conf.PlaylistCacheDir,
		CacheTTL:     conf.PlaylistCacheTTL,
		Timeout:      conf.ResolveTimeout,
	})
	if err != nil {
		return err
	}

	srv := server.New()
	if err := srv.SetConfig(conf); err != nil {
		return err
	}

	voiceManager := voice.NewManager(srv.DiscordSession, conf.VoiceBitrate)

	registry := service.NewRegistry(service.Deps{
		Transport: voiceManager,
		Spawner: &service.FFmpegSpawner{
			Path:     conf.FfmpegPath,
			Niceness: conf.FfmpegNiceness,
		},
		Store:        st,
		StoreTimeout: conf.StoreTimeout,
		Recorder:     metrics,
	})

	// transport events flow back into the guild players
	voiceManager.Notify(registry)
	voiceManager.AddHandlers(srv.DiscordSession)
	srv.Voice = voiceManager

	if err := srv.Handlers(handlers.Deps{
		Registry:            registry,
		Voice:               voiceManager,
		Resolver:            res,
		Passwords:           st,
		PlaylistAddInterval: conf.PlaylistAddInterval,
	}); err != nil {
		return err
	}

	httpAPI, err := api.New(api.Config{
		Registry:    registry,
		Directory:   api.StateDirectory{State: srv.DiscordSession.State},
		Voice:       voiceManager,
		Passwords:   st,
		Metrics:     metrics,
		AuthEnabled: conf.HTTPAuthEnabled,
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().
			Msg("starting listener")

		return srv.ListenAndServe(ctx)
	})

	g.Go(func() error {
		return httpAPI.ListenAndServe(ctx, conf.HTTPListenAddr)
	})

	return g.Wait()
}
