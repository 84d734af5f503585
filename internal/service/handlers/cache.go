package handlers

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/josephcopenhaver/cadence-bot/internal/resolver"
	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

// SerialTaskRunner runs background work one task at a time
type SerialTaskRunner struct {
	rwm       sync.RWMutex
	startedAt time.Time
	wg        sync.WaitGroup
	taskChan  chan func(context.Context)
}

func NewSerialTaskRunner(size int) *SerialTaskRunner {
	return &SerialTaskRunner{
		taskChan: make(chan func(context.Context), size),
	}
}

// Enqueue returns false when the backlog is full
func (tr *SerialTaskRunner) Enqueue(f func(context.Context)) bool {
	select {
	case tr.taskChan <- f:
		return true
	default:
		return false
	}
}

func (tr *SerialTaskRunner) Wait() {
	tr.wg.Wait()
}

func (tr *SerialTaskRunner) Start(ctx context.Context) {
	tr.rwm.RLock()
	cleanup := tr.rwm.RUnlock
	defer func() {
		if f := cleanup; f != nil {
			cleanup = nil
			f()
		}
	}()

	if !tr.startedAt.IsZero() {
		return
	}

	if f := cleanup; f != nil {
		cleanup = nil
		f()
	}

	tr.rwm.Lock()
	cleanup = tr.rwm.Unlock

	if !tr.startedAt.IsZero() {
		return
	}

	wg := &tr.wg

	taskChan := tr.taskChan

	ctxDone := ctx.Done()
	wg.Add(1)
	tr.startedAt = time.Now()
	go func() {
		defer wg.Done()

		for {
			select {
			case <-ctxDone:
				return
			default:
			}
			select {
			case <-ctxDone:
				return
			case f := <-taskChan:
				tr.run(ctx, f)
			}
		}
	}()
}

func (tr *SerialTaskRunner) run(ctx context.Context, f func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = errors.New("cause unknown")
			}
			log.Err(err).
				Msg("panic in serial task runner")
		}
	}()

	f(ctx)
}

var ErrTaskBacklogFull = errors.New("too many cache requests are pending, try again later")

func Cache(deps Deps) HandleMessageCreate {

	return newHandleMessageCreate(
		"cache-url",
		"cache <url>",
		"resolves a url or playlist in the background so a later play starts faster",
		newRegexMatcher(
			false,
			regexp.MustCompile(`^\s*cache\s+(?P<url>[^\s]+)\s*$`),
			func(ctx context.Context, s Session, m *discordgo.MessageCreate, _ *service.Player, args map[string]string) error {

				u := args["url"]
				if !resolver.IsURL(u) {
					return errors.New("cache only accepts a url")
				}

				logger := log.Ctx(ctx).With().Str("url", u).Logger()

				ok := deps.Tasks.Enqueue(func(ctx context.Context) {
					if _, err := deps.Resolver.Resolve(ctx, u, MaxPlaylistLimit, resolver.SearchYouTube); err != nil {
						logger.Warn().
							Err(err).
							Msg("failed to cache url")
						return
					}

					logger.Debug().
						Msg("cached url")
				})
				if !ok {
					return ErrTaskBacklogFull
				}

				return reply(s, m, "caching <"+u+">")
			},
		),
	)
}
