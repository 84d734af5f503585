package service

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Registry owns one Player per guild, shared by every front-end
type Registry struct {
	mutex    *sync.Mutex
	guildMap *sync.Map
	deps     Deps
}

func NewRegistry(deps Deps) *Registry {
	if deps.Recorder == nil {
		deps.Recorder = nopRecorder{}
	}

	return &Registry{
		mutex:    &sync.Mutex{},
		guildMap: &sync.Map{},
		deps:     deps,
	}
}

// Player returns the guild's player, creating it on first use
func (r *Registry) Player(guildID string) *Player {

	var result *Player

	resp, ok := r.guildMap.Load(guildID)
	if ok {
		return resp.(*Player)
	}

	// locking to prevent data-races to create/initialize Players
	r.mutex.Lock()
	defer r.mutex.Unlock()

	// reread in case it was just created
	// by another thread
	resp, ok = r.guildMap.Load(guildID)
	if ok {
		return resp.(*Player)
	}

	result = NewPlayer(guildID, r.deps)

	r.guildMap.Store(guildID, result)
	r.deps.Recorder.PlayerCreated(context.Background())

	return result
}

// Initialize is Player followed by a one-time settings load
func (r *Registry) Initialize(ctx context.Context, guildID string) (*Player, error) {
	p := r.Player(guildID)

	if err := p.Initialize(ctx); err != nil {
		return nil, err
	}

	return p, nil
}

// Lookup never creates
func (r *Registry) Lookup(guildID string) (*Player, bool) {
	resp, ok := r.guildMap.Load(guildID)
	if !ok {
		return nil, false
	}

	return resp.(*Player), true
}

// GuildIDs lists every guild with a player, sorted
func (r *Registry) GuildIDs() []string {
	var result []string

	r.guildMap.Range(func(k, _ interface{}) bool {
		result = append(result, k.(string))
		return true
	})

	sort.Strings(result)

	return result
}

// TrackEnded routes a transport signal to the guild's player, if any
func (r *Registry) TrackEnded(ctx context.Context, guildID string, id uuid.UUID) {
	if p, ok := r.Lookup(guildID); ok {
		p.TrackEnded(ctx, id)
	}
}

func (r *Registry) DriverConnected(ctx context.Context, guildID string) {
	if p, ok := r.Lookup(guildID); ok {
		p.DriverConnected(ctx)
	}
}
