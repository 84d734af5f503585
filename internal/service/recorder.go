package service

import "context"

// Recorder receives player events for metrics
type Recorder interface {
	Transition(ctx context.Context, from, to string)
	Command(ctx context.Context, op string, err error)
	Spawn(ctx context.Context, err error)
	StaleSignal(ctx context.Context)
	PlayerCreated(ctx context.Context)
}

type nopRecorder struct{}

func (nopRecorder) Transition(context.Context, string, string) {}
func (nopRecorder) Command(context.Context, string, error)     {}
func (nopRecorder) Spawn(context.Context, error)               {}
func (nopRecorder) StaleSignal(context.Context)                {}
func (nopRecorder) PlayerCreated(context.Context)              {}
