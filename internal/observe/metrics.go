// Package observe holds the bot's OpenTelemetry metric instruments and the
// Prometheus bridge that serves them on /metrics.
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/josephcopenhaver/cadence-bot"

// Metrics implements the player's event recorder
//
// A nil *Metrics records nothing.
type Metrics struct {
	// Transitions counts player state changes, attributes from and to
	Transitions metric.Int64Counter

	// Commands counts player operations, attributes op and result
	Commands metric.Int64Counter

	// Spawns counts transcoding process launches, attribute status
	Spawns metric.Int64Counter

	StaleSignals metric.Int64Counter

	ActivePlayers metric.Int64UpDownCounter

	// HTTPRequestDuration uses attributes method and route
	HTTPRequestDuration metric.Float64Histogram
}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Transitions, err = m.Int64Counter("cadence.player.transitions",
		metric.WithDescription("Player state transitions by from and to state."),
	); err != nil {
		return nil, err
	}
	if met.Commands, err = m.Int64Counter("cadence.player.commands",
		metric.WithDescription("Player operations by op and result."),
	); err != nil {
		return nil, err
	}
	if met.Spawns, err = m.Int64Counter("cadence.pipeline.spawns",
		metric.WithDescription("Transcoding pipeline launches by status."),
	); err != nil {
		return nil, err
	}
	if met.StaleSignals, err = m.Int64Counter("cadence.transport.stale_signals",
		metric.WithDescription("Track end signals dropped because their handle was superseded."),
	); err != nil {
		return nil, err
	}
	if met.ActivePlayers, err = m.Int64UpDownCounter("cadence.players.active",
		metric.WithDescription("Number of guild players held in memory."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("cadence.http.request.duration",
		metric.WithDescription("HTTP API latency by method and route."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}

	return "ok"
}

func (m *Metrics) Transition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}

	m.Transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *Metrics) Command(ctx context.Context, op string, err error) {
	if m == nil {
		return
	}

	m.Commands.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("result", status(err)),
	))
}

func (m *Metrics) Spawn(ctx context.Context, err error) {
	if m == nil {
		return
	}

	m.Spawns.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status(err))))
}

func (m *Metrics) StaleSignal(ctx context.Context) {
	if m == nil {
		return
	}

	m.StaleSignals.Add(ctx, 1)
}

func (m *Metrics) PlayerCreated(ctx context.Context) {
	if m == nil {
		return
	}

	m.ActivePlayers.Add(ctx, 1)
}
