package service

import "time"

// reconcileSlack is added on every reconciliation to cover the transport's buffering
const reconcileSlack = 200 * time.Millisecond

// Position tracks the logical offset into the current track
//
// Last is the logical offset when settings were last reconciled and LastTransport is
// what the transport reported at that same moment.
type Position struct {
	Last          time.Duration
	LastTransport time.Duration
}

func PositionAt(seconds float64) Position {
	return Position{
		Last: secondsToDuration(seconds),
	}
}

// At projects the logical offset for the given transport offset and speed
func (pos Position) At(transport time.Duration, speed float64) time.Duration {
	delta := float64(transport-pos.LastTransport) * speed

	return pos.Last + time.Duration(delta) + reconcileSlack
}

// Reconcile folds the time played at the old speed into Last
func (pos *Position) Reconcile(transport time.Duration, oldSpeed float64) {
	pos.Last = pos.At(transport, oldSpeed)
	pos.LastTransport = transport
}

func (pos Position) Seconds() float64 {
	return pos.Last.Seconds()
}

func secondsToDuration(s float64) time.Duration {
	if s <= 0 {
		return 0
	}

	return time.Duration(s * float64(time.Second))
}
