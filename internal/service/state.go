package service

// State of a guild's player
type State int8

const (
	StateUnusedLower State = iota - 1
	//
	StateEnded
	// StateStarting is reserved, nothing transitions into it
	StateStarting
	StatePlaying
	StatePaused
	StateSeeking
	StateInSkip
	//
	StateUnusedUpper
)

func (s State) String() string {
	if s <= StateUnusedLower || s >= StateUnusedUpper {
		return "unknown"
	}

	return []string{
		"ended",
		"starting",
		"playing",
		"paused",
		"seeking",
		"in-skip",
	}[int(s)]
}

// Public collapses the internal states into the three a listener can observe
func (s State) Public() string {
	switch s {
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "playing"
	}
}

// RepeatMode is persisted by ordinal
type RepeatMode int16

const (
	RepeatOff RepeatMode = iota
	RepeatTrack
	RepeatQueue
)

// RepeatModeFromOrdinal maps unknown ordinals to RepeatOff
func RepeatModeFromOrdinal(v int16) RepeatMode {
	switch v {
	case 1:
		return RepeatTrack
	case 2:
		return RepeatQueue
	default:
		return RepeatOff
	}
}

func (m RepeatMode) String() string {
	switch m {
	case RepeatTrack:
		return "track"
	case RepeatQueue:
		return "queue"
	default:
		return "off"
	}
}
