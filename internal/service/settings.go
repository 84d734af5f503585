package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

const (
	MinSpeed         = 0.5
	MaxSpeed         = 2.0
	MinVolume        = 0.0
	MaxVolume        = 10.0
	MinBassGain      = -100.0
	MaxBassGain      = 100.0
	DefaultBassGain  = 20.0
	MinEqualizerGain = -20.0
	MaxEqualizerGain = 20.0
)

// Band is one of the fixed equalizer frequencies
type Band int8

const (
	Band32 Band = iota
	Band64
	Band125
	Band250
	Band500
	Band1k
	Band2k
	Band4k
	Band8k
	Band16k
	//
	NumBands
)

var bandSpecs = [NumBands]struct {
	freq  string
	width int
}{
	{"32", 17},
	{"64", 30},
	{"125", 62},
	{"250", 125},
	{"500", 250},
	{"1k", 500},
	{"2k", 1000},
	{"4k", 2000},
	{"8k", 4000},
	{"16k", 8000},
}

// Freq is the user facing label, "32" through "16k"
func (b Band) Freq() string {
	if b < 0 || b >= NumBands {
		return ""
	}

	return bandSpecs[b].freq
}

// FilterName is the instance name of the band's node in the filter graph
func (b Band) FilterName() string {
	return "equalizer@h" + b.Freq()
}

// ParseBand accepts "1k", "h1k" or "1000" style labels
func ParseBand(s string) (Band, bool) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "h")
	s = strings.TrimSuffix(s, "hz")

	if strings.HasSuffix(s, "000") {
		s = strings.TrimSuffix(s, "000") + "k"
	}

	for i := range bandSpecs {
		if bandSpecs[i].freq == s {
			return Band(i), true
		}
	}

	return 0, false
}

// Settings are the per-guild tunables
type Settings struct {
	Speed       float64
	Volume      float64
	BassEnabled bool
	BassGain    float64
	Equalizer   [NumBands]float64
	Repeat      RepeatMode
}

func DefaultSettings() Settings {
	return Settings{
		Speed:    1,
		Volume:   1,
		BassGain: DefaultBassGain,
	}
}

func inRange(name string, v, lo, hi float64) error {
	if v < lo || v > hi {
		return errors.Wrapf(ErrInvalidArgument, "%s must be between %s and %s", name, formatFloat(lo), formatFloat(hi))
	}

	return nil
}

func ValidateSpeed(v float64) error {
	return inRange("speed", v, MinSpeed, MaxSpeed)
}

func ValidateVolume(v float64) error {
	return inRange("volume", v, MinVolume, MaxVolume)
}

func ValidateBassGain(v float64) error {
	return inRange("bass gain", v, MinBassGain, MaxBassGain)
}

func ValidateEqualizerGain(v float64) error {
	return inRange("equalizer gain", v, MinEqualizerGain, MaxEqualizerGain)
}

// Validate reports the first field out of range
func (s Settings) Validate() error {
	if err := ValidateSpeed(s.Speed); err != nil {
		return err
	}

	if err := ValidateVolume(s.Volume); err != nil {
		return err
	}

	if err := ValidateBassGain(s.BassGain); err != nil {
		return err
	}

	for _, g := range s.Equalizer {
		if err := ValidateEqualizerGain(g); err != nil {
			return err
		}
	}

	if s.Repeat < RepeatOff || s.Repeat > RepeatQueue {
		return errors.Wrapf(ErrInvalidArgument, "unknown repeat mode %d", s.Repeat)
	}

	return nil
}

// SettingsStore persists Settings by guild id
//
// LoadSettings returns ErrSettingsNotFound when no row exists yet.
type SettingsStore interface {
	LoadSettings(ctx context.Context, guildID string) (Settings, error)
	SaveSettings(ctx context.Context, guildID string, s Settings) error
}
