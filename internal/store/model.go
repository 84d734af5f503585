// Package store persists per-guild player settings and API users.
package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

var ErrUserNotFound = errors.New("user not found")

// PasswordStore keeps the bcrypt hash each user set for the HTTP API
type PasswordStore interface {
	SetPassword(ctx context.Context, userID, hash string) error
	PasswordHash(ctx context.Context, userID string) (string, error)
}

// Store is what the bot needs from either backend
type Store interface {
	service.SettingsStore
	PasswordStore
	Close() error
}

// GuildSettings is one row of guild_settings
type GuildSettings struct {
	ID           string  `gorm:"primaryKey;size:32"`
	Speed        float64 `gorm:"not null;default:1"`
	Volume       float64 `gorm:"not null;default:1"`
	LoopType     int16   `gorm:"not null;default:0"`
	BassEnabled  bool    `gorm:"not null;default:false"`
	BassGain     float64 `gorm:"not null;default:20"`
	Equalizer32  float64 `gorm:"column:equalizer_32;not null;default:0"`
	Equalizer64  float64 `gorm:"column:equalizer_64;not null;default:0"`
	Equalizer125 float64 `gorm:"column:equalizer_125;not null;default:0"`
	Equalizer250 float64 `gorm:"column:equalizer_250;not null;default:0"`
	Equalizer500 float64 `gorm:"column:equalizer_500;not null;default:0"`
	Equalizer1k  float64 `gorm:"column:equalizer_1k;not null;default:0"`
	Equalizer2k  float64 `gorm:"column:equalizer_2k;not null;default:0"`
	Equalizer4k  float64 `gorm:"column:equalizer_4k;not null;default:0"`
	Equalizer8k  float64 `gorm:"column:equalizer_8k;not null;default:0"`
	Equalizer16k float64 `gorm:"column:equalizer_16k;not null;default:0"`
}

func (GuildSettings) TableName() string {
	return "guild_settings"
}

// bands lists the equalizer columns in service.Band order
func (r *GuildSettings) bands() [service.NumBands]*float64 {
	return [service.NumBands]*float64{
		&r.Equalizer32,
		&r.Equalizer64,
		&r.Equalizer125,
		&r.Equalizer250,
		&r.Equalizer500,
		&r.Equalizer1k,
		&r.Equalizer2k,
		&r.Equalizer4k,
		&r.Equalizer8k,
		&r.Equalizer16k,
	}
}

func rowFromSettings(guildID string, s service.Settings) GuildSettings {
	r := GuildSettings{
		ID:          guildID,
		Speed:       s.Speed,
		Volume:      s.Volume,
		LoopType:    int16(s.Repeat),
		BassEnabled: s.BassEnabled,
		BassGain:    s.BassGain,
	}

	for i, p := range r.bands() {
		*p = s.Equalizer[i]
	}

	return r
}

func (r GuildSettings) Settings() service.Settings {
	s := service.Settings{
		Speed:       r.Speed,
		Volume:      r.Volume,
		Repeat:      service.RepeatModeFromOrdinal(r.LoopType),
		BassEnabled: r.BassEnabled,
		BassGain:    r.BassGain,
	}

	for i, p := range r.bands() {
		s.Equalizer[i] = *p
	}

	return s
}

type User struct {
	ID       string `gorm:"primaryKey;size:32"`
	Password string `gorm:"not null;size:72"`
}

func (User) TableName() string {
	return "users"
}
