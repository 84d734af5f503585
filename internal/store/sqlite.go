package store

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

const guildSettingsColumns = `id, speed, volume, loop_type, bass_enabled, bass_gain,
	equalizer_32, equalizer_64, equalizer_125, equalizer_250, equalizer_500,
	equalizer_1k, equalizer_2k, equalizer_4k, equalizer_8k, equalizer_16k`

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS guild_settings (
		id TEXT PRIMARY KEY,
		speed REAL NOT NULL DEFAULT 1,
		volume REAL NOT NULL DEFAULT 1,
		loop_type INTEGER NOT NULL DEFAULT 0,
		bass_enabled INTEGER NOT NULL DEFAULT 0,
		bass_gain REAL NOT NULL DEFAULT 20,
		equalizer_32 REAL NOT NULL DEFAULT 0,
		equalizer_64 REAL NOT NULL DEFAULT 0,
		equalizer_125 REAL NOT NULL DEFAULT 0,
		equalizer_250 REAL NOT NULL DEFAULT 0,
		equalizer_500 REAL NOT NULL DEFAULT 0,
		equalizer_1k REAL NOT NULL DEFAULT 0,
		equalizer_2k REAL NOT NULL DEFAULT 0,
		equalizer_4k REAL NOT NULL DEFAULT 0,
		equalizer_8k REAL NOT NULL DEFAULT 0,
		equalizer_16k REAL NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		password TEXT NOT NULL
	)`,
}

// SQLite is the default single-file store
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	// sqlite serializes writers anyway
	db.SetMaxOpenConns(1)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "begin schema")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, q := range sqliteSchema {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "create schema")
		}
	}

	if err := tx.Commit(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "commit schema")
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) LoadSettings(ctx context.Context, guildID string) (service.Settings, error) {
	var r GuildSettings

	dest := []interface{}{&r.ID, &r.Speed, &r.Volume, &r.LoopType, &r.BassEnabled, &r.BassGain}
	for _, p := range r.bands() {
		dest = append(dest, p)
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT `+guildSettingsColumns+` FROM guild_settings WHERE id = ?`,
		guildID,
	).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return service.Settings{}, service.ErrSettingsNotFound
	}
	if err != nil {
		return service.Settings{}, errors.Wrap(err, "load guild settings")
	}

	return r.Settings(), nil
}

func (s *SQLite) SaveSettings(ctx context.Context, guildID string, v service.Settings) error {
	r := rowFromSettings(guildID, v)

	args := []interface{}{r.ID, r.Speed, r.Volume, r.LoopType, r.BassEnabled, r.BassGain}
	for _, p := range r.bands() {
		args = append(args, *p)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO guild_settings (`+guildSettingsColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	)

	return errors.Wrap(err, "save guild settings")
}

func (s *SQLite) SetPassword(ctx context.Context, userID, hash string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO users (id, password) VALUES (?, ?)`,
		userID, hash,
	)

	return errors.Wrap(err, "save user password")
}

func (s *SQLite) PasswordHash(ctx context.Context, userID string) (string, error) {
	var hash string

	err := s.db.QueryRowContext(ctx, `SELECT password FROM users WHERE id = ?`, userID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}

	return hash, errors.Wrap(err, "load user password")
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
