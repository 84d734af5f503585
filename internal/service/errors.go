package service

import "github.com/pkg/errors"

// error kinds, classify with errors.Is
var (
	ErrNotFound         = errors.New("not found")
	ErrNotConnected     = errors.New("not connected to a voice channel")
	ErrConflict         = errors.New("not valid in the current player state")
	ErrTransport        = errors.New("transport failure")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrSettingsNotFound = errors.New("settings not found")
)
