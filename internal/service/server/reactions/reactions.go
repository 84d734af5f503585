package reactions

import (
	"errors"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

type ReactionStatus string

func (rs ReactionStatus) String() string {
	return string(rs)
}

const (
	ReactionStatusOK       ReactionStatus = "\u2705"
	ReactionStatusErr      ReactionStatus = "\u274C"
	ReactionStatusWarning  ReactionStatus = "\u26A0"
	ReactionStatusRejected ReactionStatus = "\U0001F6AB"
)

// warning marks a command that partially succeeded, e.g. a playlist with
// entries that could not be resolved
type warning struct {
	error
}

func NewWarning(err error) error {
	return warning{err}
}

func (e warning) Error() string {
	if e.error == nil {
		return ""
	}

	return e.error.Error()
}

func (e warning) Unwrap() error {
	return e.error
}

func (e warning) Reaction() ReactionStatus {
	return ReactionStatusWarning
}

// For picks the reaction for a command result
//
// Player errors the user can fix (bad argument, wrong state, nothing
// connected, unknown track) are rejections; anything else is a failure.
func For(err error) ReactionStatus {
	if err == nil {
		return ReactionStatusOK
	}

	var withReaction interface {
		Reaction() ReactionStatus
	}
	if errors.As(err, &withReaction) {
		return withReaction.Reaction()
	}

	for _, kind := range []error{
		service.ErrInvalidArgument,
		service.ErrConflict,
		service.ErrNotConnected,
		service.ErrNotFound,
	} {
		if errors.Is(err, kind) {
			return ReactionStatusRejected
		}
	}

	return ReactionStatusErr
}
