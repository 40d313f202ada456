package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures for the wire error code.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindNotFound      ErrorKind = "not_found"
	KindUnauthorized  ErrorKind = "unauthorized"
	KindStateConflict ErrorKind = "state_conflict"
	KindInternal      ErrorKind = "internal"
)

// Error is a rejected operation with a stable kind.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	// ErrGameNotFound is returned for unknown or torn-down game codes.
	ErrGameNotFound = &Error{Kind: KindNotFound, Message: "game not found"}
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = &Error{Kind: KindNotFound, Message: "quiz not found"}
	// ErrUnauthorized is returned when a non-host attempts a host-only operation.
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "only the host can do that"}
	// ErrGameAlreadyStarted rejects joins and starts once the game left the lobby.
	ErrGameAlreadyStarted = &Error{Kind: KindStateConflict, Message: "game already started"}
	// ErrGameNotActive rejects answers outside an active game.
	ErrGameNotActive = &Error{Kind: KindStateConflict, Message: "game is not active"}
	// ErrNoParticipants rejects starting an empty lobby.
	ErrNoParticipants = &Error{Kind: KindStateConflict, Message: "no players joined yet"}
	// ErrAlreadyInGame is returned when a connection already belongs to a game.
	ErrAlreadyInGame = &Error{Kind: KindStateConflict, Message: "connection already belongs to a game"}
	// ErrNotInGame is returned when a connection acts on a game it never joined.
	ErrNotInGame = &Error{Kind: KindNotFound, Message: "connection is not part of this game"}
)

// ValidationError reports malformed input before any state is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// KindOf maps an error to its kind; anything unrecognised is internal.
func KindOf(err error) ErrorKind {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return KindValidation
	}
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Kind
	}
	return KindInternal
}
