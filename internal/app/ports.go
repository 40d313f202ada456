package app

import (
	"context"

	"live-trivia-service/internal/domain"
)

// SessionStore abstracts where live sessions are kept (in-memory, Redis-marked, etc).
type SessionStore interface {
	// Insert stores the session under code; it reports false if the code is already taken.
	Insert(code string, session *Session) bool
	Get(code string) (*Session, bool)
	Delete(code string) (*Session, bool)
	List() []*Session
	Len() int
}

// ConnectionRegistry maps live connections to the game they belong to.
type ConnectionRegistry interface {
	// Bind fails with domain.ErrAlreadyInGame if the connection is already bound.
	Bind(connID string, membership domain.Membership) error
	Lookup(connID string) (domain.Membership, bool)
	Unbind(connID string) (domain.Membership, bool)
	// UnbindGame drops every connection bound to code and returns their ids.
	UnbindGame(code string) []string
}

// QuizRepository loads library quizzes (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Broadcaster is the gateway to connected clients. Room membership only
// changes through the router after successful outcomes.
type Broadcaster interface {
	Subscribe(code, connID string)
	Unsubscribe(code, connID string)
	CloseRoom(code string)
	ToRoom(code string, event domain.Event)
	ToConnection(connID string, event domain.Event)
}

// ResultArchive keeps summaries of finished games.
type ResultArchive interface {
	Archive(ctx context.Context, summary domain.GameSummary) error
	Recent(ctx context.Context, limit int) ([]domain.GameSummary, error)
}

// EventSink receives the transitions a session makes on its own (timers).
// Implementations must not call back into the session.
type EventSink interface {
	Publish(code string, event domain.Event)
	Finished(summary domain.GameSummary)
}
