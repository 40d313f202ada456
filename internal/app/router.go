package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"live-trivia-service/internal/domain"
)

// Router translates inbound client messages into session operations and
// sends the outcomes through the gateway. It holds no game state itself.
type Router struct {
	directory *Directory
	registry  ConnectionRegistry
	gateway   Broadcaster
	quizzes   QuizRepository
}

// NewRouter wires the router; quizzes may be nil when no quiz library is configured.
func NewRouter(directory *Directory, registry ConnectionRegistry, gateway Broadcaster, quizzes QuizRepository) *Router {
	return &Router{
		directory: directory,
		registry:  registry,
		gateway:   gateway,
		quizzes:   quizzes,
	}
}

type inboundMessage struct {
	Type    domain.MessageType `json:"type"`
	Payload json.RawMessage    `json:"payload"`
}

type createGamePayload struct {
	Quiz   *domain.Quiz `json:"quiz"`
	QuizID string       `json:"quizId"`
}

type playerInfo struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

type joinGamePayload struct {
	GameCode   string     `json:"gameCode"`
	PlayerInfo playerInfo `json:"playerInfo"`
}

type gameCodePayload struct {
	GameCode string `json:"gameCode"`
}

type submitAnswerPayload struct {
	GameCode    string `json:"gameCode"`
	AnswerIndex *int   `json:"answerIndex"`
}

// Dispatch handles one raw message from connID. Failures are reported to
// connID only.
func (r *Router) Dispatch(ctx context.Context, connID string, data []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("message handler panicked", "connectionId", connID, "panic", rec)
			r.replyError(connID, fmt.Errorf("panic: %v", rec))
		}
	}()

	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		r.replyError(connID, domain.Invalid("", "invalid message"))
		return
	}
	if err := r.handle(ctx, connID, msg); err != nil {
		slog.Debug("message rejected", "connectionId", connID, "type", msg.Type, "error", err)
		r.replyError(connID, err)
	}
}

func (r *Router) handle(ctx context.Context, connID string, msg inboundMessage) error {
	switch msg.Type {
	case domain.MessageCreateGame:
		return r.createGame(ctx, connID, msg.Payload)
	case domain.MessageJoinGame:
		return r.joinGame(connID, msg.Payload)
	case domain.MessageWatchGame:
		return r.watchGame(connID, msg.Payload)
	case domain.MessageStartGame:
		return r.startGame(connID, msg.Payload)
	case domain.MessageSubmitAnswer:
		return r.submitAnswer(connID, msg.Payload)
	case domain.MessageGetGameState:
		return r.getGameState(connID, msg.Payload)
	case domain.MessageLeaveGame:
		return r.leaveGame(connID, msg.Payload)
	case domain.MessagePing:
		r.gateway.ToConnection(connID, domain.Event{Type: domain.EventPong, Payload: struct{}{}})
		return nil
	default:
		return domain.Invalid("type", "unsupported message type %q", msg.Type)
	}
}

func (r *Router) createGame(ctx context.Context, connID string, raw json.RawMessage) error {
	if _, bound := r.registry.Lookup(connID); bound {
		return domain.ErrAlreadyInGame
	}

	var payload createGamePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.Invalid("payload", "invalid createGame payload")
	}

	var quiz domain.Quiz
	switch {
	case payload.Quiz != nil:
		quiz = *payload.Quiz
	case payload.QuizID != "":
		if r.quizzes == nil {
			return domain.ErrQuizNotFound
		}
		loaded, err := r.quizzes.GetQuiz(ctx, payload.QuizID)
		if err != nil {
			return err
		}
		quiz = loaded
	default:
		// the quiz definition itself may be the payload
		if err := json.Unmarshal(raw, &quiz); err != nil {
			return domain.Invalid("payload", "invalid quiz definition")
		}
	}

	session, err := r.directory.Create(quiz, connID)
	if err != nil {
		return err
	}
	if err := r.registry.Bind(connID, domain.Membership{Code: session.Code(), Role: domain.RoleHost}); err != nil {
		r.directory.Remove(session.Code())
		return err
	}
	r.gateway.Subscribe(session.Code(), connID)
	r.gateway.ToConnection(connID, domain.Event{
		Type:    domain.EventGameCreated,
		Payload: domain.GameCreatedPayload{GameCode: session.Code(), Game: session.Snapshot(connID)},
	})
	return nil
}

func (r *Router) joinGame(connID string, raw json.RawMessage) error {
	var payload joinGamePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.Invalid("payload", "invalid joinGame payload")
	}
	if strings.TrimSpace(payload.GameCode) == "" {
		return domain.Invalid("gameCode", "must not be empty")
	}
	if _, bound := r.registry.Lookup(connID); bound {
		return domain.ErrAlreadyInGame
	}

	session, err := r.directory.Get(payload.GameCode)
	if err != nil {
		return err
	}
	player, roster, err := session.AddParticipant(connID, payload.PlayerInfo.Nickname, payload.PlayerInfo.Avatar)
	if err != nil {
		return err
	}
	if err := r.registry.Bind(connID, domain.Membership{Code: session.Code(), Role: domain.RolePlayer}); err != nil {
		session.RemoveParticipant(connID)
		return err
	}
	r.gateway.Subscribe(session.Code(), connID)
	if r.releaseIfClosed(session, connID) {
		return domain.ErrGameNotFound
	}
	r.gateway.ToRoom(session.Code(), domain.Event{
		Type:    domain.EventPlayerJoined,
		Payload: domain.PlayerJoinedPayload{Players: roster, NewPlayer: player},
	})
	return nil
}

func (r *Router) watchGame(connID string, raw json.RawMessage) error {
	code, err := decodeGameCode(raw)
	if err != nil {
		return err
	}
	session, err := r.directory.Get(code)
	if err != nil {
		return err
	}
	if m, bound := r.registry.Lookup(connID); bound {
		if m.Code != session.Code() {
			return domain.ErrAlreadyInGame
		}
	} else if err := r.registry.Bind(connID, domain.Membership{Code: session.Code(), Role: domain.RoleDisplay}); err != nil {
		return err
	}
	r.gateway.Subscribe(session.Code(), connID)
	if r.releaseIfClosed(session, connID) {
		return domain.ErrGameNotFound
	}
	r.gateway.ToConnection(connID, domain.Event{
		Type:    domain.EventGameState,
		Payload: domain.GameStatePayload{Game: session.Snapshot(connID)},
	})
	return nil
}

func (r *Router) startGame(connID string, raw json.RawMessage) error {
	code, err := decodeGameCode(raw)
	if err != nil {
		return err
	}
	session, err := r.directory.Get(code)
	if err != nil {
		return err
	}
	started, err := session.Start(connID)
	if err != nil {
		return err
	}
	slog.Info("game started", "gameCode", session.Code(), "questions", started.TotalQuestions)
	r.gateway.ToRoom(session.Code(), domain.Event{Type: domain.EventGameStarted, Payload: started})
	return nil
}

func (r *Router) submitAnswer(connID string, raw json.RawMessage) error {
	var payload submitAnswerPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.Invalid("payload", "invalid submitAnswer payload")
	}
	if payload.AnswerIndex == nil {
		return domain.Invalid("answerIndex", "is required")
	}
	session, err := r.directory.Get(payload.GameCode)
	if err != nil {
		return err
	}
	outcome, ended, err := session.SubmitAnswer(connID, *payload.AnswerIndex)
	if err != nil {
		return err
	}

	r.gateway.ToConnection(connID, domain.Event{
		Type:    domain.EventAnswerResult,
		Payload: outcome,
	})
	if !outcome.Recorded {
		return nil
	}
	r.gateway.ToRoom(session.Code(), domain.Event{
		Type: domain.EventLeaderboardUpdate,
		Payload: domain.LeaderboardPayload{
			Leaderboard:     session.Leaderboard(),
			CurrentQuestion: outcome.QuestionIndex,
		},
	})
	r.questionEnded(session.Code(), ended)
	return nil
}

func (r *Router) questionEnded(code string, ended *domain.QuestionEndedPayload) {
	if ended != nil {
		r.gateway.ToRoom(code, domain.Event{Type: domain.EventQuestionEnded, Payload: *ended})
	}
}

// releaseIfClosed undoes a bind that raced with the session's teardown.
func (r *Router) releaseIfClosed(session *Session, connID string) bool {
	if !session.Closed() {
		return false
	}
	r.registry.Unbind(connID)
	r.gateway.Unsubscribe(session.Code(), connID)
	return true
}

func (r *Router) getGameState(connID string, raw json.RawMessage) error {
	code, err := decodeGameCode(raw)
	if err != nil {
		return err
	}
	session, err := r.directory.Get(code)
	if err != nil {
		return err
	}
	r.gateway.ToConnection(connID, domain.Event{
		Type:    domain.EventGameState,
		Payload: domain.GameStatePayload{Game: session.Snapshot(connID)},
	})
	return nil
}

func (r *Router) leaveGame(connID string, raw json.RawMessage) error {
	code, err := decodeGameCode(raw)
	if err != nil {
		return err
	}
	m, bound := r.registry.Lookup(connID)
	if !bound || m.Code != NormalizeCode(code) {
		return domain.ErrNotInGame
	}

	switch m.Role {
	case domain.RoleHost:
		if r.directory.Remove(m.Code) {
			r.teardown(Removal{Code: m.Code, Reason: ReasonHostLeft})
		}
		return nil
	case domain.RolePlayer:
		r.registry.Unbind(connID)
		r.gateway.Unsubscribe(m.Code, connID)
		session, err := r.directory.Get(m.Code)
		if err != nil {
			return nil
		}
		if roster, ended, removed := session.RemoveParticipant(connID); removed {
			r.gateway.ToRoom(m.Code, domain.Event{
				Type:    domain.EventPlayerLeft,
				Payload: domain.PlayerLeftPayload{Players: roster, LeftPlayerID: connID},
			})
			r.questionEnded(m.Code, ended)
		}
		if session.abandoned() && r.directory.Remove(m.Code) {
			r.teardown(Removal{Code: m.Code, Reason: ReasonAbandoned})
		}
		return nil
	default:
		r.registry.Unbind(connID)
		r.gateway.Unsubscribe(m.Code, connID)
		return nil
	}
}

// Disconnect applies the roster and teardown side effects of a lost connection.
func (r *Router) Disconnect(_ context.Context, connID string) {
	if m, ok := r.registry.Unbind(connID); ok {
		r.gateway.Unsubscribe(m.Code, connID)
		if m.Role == domain.RolePlayer {
			if session, err := r.directory.Get(m.Code); err == nil {
				if roster, ended, changed := session.MarkDisconnected(connID); changed {
					r.gateway.ToRoom(m.Code, domain.Event{
						Type:    domain.EventPlayerLeft,
						Payload: domain.PlayerLeftPayload{Players: roster, LeftPlayerID: connID},
					})
					r.questionEnded(m.Code, ended)
				}
			}
		}
	}

	for _, removal := range r.directory.Collect(connID) {
		r.teardown(removal)
	}
}

// Sweep tears down expired sessions; the server calls it periodically.
func (r *Router) Sweep() int {
	removals := r.directory.Sweep()
	for _, removal := range removals {
		r.teardown(removal)
	}
	return len(removals)
}

func (r *Router) teardown(removal Removal) {
	r.gateway.ToRoom(removal.Code, domain.Event{
		Type:    domain.EventGameClosed,
		Payload: domain.GameClosedPayload{GameCode: removal.Code, Reason: removal.Reason},
	})
	r.gateway.CloseRoom(removal.Code)
	r.registry.UnbindGame(removal.Code)
}

func (r *Router) replyError(connID string, err error) {
	kind := domain.KindOf(err)
	message := err.Error()
	if kind == domain.KindInternal {
		slog.Error("message handling failed", "connectionId", connID, "error", err)
		message = "internal error"
	}
	r.gateway.ToConnection(connID, domain.Event{
		Type:    domain.EventError,
		Payload: domain.ErrorPayload{Code: kind, Message: message},
	})
}

// decodeGameCode accepts {"gameCode": "..."} or a bare JSON string.
func decodeGameCode(raw json.RawMessage) (string, error) {
	var code string
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &code); err != nil {
			return "", domain.Invalid("gameCode", "invalid game code")
		}
	} else {
		var payload gameCodePayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return "", domain.Invalid("payload", "invalid payload")
		}
		code = payload.GameCode
	}
	if strings.TrimSpace(code) == "" {
		return "", domain.Invalid("gameCode", "must not be empty")
	}
	return code, nil
}
