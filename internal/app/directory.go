package app

import (
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"live-trivia-service/internal/domain"
)

// codeAlphabet leaves out characters that are easy to misread on a projector (0/O, 1/I/L).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	DefaultCodeLength = 6
	maxCodeAttempts   = 64
)

// Removal reasons reported to rooms in gameClosed.
const (
	ReasonHostLeft  = "host_left"
	ReasonAbandoned = "abandoned"
	ReasonExpired   = "expired"
)

// ErrCodeSpaceExhausted means no free code was found; practically unreachable
// with the default code length.
var ErrCodeSpaceExhausted = errors.New("could not allocate a unique game code")

// Removal describes a session the directory tore down.
type Removal struct {
	Code   string
	Reason string
}

// DirectoryConfig tunes session creation and cleanup.
type DirectoryConfig struct {
	CodeLength  int
	Limits      domain.QuizLimits
	Session     Settings
	LobbyTTL    time.Duration
	FinishedTTL time.Duration
}

// DirectoryOption customizes a Directory.
type DirectoryOption func(*Directory)

// WithCodeGenerator replaces the random code source.
func WithCodeGenerator(next func() string) DirectoryOption {
	return func(d *Directory) { d.nextCode = next }
}

// Directory owns every live session, keyed by its public code.
type Directory struct {
	store    SessionStore
	clock    clockwork.Clock
	sink     EventSink
	cfg      DirectoryConfig
	nextCode func() string

	// serializes create/remove so code allocation and teardown never interleave
	mu sync.Mutex
}

func NewDirectory(store SessionStore, clock clockwork.Clock, sink EventSink, cfg DirectoryConfig, opts ...DirectoryOption) *Directory {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = DefaultCodeLength
	}
	if cfg.Limits == (domain.QuizLimits{}) {
		cfg.Limits = domain.DefaultQuizLimits
	}
	d := &Directory{
		store: store,
		clock: clock,
		sink:  sink,
		cfg:   cfg,
	}
	d.nextCode = NewCodeGenerator(cfg.CodeLength, rand.New(rand.NewSource(clock.Now().UnixNano())))
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewCodeGenerator returns a source of random uppercase codes.
func NewCodeGenerator(length int, rnd *rand.Rand) func() string {
	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		code := make([]byte, length)
		for i := range code {
			code[i] = codeAlphabet[rnd.Intn(len(codeAlphabet))]
		}
		return string(code)
	}
}

// NormalizeCode makes code lookups case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create validates quiz and opens a new lobby hosted by hostID.
func (d *Directory) Create(quiz domain.Quiz, hostID string) (*Session, error) {
	if err := quiz.Validate(d.cfg.Limits); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := NormalizeCode(d.nextCode())
		session := newSession(code, hostID, quiz, d.cfg.Session, d.clock, d.sink)
		if d.store.Insert(code, session) {
			slog.Info("game created", "gameCode", code, "hostId", hostID, "questions", len(quiz.Questions))
			return session, nil
		}
		slog.Debug("game code collision", "gameCode", code, "attempt", attempt)
	}
	return nil, ErrCodeSpaceExhausted
}

// Get finds a live session by code, ignoring case.
func (d *Directory) Get(code string) (*Session, error) {
	session, ok := d.store.Get(NormalizeCode(code))
	if !ok || session.Closed() {
		return nil, domain.ErrGameNotFound
	}
	return session, nil
}

// Remove deletes the session and cancels its pending timer. It reports
// whether a session was removed.
func (d *Directory) Remove(code string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.removeLocked(NormalizeCode(code))
}

func (d *Directory) removeLocked(code string) bool {
	session, ok := d.store.Delete(code)
	if !ok {
		return false
	}
	session.Close()
	slog.Info("game removed", "gameCode", code)
	return true
}

// Collect runs after connID disconnected: games it hosted and started games
// with nobody left connected are removed.
func (d *Directory) Collect(connID string) []Removal {
	d.mu.Lock()
	defer d.mu.Unlock()

	var removed []Removal
	for _, session := range d.store.List() {
		reason := ""
		switch {
		case session.HostID() == connID:
			reason = ReasonHostLeft
		case session.abandoned():
			reason = ReasonAbandoned
		default:
			continue
		}
		if d.removeLocked(session.Code()) {
			removed = append(removed, Removal{Code: session.Code(), Reason: reason})
		}
	}
	return removed
}

// Sweep removes lobbies that never started and finished games past their ttl.
func (d *Directory) Sweep() []Removal {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	var removed []Removal
	for _, session := range d.store.List() {
		if !session.expired(now, d.cfg.LobbyTTL, d.cfg.FinishedTTL) {
			continue
		}
		if d.removeLocked(session.Code()) {
			removed = append(removed, Removal{Code: session.Code(), Reason: ReasonExpired})
		}
	}
	return removed
}

// Len is the number of live sessions.
func (d *Directory) Len() int {
	return d.store.Len()
}
