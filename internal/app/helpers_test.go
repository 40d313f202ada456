package app

import (
	"sync"

	"live-trivia-service/internal/domain"
)

func twoQuestionQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "capitals",
		Title: "Capitals",
		Questions: []domain.Question{
			{Text: "Capital of France?", Options: []string{"Paris", "Rome", "Madrid"}, CorrectAnswer: 0, TimeLimit: 30, Explanation: "Paris."},
			{Text: "Capital of Japan?", Options: []string{"Osaka", "Tokyo"}, CorrectAnswer: 1, TimeLimit: 20},
		},
	}
}

type recordingSink struct {
	mu       sync.Mutex
	events   []domain.Event
	finished []domain.GameSummary
}

func (r *recordingSink) Publish(_ string, event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingSink) Finished(summary domain.GameSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, summary)
}

func (r *recordingSink) types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recordingSink) finishedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.finished)
}

// fakeGateway keeps rooms in memory and records what each connection received.
type fakeGateway struct {
	mu    sync.Mutex
	rooms map[string]map[string]bool
	inbox map[string][]domain.Event
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		rooms: make(map[string]map[string]bool),
		inbox: make(map[string][]domain.Event),
	}
}

func (g *fakeGateway) Subscribe(code, connID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rooms[code] == nil {
		g.rooms[code] = make(map[string]bool)
	}
	g.rooms[code][connID] = true
}

func (g *fakeGateway) Unsubscribe(code, connID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rooms[code], connID)
}

func (g *fakeGateway) CloseRoom(code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rooms, code)
}

func (g *fakeGateway) ToRoom(code string, event domain.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id := range g.rooms[code] {
		g.inbox[id] = append(g.inbox[id], event)
	}
}

func (g *fakeGateway) ToConnection(connID string, event domain.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inbox[connID] = append(g.inbox[connID], event)
}

func (g *fakeGateway) members(code string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms[code])
}

// take returns and clears everything connID received so far.
func (g *fakeGateway) take(connID string) []domain.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := g.inbox[connID]
	delete(g.inbox, connID)
	return out
}

func eventTypes(events []domain.Event) []domain.EventType {
	out := make([]domain.EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

type mapStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newMapStore() *mapStore { return &mapStore{sessions: make(map[string]*Session)} }

func (m *mapStore) Insert(code string, s *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[code]; ok {
		return false
	}
	m.sessions[code] = s
	return true
}

func (m *mapStore) Get(code string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[code]
	return s, ok
}

func (m *mapStore) Delete(code string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[code]
	delete(m.sessions, code)
	return s, ok
}

func (m *mapStore) List() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *mapStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

type mapRegistry struct {
	mu sync.Mutex
	m  map[string]domain.Membership
}

func newMapRegistry() *mapRegistry { return &mapRegistry{m: make(map[string]domain.Membership)} }

func (r *mapRegistry) Bind(connID string, membership domain.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[connID]; ok {
		return domain.ErrAlreadyInGame
	}
	r.m[connID] = membership
	return nil
}

func (r *mapRegistry) Lookup(connID string) (domain.Membership, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.m[connID]
	return m, ok
}

func (r *mapRegistry) Unbind(connID string) (domain.Membership, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.m[connID]
	delete(r.m, connID)
	return m, ok
}

func (r *mapRegistry) UnbindGame(code string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, m := range r.m {
		if m.Code == code {
			ids = append(ids, id)
			delete(r.m, id)
		}
	}
	return ids
}

// received lists the event types connID got so far without clearing them.
func (g *fakeGateway) received(connID string) []domain.EventType {
	g.mu.Lock()
	defer g.mu.Unlock()
	return eventTypes(g.inbox[connID])
}
