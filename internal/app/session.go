package app

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"live-trivia-service/internal/domain"
)

// DefaultResultsDelay is how long a closed question's results stay on screen.
const DefaultResultsDelay = 5 * time.Second

// Settings tune the question clock of every session.
type Settings struct {
	ResultsDelay         time.Duration
	CloseWhenAllAnswered bool
}

// DefaultSettings mirrors the shipped configuration.
func DefaultSettings() Settings {
	return Settings{ResultsDelay: DefaultResultsDelay, CloseWhenAllAnswered: true}
}

// Session is one running game. Every mutation happens under mu, including
// timer callbacks, so each call runs to completion before the next one
// observes the session.
type Session struct {
	code      string
	hostID    string
	quiz      domain.Quiz
	settings  Settings
	clock     clockwork.Clock
	sink      EventSink
	createdAt time.Time

	mu           sync.Mutex
	status       domain.Status
	phase        domain.Phase
	index        int
	questionAt   time.Time // zero unless a question is open
	startedAt    time.Time
	finishedAt   time.Time
	participants map[string]*participant
	nextSeq      int
	answered     map[string]bool
	timer        clockwork.Timer
	generation   uint64 // bumped whenever the pending timer is replaced or cancelled
	closed       bool
}

type discardSink struct{}

func (discardSink) Publish(string, domain.Event) {}
func (discardSink) Finished(domain.GameSummary) {}

type participant struct {
	domain.Participant
	seq int
}

func newSession(code, hostID string, quiz domain.Quiz, settings Settings, clock clockwork.Clock, sink EventSink) *Session {
	if settings.ResultsDelay <= 0 {
		settings.ResultsDelay = DefaultResultsDelay
	}
	if sink == nil {
		sink = discardSink{}
	}
	return &Session{
		code:         code,
		hostID:       hostID,
		quiz:         quiz.Clone(),
		settings:     settings,
		clock:        clock,
		sink:         sink,
		createdAt:    clock.Now(),
		status:       domain.StatusWaiting,
		phase:        domain.PhaseLobby,
		participants: make(map[string]*participant),
		answered:     make(map[string]bool),
	}
}

// Code is the public game code.
func (s *Session) Code() string { return s.code }

// HostID is the connection that created the game.
func (s *Session) HostID() string { return s.hostID }

// Quiz returns a copy of the quiz backing the session.
func (s *Session) Quiz() domain.Quiz { return s.quiz.Clone() }

func (s *Session) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// CurrentQuestionIndex is the 0-based index of the question being played or last played.
func (s *Session) CurrentQuestionIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// AddParticipant registers a player in the lobby.
func (s *Session) AddParticipant(id, nickname, avatar string) (domain.Participant, []domain.Participant, error) {
	name, err := domain.NormalizeNickname(nickname)
	if err != nil {
		return domain.Participant{}, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.Participant{}, nil, domain.ErrGameNotFound
	}
	if s.status != domain.StatusWaiting {
		return domain.Participant{}, nil, domain.ErrGameAlreadyStarted
	}

	p, ok := s.participants[id]
	if ok {
		p.Nickname = name
		p.Avatar = avatar
		p.Connected = true
	} else {
		p = &participant{
			Participant: domain.Participant{ID: id, Nickname: name, Avatar: avatar, Connected: true},
			seq:         s.nextSeq,
		}
		s.nextSeq++
		s.participants[id] = p
	}
	return p.Participant, s.rosterLocked(), nil
}

// RemoveParticipant drops a player and their score. It is safe to call for
// unknown ids and in any state. A non-nil payload means the departure closed
// the open question and must be broadcast.
func (s *Session) RemoveParticipant(id string) ([]domain.Participant, *domain.QuestionEndedPayload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.participants[id]
	delete(s.participants, id)
	delete(s.answered, id)
	if !ok {
		return s.rosterLocked(), nil, false
	}
	return s.rosterLocked(), s.closeIfAllAnsweredLocked(), true
}

// MarkDisconnected handles a player whose connection dropped. Lobby players
// are removed outright; once the game runs they stay ranked as disconnected.
// Like RemoveParticipant it may close the open question.
func (s *Session) MarkDisconnected(id string) ([]domain.Participant, *domain.QuestionEndedPayload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[id]
	if !ok || !p.Connected {
		return s.rosterLocked(), nil, false
	}
	if s.status == domain.StatusWaiting {
		delete(s.participants, id)
	} else {
		p.Connected = false
	}
	return s.rosterLocked(), s.closeIfAllAnsweredLocked(), true
}

// closeIfAllAnsweredLocked ends the open question once nobody connected is
// still expected to answer.
func (s *Session) closeIfAllAnsweredLocked() *domain.QuestionEndedPayload {
	if s.closed || s.phase != domain.PhaseQuestion || !s.settings.CloseWhenAllAnswered || !s.allAnsweredLocked() {
		return nil
	}
	ended := s.closeQuestionLocked()
	return &ended
}

// Start moves the lobby into the first question. Only the host may start.
func (s *Session) Start(requester string) (domain.QuestionPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return domain.QuestionPayload{}, domain.ErrGameNotFound
	case requester != s.hostID:
		return domain.QuestionPayload{}, domain.ErrUnauthorized
	case s.status != domain.StatusWaiting:
		return domain.QuestionPayload{}, domain.ErrGameAlreadyStarted
	case len(s.participants) == 0:
		return domain.QuestionPayload{}, domain.ErrNoParticipants
	}

	s.status = domain.StatusActive
	s.index = 0
	s.startedAt = s.clock.Now()
	s.beginQuestionClockLocked()
	return s.questionPayloadLocked(), nil
}

// beginQuestionClockLocked opens the current question and arms its timeout,
// replacing whatever timer was pending.
func (s *Session) beginQuestionClockLocked() {
	s.stopTimerLocked()
	gen := s.generation

	question := s.quiz.Questions[s.index]
	s.phase = domain.PhaseQuestion
	s.questionAt = s.clock.Now()
	s.answered = make(map[string]bool)
	s.timer = s.clock.AfterFunc(question.Duration(), func() { s.expireQuestion(gen) })
}

func (s *Session) expireQuestion(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.generation || s.phase != domain.PhaseQuestion {
		return
	}
	ended := s.closeQuestionLocked()
	s.sink.Publish(s.code, domain.Event{Type: domain.EventQuestionEnded, Payload: ended})
}

// closeQuestionLocked freezes answers and arms the results timer.
func (s *Session) closeQuestionLocked() domain.QuestionEndedPayload {
	s.stopTimerLocked()
	gen := s.generation

	question := s.quiz.Questions[s.index]
	s.phase = domain.PhaseResults
	s.questionAt = time.Time{}
	s.timer = s.clock.AfterFunc(s.settings.ResultsDelay, func() { s.advance(gen) })

	return domain.QuestionEndedPayload{
		QuestionIndex: s.index,
		CorrectAnswer: question.CorrectAnswer,
		Explanation:   question.Explanation,
		Leaderboard:   s.leaderboardLocked(),
		ResultsFor:    int(s.settings.ResultsDelay / time.Second),
		LastQuestion:  s.index == len(s.quiz.Questions)-1,
	}
}

func (s *Session) advance(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.generation || s.phase != domain.PhaseResults {
		return
	}
	if s.index+1 < len(s.quiz.Questions) {
		s.index++
		s.beginQuestionClockLocked()
		s.sink.Publish(s.code, domain.Event{Type: domain.EventNextQuestion, Payload: s.questionPayloadLocked()})
		return
	}

	s.finishLocked()
	s.sink.Publish(s.code, domain.Event{
		Type:    domain.EventGameFinished,
		Payload: domain.GameFinishedPayload{Leaderboard: s.leaderboardLocked()},
	})
	s.sink.Finished(s.summaryLocked())
}

func (s *Session) finishLocked() {
	s.stopTimerLocked()
	s.status = domain.StatusFinished
	s.phase = domain.PhaseFinished
	s.questionAt = time.Time{}
	s.finishedAt = s.clock.Now()
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.generation++
}

// SubmitAnswer records a player's choice for the open question. Late,
// out-of-range and repeated answers are acknowledged without scoring. When the submission
// closes the question early, the returned payload must be broadcast.
func (s *Session) SubmitAnswer(id string, option int) (domain.AnswerOutcome, *domain.QuestionEndedPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.AnswerOutcome{}, nil, domain.ErrGameNotFound
	}
	if s.status != domain.StatusActive {
		return domain.AnswerOutcome{}, nil, domain.ErrGameNotActive
	}

	// the answer stays hidden until this player's answer is locked in or the
	// question is closed for everyone
	question := s.quiz.Questions[s.index]
	out := domain.AnswerOutcome{QuestionIndex: s.index, CorrectAnswer: -1}
	reveal := func() {
		out.CorrectAnswer = question.CorrectAnswer
		out.Explanation = question.Explanation
	}
	if s.phase != domain.PhaseQuestion {
		reveal()
	}

	p, ok := s.participants[id]
	if !ok {
		return out, nil, nil
	}
	out.TotalScore = p.Score

	if s.phase != domain.PhaseQuestion {
		return out, nil, nil
	}
	if s.answered[id] {
		out.Duplicate = true
		out.Correct = option == question.CorrectAnswer
		reveal()
		return out, nil, nil
	}
	if option < 0 || option >= len(question.Options) {
		return out, nil, nil
	}
	elapsed := s.clock.Since(s.questionAt)
	if elapsed > question.Duration() {
		return out, nil, nil
	}

	s.answered[id] = true
	out.Recorded = true
	reveal()
	if option == question.CorrectAnswer {
		out.Correct = true
		out.Points = Points(question.TimeLimit, elapsed)
		p.Score += out.Points
	}
	out.TotalScore = p.Score

	return out, s.closeIfAllAnsweredLocked(), nil
}

func (s *Session) allAnsweredLocked() bool {
	connected := 0
	for id, p := range s.participants {
		if !p.Connected {
			continue
		}
		connected++
		if !s.answered[id] {
			return false
		}
	}
	return connected > 0
}

// Leaderboard ranks participants by score, earliest joiner first on ties.
func (s *Session) Leaderboard() []domain.LeaderboardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaderboardLocked()
}

// Roster lists participants in join order.
func (s *Session) Roster() []domain.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rosterLocked()
}

func (s *Session) orderedLocked() []*participant {
	ordered := make([]*participant, 0, len(s.participants))
	for _, p := range s.participants {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })
	return ordered
}

func (s *Session) rosterLocked() []domain.Participant {
	ordered := s.orderedLocked()
	roster := make([]domain.Participant, len(ordered))
	for i, p := range ordered {
		roster[i] = p.Participant
	}
	return roster
}

func (s *Session) leaderboardLocked() []domain.LeaderboardEntry {
	ordered := s.orderedLocked()
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Score > ordered[j].Score })

	entries := make([]domain.LeaderboardEntry, len(ordered))
	for i, p := range ordered {
		rank := i + 1
		if i > 0 && p.Score == ordered[i-1].Score {
			rank = entries[i-1].Rank
		}
		entries[i] = domain.LeaderboardEntry{
			Rank:      rank,
			ID:        p.ID,
			Nickname:  p.Nickname,
			Avatar:    p.Avatar,
			Connected: p.Connected,
			Score:     p.Score,
		}
	}
	return entries
}

func (s *Session) questionPayloadLocked() domain.QuestionPayload {
	question := s.quiz.Questions[s.index]
	return domain.QuestionPayload{
		QuestionIndex:  s.index,
		Question:       question.Public(),
		TotalQuestions: len(s.quiz.Questions),
		TimeLimit:      question.TimeLimit,
	}
}

// Snapshot is the full state as seen by viewer. Answers stay hidden from
// everyone but the host until the game is over.
func (s *Session) Snapshot(viewer string) domain.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()

	quiz := s.quiz.Clone()
	if viewer != s.hostID && s.status != domain.StatusFinished {
		quiz = quiz.Redacted()
	}
	state := domain.GameState{
		Code:                 s.code,
		Status:               s.status,
		Phase:                s.phase,
		CurrentQuestionIndex: s.index,
		TotalQuestions:       len(s.quiz.Questions),
		Quiz:                 quiz,
		Players:              s.rosterLocked(),
		Leaderboard:          s.leaderboardLocked(),
	}
	if s.status == domain.StatusActive {
		question := s.quiz.Questions[s.index].Public()
		state.CurrentQuestion = &question
	}
	if s.phase == domain.PhaseQuestion {
		remaining := s.quiz.Questions[s.index].Duration() - s.clock.Since(s.questionAt)
		if remaining > 0 {
			state.SecondsRemaining = int(math.Ceil(remaining.Seconds()))
		}
	}
	return state
}

func (s *Session) summaryLocked() domain.GameSummary {
	return domain.GameSummary{
		Code:          s.code,
		QuizID:        s.quiz.ID,
		QuizTitle:     s.quiz.Title,
		QuestionCount: len(s.quiz.Questions),
		PlayerCount:   len(s.participants),
		Leaderboard:   s.leaderboardLocked(),
		StartedAt:     s.startedAt,
		FinishedAt:    s.finishedAt,
	}
}

// Close tears the session down: the pending timer is cancelled and every
// later call or callback sees a closed session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopTimerLocked()
}

// Closed reports whether Close has run.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// abandoned reports a lobby whose players all left again, or a started game
// nobody is connected to anymore. A lobby nobody joined yet is not abandoned.
func (s *Session) abandoned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == domain.StatusWaiting {
		return s.nextSeq > 0 && len(s.participants) == 0
	}
	for _, p := range s.participants {
		if p.Connected {
			return false
		}
	}
	return true
}

// expired reports lobbies that never started and finished games past their ttl.
func (s *Session) expired(now time.Time, lobbyTTL, finishedTTL time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.status {
	case domain.StatusWaiting:
		return lobbyTTL > 0 && now.Sub(s.createdAt) > lobbyTTL
	case domain.StatusFinished:
		return finishedTTL > 0 && now.Sub(s.finishedAt) > finishedTTL
	}
	return false
}
