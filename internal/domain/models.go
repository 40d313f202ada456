package domain

import "time"

// Status is the lifecycle state of a game session.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// Phase refines Status for clients rendering the current screen.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseQuestion Phase = "question"
	PhaseResults  Phase = "results"
	PhaseFinished Phase = "finished"
)

// Role is how a connection takes part in a game.
type Role string

const (
	RoleHost    Role = "host"
	RolePlayer  Role = "player"
	RoleDisplay Role = "display"
)

// Membership binds a connection to one game.
type Membership struct {
	Code string
	Role Role
}

// Question models a multiple-choice question with exactly one correct option.
type Question struct {
	ID            string   `json:"id,omitempty" yaml:"id"`
	Text          string   `json:"text" yaml:"text"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer int      `json:"correctAnswer" yaml:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty" yaml:"explanation"`
	TimeLimit     int      `json:"timeLimit" yaml:"timeLimit"` // seconds
}

// Duration returns the time limit as a time.Duration.
func (q Question) Duration() time.Duration {
	return time.Duration(q.TimeLimit) * time.Second
}

// Public strips the correct answer and explanation for clients still answering.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:        q.ID,
		Text:      q.Text,
		Options:   append([]string(nil), q.Options...),
		TimeLimit: q.TimeLimit,
	}
}

// PublicQuestion is the view of a question that is safe to show while it is open.
type PublicQuestion struct {
	ID        string   `json:"id,omitempty"`
	Text      string   `json:"text"`
	Options   []string `json:"options"`
	TimeLimit int      `json:"timeLimit"`
}

// Quiz is an ordered collection of questions.
type Quiz struct {
	ID          string     `json:"id,omitempty" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description"`
	Questions   []Question `json:"questions" yaml:"questions"`
}

// Clone returns a deep copy so a running session never shares slices with its source.
func (q Quiz) Clone() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]string(nil), question.Options...)
		out.Questions[i] = question
	}
	return out
}

// Redacted hides correct answers and explanations.
func (q Quiz) Redacted() Quiz {
	out := q.Clone()
	for i := range out.Questions {
		out.Questions[i].CorrectAnswer = -1
		out.Questions[i].Explanation = ""
	}
	return out
}

// Participant is a joined player and their accumulated score.
type Participant struct {
	ID        string `json:"id"`
	Nickname  string `json:"nickname"`
	Avatar    string `json:"avatar,omitempty"`
	Connected bool   `json:"connected"`
	Score     int    `json:"score"`
}

// LeaderboardEntry is a ranked snapshot of a participant.
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	ID        string `json:"id"`
	Nickname  string `json:"nickname"`
	Avatar    string `json:"avatar,omitempty"`
	Connected bool   `json:"connected"`
	Score     int    `json:"score"`
}

// AnswerOutcome summarizes the handling of one submission.
type AnswerOutcome struct {
	QuestionIndex int    `json:"questionIndex"`
	Recorded      bool   `json:"recorded"` // counted as this player's answer to the question
	Correct       bool   `json:"isCorrect"`
	Duplicate     bool   `json:"duplicate"`
	Points        int    `json:"points"`
	TotalScore    int    `json:"totalScore"`
	CorrectAnswer int    `json:"correctAnswer"`
	Explanation   string `json:"explanation,omitempty"`
}

// GameState is the full snapshot returned by getGameState.
type GameState struct {
	Code                 string             `json:"id"`
	Status               Status             `json:"status"`
	Phase                Phase              `json:"phase"`
	CurrentQuestionIndex int                `json:"currentQuestionIndex"`
	TotalQuestions       int                `json:"totalQuestions"`
	CurrentQuestion      *PublicQuestion    `json:"currentQuestion,omitempty"`
	SecondsRemaining     int                `json:"secondsRemaining"`
	Quiz                 Quiz               `json:"quiz"`
	Players              []Participant      `json:"players"`
	Leaderboard          []LeaderboardEntry `json:"leaderboard"`
}

// GameSummary is what gets archived once a game finishes.
type GameSummary struct {
	Code          string             `json:"gameCode"`
	QuizID        string             `json:"quizId,omitempty"`
	QuizTitle     string             `json:"quizTitle"`
	QuestionCount int                `json:"questionCount"`
	PlayerCount   int                `json:"playerCount"`
	Leaderboard   []LeaderboardEntry `json:"leaderboard"`
	StartedAt     time.Time          `json:"startedAt"`
	FinishedAt    time.Time          `json:"finishedAt"`
}
