package postgres

import (
	"time"

	"github.com/uptrace/bun"
)

// QuizRecord is a row of the quiz library.
type QuizRecord struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID        string    `bun:"id,pk"`
	Title     string    `bun:"title,notnull"`
	Data      string    `bun:"data,type:jsonb,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// GameResultRecord is the archived outcome of one finished game.
type GameResultRecord struct {
	bun.BaseModel `bun:"table:game_results"`

	ID            int64     `bun:"id,pk,autoincrement"`
	Code          string    `bun:"code,notnull"`
	QuizID        string    `bun:"quiz_id"`
	QuizTitle     string    `bun:"quiz_title,notnull"`
	QuestionCount int       `bun:"question_count,notnull"`
	PlayerCount   int       `bun:"player_count,notnull"`
	Leaderboard   string    `bun:"leaderboard,type:jsonb,notnull"`
	StartedAt     time.Time `bun:"started_at,notnull"`
	FinishedAt    time.Time `bun:"finished_at,notnull"`
}
