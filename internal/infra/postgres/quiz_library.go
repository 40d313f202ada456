package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"live-trivia-service/internal/domain"
)

// QuizLibrary writes quizzes into the library table read by QuizLoader.
type QuizLibrary struct {
	db *bun.DB
}

func NewQuizLibrary(db *bun.DB) *QuizLibrary {
	return &QuizLibrary{db: db}
}

// Upsert inserts or replaces quizzes by id in one transaction.
func (l *QuizLibrary) Upsert(ctx context.Context, quizzes []domain.Quiz) error {
	if len(quizzes) == 0 {
		return nil
	}
	records := make([]QuizRecord, 0, len(quizzes))
	now := time.Now().UTC()
	for _, quiz := range quizzes {
		data, err := json.Marshal(quiz)
		if err != nil {
			return fmt.Errorf("marshal quiz %q: %w", quiz.ID, err)
		}
		records = append(records, QuizRecord{ID: quiz.ID, Title: quiz.Title, Data: string(data), UpdatedAt: now})
	}

	return l.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&records).
			On("CONFLICT (id) DO UPDATE").
			Set("title = EXCLUDED.title").
			Set("data = EXCLUDED.data").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert quizzes: %w", err)
		}
		return nil
	})
}
