package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"

	"live-trivia-service/internal/domain"
)

const defaultRecentLimit = 20

// ResultArchive stores finished game summaries in game_results.
type ResultArchive struct {
	db *bun.DB
}

func NewResultArchive(db *bun.DB) *ResultArchive {
	return &ResultArchive{db: db}
}

func (a *ResultArchive) Archive(ctx context.Context, summary domain.GameSummary) error {
	leaderboard, err := json.Marshal(summary.Leaderboard)
	if err != nil {
		return fmt.Errorf("marshal leaderboard: %w", err)
	}
	record := &GameResultRecord{
		Code:          summary.Code,
		QuizID:        summary.QuizID,
		QuizTitle:     summary.QuizTitle,
		QuestionCount: summary.QuestionCount,
		PlayerCount:   summary.PlayerCount,
		Leaderboard:   string(leaderboard),
		StartedAt:     summary.StartedAt,
		FinishedAt:    summary.FinishedAt,
	}
	if _, err := a.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return fmt.Errorf("insert game result: %w", err)
	}
	return nil
}

// Recent returns the latest results, newest first.
func (a *ResultArchive) Recent(ctx context.Context, limit int) ([]domain.GameSummary, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	var records []GameResultRecord
	err := a.db.NewSelect().
		Model(&records).
		OrderExpr("finished_at DESC, id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select game results: %w", err)
	}

	out := make([]domain.GameSummary, 0, len(records))
	for _, record := range records {
		summary := domain.GameSummary{
			Code:          record.Code,
			QuizID:        record.QuizID,
			QuizTitle:     record.QuizTitle,
			QuestionCount: record.QuestionCount,
			PlayerCount:   record.PlayerCount,
			StartedAt:     record.StartedAt,
			FinishedAt:    record.FinishedAt,
		}
		if err := json.Unmarshal([]byte(record.Leaderboard), &summary.Leaderboard); err != nil {
			return nil, fmt.Errorf("unmarshal leaderboard of %s: %w", record.Code, err)
		}
		out = append(out, summary)
	}
	return out, nil
}
