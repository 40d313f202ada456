package app

import (
	"context"
	"log/slog"
	"time"

	"live-trivia-service/internal/domain"
)

const archiveTimeout = 10 * time.Second

// Publisher forwards what sessions report on their own to the room, and
// archives finished games.
type Publisher struct {
	gateway Broadcaster
	archive ResultArchive
}

// NewPublisher wires the gateway; archive may be nil.
func NewPublisher(gateway Broadcaster, archive ResultArchive) *Publisher {
	return &Publisher{gateway: gateway, archive: archive}
}

func (p *Publisher) Publish(code string, event domain.Event) {
	p.gateway.ToRoom(code, event)
}

// Finished stores the summary in the background; it is called with the
// session lock held.
func (p *Publisher) Finished(summary domain.GameSummary) {
	slog.Info("game finished", "gameCode", summary.Code, "players", summary.PlayerCount)
	if p.archive == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := p.archive.Archive(ctx, summary); err != nil {
			slog.Error("archive game result", "gameCode", summary.Code, "error", err)
		}
	}()
}
