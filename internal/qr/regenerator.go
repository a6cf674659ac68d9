package qr

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/farellandr/eventease/internal/metrics"
)

// PendingQueue lists ticket codes whose image is missing and records when
// one has been rendered.
type PendingQueue interface {
	Pending(ctx context.Context, limit int) ([]string, error)
	MarkRendered(ctx context.Context, code string) error
	CountPending(ctx context.Context) (int64, error)
}

type Regenerator struct {
	renderer *Renderer
	queue    PendingQueue
	batch    int
}

func NewRegenerator(renderer *Renderer, queue PendingQueue, batch int) *Regenerator {
	if batch <= 0 {
		batch = 100
	}
	return &Regenerator{renderer: renderer, queue: queue, batch: batch}
}

// RunOnce renders one batch of pending images and returns how many
// succeeded. Failed codes stay pending for the next pass.
func (g *Regenerator) RunOnce(ctx context.Context) (int, error) {
	codes, err := g.queue.Pending(ctx, g.batch)
	if err != nil {
		return 0, err
	}

	rendered := 0
	for _, code := range codes {
		if ctx.Err() != nil {
			break
		}
		if err := g.renderer.Render(ctx, code); err != nil {
			log.Warn().Err(err).Str("code", code).Msg("qr regeneration failed")
			continue
		}
		if err := g.queue.MarkRendered(ctx, code); err != nil {
			log.Error().Err(err).Str("code", code).Msg("failed to clear qr pending flag")
			continue
		}
		rendered++
	}

	if n, err := g.queue.CountPending(ctx); err == nil {
		metrics.QRPendingTickets.Set(float64(n))
	}
	return rendered, ctx.Err()
}

// Run calls RunOnce every interval until ctx is cancelled.
func (g *Regenerator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if n, err := g.RunOnce(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("qr regeneration pass failed")
		} else if n > 0 {
			log.Info().Int("rendered", n).Msg("regenerated pending qr images")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
