package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper is satisfied by *board.Registry.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// BoardSweeper evicts admin board caches nobody has touched for a while.
type BoardSweeper struct {
	registry     Sweeper
	idleTTL      time.Duration
	tickInterval time.Duration
	logger       *zap.Logger
}

func NewBoardSweeper(registry Sweeper, idleTTL time.Duration, logger *zap.Logger) *BoardSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	tick := idleTTL / 4
	if tick < time.Second {
		tick = time.Second
	}
	return &BoardSweeper{
		registry:     registry,
		idleTTL:      idleTTL,
		tickInterval: tick,
		logger:       logger,
	}
}

func (w *BoardSweeper) Start(ctx context.Context) {
	w.logger.Info("board sweeper started", zap.Duration("idle_ttl", w.idleTTL))

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("board sweeper stopped")
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *BoardSweeper) sweep() {
	if n := w.registry.Sweep(w.idleTTL); n > 0 {
		w.logger.Info("idle boards evicted", zap.Int("count", n))
	}
}
