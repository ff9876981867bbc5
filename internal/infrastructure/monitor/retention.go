package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/veloway/rider-tracking/internal/api/metrics"
)

// PingPurger is the slice of the ping store the sweeper needs.
type PingPurger interface {
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// RetentionSweeper periodically hard-deletes pings older than maxAge. Surviving
// records are untouched; a failed sweep leaves everything in place and is
// retried on the next tick.
type RetentionSweeper struct {
	store    PingPurger
	interval time.Duration
	maxAge   time.Duration
	log      zerolog.Logger
}

func NewRetentionSweeper(store PingPurger, interval, maxAge time.Duration, log zerolog.Logger) *RetentionSweeper {
	return &RetentionSweeper{
		store:    store,
		interval: interval,
		maxAge:   maxAge,
		log:      log,
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (s *RetentionSweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *RetentionSweeper) sweep(ctx context.Context) {
	removed, err := s.store.PurgeOlderThan(ctx, s.maxAge)
	if err != nil {
		s.log.Error().Err(err).Msg("retention sweep failed")
		return
	}

	metrics.PingsPurgedTotal.Add(float64(removed))
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Dur("max_age", s.maxAge).Msg("retention sweep removed pings")
	}
}
