// Package monitor runs the periodic presence scan that keeps the offline
// rider gauge current between on-demand queries.
package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/veloway/rider-tracking/internal/api/metrics"
	"github.com/veloway/rider-tracking/internal/core/ports"
)

// PresenceMonitor periodically classifies riders against the configured
// cutoff. The scan is read-only, so a cancelled or failed run leaves no
// partial state.
type PresenceMonitor struct {
	presence ports.PresenceService
	interval time.Duration
	cutoff   time.Duration
	log      zerolog.Logger
}

func NewPresenceMonitor(presence ports.PresenceService, interval, cutoff time.Duration, log zerolog.Logger) *PresenceMonitor {
	return &PresenceMonitor{
		presence: presence,
		interval: interval,
		cutoff:   cutoff,
		log:      log,
	}
}

// Start runs the scan loop until ctx is cancelled. The first scan happens one
// interval after start, not immediately, so startup is not delayed by a cold
// full-collection pass.
func (m *PresenceMonitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.scan(ctx)
			}
		}
	}()
}

func (m *PresenceMonitor) scan(ctx context.Context) {
	start := time.Now()

	offline, err := m.presence.FindOffline(ctx, m.cutoff)
	metrics.PresenceScanDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.log.Error().Err(err).Msg("presence scan failed")
		return
	}

	metrics.OfflineRiders.Set(float64(len(offline)))
	m.log.Debug().
		Int("offline_riders", len(offline)).
		Dur("elapsed", time.Since(start)).
		Msg("periodic presence scan")
}
