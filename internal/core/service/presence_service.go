package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/veloway/rider-tracking/internal/core/domain"
	"github.com/veloway/rider-tracking/internal/core/ports"
)

type presenceService struct {
	repo      ports.PingRepository
	directory ports.RiderDirectory
	log       zerolog.Logger
}

// NewPresenceService returns a PresenceService backed by the ping store and
// the external rider directory.
func NewPresenceService(repo ports.PingRepository, directory ports.RiderDirectory, log zerolog.Logger) ports.PresenceService {
	return &presenceService{
		repo:      repo,
		directory: directory,
		log:       log,
	}
}

// FindOffline lists riders whose latest active ping predates now-cutoff. The
// grouping scan runs first and is fully drained before any directory lookup,
// so no store cursor is held across the external join.
func (s *presenceService) FindOffline(ctx context.Context, cutoff time.Duration) ([]ports.OfflineRider, error) {
	if cutoff <= 0 {
		return nil, &domain.ValidationError{Field: "cutoff", Reason: "must be positive"}
	}

	threshold := time.Now().UTC().Add(-cutoff)

	latest, err := s.repo.FindLatestPerRider(ctx, threshold)
	if err != nil {
		return nil, err
	}

	offline := make([]ports.OfflineRider, 0, len(latest))
	for _, p := range latest {
		entry := ports.OfflineRider{
			RiderID:    p.RiderID,
			LastSeen:   toPingView(p),
			LastUpdate: p.Timestamp,
		}

		// Display name is advisory; a directory miss does not hide the rider.
		rider, dirErr := s.directory.FindByID(ctx, p.RiderID)
		switch {
		case dirErr == nil:
			entry.Name = rider.Name
		case errors.Is(dirErr, domain.ErrRiderNotFound):
			s.log.Debug().Str("rider_id", p.RiderID).Msg("offline rider missing from directory")
		default:
			s.log.Warn().Err(dirErr).Str("rider_id", p.RiderID).Msg("rider directory lookup failed")
		}

		offline = append(offline, entry)
	}

	s.log.Debug().
		Dur("cutoff", cutoff).
		Int("offline_riders", len(offline)).
		Msg("presence scan complete")

	return offline, nil
}
