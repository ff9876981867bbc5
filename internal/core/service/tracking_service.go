package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/veloway/rider-tracking/internal/core/domain"
	"github.com/veloway/rider-tracking/internal/core/ports"
)

type trackingService struct {
	repo         ports.PingRepository
	cache        LocationCache
	defaultLimit int
	maxLimit     int
	log          zerolog.Logger
}

// NewTrackingService returns a TrackingService. defaultLimit applies when a
// history query omits the limit; maxLimit is the hard cap.
func NewTrackingService(repo ports.PingRepository, cache LocationCache, defaultLimit, maxLimit int, log zerolog.Logger) ports.TrackingService {
	return &trackingService{
		repo:         repo,
		cache:        cache,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		log:          log,
	}
}

// CurrentLocation resolves the rider's latest active ping: cache first, then
// a single indexed store lookup on miss. The cache is advisory; the store
// answer backfills it.
func (s *trackingService) CurrentLocation(ctx context.Context, riderID string) (*ports.PingView, error) {
	if riderID == "" {
		return nil, &domain.ValidationError{Field: "rider_id", Reason: "must not be empty"}
	}

	if cached, err := s.cache.Latest(ctx, riderID); err != nil {
		s.log.Warn().Err(err).Str("rider_id", riderID).Msg("latest-location cache read failed")
	} else if cached != nil {
		view := toPingView(cached)
		return &view, nil
	}

	ping, err := s.repo.FindLatestByRider(ctx, riderID)
	if err != nil {
		return nil, err
	}

	if cacheErr := s.cache.SetLatest(ctx, ping); cacheErr != nil {
		s.log.Warn().Err(cacheErr).Str("rider_id", riderID).Msg("latest-location cache backfill failed")
	}

	view := toPingView(ping)
	return &view, nil
}

// History returns a one-shot snapshot of the rider's recent active pings,
// most recent first, never exceeding the capped limit.
func (s *trackingService) History(ctx context.Context, q ports.HistoryQuery) ([]ports.PingView, error) {
	if q.RiderID == "" {
		return nil, &domain.ValidationError{Field: "rider_id", Reason: "must not be empty"}
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To) {
		return nil, &domain.ValidationError{Field: "from", Reason: "must not be after to"}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	pings, err := s.repo.FindHistory(ctx, ports.HistoryFilter{
		RiderID: q.RiderID,
		From:    q.From,
		To:      q.To,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}

	views := make([]ports.PingView, 0, len(pings))
	for _, p := range pings {
		views = append(views, toPingView(p))
	}
	return views, nil
}

func toPingView(p *domain.Ping) ports.PingView {
	return ports.PingView{
		ID:        p.ID,
		RiderID:   p.RiderID,
		VehicleID: p.VehicleID,
		Latitude:  p.Location.Latitude(),
		Longitude: p.Location.Longitude(),
		Address:   p.Address,
		SpeedMps:  p.Speed,
		SpeedKmh:  p.SpeedKmh(),
		Heading:   p.Heading,
		Timestamp: p.Timestamp,
		Device: ports.DeviceInput{
			DeviceID:     p.Device.DeviceID,
			BatteryLevel: p.Device.BatteryLevel,
			IsOnline:     p.Device.IsOnline,
		},
	}
}
