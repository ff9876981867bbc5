package service

import (
	"context"
	"time"

	"github.com/mmcloughlin/geohash"
	"github.com/rs/zerolog"

	"github.com/veloway/rider-tracking/internal/core/domain"
	"github.com/veloway/rider-tracking/internal/core/ports"
)

// geohashPrecision 9 resolves to roughly 5m cells, enough for nearest-rider
// lookups without leaking exact positions into key space.
const geohashPrecision = 9

// LocationCache abstracts the latest-location side store (Redis). Cache
// failures are never fatal; the ping collection stays authoritative.
type LocationCache interface {
	// Latest returns the cached latest ping for a rider, or (nil, nil) on miss.
	Latest(ctx context.Context, riderID string) (*domain.Ping, error)
	// SetLatest stores p as the rider's latest ping unless a newer one is
	// already cached. Only callers that resolved p from the store may use it;
	// a freshly ingested ping is not necessarily the rider's latest.
	SetLatest(ctx context.Context, p *domain.Ping) error
	// UpdateLatest refreshes an existing entry when p is newer than it. On a
	// cache miss it writes nothing: an arbitrary ingested ping may be a
	// late-arriving older report, so resolution stays with the store.
	UpdateLatest(ctx context.Context, p *domain.Ping) error
	// Invalidate drops the cached entry for a rider.
	Invalidate(ctx context.Context, riderID string) error
}

type ingestService struct {
	repo          ports.PingRepository
	cache         LocationCache
	maxFutureSkew time.Duration
	log           zerolog.Logger
}

// NewIngestService returns an IngestService. maxFutureSkew bounds how far
// ahead of ingest time a device timestamp may be before it is rejected.
func NewIngestService(repo ports.PingRepository, cache LocationCache, maxFutureSkew time.Duration, log zerolog.Logger) ports.IngestService {
	return &ingestService{
		repo:          repo,
		cache:         cache,
		maxFutureSkew: maxFutureSkew,
		log:           log,
	}
}

// Ingest validates and normalizes the candidate report, appends it, and
// refreshes the latest-location cache. Exactly one ping per call; the write
// is all-or-nothing.
func (s *ingestService) Ingest(ctx context.Context, in ports.PingInput) (*ports.IngestResult, error) {
	now := time.Now().UTC()

	ping, err := buildPing(in, now, s.maxFutureSkew)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.Insert(ctx, ping)
	if err != nil {
		s.log.Error().Err(err).Str("rider_id", in.RiderID).Msg("failed to append ping")
		return nil, err
	}
	ping.ID = id

	if cacheErr := s.cache.UpdateLatest(ctx, ping); cacheErr != nil {
		s.log.Warn().Err(cacheErr).Str("rider_id", ping.RiderID).Msg("latest-location cache update failed")
	}

	s.log.Info().
		Str("ping_id", id).
		Str("rider_id", ping.RiderID).
		Time("timestamp", ping.Timestamp).
		Msg("ping ingested")

	return &ports.IngestResult{
		ID:        id,
		RiderID:   ping.RiderID,
		Timestamp: ping.Timestamp,
		Geohash:   ping.Geohash,
	}, nil
}

// Deactivate soft-deletes a ping and invalidates the rider's cached latest
// location so the next read re-resolves against the store.
func (s *ingestService) Deactivate(ctx context.Context, pingID string) error {
	if pingID == "" {
		return &domain.ValidationError{Field: "id", Reason: "must not be empty"}
	}

	ping, err := s.repo.Deactivate(ctx, pingID)
	if err != nil {
		return err
	}

	if cacheErr := s.cache.Invalidate(ctx, ping.RiderID); cacheErr != nil {
		s.log.Warn().Err(cacheErr).Str("rider_id", ping.RiderID).Msg("latest-location cache invalidation failed")
	}

	s.log.Info().Str("ping_id", pingID).Str("rider_id", ping.RiderID).Msg("ping deactivated")
	return nil
}

// buildPing normalizes a candidate report into a storable ping, rejecting it
// with a field-naming validation error on any range violation.
func buildPing(in ports.PingInput, now time.Time, maxFutureSkew time.Duration) (*domain.Ping, error) {
	if in.RiderID == "" {
		return nil, &domain.ValidationError{Field: "rider_id", Reason: "must not be empty"}
	}
	if in.Latitude < -90 || in.Latitude > 90 {
		return nil, &domain.ValidationError{Field: "latitude", Reason: "must be between -90 and 90"}
	}
	if in.Longitude < -180 || in.Longitude > 180 {
		return nil, &domain.ValidationError{Field: "longitude", Reason: "must be between -180 and 180"}
	}
	if in.Speed < 0 {
		return nil, &domain.ValidationError{Field: "speed", Reason: "must not be negative"}
	}
	if in.Heading < 0 || in.Heading >= 360 {
		return nil, &domain.ValidationError{Field: "heading", Reason: "must be in [0,360)"}
	}
	if in.Device.BatteryLevel < 0 || in.Device.BatteryLevel > 100 {
		return nil, &domain.ValidationError{Field: "device.battery_level", Reason: "must be between 0 and 100"}
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = now
	}
	ts = ts.UTC()
	if ts.After(now.Add(maxFutureSkew)) {
		return nil, &domain.ValidationError{Field: "timestamp", Reason: "too far in the future"}
	}

	return &domain.Ping{
		RiderID:   in.RiderID,
		VehicleID: in.VehicleID,
		Location:  domain.NewGeoPoint(in.Latitude, in.Longitude),
		Geohash:   geohash.EncodeWithPrecision(in.Latitude, in.Longitude, geohashPrecision),
		Address:   in.Address,
		Speed:     in.Speed,
		Heading:   in.Heading,
		Timestamp: ts,
		Device: domain.DeviceInfo{
			DeviceID:     in.Device.DeviceID,
			BatteryLevel: in.Device.BatteryLevel,
			IsOnline:     in.Device.IsOnline,
		},
		IsActive: true,
	}, nil
}
