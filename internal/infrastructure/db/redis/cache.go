package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veloway/rider-tracking/internal/api/metrics"
	"github.com/veloway/rider-tracking/internal/core/domain"
)

// LocationCache keeps the latest ping per rider in a Redis hash with a TTL.
// The ping collection stays authoritative: the cache only short-circuits the
// current-location read path and is rebuilt from the store on any miss.
// Key format: rider:<rider_id>:latest
type LocationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocationCache wraps the given Redis client. ttl bounds how long a stale
// entry can outlive its rider going silent.
func NewLocationCache(client *redis.Client, ttl time.Duration) *LocationCache {
	return &LocationCache{client: client, ttl: ttl}
}

// Latest returns the cached latest ping for a rider, or (nil, nil) on miss.
func (c *LocationCache) Latest(ctx context.Context, riderID string) (*domain.Ping, error) {
	fields, err := c.client.HGetAll(ctx, c.key(riderID)).Result()
	if err != nil {
		return nil, fmt.Errorf("location cache get: %w", err)
	}
	if len(fields) == 0 {
		metrics.LocationCacheTotal.WithLabelValues("miss").Inc()
		return nil, nil
	}

	p, err := decodePing(riderID, fields)
	if err != nil {
		// Treat undecodable entries as misses so the store re-resolves.
		metrics.LocationCacheTotal.WithLabelValues("miss").Inc()
		return nil, nil
	}

	metrics.LocationCacheTotal.WithLabelValues("hit").Inc()
	return p, nil
}

// SetLatest stores p as the rider's latest ping unless the cached entry is
// already newer. The caller must have resolved p from the store; it seeds an
// empty slot, so writing an arbitrary ping here would let a late-arriving
// older report masquerade as the current location. The check-then-set is not
// atomic; a lost race only leaves the cache one ping behind, and the store
// remains the source of truth.
func (c *LocationCache) SetLatest(ctx context.Context, p *domain.Ping) error {
	cachedTS, err := c.client.HGet(ctx, c.key(p.RiderID), "ts").Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("location cache read ts: %w", err)
	}
	if err == nil && newerThan(cachedTS, p.Timestamp) {
		return nil
	}
	return c.write(ctx, p)
}

// UpdateLatest refreshes the rider's entry when p is newer than what is
// cached. On a miss it writes nothing: an ingested ping with an older device
// timestamp must not displace the store's max-timestamp resolution, so empty
// slots are only ever seeded by SetLatest after a store lookup.
func (c *LocationCache) UpdateLatest(ctx context.Context, p *domain.Ping) error {
	cachedTS, err := c.client.HGet(ctx, c.key(p.RiderID), "ts").Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("location cache read ts: %w", err)
	}
	if newerThan(cachedTS, p.Timestamp) {
		return nil
	}
	return c.write(ctx, p)
}

// newerThan reports whether the cached unix-nano timestamp is strictly after
// ts. Undecodable values count as older so they get overwritten.
func newerThan(cachedTS string, ts time.Time) bool {
	nanos, err := strconv.ParseInt(cachedTS, 10, 64)
	if err != nil {
		return false
	}
	return time.Unix(0, nanos).After(ts)
}

func (c *LocationCache) write(ctx context.Context, p *domain.Ping) error {
	entry := map[string]any{
		"id":         p.ID,
		"vehicle_id": p.VehicleID,
		"lat":        strconv.FormatFloat(p.Location.Latitude(), 'f', -1, 64),
		"lng":        strconv.FormatFloat(p.Location.Longitude(), 'f', -1, 64),
		"geohash":    p.Geohash,
		"address":    p.Address,
		"speed":      strconv.FormatFloat(p.Speed, 'f', -1, 64),
		"heading":    strconv.FormatFloat(p.Heading, 'f', -1, 64),
		"ts":         strconv.FormatInt(p.Timestamp.UnixNano(), 10),
		"device_id":  p.Device.DeviceID,
		"battery":    strconv.Itoa(p.Device.BatteryLevel),
		"online":     strconv.FormatBool(p.Device.IsOnline),
	}

	key := c.key(p.RiderID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, entry)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("location cache set: %w", err)
	}
	return nil
}

// Invalidate drops the cached entry so the next read hits the store. Used
// after a ping is deactivated, since the cached latest may be the one removed.
func (c *LocationCache) Invalidate(ctx context.Context, riderID string) error {
	if err := c.client.Del(ctx, c.key(riderID)).Err(); err != nil {
		return fmt.Errorf("location cache invalidate: %w", err)
	}
	return nil
}

func (c *LocationCache) key(riderID string) string {
	return fmt.Sprintf("rider:%s:latest", riderID)
}

func decodePing(riderID string, fields map[string]string) (*domain.Ping, error) {
	lat, err := strconv.ParseFloat(fields["lat"], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cached latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(fields["lng"], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cached longitude: %w", err)
	}
	nanos, err := strconv.ParseInt(fields["ts"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cached timestamp: %w", err)
	}
	speed, err := strconv.ParseFloat(fields["speed"], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cached speed: %w", err)
	}
	heading, err := strconv.ParseFloat(fields["heading"], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cached heading: %w", err)
	}
	battery, _ := strconv.Atoi(fields["battery"])
	online, _ := strconv.ParseBool(fields["online"])

	return &domain.Ping{
		ID:        fields["id"],
		RiderID:   riderID,
		VehicleID: fields["vehicle_id"],
		Location:  domain.NewGeoPoint(lat, lng),
		Geohash:   fields["geohash"],
		Address:   fields["address"],
		Speed:     speed,
		Heading:   heading,
		Timestamp: time.Unix(0, nanos).UTC(),
		Device: domain.DeviceInfo{
			DeviceID:     fields["device_id"],
			BatteryLevel: battery,
			IsOnline:     online,
		},
		IsActive: true,
	}, nil
}
