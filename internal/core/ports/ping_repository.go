package ports

import (
	"context"
	"time"

	"github.com/veloway/rider-tracking/internal/core/domain"
)

// HistoryFilter carries the query parameters for a rider history lookup.
// Zero From/To mean "unbounded on that side"; the service layer caps Limit.
type HistoryFilter struct {
	RiderID string
	From    time.Time // optional: timestamp >= From
	To      time.Time // optional: timestamp <= To
	Limit   int       // max rows returned, always > 0 by the time it reaches the repo
}

// PingRepository defines persistence operations over the append-only ping
// collection. All read methods exclude inactive pings unless stated otherwise.
type PingRepository interface {
	// Insert appends a new ping and returns its stored identifier.
	// Fails only on underlying I/O errors (wrapped in *domain.StorageError).
	Insert(ctx context.Context, p *domain.Ping) (string, error)

	// FindByRider returns all pings for a rider in no particular order.
	// Callers apply their own sort; activeOnly=false includes soft-deleted
	// pings (audit reads).
	FindByRider(ctx context.Context, riderID string, activeOnly bool) ([]*domain.Ping, error)

	// FindLatestByRider returns the active ping with the maximum timestamp
	// for the rider, ties broken by latest insertion. Returns
	// domain.ErrNoCurrentLocation when the rider has no active pings.
	FindLatestByRider(ctx context.Context, riderID string) (*domain.Ping, error)

	// FindHistory returns active pings matching the filter, ordered by
	// timestamp descending (ties: latest insertion first), at most Limit rows.
	FindHistory(ctx context.Context, f HistoryFilter) ([]*domain.Ping, error)

	// FindLatestPerRider returns, for every rider whose latest active ping
	// predates olderThan, that latest ping. Riders with no active pings are
	// absent from the result.
	FindLatestPerRider(ctx context.Context, olderThan time.Time) ([]*domain.Ping, error)

	// Deactivate soft-deletes a ping by id and returns the updated record.
	// Returns domain.ErrPingNotFound when no such ping exists.
	Deactivate(ctx context.Context, pingID string) (*domain.Ping, error)

	// PurgeOlderThan hard-deletes pings measured before the given age and
	// reports how many were removed. Surviving records are untouched.
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
}
