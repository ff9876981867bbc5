package ports

import (
	"context"
	"time"
)

// PingView is the read-side representation of a stored ping. SpeedKmh is
// derived from the stored SI speed at read time.
type PingView struct {
	ID        string
	RiderID   string
	VehicleID string
	Latitude  float64
	Longitude float64
	Address   string
	SpeedMps  float64
	SpeedKmh  float64
	Heading   float64
	Timestamp time.Time
	Device    DeviceInput
}

// HistoryQuery carries the parameters for a rider history request. A zero
// From/To leaves that bound open; Limit <= 0 selects the configured default.
type HistoryQuery struct {
	RiderID string
	From    time.Time
	To      time.Time
	Limit   int
}

// TrackingService serves the read side: current location and bounded history.
type TrackingService interface {
	// CurrentLocation returns the most recent active ping for the rider, or
	// domain.ErrNoCurrentLocation when the rider has never reported (or all
	// reports were deactivated).
	CurrentLocation(ctx context.Context, riderID string) (*PingView, error)

	// History returns up to Limit active pings, most recent first. An empty
	// result is a normal outcome, not an error.
	History(ctx context.Context, q HistoryQuery) ([]PingView, error)
}

// OfflineRider pairs a silent rider with its last known report and the
// display attributes resolved from the external rider directory.
type OfflineRider struct {
	RiderID    string
	Name       string
	LastSeen   PingView
	LastUpdate time.Time
}

// PresenceService classifies riders as offline by ping recency.
type PresenceService interface {
	// FindOffline lists riders whose latest active ping predates now-cutoff.
	// Riders with zero active pings are absent (undefined presence, not
	// negative presence).
	FindOffline(ctx context.Context, cutoff time.Duration) ([]OfflineRider, error)
}
