package ports

import (
	"context"
	"time"
)

// DeviceInput holds advisory device telemetry attached to a ping.
type DeviceInput struct {
	DeviceID     string
	BatteryLevel int
	IsOnline     bool
}

// PingInput carries one candidate position report. Timestamp may be zero, in
// which case ingest time is used.
type PingInput struct {
	RiderID   string
	VehicleID string
	Latitude  float64
	Longitude float64
	Address   string
	Speed     float64 // meters/second
	Heading   float64 // degrees, [0,360)
	Timestamp time.Time
	Device    DeviceInput
}

// IngestResult is returned after a ping is durably stored.
type IngestResult struct {
	ID        string
	RiderID   string
	Timestamp time.Time
	Geohash   string
}

// IngestService validates, normalizes, and appends position reports.
type IngestService interface {
	// Ingest stores exactly one ping or returns a *domain.ValidationError
	// naming the offending field. Never drops a ping silently.
	Ingest(ctx context.Context, in PingInput) (*IngestResult, error)

	// Deactivate soft-deletes a stored ping, removing it from all derived
	// views while keeping it for audit.
	Deactivate(ctx context.Context, pingID string) error
}
