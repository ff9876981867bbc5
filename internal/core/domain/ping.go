package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrNoCurrentLocation = errors.New("rider has no active location reports")
var ErrPingNotFound = errors.New("ping not found")
var ErrRiderNotFound = errors.New("rider not found")

// ValidationError reports a rejected ingest field. Pings failing validation
// are never stored, not even partially.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError wraps an underlying store I/O failure. Retry policy belongs to
// the caller, never to the engine.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// GeoPoint is a GeoJSON Point so the collection can carry a 2dsphere index.
// Coordinates are ordered longitude, latitude per the GeoJSON convention.
type GeoPoint struct {
	Type        string     `json:"type" bson:"type"`
	Coordinates [2]float64 `json:"coordinates" bson:"coordinates"`
}

// NewGeoPoint builds a GeoJSON point from latitude/longitude.
func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{lng, lat}}
}

func (p GeoPoint) Latitude() float64  { return p.Coordinates[1] }
func (p GeoPoint) Longitude() float64 { return p.Coordinates[0] }

// DeviceInfo is advisory metadata from the reporting device.
type DeviceInfo struct {
	DeviceID     string `json:"device_id,omitempty" bson:"device_id,omitempty"`
	BatteryLevel int    `json:"battery_level" bson:"battery_level"`
	IsOnline     bool   `json:"is_online" bson:"is_online"`
}

// Ping is one timestamped position report from a rider's device. Records are
// append-only: corrections arrive as new pings with later timestamps, and the
// only mutation ever applied is flipping IsActive off (soft delete, retained
// for audit).
type Ping struct {
	ID        string     `json:"id" bson:"_id,omitempty"`
	RiderID   string     `json:"rider_id" bson:"rider_id"`
	VehicleID string     `json:"vehicle_id,omitempty" bson:"vehicle_id,omitempty"`
	Location  GeoPoint   `json:"location" bson:"location"`
	Geohash   string     `json:"geohash" bson:"geohash"`
	Address   string     `json:"address,omitempty" bson:"address,omitempty"`
	Speed     float64    `json:"speed" bson:"speed"` // meters/second
	Heading   float64    `json:"heading" bson:"heading"`
	Timestamp time.Time  `json:"timestamp" bson:"timestamp"`
	Device    DeviceInfo `json:"device" bson:"device"`
	IsActive  bool       `json:"is_active" bson:"is_active"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
}

// SpeedKmh derives the display speed from the stored SI value. Computed on
// read, never persisted, so the two units cannot drift.
func (p *Ping) SpeedKmh() float64 {
	return math.Round(p.Speed * 3.6)
}
