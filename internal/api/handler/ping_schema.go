package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type deviceRequest struct {
	DeviceID     string `json:"device_id"`
	BatteryLevel int    `json:"battery_level" validate:"gte=0,lte=100"`
	IsOnline     bool   `json:"is_online"`
}

// ingestPingRequest is one candidate position report. Range tags mirror the
// domain checks so obviously bad payloads are rejected at the edge; the
// service re-validates with field-naming errors for non-HTTP callers.
type ingestPingRequest struct {
	RiderID   string        `json:"rider_id"   validate:"required"`
	VehicleID string        `json:"vehicle_id"`
	Latitude  float64       `json:"latitude"   validate:"gte=-90,lte=90"`
	Longitude float64       `json:"longitude"  validate:"gte=-180,lte=180"`
	Address   string        `json:"address"`
	Speed     float64       `json:"speed"      validate:"gte=0"`
	Heading   float64       `json:"heading"    validate:"gte=0,lt=360"`
	Timestamp time.Time     `json:"timestamp"` // optional: zero means ingest time
	Device    deviceRequest `json:"device"`
}

// --- Response types ---
// Response-only types owned by the transport layer, intentionally separate
// from ports/domain types so the JSON contract is not coupled to internal
// service changes.

type ingestPingResponse struct {
	ID        string    `json:"id"`
	RiderID   string    `json:"rider_id"`
	Timestamp time.Time `json:"timestamp"`
	Geohash   string    `json:"geohash"`
}

type acceptedResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

type deviceResponse struct {
	DeviceID     string `json:"device_id,omitempty"`
	BatteryLevel int    `json:"battery_level"`
	IsOnline     bool   `json:"is_online"`
}

type pingResponse struct {
	ID        string         `json:"id"`
	RiderID   string         `json:"rider_id"`
	VehicleID string         `json:"vehicle_id,omitempty"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Address   string         `json:"address,omitempty"`
	SpeedMps  float64        `json:"speed_mps"`
	SpeedKmh  float64        `json:"speed_kmh"`
	Heading   float64        `json:"heading"`
	Timestamp time.Time      `json:"timestamp"`
	Device    deviceResponse `json:"device"`
}

type historyResponse struct {
	RiderID string         `json:"rider_id"`
	Count   int            `json:"count"`
	Data    []pingResponse `json:"data"`
}

type offlineRiderResponse struct {
	RiderID    string       `json:"rider_id"`
	Name       string       `json:"name,omitempty"`
	LastUpdate time.Time    `json:"last_update"`
	LastSeen   pingResponse `json:"last_seen_location"`
}

type offlineListResponse struct {
	CutoffMinutes int                    `json:"cutoff_minutes"`
	Count         int                    `json:"count"`
	Data          []offlineRiderResponse `json:"data"`
}
