package handler

import (
	"github.com/veloway/rider-tracking/internal/core/ports"
)

// --- Request → Service input ---

func toPingInput(req ingestPingRequest) ports.PingInput {
	return ports.PingInput{
		RiderID:   req.RiderID,
		VehicleID: req.VehicleID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Address:   req.Address,
		Speed:     req.Speed,
		Heading:   req.Heading,
		Timestamp: req.Timestamp,
		Device: ports.DeviceInput{
			DeviceID:     req.Device.DeviceID,
			BatteryLevel: req.Device.BatteryLevel,
			IsOnline:     req.Device.IsOnline,
		},
	}
}

// --- Service result → HTTP response ---

func toIngestResponse(r *ports.IngestResult) ingestPingResponse {
	return ingestPingResponse{
		ID:        r.ID,
		RiderID:   r.RiderID,
		Timestamp: r.Timestamp.UTC(),
		Geohash:   r.Geohash,
	}
}

func toPingResponse(v ports.PingView) pingResponse {
	return pingResponse{
		ID:        v.ID,
		RiderID:   v.RiderID,
		VehicleID: v.VehicleID,
		Latitude:  v.Latitude,
		Longitude: v.Longitude,
		Address:   v.Address,
		SpeedMps:  v.SpeedMps,
		SpeedKmh:  v.SpeedKmh,
		Heading:   v.Heading,
		Timestamp: v.Timestamp.UTC(),
		Device: deviceResponse{
			DeviceID:     v.Device.DeviceID,
			BatteryLevel: v.Device.BatteryLevel,
			IsOnline:     v.Device.IsOnline,
		},
	}
}

func toOfflineRiderResponse(o ports.OfflineRider) offlineRiderResponse {
	return offlineRiderResponse{
		RiderID:    o.RiderID,
		Name:       o.Name,
		LastUpdate: o.LastUpdate.UTC(),
		LastSeen:   toPingResponse(o.LastSeen),
	}
}
