package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/veloway/rider-tracking/internal/core/ports"
)

// RiderHandler serves the read side: current location, history, and the
// offline-rider listing.
type RiderHandler struct {
	tracking      ports.TrackingService
	presence      ports.PresenceService
	defaultCutoff time.Duration
}

func NewRiderHandler(tracking ports.TrackingService, presence ports.PresenceService, defaultCutoff time.Duration) *RiderHandler {
	return &RiderHandler{
		tracking:      tracking,
		presence:      presence,
		defaultCutoff: defaultCutoff,
	}
}

// CurrentLocation handles GET /v1/riders/:rider_id/location.
//
// @Summary      Get a rider's current location
// @Tags         riders
// @Produce      json
// @Param        rider_id  path      string  true  "Rider id"
// @Success      200       {object}  pingResponse
// @Failure      404       {object}  errorResponse
// @Failure      503       {object}  errorResponse
// @Router       /v1/riders/{rider_id}/location [get]
func (h *RiderHandler) CurrentLocation(c echo.Context) error {
	view, err := h.tracking.CurrentLocation(c.Request().Context(), c.Param("rider_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPingResponse(*view))
}

// History handles GET /v1/riders/:rider_id/history?from=&to=&limit=.
// from/to are RFC 3339 timestamps; both bounds are inclusive.
//
// @Summary      Get a rider's location history, most recent first
// @Tags         riders
// @Produce      json
// @Param        rider_id  path      string  true   "Rider id"
// @Param        from      query     string  false  "Window start (RFC 3339, inclusive)"
// @Param        to        query     string  false  "Window end (RFC 3339, inclusive)"
// @Param        limit     query     int     false  "Max entries (default 100)"
// @Success      200       {object}  historyResponse
// @Failure      400       {object}  errorResponse
// @Failure      422       {object}  errorResponse
// @Router       /v1/riders/{rider_id}/history [get]
func (h *RiderHandler) History(c echo.Context) error {
	q := ports.HistoryQuery{RiderID: c.Param("rider_id")}

	if raw := c.QueryParam("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "from must be an RFC 3339 timestamp")
		}
		q.From = from
	}
	if raw := c.QueryParam("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "to must be an RFC 3339 timestamp")
		}
		q.To = to
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		q.Limit = limit
	}

	views, err := h.tracking.History(c.Request().Context(), q)
	if err != nil {
		return err
	}

	data := make([]pingResponse, 0, len(views))
	for _, v := range views {
		data = append(data, toPingResponse(v))
	}

	return c.JSON(http.StatusOK, historyResponse{
		RiderID: q.RiderID,
		Count:   len(data),
		Data:    data,
	})
}

// Offline handles GET /v1/riders/offline?cutoff_minutes=.
//
// @Summary      List riders whose latest ping predates the cutoff
// @Tags         riders
// @Produce      json
// @Param        cutoff_minutes  query     int  false  "Staleness cutoff in minutes (default from config)"
// @Success      200             {object}  offlineListResponse
// @Failure      400             {object}  errorResponse
// @Failure      503             {object}  errorResponse
// @Router       /v1/riders/offline [get]
func (h *RiderHandler) Offline(c echo.Context) error {
	cutoff := h.defaultCutoff
	if raw := c.QueryParam("cutoff_minutes"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "cutoff_minutes must be a positive integer")
		}
		cutoff = time.Duration(minutes) * time.Minute
	}

	offline, err := h.presence.FindOffline(c.Request().Context(), cutoff)
	if err != nil {
		return err
	}

	data := make([]offlineRiderResponse, 0, len(offline))
	for _, o := range offline {
		data = append(data, toOfflineRiderResponse(o))
	}

	return c.JSON(http.StatusOK, offlineListResponse{
		CutoffMinutes: int(cutoff.Minutes()),
		Count:         len(data),
		Data:          data,
	})
}
