package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/veloway/rider-tracking/internal/api/metrics"
	"github.com/veloway/rider-tracking/internal/core/ports"
)

// PingDispatcher is the interface the handler uses to enqueue batch pings.
type PingDispatcher interface {
	Enqueue(in ports.PingInput)
	EnqueueBatch(ins []ports.PingInput)
}

// PingHandler handles ping ingestion and deactivation.
type PingHandler struct {
	service       ports.IngestService
	dispatcher    PingDispatcher
	maxFutureSkew time.Duration
}

func NewPingHandler(service ports.IngestService, dispatcher PingDispatcher, maxFutureSkew time.Duration) *PingHandler {
	return &PingHandler{service: service, dispatcher: dispatcher, maxFutureSkew: maxFutureSkew}
}

// Ingest handles POST /v1/pings — stores one ping synchronously and returns
// the stored record's id.
//
// @Summary      Ingest a single position report
// @Tags         pings
// @Accept       json
// @Produce      json
// @Param        body  body      ingestPingRequest  true  "Position report"
// @Success      201   {object}  ingestPingResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/pings [post]
func (h *PingHandler) Ingest(c echo.Context) error {
	var req ingestPingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	result, err := h.service.Ingest(c.Request().Context(), toPingInput(req))
	if err != nil {
		return err
	}

	metrics.PingsIngestedTotal.WithLabelValues("single").Inc()
	return c.JSON(http.StatusCreated, toIngestResponse(result))
}

// IngestBatch handles POST /v1/pings/batch — enqueues a batch of pings for
// the sharded workers, returns 202. Per-rider ordering is preserved.
//
// @Summary      Ingest a batch of position reports
// @Tags         pings
// @Accept       json
// @Produce      json
// @Param        body  body      []ingestPingRequest  true  "Array of position reports"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/pings/batch [post]
func (h *PingHandler) IngestBatch(c echo.Context) error {
	var reqs []ingestPingRequest
	if err := c.Bind(&reqs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if len(reqs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "batch cannot be empty")
	}

	// The batch is accepted as a whole or not at all, so every rejection the
	// workers would log later must fail here, including the skew check the
	// range tags cannot express.
	horizon := time.Now().UTC().Add(h.maxFutureSkew)
	inputs := make([]ports.PingInput, 0, len(reqs))
	for i, req := range reqs {
		if err := c.Validate(&req); err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity,
				fmt.Sprintf("ping[%d]: %s", i, err.Error()))
		}
		if !req.Timestamp.IsZero() && req.Timestamp.After(horizon) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity,
				fmt.Sprintf("ping[%d]: timestamp too far in the future", i))
		}
		inputs = append(inputs, toPingInput(req))
	}

	h.dispatcher.EnqueueBatch(inputs)
	return c.JSON(http.StatusAccepted, acceptedResponse{
		Message: "pings accepted",
		Count:   len(inputs),
	})
}

// Deactivate handles DELETE /v1/pings/:id — soft-deletes a ping so it
// disappears from all derived views while staying stored for audit.
//
// @Summary      Deactivate (soft-delete) a ping
// @Tags         pings
// @Produce      json
// @Param        id  path  string  true  "Ping id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /v1/pings/{id} [delete]
func (h *PingHandler) Deactivate(c echo.Context) error {
	if err := h.service.Deactivate(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
