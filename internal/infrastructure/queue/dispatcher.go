package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/veloway/rider-tracking/internal/api/metrics"
	"github.com/veloway/rider-tracking/internal/core/domain"
	"github.com/veloway/rider-tracking/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes batch-ingested pings to a fixed set of workers using
// consistent hashing on the rider id. Pings for the same rider always land on
// the same worker, so their commit order follows submission order; pings for
// different riders never block one another.
type Dispatcher struct {
	workers []chan ports.PingInput
	service ports.IngestService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.IngestService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.PingInput, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.PingInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a ping to the worker responsible for its rider.
// The call is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(in ports.PingInput) {
	idx := d.shardIndex(in.RiderID)
	d.workers[idx] <- in
	metrics.IngestQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// EnqueueBatch enqueues multiple pings preserving per-rider ordering.
func (d *Dispatcher) EnqueueBatch(ins []ports.PingInput) {
	for _, in := range ins {
		d.Enqueue(in)
	}
}

// shardIndex maps a rider id deterministically to a worker index.
func (d *Dispatcher) shardIndex(riderID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(riderID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.PingInput) {
	worker := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-ch:
			if !ok {
				return
			}
			metrics.IngestQueueDepth.WithLabelValues(worker).Set(float64(len(ch)))
			if _, err := d.service.Ingest(ctx, in); err != nil {
				var ve *domain.ValidationError
				if errors.As(err, &ve) {
					metrics.PingValidationErrorsTotal.WithLabelValues(ve.Field).Inc()
				}
				d.log.Error().Err(err).
					Str("rider_id", in.RiderID).
					Int("worker_id", id).
					Msg("batch ping ingest failed")
				continue
			}
			metrics.PingsIngestedTotal.WithLabelValues("batch").Inc()
		}
	}
}
