package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/veloway/rider-tracking/internal/core/ports"
)

// recordingIngest records the order pings arrive per rider.
type recordingIngest struct {
	mu    sync.Mutex
	seen  map[string][]time.Time
	total int
	done  chan struct{} // closed once `want` pings have been processed
	want  int
}

func newRecordingIngest(want int) *recordingIngest {
	return &recordingIngest{
		seen: make(map[string][]time.Time),
		done: make(chan struct{}),
		want: want,
	}
}

func (r *recordingIngest) Ingest(_ context.Context, in ports.PingInput) (*ports.IngestResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[in.RiderID] = append(r.seen[in.RiderID], in.Timestamp)
	r.total++
	if r.total == r.want {
		close(r.done)
	}
	return &ports.IngestResult{ID: "ok", RiderID: in.RiderID, Timestamp: in.Timestamp}, nil
}

func (r *recordingIngest) Deactivate(context.Context, string) error { return nil }

func TestDispatcher_PreservesPerRiderOrdering(t *testing.T) {
	const perRider = 20
	svc := newRecordingIngest(perRider * 2)
	d := NewDispatcher(4, svc, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	base := time.Now().UTC()
	var batch []ports.PingInput
	for i := 0; i < perRider; i++ {
		batch = append(batch,
			ports.PingInput{RiderID: "rider_a", Latitude: 1, Longitude: 1, Timestamp: base.Add(time.Duration(i) * time.Second)},
			ports.PingInput{RiderID: "rider_b", Latitude: 2, Longitude: 2, Timestamp: base.Add(time.Duration(i) * time.Second)},
		)
	}
	d.EnqueueBatch(batch)

	select {
	case <-svc.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for batch to drain")
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	for _, rider := range []string{"rider_a", "rider_b"} {
		got := svc.seen[rider]
		if len(got) != perRider {
			t.Fatalf("%s: expected %d pings, got %d", rider, perRider, len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i].Before(got[i-1]) {
				t.Fatalf("%s: per-rider ordering violated at index %d", rider, i)
			}
		}
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, newRecordingIngest(0), zerolog.Nop())

	first := d.shardIndex("rider_42")
	for i := 0; i < 100; i++ {
		if d.shardIndex("rider_42") != first {
			t.Fatal("shard index must be deterministic per rider")
		}
	}
}
