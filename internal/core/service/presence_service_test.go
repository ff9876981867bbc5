package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/veloway/rider-tracking/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stub rider directory
// ---------------------------------------------------------------------------

type stubRiderDirectory struct {
	riders  map[string]*domain.Rider
	lookups []string
	err     error
}

func newStubDirectory(riders ...*domain.Rider) *stubRiderDirectory {
	d := &stubRiderDirectory{riders: make(map[string]*domain.Rider)}
	for _, r := range riders {
		d.riders[r.ID] = r
	}
	return d
}

func (d *stubRiderDirectory) FindByID(_ context.Context, riderID string) (*domain.Rider, error) {
	d.lookups = append(d.lookups, riderID)
	if d.err != nil {
		return nil, d.err
	}
	r, ok := d.riders[riderID]
	if !ok {
		return nil, domain.ErrRiderNotFound
	}
	clone := *r
	return &clone, nil
}

// ---------------------------------------------------------------------------
// FindOffline tests
// ---------------------------------------------------------------------------

func TestFindOffline_ClassifiesByLatestPingRecency(t *testing.T) {
	repo := newStubPingRepo()
	now := time.Now().UTC()
	// Rider A pinged 5 minutes ago, rider B 45 minutes ago.
	seedPing(t, repo, "rider_a", now.Add(-2*time.Hour))
	seedPing(t, repo, "rider_a", now.Add(-5*time.Minute))
	seedPing(t, repo, "rider_b", now.Add(-2*time.Hour))
	seedPing(t, repo, "rider_b", now.Add(-45*time.Minute))

	dir := newStubDirectory(
		&domain.Rider{ID: "rider_a", Name: "Ana"},
		&domain.Rider{ID: "rider_b", Name: "Bruno"},
	)
	svc := NewPresenceService(repo, dir, discardLogger)

	offline, err := svc.FindOffline(context.Background(), 30*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(offline) != 1 {
		t.Fatalf("expected exactly one offline rider, got %d", len(offline))
	}
	got := offline[0]
	if got.RiderID != "rider_b" {
		t.Errorf("expected rider_b offline, got %s", got.RiderID)
	}
	if got.Name != "Bruno" {
		t.Errorf("expected directory name joined, got %q", got.Name)
	}
	if !got.LastUpdate.Equal(now.Add(-45 * time.Minute)) {
		t.Errorf("LastUpdate must be the latest ping timestamp, got %v", got.LastUpdate)
	}
	if !got.LastSeen.Timestamp.Equal(got.LastUpdate) {
		t.Errorf("LastSeen must carry the latest ping, got %v", got.LastSeen.Timestamp)
	}
}

func TestFindOffline_RiderWithZeroPingsIsAbsent(t *testing.T) {
	repo := newStubPingRepo()
	dir := newStubDirectory(&domain.Rider{ID: "rider_silent", Name: "Sam"})
	svc := NewPresenceService(repo, dir, discardLogger)

	offline, err := svc.FindOffline(context.Background(), 30*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offline) != 0 {
		t.Errorf("riders with no pings have undefined presence, got %d entries", len(offline))
	}
	if len(dir.lookups) != 0 {
		t.Errorf("no directory lookups expected for an empty scan, got %v", dir.lookups)
	}
}

func TestFindOffline_InactiveLatestPingIsInvisible(t *testing.T) {
	repo := newStubPingRepo()
	now := time.Now().UTC()
	seedPing(t, repo, "rider_a", now.Add(-45*time.Minute))
	recentID := seedPing(t, repo, "rider_a", now.Add(-5*time.Minute))
	if _, err := repo.Deactivate(context.Background(), recentID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	svc := NewPresenceService(repo, newStubDirectory(), discardLogger)

	offline, err := svc.FindOffline(context.Background(), 30*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offline) != 1 || offline[0].RiderID != "rider_a" {
		t.Fatalf("presence must follow the next-most-recent active ping, got %+v", offline)
	}
	if !offline[0].LastUpdate.Equal(now.Add(-45 * time.Minute)) {
		t.Errorf("expected the surviving active ping's timestamp, got %v", offline[0].LastUpdate)
	}
}

func TestFindOffline_AllPingsInactiveMeansAbsent(t *testing.T) {
	repo := newStubPingRepo()
	id := seedPing(t, repo, "rider_a", time.Now().UTC().Add(-2*time.Hour))
	if _, err := repo.Deactivate(context.Background(), id); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	svc := NewPresenceService(repo, newStubDirectory(), discardLogger)

	offline, err := svc.FindOffline(context.Background(), 30*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offline) != 0 {
		t.Errorf("rider with only inactive pings must be absent, got %+v", offline)
	}
}

func TestFindOffline_DirectoryMissKeepsRider(t *testing.T) {
	repo := newStubPingRepo()
	seedPing(t, repo, "rider_unknown", time.Now().UTC().Add(-time.Hour))

	svc := NewPresenceService(repo, newStubDirectory(), discardLogger)

	offline, err := svc.FindOffline(context.Background(), 30*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offline) != 1 {
		t.Fatalf("directory miss must not hide the rider, got %d entries", len(offline))
	}
	if offline[0].Name != "" {
		t.Errorf("expected empty display name on directory miss, got %q", offline[0].Name)
	}
}

func TestFindOffline_DirectoryFailureKeepsRider(t *testing.T) {
	repo := newStubPingRepo()
	seedPing(t, repo, "rider_a", time.Now().UTC().Add(-time.Hour))

	dir := newStubDirectory()
	dir.err = errors.New("directory unavailable")
	svc := NewPresenceService(repo, dir, discardLogger)

	offline, err := svc.FindOffline(context.Background(), 30*time.Minute)
	if err != nil {
		t.Fatalf("directory failure must not fail the scan: %v", err)
	}
	if len(offline) != 1 {
		t.Fatalf("expected rider reported despite directory failure, got %d", len(offline))
	}
}

func TestFindOffline_NonPositiveCutoffRejected(t *testing.T) {
	svc := NewPresenceService(newStubPingRepo(), newStubDirectory(), discardLogger)

	_, err := svc.FindOffline(context.Background(), 0)
	assertValidationError(t, err, "cutoff")
}

func TestPurgeOlderThan_LeavesSurvivorsUntouched(t *testing.T) {
	repo := newStubPingRepo()
	now := time.Now().UTC()
	seedPing(t, repo, "rider_a", now.Add(-72*time.Hour))
	seedPing(t, repo, "rider_a", now.Add(-50*time.Hour))
	keptID := seedPing(t, repo, "rider_a", now.Add(-time.Hour))

	removed, err := repo.PurgeOlderThan(context.Background(), 48*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 pings purged, got %d", removed)
	}

	survivor, err := repo.FindLatestByRider(context.Background(), "rider_a")
	if err != nil {
		t.Fatalf("survivor lookup: %v", err)
	}
	if survivor.ID != keptID {
		t.Errorf("surviving ping changed: got %s want %s", survivor.ID, keptID)
	}
}

func TestFindOffline_StorageErrorSurfaced(t *testing.T) {
	repo := newStubPingRepo()
	repo.findErr = &domain.StorageError{Op: "aggregate latest pings", Err: errors.New("cursor timeout")}

	svc := NewPresenceService(repo, newStubDirectory(), discardLogger)

	_, err := svc.FindOffline(context.Background(), 30*time.Minute)
	var se *domain.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}
}
