package ports

import (
	"context"

	"github.com/veloway/rider-tracking/internal/core/domain"
)

// RiderDirectory resolves display attributes for a rider id. The directory is
// owned by an external system; this engine only reads it.
type RiderDirectory interface {
	// FindByID returns domain.ErrRiderNotFound when the id is unknown.
	FindByID(ctx context.Context, riderID string) (*domain.Rider, error)
}
