package approval

import (
	"context"
	"errors"
	"time"

	"bloodbank/internal/domain"
)

// ErrNotFound keeps store-level misses consistent across implementations;
// the service translates it into a typed domain error.
var ErrNotFound = errors.New("record not found")

// Stores are interface-driven to keep the workflow testable and to allow
// swapping persistence without rewiring business code. Status is only ever
// written through SetStatus, and only by the approval service.
type RequestStore interface {
	Create(ctx context.Context, req domain.BloodRequest) error
	Get(ctx context.Context, id string) (domain.BloodRequest, error)
	SetStatus(ctx context.Context, id string, status domain.Status, finalizedAt time.Time) error
	List(ctx context.Context, status domain.Status) ([]domain.BloodRequest, error)
}

type DonationStore interface {
	Create(ctx context.Context, don domain.BloodDonation) error
	Get(ctx context.Context, id string) (domain.BloodDonation, error)
	SetStatus(ctx context.Context, id string, status domain.Status, finalizedAt time.Time) error
	List(ctx context.Context, status domain.Status) ([]domain.BloodDonation, error)
}
