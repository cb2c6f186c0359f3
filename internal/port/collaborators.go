package port

import (
	"context"

	"github.com/rl1809/marketplace/internal/core/domain"
)

// ProfileRepository resolves a subject's profile. Implementations must not
// cache: role and ban changes apply on the next call.
type ProfileRepository interface {
	GetProfile(ctx context.Context, subjectID string) (*domain.Profile, error)
}

// CatalogRepository reads bookable catalog services.
type CatalogRepository interface {
	GetService(ctx context.Context, serviceID string) (*domain.Service, error)
}

type IdempotencyRepository interface {
	// SetIdempotency records key and reports false if it was already set.
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency forgets key so a failed request can be retried.
	ReleaseIdempotency(ctx context.Context, key string) error
}

// Notifier delivers best-effort notifications. It never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// IdentityVerifier turns a bearer credential into a subject id, or fails
// with domain.ErrUnauthenticated.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (string, error)
}
