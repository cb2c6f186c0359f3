package service

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
	"github.com/rl1809/marketplace/internal/telemetry"
)

// Gate is the authorization gate every engine operation goes through.
// It reads the caller's profile fresh on each call so bans and role
// changes apply immediately.
type Gate struct {
	profiles port.ProfileRepository
	logger   *zap.Logger
}

func NewGate(profiles port.ProfileRepository, logger *zap.Logger) *Gate {
	return &Gate{profiles: profiles, logger: logger}
}

// Authorize resolves subjectID and requires its role to be one of allowed.
// With no allowed roles any active profile passes.
func (g *Gate) Authorize(ctx context.Context, subjectID string, allowed ...domain.Role) (p domain.Principal, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.gate.authorize")
	defer func() { telemetry.End(span, err) }()

	if subjectID == "" {
		return domain.Principal{}, domain.ErrUnauthenticated
	}

	profile, err := g.profiles.GetProfile(ctx, subjectID)
	if domain.IsNotFound(err) {
		return domain.Principal{}, fmt.Errorf("%w: no profile for subject", domain.ErrForbidden)
	}
	if err != nil {
		return domain.Principal{}, err
	}

	if profile.Blocked() {
		g.logger.Info("blocked subject denied", zap.String("subject_id", subjectID))
		return domain.Principal{}, fmt.Errorf("%w: account is banned", domain.ErrForbidden)
	}

	if len(allowed) > 0 && !slices.Contains(allowed, profile.Role) {
		return domain.Principal{}, fmt.Errorf("%w: role %s may not perform this action", domain.ErrForbidden, profile.Role)
	}

	return domain.Principal{
		SubjectID:   subjectID,
		Role:        profile.Role,
		DisplayName: profile.DisplayName,
	}, nil
}

// RequireOwner fails with ErrForbidden unless the principal is ownerID.
func RequireOwner(p domain.Principal, ownerID, resource string) error {
	if p.SubjectID == "" || p.SubjectID != ownerID {
		return fmt.Errorf("%w: not the owner of this %s", domain.ErrForbidden, resource)
	}
	return nil
}
