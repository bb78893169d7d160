package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"pagepilot/internal/domain"
	"pagepilot/internal/repository"
	apperrors "pagepilot/pkg/errors"
	"pagepilot/pkg/logger"
)

// authGate verifies bearer tokens against the stored secret hashes. The two
// tiers use disjoint secrets; a token valid for one tier is never valid for
// the other.
type authGate struct {
	optionRepo repository.OptionRepository
	logger     *logger.Logger
}

// NewAuthGate creates a new auth gate backed by the options store
func NewAuthGate(optionRepo repository.OptionRepository, log *logger.Logger) AuthGate {
	return &authGate{
		optionRepo: optionRepo,
		logger:     log,
	}
}

// Verify checks a bearer token against the stored secret of the tier.
// bcrypt comparison is constant time and salt aware.
func (g *authGate) Verify(ctx context.Context, tier domain.Tier, token string) error {
	var option string
	switch tier {
	case domain.TierPublic:
		option = domain.OptionPublicKey
	case domain.TierPrivate:
		option = domain.OptionPrivateKey
	default:
		return apperrors.NewAuthorizationError("Unknown authorization tier")
	}

	storedHash, err := g.optionRepo.Get(ctx, option)
	if err != nil {
		return apperrors.NewInternalError("Failed to load stored secret", err)
	}
	if storedHash == "" {
		// Site was never activated; no token can be valid yet
		return apperrors.NewAuthorizationError("Invalid token")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(token)); err != nil {
		g.logger.WithField("tier", string(tier)).Debug("Bearer token rejected")
		return apperrors.NewAuthorizationError("Invalid token")
	}

	return nil
}
