// Package integration manages the platforms, shops and channels an owner
// connects, along with their webhook subscriptions and OAuth installs.
package integration

import (
	"context"
	"errors"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlatformService manages platform declarations
type PlatformService struct {
	platforms integration.PlatformRepository
	logger    *zap.Logger
}

// NewPlatformService creates a new PlatformService
func NewPlatformService(platforms integration.PlatformRepository, logger *zap.Logger) *PlatformService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlatformService{platforms: platforms, logger: logger}
}

// CreatePlatform declares a platform with its operation table
func (s *PlatformService) CreatePlatform(ctx context.Context, ownerID uuid.UUID, req CreatePlatformRequest) (*PlatformResponse, error) {
	p, err := integration.NewPlatform(ownerID, req.Name, integration.PlatformKind(req.Kind), toOperations(req.Operations))
	if err != nil {
		return nil, platformError(err)
	}
	if req.AppKey != "" || req.AppSecret != "" {
		p.SetCredentials(req.AppKey, req.AppSecret)
	}
	if err := s.platforms.Save(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("Platform created",
		zap.String("platform_id", p.ID.String()),
		zap.String("kind", string(p.Kind)))
	resp := ToPlatformResponse(p)
	return &resp, nil
}

// UpdatePlatform changes a platform's name, operations or credentials
func (s *PlatformService) UpdatePlatform(ctx context.Context, ownerID, id uuid.UUID, req UpdatePlatformRequest) (*PlatformResponse, error) {
	p, err := s.platforms.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
		p.Touch()
	}
	if req.Operations != nil {
		if err := p.SetOperations(toOperations(req.Operations)); err != nil {
			return nil, platformError(err)
		}
	}
	if req.AppKey != nil || req.AppSecret != nil {
		key, secret := p.AppKey, p.AppSecret
		if req.AppKey != nil {
			key = *req.AppKey
		}
		if req.AppSecret != nil {
			secret = *req.AppSecret
		}
		p.SetCredentials(key, secret)
	}

	if err := s.platforms.Save(ctx, p); err != nil {
		return nil, err
	}
	resp := ToPlatformResponse(p)
	return &resp, nil
}

// GetPlatform returns one platform
func (s *PlatformService) GetPlatform(ctx context.Context, ownerID, id uuid.UUID) (*PlatformResponse, error) {
	p, err := s.platforms.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	resp := ToPlatformResponse(p)
	return &resp, nil
}

// ListPlatforms returns the owner's platforms, optionally of one kind
func (s *PlatformService) ListPlatforms(ctx context.Context, ownerID uuid.UUID, kind string) ([]PlatformResponse, error) {
	k := integration.PlatformKind(kind)
	if kind != "" && !k.IsValid() {
		return nil, shared.NewDomainError("INVALID_PLATFORM_KIND", "kind must be SHOP or CHANNEL")
	}
	platforms, err := s.platforms.FindAll(ctx, ownerID, k)
	if err != nil {
		return nil, err
	}
	out := make([]PlatformResponse, len(platforms))
	for i := range platforms {
		out[i] = ToPlatformResponse(&platforms[i])
	}
	return out, nil
}

// DeletePlatform removes a platform
func (s *PlatformService) DeletePlatform(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.platforms.Delete(ctx, ownerID, id)
}

// platformError maps domain validation errors to coded errors
func platformError(err error) error {
	switch {
	case errors.Is(err, integration.ErrPlatformInvalidName):
		return shared.WrapDomainError("INVALID_PLATFORM_NAME", "Platform name is required", err)
	case errors.Is(err, integration.ErrPlatformInvalidKind):
		return shared.WrapDomainError("INVALID_PLATFORM_KIND", "kind must be SHOP or CHANNEL", err)
	case errors.Is(err, integration.ErrPlatformInvalidOperation):
		return shared.WrapDomainError("INVALID_OPERATION", "Operation is not allowed for this platform kind", err)
	case errors.Is(err, integration.ErrPlatformEmptyTarget):
		return shared.WrapDomainError("INVALID_OPERATION", "Operation target must not be empty", err)
	case errors.Is(err, integration.ErrPlatformKindMismatch):
		return shared.WrapDomainError("PLATFORM_KIND_MISMATCH", "Platform kind does not match", err)
	default:
		return err
	}
}
