package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CallbackPath is the route OAuth redirects return to when the caller does
// not name one
const CallbackPath = "/api/v1/oauth/callback"

// domainAliasPrefix keys the alias used by platforms that do not echo state
const domainAliasPrefix = "domain:"

// OAuthService runs the install flow that connects a shop or channel
// through its platform's OAuth operations
type OAuthService struct {
	platforms integration.PlatformRepository
	shops     integration.ShopRepository
	channels  integration.ChannelRepository
	states    integration.OAuthStateStore
	executor  integration.Executor
	publicURL string
	stateTTL  time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

// NewOAuthService creates a new OAuthService
func NewOAuthService(
	platforms integration.PlatformRepository,
	shops integration.ShopRepository,
	channels integration.ChannelRepository,
	states integration.OAuthStateStore,
	executor integration.Executor,
	publicURL string,
	stateTTL time.Duration,
	logger *zap.Logger,
) *OAuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if stateTTL <= 0 {
		stateTTL = 10 * time.Minute
	}
	return &OAuthService{
		platforms: platforms,
		shops:     shops,
		channels:  channels,
		states:    states,
		executor:  executor,
		publicURL: strings.TrimRight(publicURL, "/"),
		stateTTL:  stateTTL,
		timeout:   defaultAdapterTimeout,
		logger:    logger,
	}
}

// Start asks the platform for an authorization URL and remembers the flow
// context under a fresh state key
func (s *OAuthService) Start(ctx context.Context, ownerID uuid.UUID, req OAuthStartRequest) (*OAuthStartResponse, error) {
	platform, err := s.platforms.FindByID(ctx, ownerID, req.PlatformID)
	if err != nil {
		return nil, err
	}

	state := uuid.NewString()
	redirect := req.RedirectURI
	if redirect == "" {
		redirect = s.publicURL + CallbackPath
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := integration.Call[integration.OAuthResult](callCtx, s.executor, oauthConfig(platform, req.Domain), integration.OpOAuth, integration.OAuthRequest{
		Scopes:      req.Scopes,
		RedirectURI: redirect,
		State:       state,
	})
	if err != nil {
		return nil, err
	}
	if res.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: %s returned no authorization url", integration.ErrInvalidAdapterResponse, integration.OpOAuth)
	}

	if err := s.states.Put(ctx, state, integration.OAuthState{
		OwnerID:      ownerID.String(),
		PlatformID:   platform.ID.String(),
		Kind:         string(platform.Kind),
		Domain:       req.Domain,
		CodeVerifier: res.CodeVerifier,
		RedirectURI:  redirect,
	}, s.stateTTL); err != nil {
		return nil, err
	}
	if err := s.states.Alias(ctx, domainAliasPrefix+req.Domain, state); err != nil {
		s.logger.Warn("Failed to alias OAuth state by domain",
			zap.String("domain", req.Domain), zap.Error(err))
	}

	s.logger.Info("OAuth flow started",
		zap.String("platform_id", platform.ID.String()),
		zap.String("domain", req.Domain))
	return &OAuthStartResponse{AuthorizationURL: res.AuthorizationURL, State: state}, nil
}

// Callback exchanges the authorization code for an access token and creates
// the shop or channel the flow was started for. A state can be used once.
func (s *OAuthService) Callback(ctx context.Context, req OAuthCallbackRequest) (*OAuthCallbackResponse, error) {
	key := req.State
	if key == "" && req.Domain != "" {
		key = domainAliasPrefix + req.Domain
	}
	if key == "" {
		return nil, oauthStateError(integration.ErrOAuthStateNotFound)
	}

	saved, err := s.states.Consume(ctx, key)
	if err != nil {
		if errors.Is(err, integration.ErrOAuthStateNotFound) {
			return nil, oauthStateError(err)
		}
		return nil, err
	}
	ownerID, err := uuid.Parse(saved.OwnerID)
	if err != nil {
		return nil, oauthStateError(err)
	}
	platformID, err := uuid.Parse(saved.PlatformID)
	if err != nil {
		return nil, oauthStateError(err)
	}
	platform, err := s.platforms.FindByID(ctx, ownerID, platformID)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := integration.Call[integration.OAuthCallbackResult](callCtx, s.executor, oauthConfig(platform, saved.Domain), integration.OpOAuthCallback, integration.OAuthCallbackRequest{
		Code:         req.Code,
		State:        req.State,
		RedirectURI:  saved.RedirectURI,
		CodeVerifier: saved.CodeVerifier,
	})
	if err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		return nil, fmt.Errorf("%w: %s returned no access token", integration.ErrInvalidAdapterResponse, integration.OpOAuthCallback)
	}
	domain := res.Domain
	if domain == "" {
		domain = saved.Domain
	}

	var out OAuthCallbackResponse
	switch platform.Kind {
	case integration.PlatformKindShop:
		shop, err := integration.NewShop(ownerID, domain, domain, res.AccessToken, platform)
		if err != nil {
			return nil, platformError(err)
		}
		if err := s.shops.Save(ctx, shop); err != nil {
			return nil, err
		}
		out = OAuthCallbackResponse{Kind: string(platform.Kind), ID: shop.ID, Name: shop.Name}
	default:
		channel, err := integration.NewChannel(ownerID, domain, domain, res.AccessToken, platform)
		if err != nil {
			return nil, platformError(err)
		}
		if err := s.channels.Save(ctx, channel); err != nil {
			return nil, err
		}
		out = OAuthCallbackResponse{Kind: string(platform.Kind), ID: channel.ID, Name: channel.Name}
	}

	s.logger.Info("OAuth flow completed",
		zap.String("kind", out.Kind),
		zap.String("id", out.ID.String()),
		zap.String("domain", domain))
	return &out, nil
}

// oauthConfig is the platform config before a shop or channel exists
func oauthConfig(p *integration.Platform, domain string) integration.PlatformConfig {
	return integration.PlatformConfig{
		Domain:     domain,
		AppKey:     p.AppKey,
		AppSecret:  p.AppSecret,
		Operations: p.Operations,
	}
}

func oauthStateError(err error) error {
	return shared.WrapDomainError("OAUTH_STATE_INVALID", "OAuth state is unknown, expired or already used", err)
}
