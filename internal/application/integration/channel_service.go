package integration

import (
	"context"
	"time"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChannelService manages connected fulfillment channels
type ChannelService struct {
	channels  integration.ChannelRepository
	platforms integration.PlatformRepository
	remote    remote
	logger    *zap.Logger
}

// NewChannelService creates a new ChannelService
func NewChannelService(
	channels integration.ChannelRepository,
	platforms integration.PlatformRepository,
	executor integration.Executor,
	publicURL string,
	logger *zap.Logger,
) *ChannelService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChannelService{
		channels:  channels,
		platforms: platforms,
		remote: remote{
			executor:  executor,
			publicURL: publicURL,
			side:      integration.PlatformKindChannel,
			timeout:   defaultAdapterTimeout,
		},
		logger: logger,
	}
}

// SetAdapterTimeout bounds each platform call
func (s *ChannelService) SetAdapterTimeout(d time.Duration) {
	if d > 0 {
		s.remote.timeout = d
	}
}

// CreateChannel connects a channel on a channel platform
func (s *ChannelService) CreateChannel(ctx context.Context, ownerID uuid.UUID, req CreateChannelRequest) (*ChannelResponse, error) {
	platform, err := s.platforms.FindByID(ctx, ownerID, req.PlatformID)
	if err != nil {
		return nil, err
	}
	channel, err := integration.NewChannel(ownerID, req.Name, req.Domain, req.AccessToken, platform)
	if err != nil {
		return nil, platformError(err)
	}
	for k, v := range req.Metadata {
		channel.Metadata[k] = v
	}
	if err := s.channels.Save(ctx, channel); err != nil {
		return nil, err
	}

	s.logger.Info("Channel created",
		zap.String("channel_id", channel.ID.String()),
		zap.String("platform", platform.Name))
	resp := ToChannelResponse(channel)
	return &resp, nil
}

// UpdateChannel changes a channel's settings
func (s *ChannelService) UpdateChannel(ctx context.Context, ownerID, id uuid.UUID, req UpdateChannelRequest) (*ChannelResponse, error) {
	channel, err := s.channels.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		channel.Name = *req.Name
	}
	if req.Domain != nil {
		channel.Domain = *req.Domain
	}
	if req.AccessToken != nil {
		channel.AccessToken = *req.AccessToken
	}
	if req.Metadata != nil {
		channel.Metadata = req.Metadata
	}
	channel.Touch()

	if err := s.channels.Save(ctx, channel); err != nil {
		return nil, err
	}
	resp := ToChannelResponse(channel)
	return &resp, nil
}

// GetChannel returns one channel
func (s *ChannelService) GetChannel(ctx context.Context, ownerID, id uuid.UUID) (*ChannelResponse, error) {
	channel, err := s.channels.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	resp := ToChannelResponse(channel)
	return &resp, nil
}

// ListChannels returns a page of the owner's channels
func (s *ChannelService) ListChannels(ctx context.Context, ownerID uuid.UUID, f ListFilter) ([]ChannelResponse, int64, error) {
	channels, total, err := s.channels.FindAll(ctx, ownerID, toFilter(f))
	if err != nil {
		return nil, 0, err
	}
	out := make([]ChannelResponse, len(channels))
	for i := range channels {
		out[i] = ToChannelResponse(&channels[i])
	}
	return out, total, nil
}

// DeleteChannel removes a channel
func (s *ChannelService) DeleteChannel(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.channels.Delete(ctx, ownerID, id)
}

// CreateWebhook subscribes the channel's platform to deliver topic to the
// channel's ingress route
func (s *ChannelService) CreateWebhook(ctx context.Context, ownerID, id uuid.UUID, req CreateWebhookRequest) (*WebhookResponse, error) {
	channel, err := s.channels.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	wh, err := s.remote.createWebhook(ctx, channel.PlatformConfig(), channel.ID, integration.WebhookTopic(req.Topic))
	if err != nil {
		return nil, err
	}
	s.logger.Info("Channel webhook registered",
		zap.String("channel_id", channel.ID.String()),
		zap.String("topic", wh.Topic),
		zap.String("webhook_id", wh.ID))
	return wh, nil
}

// ListWebhooks returns the subscriptions registered on the channel's platform
func (s *ChannelService) ListWebhooks(ctx context.Context, ownerID, id uuid.UUID) ([]WebhookResponse, error) {
	channel, err := s.channels.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.remote.listWebhooks(ctx, channel.PlatformConfig())
}

// DeleteWebhook removes a subscription from the channel's platform
func (s *ChannelService) DeleteWebhook(ctx context.Context, ownerID, id uuid.UUID, webhookID string) error {
	channel, err := s.channels.FindByID(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.remote.deleteWebhook(ctx, channel.PlatformConfig(), webhookID); err != nil {
		return err
	}
	s.logger.Info("Channel webhook deleted",
		zap.String("channel_id", channel.ID.String()),
		zap.String("webhook_id", webhookID))
	return nil
}

// SearchProducts lists products the channel can fulfill
func (s *ChannelService) SearchProducts(ctx context.Context, ownerID, id uuid.UUID, req SearchRequest) (*ProductSearchResponse, error) {
	channel, err := s.channels.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.remote.searchProducts(ctx, channel.PlatformConfig(), req)
}
