package integration

import (
	"errors"
	"net/url"
	"strings"

	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/google/uuid"
)

var (
	ErrPlatformInvalidName      = errors.New("integration: platform name is required")
	ErrPlatformInvalidKind      = errors.New("integration: invalid platform kind")
	ErrPlatformInvalidOperation = errors.New("integration: operation not allowed for platform kind")
	ErrPlatformEmptyTarget      = errors.New("integration: operation target is empty")
	ErrPlatformKindMismatch     = errors.New("integration: platform kind does not match")
)

// Platform declares which implementation backs each adapter operation.
// A target is either an http(s) URL or the name of a built-in module
// registered with the executor. It is configuration, not logic.
type Platform struct {
	shared.OwnedAggregateRoot
	Name       string
	Kind       PlatformKind
	Operations map[Operation]string
	AppKey     string
	AppSecret  string
}

// NewPlatform creates a platform of the given kind
func NewPlatform(ownerID uuid.UUID, name string, kind PlatformKind, ops map[Operation]string) (*Platform, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrPlatformInvalidName
	}
	if !kind.IsValid() {
		return nil, ErrPlatformInvalidKind
	}
	p := &Platform{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		Name:               name,
		Kind:               kind,
		Operations:         make(map[Operation]string, len(ops)),
	}
	if err := p.SetOperations(ops); err != nil {
		return nil, err
	}
	return p, nil
}

// SetOperations replaces the operation table after validating every entry
func (p *Platform) SetOperations(ops map[Operation]string) error {
	table := make(map[Operation]string, len(ops))
	for op, target := range ops {
		if !p.Kind.Allows(op) {
			return ErrPlatformInvalidOperation
		}
		target = strings.TrimSpace(target)
		if target == "" {
			return ErrPlatformEmptyTarget
		}
		table[op] = target
	}
	p.Operations = table
	p.Touch()
	return nil
}

// SetCredentials sets the application key and secret used for signing and
// webhook verification
func (p *Platform) SetCredentials(appKey, appSecret string) {
	p.AppKey = appKey
	p.AppSecret = appSecret
	p.Touch()
}

// Supports reports whether the platform declares op
func (p *Platform) Supports(op Operation) bool {
	_, ok := p.Operations[op]
	return ok
}

// IsRemoteTarget reports whether target is an HTTP endpoint rather than a
// built-in module name.
func IsRemoteTarget(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// PlatformConfig is what an adapter operation receives as "platformConfig".
// Operations is resolved by the executor and never sent to the adapter.
type PlatformConfig struct {
	Domain      string               `json:"domain"`
	AccessToken string               `json:"accessToken"`
	AppKey      string               `json:"appKey,omitempty"`
	AppSecret   string               `json:"appSecret,omitempty"`
	Metadata    map[string]string    `json:"metadata,omitempty"`
	Operations  map[Operation]string `json:"-"`
}

// Target returns the implementation target for op
func (c PlatformConfig) Target(op Operation) (string, bool) {
	t, ok := c.Operations[op]
	return t, ok && t != ""
}

func buildConfig(p *Platform, domain, accessToken string, metadata map[string]string) PlatformConfig {
	cfg := PlatformConfig{
		Domain:      domain,
		AccessToken: accessToken,
		Metadata:    metadata,
	}
	if p != nil {
		cfg.AppKey = p.AppKey
		cfg.AppSecret = p.AppSecret
		cfg.Operations = p.Operations
	}
	return cfg
}

// ---------------------------------------------------------------------------
// Shop / Channel
// ---------------------------------------------------------------------------

// LinkMode selects how a shop's links are evaluated
type LinkMode string

const (
	// LinkModeSequential routes to the first matching link only
	LinkModeSequential LinkMode = "sequential"
	// LinkModeSimultaneous routes a full copy to every matching link
	LinkModeSimultaneous LinkMode = "simultaneous"
)

// IsValid returns true if the mode is known
func (m LinkMode) IsValid() bool {
	return m == LinkModeSequential || m == LinkModeSimultaneous
}

// Shop is a storefront where sales originate
type Shop struct {
	shared.OwnedAggregateRoot
	Name        string
	Domain      string
	AccessToken string
	LinkMode    LinkMode
	Metadata    map[string]string
	PlatformID  uuid.UUID
	Platform    *Platform
}

// NewShop creates a shop bound to a shop platform
func NewShop(ownerID uuid.UUID, name, domain, accessToken string, platform *Platform) (*Shop, error) {
	if platform == nil || platform.Kind != PlatformKindShop {
		return nil, ErrPlatformKindMismatch
	}
	return &Shop{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		Name:               name,
		Domain:             domain,
		AccessToken:        accessToken,
		LinkMode:           LinkModeSequential,
		Metadata:           map[string]string{},
		PlatformID:         platform.ID,
		Platform:           platform,
	}, nil
}

// SetLinkMode changes the routing mode
func (s *Shop) SetLinkMode(mode LinkMode) error {
	if !mode.IsValid() {
		return shared.NewDomainError("INVALID_LINK_MODE", "link mode must be sequential or simultaneous")
	}
	s.LinkMode = mode
	s.Touch()
	return nil
}

// PlatformConfig returns the adapter configuration for this shop
func (s *Shop) PlatformConfig() PlatformConfig {
	return buildConfig(s.Platform, s.Domain, s.AccessToken, s.Metadata)
}

// Channel is a fulfillment target that ships orders
type Channel struct {
	shared.OwnedAggregateRoot
	Name        string
	Domain      string
	AccessToken string
	Metadata    map[string]string
	PlatformID  uuid.UUID
	Platform    *Platform
}

// NewChannel creates a channel bound to a channel platform
func NewChannel(ownerID uuid.UUID, name, domain, accessToken string, platform *Platform) (*Channel, error) {
	if platform == nil || platform.Kind != PlatformKindChannel {
		return nil, ErrPlatformKindMismatch
	}
	return &Channel{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		Name:               name,
		Domain:             domain,
		AccessToken:        accessToken,
		Metadata:           map[string]string{},
		PlatformID:         platform.ID,
		Platform:           platform,
	}, nil
}

// PlatformConfig returns the adapter configuration for this channel
func (c *Channel) PlatformConfig() PlatformConfig {
	return buildConfig(c.Platform, c.Domain, c.AccessToken, c.Metadata)
}
