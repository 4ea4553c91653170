package integration

import (
	"context"
	"errors"
	"time"
)

// ErrOAuthStateNotFound is returned when a state key is unknown, expired or
// already consumed
var ErrOAuthStateNotFound = errors.New("integration: oauth state not found")

// OAuthState is the context saved between the start and callback legs of an
// OAuth flow
type OAuthState struct {
	OwnerID      string `json:"ownerId"`
	PlatformID   string `json:"platformId"`
	Kind         string `json:"kind"`
	Domain       string `json:"domain"`
	CodeVerifier string `json:"codeVerifier,omitempty"`
	RedirectURI  string `json:"redirectUri"`
}

// OAuthStateStore is a TTL-bounded key-value store for OAuth flow context.
// A stored state can be read exactly once.
type OAuthStateStore interface {
	// Put stores state under key for ttl
	Put(ctx context.Context, key string, state OAuthState, ttl time.Duration) error
	// Consume returns the state for key and deletes it. Aliases pointing to the
	// key are resolved first.
	Consume(ctx context.Context, key string) (OAuthState, error)
	// Alias makes aliasKey resolve to key until key's TTL expires
	Alias(ctx context.Context, aliasKey, key string) error
}
