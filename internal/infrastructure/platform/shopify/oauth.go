package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Rafcin/openship/internal/domain/integration"
)

// DefaultScopes are requested when the caller names none
var DefaultScopes = []string{
	"read_orders", "write_orders",
	"read_products", "write_products",
	"read_fulfillments", "write_fulfillments",
	"read_inventory", "write_inventory",
}

func (m *Module) oAuth(_ context.Context, pc integration.PlatformConfig, args json.RawMessage) (any, error) {
	var req integration.OAuthRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("shopify: decode oauth request: %w", err)
	}
	base, err := shopURL(pc.Domain)
	if err != nil {
		return nil, err
	}
	if pc.AppKey == "" {
		return nil, fmt.Errorf("shopify: app key is required for oauth")
	}
	scopes := req.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	q := url.Values{}
	q.Set("client_id", pc.AppKey)
	q.Set("scope", strings.Join(scopes, ","))
	q.Set("redirect_uri", req.RedirectURI)
	q.Set("state", req.State)
	return integration.OAuthResult{AuthorizationURL: base + "/admin/oauth/authorize?" + q.Encode()}, nil
}

func (m *Module) oAuthCallback(ctx context.Context, pc integration.PlatformConfig, args json.RawMessage) (any, error) {
	var req integration.OAuthCallbackRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("shopify: decode oauth callback: %w", err)
	}
	if req.Code == "" {
		return nil, fmt.Errorf("shopify: oauth callback without code")
	}
	base, err := shopURL(pc.Domain)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]string{
		"client_id":     pc.AppKey,
		"client_secret": pc.AppSecret,
		"code":          req.Code,
	})
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to marshal token request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/admin/oauth/access_token", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("shopify: token exchange: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{Method: http.MethodPost, Path: "/admin/oauth/access_token", Status: resp.StatusCode, Body: string(respBody)}
	}

	var token accessTokenResponse
	if err := json.Unmarshal(respBody, &token); err != nil {
		return nil, fmt.Errorf("shopify: failed to parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("shopify: token response without access_token")
	}
	return integration.OAuthCallbackResult{AccessToken: token.AccessToken, Domain: pc.Domain}, nil
}
