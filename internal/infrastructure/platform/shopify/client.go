package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Rafcin/openship/internal/domain/integration"
)

const (
	// APIVersion is the Admin REST API version used for every call
	APIVersion = "2024-10"

	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024
	// maxErrorBody limits how much of an error body is kept
	maxErrorBody = 1024

	accessTokenHeader = "X-Shopify-Access-Token"
)

var (
	ErrMissingDomain      = errors.New("shopify: shop domain is required")
	ErrMissingAccessToken = errors.New("shopify: access token is required")
	ErrInvalidID          = errors.New("shopify: invalid id")
)

// APIError is a non-2xx response from the Admin API
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify: %s %s returned HTTP %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// shopURL returns the scheme and host for a shop domain. A bare domain is
// served over https.
func shopURL(domain string) (string, error) {
	domain = strings.TrimRight(strings.TrimSpace(domain), "/")
	if domain == "" {
		return "", ErrMissingDomain
	}
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain, nil
	}
	return "https://" + domain, nil
}

// client performs authenticated Admin API calls for one shop
type client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func (m *Module) newClient(pc integration.PlatformConfig) (*client, error) {
	base, err := shopURL(pc.Domain)
	if err != nil {
		return nil, err
	}
	if pc.AccessToken == "" {
		return nil, ErrMissingAccessToken
	}
	return &client{
		httpClient: m.httpClient,
		baseURL:    base + "/admin/api/" + APIVersion,
		token:      pc.AccessToken,
	}, nil
}

// do sends a request and decodes a JSON response into out when out is
// non-nil. It returns the response headers for pagination.
func (c *client) do(ctx context.Context, method, path string, query url.Values, in, out any) (http.Header, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("shopify: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to create request: %w", err)
	}
	req.Header.Set(accessTokenHeader, c.token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("shopify: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		if len(respBody) > maxErrorBody {
			respBody = respBody[:maxErrorBody]
		}
		return nil, &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return nil, fmt.Errorf("shopify: failed to parse response: %w", err)
		}
	}
	return resp.Header, nil
}

// nextPageInfo extracts the page_info cursor of the rel="next" entry of a
// Link header.
func nextPageInfo(h http.Header) string {
	for _, part := range strings.Split(h.Get("Link"), ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 || !strings.Contains(segments[1], `rel="next"`) {
			continue
		}
		raw := strings.Trim(strings.TrimSpace(segments[0]), "<>")
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		return u.Query().Get("page_info")
	}
	return ""
}
