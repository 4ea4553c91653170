package douyin

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"github.com/Rafcin/openship/internal/domain/integration"
)

// Config holds the credentials for one Douyin shop, derived from the
// platform configuration handed to every operation.
type Config struct {
	// AppKey is the application key from Douyin open platform
	AppKey string
	// AppSecret is the application secret from Douyin open platform
	AppSecret string
	// AccessToken is the shop's access token for API authorization
	AccessToken string
	// ShopID is the shop ID in Douyin platform
	ShopID string
	// APIBaseURL is the base URL for Douyin API (production or sandbox)
	APIBaseURL string
	// IsSandbox indicates if this is a sandbox environment
	IsSandbox bool
}

const (
	// ProductionAPIURL is the production API endpoint
	ProductionAPIURL = "https://openapi-fxg.jinritemai.com"
	// SandboxAPIURL is the sandbox API endpoint
	SandboxAPIURL = "https://openapi-sandbox.jinritemai.com"

	// Metadata keys read from the platform configuration
	MetadataShopID     = "shop_id"
	MetadataSandbox    = "sandbox"
	MetadataAPIBaseURL = "api_base_url"
)

var (
	ErrConfigMissingAppKey      = errors.New("douyin: app key is required")
	ErrConfigMissingAppSecret   = errors.New("douyin: app secret is required")
	ErrConfigMissingAccessToken = errors.New("douyin: access token is required")
)

// ConfigFromPlatform builds a Config from the platform configuration. The
// shop id and API endpoint come from metadata.
func ConfigFromPlatform(pc integration.PlatformConfig) (*Config, error) {
	sandbox, _ := strconv.ParseBool(pc.Metadata[MetadataSandbox])
	c := &Config{
		AppKey:      pc.AppKey,
		AppSecret:   pc.AppSecret,
		AccessToken: pc.AccessToken,
		ShopID:      pc.Metadata[MetadataShopID],
		APIBaseURL:  strings.TrimRight(pc.Metadata[MetadataAPIBaseURL], "/"),
		IsSandbox:   sandbox,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate validates the configuration and fills the API endpoint
func (c *Config) Validate() error {
	if c.AppKey == "" {
		return ErrConfigMissingAppKey
	}
	if c.AppSecret == "" {
		return ErrConfigMissingAppSecret
	}
	if c.AccessToken == "" {
		return ErrConfigMissingAccessToken
	}
	if c.APIBaseURL == "" {
		if c.IsSandbox {
			c.APIBaseURL = SandboxAPIURL
		} else {
			c.APIBaseURL = ProductionAPIURL
		}
	}
	return nil
}

// Sign generates the request signature.
// Format: HMAC-SHA256(app_secret, app_secret + method + param_json + timestamp + v + app_secret)
func (c *Config) Sign(method, paramJSON, timestamp, v string) string {
	var builder strings.Builder
	builder.WriteString(c.AppSecret)
	builder.WriteString(method)
	builder.WriteString(paramJSON)
	builder.WriteString(timestamp)
	builder.WriteString(v)
	builder.WriteString(c.AppSecret)

	h := hmac.New(sha256.New, []byte(c.AppSecret))
	h.Write([]byte(builder.String()))
	return hex.EncodeToString(h.Sum(nil))
}

// EventSign computes the push message signature: md5(app_key + body + app_secret)
func (c *Config) EventSign(body []byte) string {
	h := md5.New()
	h.Write([]byte(c.AppKey))
	h.Write(body)
	h.Write([]byte(c.AppSecret))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyEventSign checks the event-sign header of a push message
func (c *Config) VerifyEventSign(body []byte, sign string) bool {
	if sign == "" {
		return false
	}
	expected := c.EventSign(body)
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(sign)), []byte(expected)) == 1
}
