// Package webhook turns platform webhook deliveries into canonical events and
// hands them to the order lifecycle.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Rafcin/openship/internal/domain/integration"
)

// topicEvents is the event kind each topic must normalize to
var topicEvents = map[integration.WebhookTopic]integration.EventKind{
	integration.TopicOrderCreated:      integration.EventOrderCreated,
	integration.TopicOrderCancelled:    integration.EventOrderCancelled,
	integration.TopicTrackingCreated:   integration.EventTrackingCreated,
	integration.TopicPurchaseCancelled: integration.EventPurchaseCancelled,
}

// Normalizer runs a platform's webhook handler operation and converts its
// envelope into a canonical event
type Normalizer struct {
	executor integration.Executor
	timeout  time.Duration
}

// NewNormalizer creates a new Normalizer
func NewNormalizer(executor integration.Executor) *Normalizer {
	return &Normalizer{executor: executor, timeout: 30 * time.Second}
}

// SetTimeout bounds each handler invocation
func (n *Normalizer) SetTimeout(d time.Duration) {
	if d > 0 {
		n.timeout = d
	}
}

// Normalize verifies and parses one delivery. A rejected signature is
// returned as *integration.WebhookSignatureError, including a remote handler
// answering 401 or 403.
func (n *Normalizer) Normalize(ctx context.Context, cfg integration.PlatformConfig, topic integration.WebhookTopic, payload []byte, headers http.Header) (integration.WebhookEvent, error) {
	op, _, err := topic.Operation()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	envelope, err := integration.Call[integration.WebhookEnvelope](ctx, n.executor, cfg, op, integration.WebhookRequest{
		Body:    payload,
		Headers: flattenHeaders(headers),
	})
	if err != nil {
		var httpErr *integration.AdapterHTTPError
		if errors.As(err, &httpErr) && (httpErr.Status == http.StatusUnauthorized || httpErr.Status == http.StatusForbidden) {
			return nil, &integration.WebhookSignatureError{Platform: cfg.Domain, Reason: httpErr.Body}
		}
		return nil, err
	}

	event, err := envelope.Event()
	if err != nil {
		return nil, err
	}
	if want := topicEvents[topic]; event.Kind() != want {
		return nil, fmt.Errorf("%w: %s delivered %s, want %s", integration.ErrInvalidAdapterResponse, topic, event.Kind(), want)
	}
	return event, nil
}

// flattenHeaders keeps the first value of each header under its canonical name
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[http.CanonicalHeaderKey(k)] = v[0]
		}
	}
	return out
}
