package integration

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAdapterResponse = errors.New("integration: invalid adapter response")
	ErrShopNotFound           = errors.New("integration: shop not found")
	ErrChannelNotFound        = errors.New("integration: channel not found")
	ErrPlatformNotFound       = errors.New("integration: platform not found")
	ErrUnsupportedTopic       = errors.New("integration: unsupported webhook topic")
)

// AdapterNotFoundError is returned when an operation has no implementation:
// the platform does not declare it, the named module is not registered, or
// the module does not expose the operation. It is a configuration error.
type AdapterNotFoundError struct {
	Operation Operation
	Target    string
}

func (e *AdapterNotFoundError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("integration: no adapter configured for %s", e.Operation)
	}
	return fmt.Sprintf("integration: adapter %q does not implement %s", e.Target, e.Operation)
}

// AdapterHTTPError is a non-2xx response from a remote adapter endpoint
type AdapterHTTPError struct {
	Operation Operation
	Status    int
	Body      string
}

func (e *AdapterHTTPError) Error() string {
	return fmt.Sprintf("integration: %s returned HTTP %d: %s", e.Operation, e.Status, e.Body)
}

// AdapterExecutionError wraps a failure raised while running an operation,
// either inside a built-in module or in the transport to a remote endpoint.
type AdapterExecutionError struct {
	Operation Operation
	Target    string
	Cause     error
}

func (e *AdapterExecutionError) Error() string {
	return fmt.Sprintf("integration: %s on %s failed: %v", e.Operation, e.Target, e.Cause)
}

func (e *AdapterExecutionError) Unwrap() error {
	return e.Cause
}

// WebhookSignatureError rejects a webhook whose signature is missing or wrong
type WebhookSignatureError struct {
	Platform string
	Reason   string
}

func (e *WebhookSignatureError) Error() string {
	return fmt.Sprintf("integration: webhook signature rejected for %s: %s", e.Platform, e.Reason)
}

// IsSignatureError reports whether err is, or wraps, a WebhookSignatureError
func IsSignatureError(err error) bool {
	var sigErr *WebhookSignatureError
	return errors.As(err, &sigErr)
}

// IsAdapterNotFound reports whether err is, or wraps, an AdapterNotFoundError
func IsAdapterNotFound(err error) bool {
	var nf *AdapterNotFoundError
	return errors.As(err, &nf)
}
