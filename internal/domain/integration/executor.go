package integration

import (
	"context"
	"encoding/json"
	"fmt"
)

// Executor invokes a named adapter operation against a platform. Callers
// never need to know whether the operation is served by a built-in module or
// a remote HTTP endpoint.
//
// Invoke has no timeout or retry of its own; bound it with the context.
type Executor interface {
	Invoke(ctx context.Context, cfg PlatformConfig, op Operation, args any) (json.RawMessage, error)
}

// Func is one operation of a built-in module. args holds the JSON encoding of
// the operation arguments; the return value must be JSON serialisable.
type Func func(ctx context.Context, cfg PlatformConfig, args json.RawMessage) (any, error)

// Module is a built-in platform implementation registered by name
type Module interface {
	Name() string
	Operations() map[Operation]Func
}

// Call invokes op and decodes the JSON result into T
func Call[T any](ctx context.Context, exec Executor, cfg PlatformConfig, op Operation, args any) (T, error) {
	var out T
	raw, err := exec.Invoke(ctx, cfg, op, args)
	if err != nil {
		return out, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %s: %v", ErrInvalidAdapterResponse, op, err)
	}
	return out, nil
}
