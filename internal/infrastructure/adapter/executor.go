package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Rafcin/openship/internal/domain/integration"
)

const (
	// defaultMaxResponseSize limits remote adapter response bodies
	defaultMaxResponseSize = 10 * 1024 * 1024 // 10MB
	// maxErrorBodySize limits the body kept on AdapterHTTPError
	maxErrorBodySize = 4 * 1024

	platformConfigKey = "platformConfig"

	TargetKindModule = "module"
	TargetKindHTTP   = "http"
)

// Observer is notified after every invocation
type Observer interface {
	ObserveInvocation(ctx context.Context, op integration.Operation, targetKind string, d time.Duration, err error)
}

// Executor implements integration.Executor
type Executor struct {
	registry        *Registry
	httpClient      *http.Client
	tracer          trace.Tracer
	logger          *zap.Logger
	observer        Observer
	maxResponseSize int64
}

var _ integration.Executor = (*Executor)(nil)

// Option configures an Executor
type Option func(*Executor)

// WithHTTPClient sets the client used for remote targets. The client's
// Timeout is a transport ceiling; callers still bound each call with ctx.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Executor) {
		e.httpClient = c
	}
}

// WithLogger sets the executor logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}

// WithTracer sets the tracer used for invocation spans
func WithTracer(t trace.Tracer) Option {
	return func(e *Executor) {
		e.tracer = t
	}
}

// WithObserver sets the invocation observer
func WithObserver(o Observer) Option {
	return func(e *Executor) {
		e.observer = o
	}
}

// WithMaxResponseSize limits how much of a remote response is read
func WithMaxResponseSize(n int64) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxResponseSize = n
		}
	}
}

// NewExecutor creates an executor resolving module names through registry
func NewExecutor(registry *Registry, opts ...Option) *Executor {
	e := &Executor{
		registry:        registry,
		httpClient:      &http.Client{Timeout: 60 * time.Second},
		tracer:          otel.Tracer("openship/adapter"),
		logger:          zap.NewNop(),
		maxResponseSize: defaultMaxResponseSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Invoke runs op against the target declared in cfg
func (e *Executor) Invoke(ctx context.Context, cfg integration.PlatformConfig, op integration.Operation, args any) (json.RawMessage, error) {
	target, ok := cfg.Target(op)
	if !ok {
		return nil, &integration.AdapterNotFoundError{Operation: op}
	}

	kind := TargetKindModule
	if integration.IsRemoteTarget(target) {
		kind = TargetKindHTTP
	}

	ctx, span := e.tracer.Start(ctx, "adapter.Invoke "+string(op),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("adapter.operation", string(op)),
			attribute.String("adapter.target_kind", kind),
			attribute.String("adapter.platform_domain", cfg.Domain),
		),
	)
	defer span.End()

	start := time.Now()
	var (
		raw json.RawMessage
		err error
	)
	if kind == TargetKindHTTP {
		raw, err = e.invokeRemote(ctx, cfg, op, target, args)
	} else {
		raw, err = e.invokeModule(ctx, cfg, op, target, args)
	}
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Debug("Adapter invocation failed",
			zap.String("operation", string(op)),
			zap.String("target_kind", kind),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	}
	if e.observer != nil {
		e.observer.ObserveInvocation(ctx, op, kind, elapsed, err)
	}
	return raw, err
}

func (e *Executor) invokeModule(ctx context.Context, cfg integration.PlatformConfig, op integration.Operation, name string, args any) (json.RawMessage, error) {
	module, ok := e.registry.Lookup(name)
	if !ok {
		return nil, &integration.AdapterNotFoundError{Operation: op, Target: name}
	}
	fn, ok := module.Operations()[op]
	if !ok || fn == nil {
		return nil, &integration.AdapterNotFoundError{Operation: op, Target: name}
	}

	argsJSON, err := marshalArgs(args)
	if err != nil {
		return nil, &integration.AdapterExecutionError{Operation: op, Target: name, Cause: err}
	}

	out, err := safeCall(ctx, fn, cfg, argsJSON)
	if err != nil {
		return nil, &integration.AdapterExecutionError{Operation: op, Target: name, Cause: err}
	}

	if raw, ok := out.(json.RawMessage); ok {
		return raw, nil
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, &integration.AdapterExecutionError{
			Operation: op,
			Target:    name,
			Cause:     fmt.Errorf("%w: %v", integration.ErrInvalidAdapterResponse, err),
		}
	}
	return raw, nil
}

func safeCall(ctx context.Context, fn integration.Func, cfg integration.PlatformConfig, args json.RawMessage) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("adapter: module panicked: %v", r)
		}
	}()
	return fn(ctx, cfg, args)
}

func (e *Executor) invokeRemote(ctx context.Context, cfg integration.PlatformConfig, op integration.Operation, url string, args any) (json.RawMessage, error) {
	body, err := buildRemoteBody(cfg, args)
	if err != nil {
		return nil, &integration.AdapterExecutionError{Operation: op, Target: url, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &integration.AdapterExecutionError{Operation: op, Target: url, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Openship-Operation", string(op))

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &integration.AdapterExecutionError{Operation: op, Target: url, Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, e.maxResponseSize))
	if err != nil {
		return nil, &integration.AdapterExecutionError{Operation: op, Target: url, Cause: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(respBody) > maxErrorBodySize {
			respBody = respBody[:maxErrorBodySize]
		}
		return nil, &integration.AdapterHTTPError{Operation: op, Status: resp.StatusCode, Body: string(respBody)}
	}

	respBody = bytes.TrimSpace(respBody)
	if len(respBody) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(respBody) {
		return nil, &integration.AdapterExecutionError{Operation: op, Target: url, Cause: integration.ErrInvalidAdapterResponse}
	}
	return json.RawMessage(respBody), nil
}

func marshalArgs(args any) (json.RawMessage, error) {
	if args == nil {
		return json.RawMessage("{}"), nil
	}
	if raw, ok := args.(json.RawMessage); ok {
		return raw, nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("adapter: marshal args: %w", err)
	}
	return b, nil
}

// buildRemoteBody produces {"platformConfig": cfg, ...args}. Argument keys
// are written after platformConfig and win on collision.
func buildRemoteBody(cfg integration.PlatformConfig, args any) ([]byte, error) {
	argsJSON, err := marshalArgs(args)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]json.RawMessage)
	if trimmed := bytes.TrimSpace(argsJSON); len(trimmed) > 0 && string(trimmed) != "null" {
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, fmt.Errorf("adapter: arguments must be a JSON object: %w", err)
		}
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("adapter: marshal platform config: %w", err)
	}
	if _, overridden := fields[platformConfigKey]; !overridden {
		fields[platformConfigKey] = cfgJSON
	}
	return json.Marshal(fields)
}
