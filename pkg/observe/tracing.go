package observe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/petermattis/goid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ripple-ui/ripple/pkg/ripple"
)

// Default tracer name for the reactive engine.
const defaultTracerName = "ripple"

// TracingConfig configures the OpenTelemetry tracing hooks.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "ripple").
	TracerName string

	// RecordEffectEvents adds a span event for every effect run and memo
	// recomputation inside a pass. Noisy on hot graphs - disabled by
	// default.
	RecordEffectEvents bool

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// TracingOption configures the OpenTelemetry tracing hooks.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithEffectEvents enables per-effect span events.
func WithEffectEvents(record bool) TracingOption {
	return func(c *TracingConfig) {
		c.RecordEffectEvents = record
	}
}

// Tracing implements ripple.Hooks, emitting one span per propagation pass.
// Pass spans carry the pass number, processed node count, and duration.
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it in
// your main() before installing the hooks:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//	ripple.SetHooks(observe.NewTracing())
//
// Passes on different goroutines are independent flushes, so active spans
// are keyed by goroutine.
type Tracing struct {
	config TracingConfig

	mu     sync.Mutex
	active map[int64]trace.Span
}

// NewTracing builds the tracing hooks.
func NewTracing(opts ...TracingOption) *Tracing {
	config := TracingConfig{
		TracerName: defaultTracerName,
	}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	return &Tracing{
		config: config,
		active: make(map[int64]trace.Span),
	}
}

// SignalWrite implements ripple.Hooks.
func (t *Tracing) SignalWrite(id uint64, noop bool) {}

// MemoRecompute implements ripple.Hooks.
func (t *Tracing) MemoRecompute(id uint64) {
	if !t.config.RecordEffectEvents {
		return
	}
	if span := t.currentSpan(); span != nil {
		span.AddEvent("memo.recompute", trace.WithAttributes(
			attribute.Int64("ripple.memo_id", int64(id)),
		))
	}
}

// EffectCreated implements ripple.Hooks.
func (t *Tracing) EffectCreated(id uint64, name string) {}

// EffectRun implements ripple.Hooks.
func (t *Tracing) EffectRun(id uint64, name string) {
	if !t.config.RecordEffectEvents {
		return
	}
	if span := t.currentSpan(); span != nil {
		attrs := []attribute.KeyValue{
			attribute.Int64("ripple.effect_id", int64(id)),
		}
		if name != "" {
			attrs = append(attrs, attribute.String("ripple.effect_name", name))
		}
		span.AddEvent("effect.run", trace.WithAttributes(attrs...))
	}
}

// EffectDisposed implements ripple.Hooks.
func (t *Tracing) EffectDisposed(id uint64, name string) {}

// PassStart implements ripple.Hooks.
func (t *Tracing) PassStart(pass int) {
	_, span := t.config.tracer.Start(
		context.Background(),
		fmt.Sprintf("ripple.pass/%d", pass),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.Int("ripple.pass", pass)),
	)

	t.mu.Lock()
	t.active[goid.Get()] = span
	t.mu.Unlock()
}

// PassEnd implements ripple.Hooks.
func (t *Tracing) PassEnd(pass int, duration time.Duration, runs int) {
	gid := goid.Get()

	t.mu.Lock()
	span, ok := t.active[gid]
	delete(t.active, gid)
	t.mu.Unlock()

	if !ok {
		return
	}

	span.SetAttributes(
		attribute.Int("ripple.node_runs", runs),
		attribute.Int64("ripple.duration_us", duration.Microseconds()),
	)
	span.SetStatus(codes.Ok, "")
	span.End()
}

// currentSpan returns the pass span active on this goroutine, if any.
func (t *Tracing) currentSpan() trace.Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active[goid.Get()]
}

var _ ripple.Hooks = (*Tracing)(nil)

// Multi fans hook events out to several sinks, so metrics, tracing, and an
// inspector can all observe the same engine.
//
//	ripple.SetHooks(observe.Multi(observe.NewMetrics(), observe.NewTracing()))
func Multi(hooks ...ripple.Hooks) ripple.Hooks {
	return multiHooks(hooks)
}

type multiHooks []ripple.Hooks

func (m multiHooks) SignalWrite(id uint64, noop bool) {
	for _, h := range m {
		h.SignalWrite(id, noop)
	}
}

func (m multiHooks) MemoRecompute(id uint64) {
	for _, h := range m {
		h.MemoRecompute(id)
	}
}

func (m multiHooks) EffectCreated(id uint64, name string) {
	for _, h := range m {
		h.EffectCreated(id, name)
	}
}

func (m multiHooks) EffectRun(id uint64, name string) {
	for _, h := range m {
		h.EffectRun(id, name)
	}
}

func (m multiHooks) EffectDisposed(id uint64, name string) {
	for _, h := range m {
		h.EffectDisposed(id, name)
	}
}

func (m multiHooks) PassStart(pass int) {
	for _, h := range m {
		h.PassStart(pass)
	}
}

func (m multiHooks) PassEnd(pass int, duration time.Duration, runs int) {
	for _, h := range m {
		h.PassEnd(pass, duration, runs)
	}
}
