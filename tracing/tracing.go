// Package tracing wraps a Dotprompt compiler with OpenTelemetry spans so
// compile and render latency, prompt identity, and failures show up in
// distributed traces. The core never imports this package; wrap at the call
// site.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dotprompt-go/dotprompt"
)

const tracerName = "github.com/dotprompt-go/dotprompt/tracing"

// Traced wraps a Dotprompt compiler. All spans are children of the caller's
// context span.
type Traced struct {
	dp     *dotprompt.Dotprompt
	tracer trace.Tracer
}

// Option configures a Traced wrapper.
type Option func(*Traced)

// WithTracerProvider sets a specific provider instead of the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(t *Traced) {
		t.tracer = tp.Tracer(tracerName)
	}
}

// New wraps dp. Panics if dp is nil.
func New(dp *dotprompt.Dotprompt, opts ...Option) *Traced {
	if dp == nil {
		panic("tracing: Dotprompt must not be nil")
	}
	t := &Traced{
		dp:     dp,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Compile compiles source inside a "dotprompt.compile" span and returns a
// render function that itself runs inside "dotprompt.render" spans.
func (t *Traced) Compile(
	ctx context.Context,
	source string,
	override *dotprompt.PromptMetadata[map[string]any],
) (dotprompt.PromptFunction, error) {
	ctx, span := t.tracer.Start(ctx, "dotprompt.compile",
		trace.WithAttributes(attribute.Int("dotprompt.source_bytes", len(source))))
	renderFn, err := t.dp.Compile(ctx, source, override)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, data dotprompt.DataArgument[map[string]any]) (dotprompt.RenderedPrompt[map[string]any], error) {
		ctx, span := t.tracer.Start(ctx, "dotprompt.render")
		out, err := renderFn(ctx, data)
		if err == nil {
			span.SetAttributes(
				attribute.String("dotprompt.prompt_name", out.Name),
				attribute.String("dotprompt.model", out.Model),
				attribute.Int("dotprompt.message_count", len(out.Messages)),
			)
		}
		endSpan(span, err)
		return out, err
	}, nil
}

// Render compiles and renders in one step, under one compile span and one
// render span.
func (t *Traced) Render(
	ctx context.Context,
	source string,
	data dotprompt.DataArgument[map[string]any],
	override *dotprompt.PromptMetadata[map[string]any],
) (dotprompt.RenderedPrompt[map[string]any], error) {
	renderFn, err := t.Compile(ctx, source, override)
	if err != nil {
		return dotprompt.RenderedPrompt[map[string]any]{}, err
	}
	return renderFn(ctx, data)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
