/*
Copyright (c) Amazon Web Services
Distributed under the terms of the MIT license
*/

package stackdriver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// HeaderCloudTraceContext is the header set by Google front ends on incoming requests
const HeaderCloudTraceContext = "X-Cloud-Trace-Context"

// TraceContext holds the trace correlation values of the current request
type TraceContext struct {
	TraceID string
	SpanID  string
	Sampled bool
}

// Fields returns the correlation values keyed by their propagation names
func (tc TraceContext) Fields() map[string]string {
	fields := map[string]string{
		MDCFieldTraceID:    tc.TraceID,
		MDCFieldSpanExport: strconv.FormatBool(tc.Sampled),
	}
	if tc.SpanID != "" {
		fields[MDCFieldSpanID] = tc.SpanID
	}
	return fields
}

type traceContextKey struct{}

// WithTraceContext returns a new Context carrying the given trace correlation values
func WithTraceContext(ctx context.Context, tc TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, tc)
}

// TraceContextFromContext returns the trace correlation values stored in context.
// When none were stored explicitly, a valid OpenTelemetry span context is used instead.
func TraceContextFromContext(ctx context.Context) (TraceContext, bool) {
	if tc, ok := ctx.Value(traceContextKey{}).(TraceContext); ok && tc.TraceID != "" {
		return tc, true
	}

	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return TraceContext{}, false
	}
	return TraceContext{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
		Sampled: sc.IsSampled(),
	}, true
}

// ParseCloudTraceContext parses a "TRACE_ID/SPAN_ID;o=OPTIONS" header value.
// The decimal span id is converted to the 16 character hex form Cloud Logging expects.
func ParseCloudTraceContext(value string) (TraceContext, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return TraceContext{}, fmt.Errorf("empty %s header", HeaderCloudTraceContext)
	}

	var tc TraceContext
	rest := value
	if idx := strings.Index(rest, ";"); idx >= 0 {
		options := rest[idx+1:]
		rest = rest[:idx]
		tc.Sampled = strings.TrimSpace(options) == "o=1"
	}

	traceID, spanID, hasSpan := strings.Cut(rest, "/")
	if traceID == "" {
		return TraceContext{}, fmt.Errorf("missing trace id in %s header", HeaderCloudTraceContext)
	}
	tc.TraceID = traceID

	if hasSpan && spanID != "" {
		id, err := strconv.ParseUint(spanID, 10, 64)
		if err != nil {
			return TraceContext{}, fmt.Errorf("invalid span id in %s header: %w", HeaderCloudTraceContext, err)
		}
		// 0 is not a valid span id
		if id != 0 {
			tc.SpanID = fmt.Sprintf("%016x", id)
		}
	}

	return tc, nil
}

// TraceMiddleware stores the trace context of the X-Cloud-Trace-Context header in the request context
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if header := r.Header.Get(HeaderCloudTraceContext); header != "" {
			if tc, err := ParseCloudTraceContext(header); err == nil {
				r = r.WithContext(WithTraceContext(r.Context(), tc))
			}
		}
		next.ServeHTTP(w, r)
	})
}
