/*
Copyright (c) Amazon Web Services
Distributed under the terms of the MIT license
*/

package stackdriver

import (
	"context"
	"io"
	"log/slog"
)

// Severity values understood by Cloud Logging
const (
	SeverityDebug   = "DEBUG"
	SeverityInfo    = "INFO"
	SeverityWarning = "WARNING"
	SeverityError   = "ERROR"
)

// Options configures the log entries written by Handler
type Options struct {
	// ProjectID is used to compose full trace names. When empty the raw trace id is logged.
	ProjectID string
	// ServiceName and ServiceVersion populate the serviceContext field when ServiceName is set
	ServiceName    string
	ServiceVersion string
	Level          slog.Leveler
}

// Handler is a slog.Handler writing one Cloud Logging structured JSON entry per record.
// Trace correlation fields are taken from the context passed to the logger.
type Handler struct {
	base *slog.JSONHandler
	opts Options
	// ops replays WithAttrs/WithGroup calls on top of the per-record top-level fields
	ops []func(slog.Handler) slog.Handler
	// bound is used when the record context carries no trace
	bound *TraceContext
	// grouped is set once WithGroup was called; later attributes are no longer top-level
	grouped bool
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler creates a Handler writing to w
func NewHandler(w io.Writer, opts *Options) *Handler {
	var o Options
	if opts != nil {
		o = *opts
	}
	return &Handler{
		base: slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       o.Level,
			ReplaceAttr: replaceBuiltinAttr,
		}),
		opts: o,
	}
}

// Enabled reports whether the handler handles records at the given level
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle writes the record with timestamp, trace and service context fields
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	var attrs []slog.Attr
	if !r.Time.IsZero() {
		attrs = append(attrs,
			slog.Int64(TimestampSecondsAttribute, r.Time.Unix()),
			slog.Int64(TimestampNanosAttribute, int64(r.Time.Nanosecond())),
		)
	}
	attrs = append(attrs, h.traceAttrs(ctx)...)
	if h.opts.ServiceName != "" {
		service := []any{slog.String("service", h.opts.ServiceName)}
		if h.opts.ServiceVersion != "" {
			service = append(service, slog.String("version", h.opts.ServiceVersion))
		}
		attrs = append(attrs, slog.Group(ServiceContextAttribute, service...))
	}

	var handler slog.Handler = h.base.WithAttrs(attrs)
	for _, op := range h.ops {
		handler = op(handler)
	}
	if !h.grouped {
		r = renameRecordAttrs(r)
	}
	return handler.Handle(ctx, r)
}

// WithAttrs returns a new Handler whose records include the given attributes
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	if !h.grouped {
		attrs = renameBuiltinKeys(attrs)
	}
	return h.with(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

// WithGroup returns a new Handler nesting subsequent attributes under name
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.with(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
	h2.grouped = true
	return h2
}

func (h *Handler) with(op func(slog.Handler) slog.Handler) *Handler {
	ops := make([]func(slog.Handler) slog.Handler, len(h.ops), len(h.ops)+1)
	copy(ops, h.ops)
	return &Handler{base: h.base, opts: h.opts, ops: append(ops, op), bound: h.bound, grouped: h.grouped}
}

// ForContext returns a Handler bound to the trace context of ctx, for loggers that
// do not pass a context down to Handle
func (h *Handler) ForContext(ctx context.Context) *Handler {
	tc, ok := TraceContextFromContext(ctx)
	if !ok {
		return h
	}
	return &Handler{base: h.base, opts: h.opts, ops: h.ops, bound: &tc, grouped: h.grouped}
}

func (h *Handler) traceAttrs(ctx context.Context) []slog.Attr {
	var tc TraceContext
	ok := false
	if ctx != nil {
		tc, ok = TraceContextFromContext(ctx)
	}
	if !ok && h.bound != nil {
		tc, ok = *h.bound, true
	}
	if !ok {
		return nil
	}

	traceName := tc.TraceID
	if h.opts.ProjectID != "" {
		if name, err := ComposeFullTraceName(h.opts.ProjectID, tc.TraceID); err == nil {
			traceName = name
		}
	}

	attrs := []slog.Attr{slog.String(TraceIDAttribute, traceName)}
	if tc.SpanID != "" {
		attrs = append(attrs, slog.String(SpanIDAttribute, tc.SpanID))
	}
	return append(attrs, slog.Bool(TraceSampledAttribute, tc.Sampled))
}

// UserKeyPrefix is prepended to top-level user attributes named like a slog built-in
// (time, level, msg), which would otherwise collide with the entry's own fields
const UserKeyPrefix = "user."

// renameRecordAttrs returns r with its top-level attributes passed through renameBuiltinKeys
func renameRecordAttrs(r slog.Record) slog.Record {
	collides := false
	r.Attrs(func(a slog.Attr) bool {
		collides = collidesWithBuiltin(a)
		return !collides
	})
	if !collides {
		return r
	}

	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	renamed := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	renamed.AddAttrs(renameBuiltinKeys(attrs)...)
	return renamed
}

// renameBuiltinKeys prefixes attributes keyed time, level or msg with UserKeyPrefix.
// Attributes of groups with an empty key are inlined by slog and renamed as well.
func renameBuiltinKeys(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		switch {
		case isBuiltinKey(a.Key):
			a.Key = UserKeyPrefix + a.Key
		case a.Key == "" && a.Value.Kind() == slog.KindGroup:
			a.Value = slog.GroupValue(renameBuiltinKeys(a.Value.Group())...)
		}
		out[i] = a
	}
	return out
}

func collidesWithBuiltin(a slog.Attr) bool {
	if isBuiltinKey(a.Key) {
		return true
	}
	if a.Key == "" && a.Value.Kind() == slog.KindGroup {
		for _, child := range a.Value.Group() {
			if collidesWithBuiltin(child) {
				return true
			}
		}
	}
	return false
}

func isBuiltinKey(key string) bool {
	return key == slog.TimeKey || key == slog.LevelKey || key == slog.MessageKey
}

// replaceBuiltinAttr maps the slog built-in keys onto the Cloud Logging schema.
// The time is dropped since Handle writes it as seconds and nanos.
func replaceBuiltinAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		return slog.Attr{}
	case slog.LevelKey:
		level, ok := a.Value.Any().(slog.Level)
		if !ok {
			return slog.String(SeverityAttribute, a.Value.String())
		}
		return slog.String(SeverityAttribute, Severity(level))
	case slog.MessageKey:
		a.Key = MessageAttribute
	}
	return a
}

// Severity maps a slog level to a Cloud Logging severity
func Severity(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return SeverityDebug
	case level < slog.LevelWarn:
		return SeverityInfo
	case level < slog.LevelError:
		return SeverityWarning
	default:
		return SeverityError
	}
}
