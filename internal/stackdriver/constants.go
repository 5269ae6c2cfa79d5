/*
Copyright (c) Amazon Web Services
Distributed under the terms of the MIT license
*/

// Package stackdriver provides the Cloud Logging (Stackdriver) log entry field names,
// trace name composition and a slog handler that correlates log entries with traces.
package stackdriver

import (
	"errors"
	"fmt"
)

// JSON field names of a structured Cloud Logging log entry
const (
	// SeverityAttribute is the JSON field name for the log level (severity)
	SeverityAttribute = "severity"
	// TimestampSecondsAttribute is the JSON field name for the seconds of the timestamp
	TimestampSecondsAttribute = "timestampSeconds"
	// TimestampNanosAttribute is the JSON field name for the nanos of the timestamp
	TimestampNanosAttribute = "timestampNanos"
	// SpanIDAttribute is the JSON field name for the span-id
	SpanIDAttribute = "logging.googleapis.com/spanId"
	// TraceIDAttribute is the JSON field name for the trace-id
	TraceIDAttribute = "logging.googleapis.com/trace"
	// ServiceContextAttribute is the JSON field name for the service context
	ServiceContextAttribute = "serviceContext"

	// TraceSampledAttribute is the JSON field name for the sampling decision of the trace
	TraceSampledAttribute = "logging.googleapis.com/trace_sampled"
	// MessageAttribute is the JSON field name for the log message
	MessageAttribute = "message"
)

// Names under which trace correlation values are propagated alongside a request
const (
	MDCFieldTraceID    = "traceId"
	MDCFieldSpanID     = "spanId"
	MDCFieldSpanExport = "X-Span-Export"
)

// ErrInvalidArgument is returned when a required argument is missing
var ErrInvalidArgument = errors.New("invalid argument")

// ComposeFullTraceName composes the full trace name expected by the Cloud Logging log viewer
// to correlate log entries with traces, in the "projects/[PROJECT_ID]/traces/[TRACE_ID]" format.
func ComposeFullTraceName(projectID, traceID string) (string, error) {
	if projectID == "" {
		return "", fmt.Errorf("%w: the project ID can't be empty", ErrInvalidArgument)
	}
	if traceID == "" {
		return "", fmt.Errorf("%w: the trace ID can't be empty", ErrInvalidArgument)
	}
	return "projects/" + projectID + "/traces/" + traceID, nil
}
