/*
Copyright (c) Amazon Web Services
Distributed under the terms of the MIT license
*/

package stackdriver

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func decodeEntry(buf *bytes.Buffer) map[string]any {
	var entry map[string]any
	Expect(json.Unmarshal(buf.Bytes(), &entry)).To(Succeed())
	return entry
}

var _ = Describe("Handler", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
	})

	It("Should write the Cloud Logging built-in fields", func() {
		logger := slog.New(NewHandler(buf, nil))
		logger.Warn("disk almost full", "percent", 93)

		entry := decodeEntry(buf)
		Expect(entry).To(HaveKeyWithValue(SeverityAttribute, SeverityWarning))
		Expect(entry).To(HaveKeyWithValue(MessageAttribute, "disk almost full"))
		Expect(entry).To(HaveKey(TimestampSecondsAttribute))
		Expect(entry).To(HaveKey(TimestampNanosAttribute))
		Expect(entry).To(HaveKeyWithValue("percent", BeNumerically("==", 93)))
		Expect(entry).NotTo(HaveKey(slog.TimeKey))
		Expect(entry).NotTo(HaveKey(slog.LevelKey))
		Expect(entry).NotTo(HaveKey(TraceIDAttribute))
	})

	It("Should compose the full trace name when the project is known", func() {
		logger := slog.New(NewHandler(buf, &Options{ProjectID: "my-project"}))
		ctx := WithTraceContext(context.Background(), TraceContext{TraceID: "abc", SpanID: "0000000000000001", Sampled: true})
		logger.InfoContext(ctx, "handled")

		entry := decodeEntry(buf)
		Expect(entry).To(HaveKeyWithValue(TraceIDAttribute, "projects/my-project/traces/abc"))
		Expect(entry).To(HaveKeyWithValue(SpanIDAttribute, "0000000000000001"))
		Expect(entry).To(HaveKeyWithValue(TraceSampledAttribute, true))
	})

	It("Should log the raw trace id without a project", func() {
		logger := slog.New(NewHandler(buf, nil))
		logger.InfoContext(otelContext(false), "handled")

		entry := decodeEntry(buf)
		Expect(entry).To(HaveKeyWithValue(TraceIDAttribute, testTraceID))
		Expect(entry).To(HaveKeyWithValue(SpanIDAttribute, testSpanID))
		Expect(entry).To(HaveKeyWithValue(TraceSampledAttribute, false))
	})

	It("Should write the service context", func() {
		logger := slog.New(NewHandler(buf, &Options{ServiceName: "iap-auth", ServiceVersion: "1.2.0"}))
		logger.Error("boom")

		entry := decodeEntry(buf)
		Expect(entry).To(HaveKeyWithValue(SeverityAttribute, SeverityError))
		Expect(entry).To(HaveKeyWithValue(ServiceContextAttribute, And(
			HaveKeyWithValue("service", "iap-auth"),
			HaveKeyWithValue("version", "1.2.0"),
		)))
	})

	It("Should keep top-level fields outside of groups", func() {
		logger := slog.New(NewHandler(buf, &Options{ProjectID: "p"})).With("component", "verify").WithGroup("request")
		ctx := WithTraceContext(context.Background(), TraceContext{TraceID: "t"})
		logger.InfoContext(ctx, "done", "status", 200)

		entry := decodeEntry(buf)
		Expect(entry).To(HaveKeyWithValue("component", "verify"))
		Expect(entry).To(HaveKeyWithValue(TraceIDAttribute, "projects/p/traces/t"))
		Expect(entry).To(HaveKey(TimestampSecondsAttribute))
		Expect(entry).To(HaveKeyWithValue("request", HaveKeyWithValue("status", BeNumerically("==", 200))))
	})

	It("Should respect the configured level", func() {
		logger := slog.New(NewHandler(buf, &Options{Level: slog.LevelWarn}))
		logger.Info("ignored")
		Expect(buf.Len()).To(BeZero())
	})

	It("Should use the bound trace context when the record has none", func() {
		h := NewHandler(buf, &Options{ProjectID: "p"})
		ctx := WithTraceContext(context.Background(), TraceContext{TraceID: "bound"})
		slog.New(h.ForContext(ctx)).Info("no context")

		entry := decodeEntry(buf)
		Expect(entry).To(HaveKeyWithValue(TraceIDAttribute, "projects/p/traces/bound"))
	})

	It("Should keep user attributes named like built-in fields apart from the entry fields", func() {
		logger := slog.New(NewHandler(buf, nil))
		logger.Info("hello", "time", "x", "level", "custom", "msg", "other")

		Expect(strings.Count(buf.String(), `"`+SeverityAttribute+`"`)).To(Equal(1))
		Expect(strings.Count(buf.String(), `"`+MessageAttribute+`"`)).To(Equal(1))

		entry := decodeEntry(buf)
		Expect(entry).To(HaveKeyWithValue(SeverityAttribute, SeverityInfo))
		Expect(entry).To(HaveKeyWithValue(MessageAttribute, "hello"))
		Expect(entry).To(HaveKeyWithValue(UserKeyPrefix+"time", "x"))
		Expect(entry).To(HaveKeyWithValue(UserKeyPrefix+"level", "custom"))
		Expect(entry).To(HaveKeyWithValue(UserKeyPrefix+"msg", "other"))
	})

	It("Should keep bound attributes named like built-in fields", func() {
		logger := slog.New(NewHandler(buf, nil)).With("time", "bound", "level", "custom")
		logger.Warn("hi")

		entry := decodeEntry(buf)
		Expect(entry).To(HaveKeyWithValue(SeverityAttribute, SeverityWarning))
		Expect(entry).To(HaveKeyWithValue(UserKeyPrefix+"time", "bound"))
		Expect(entry).To(HaveKeyWithValue(UserKeyPrefix+"level", "custom"))
	})

	It("Should rename built-in keys of inlined groups", func() {
		logger := slog.New(NewHandler(buf, nil))
		logger.Info("hello", slog.Group("", slog.String("level", "custom")))

		entry := decodeEntry(buf)
		Expect(entry).To(HaveKeyWithValue(SeverityAttribute, SeverityInfo))
		Expect(entry).To(HaveKeyWithValue(UserKeyPrefix+"level", "custom"))
	})

	It("Should leave built-in key names inside groups untouched", func() {
		logger := slog.New(NewHandler(buf, nil)).WithGroup("request")
		logger.Info("done", "time", "12ms")

		entry := decodeEntry(buf)
		Expect(entry).To(HaveKeyWithValue("request", HaveKeyWithValue("time", "12ms")))
	})

	DescribeTable("Severity",
		func(level slog.Level, expected string) {
			Expect(Severity(level)).To(Equal(expected))
		},
		Entry("debug", slog.LevelDebug, SeverityDebug),
		Entry("below debug", slog.LevelDebug-4, SeverityDebug),
		Entry("info", slog.LevelInfo, SeverityInfo),
		Entry("warn", slog.LevelWarn, SeverityWarning),
		Entry("error", slog.LevelError, SeverityError),
		Entry("above error", slog.LevelError+4, SeverityError),
	)
})
