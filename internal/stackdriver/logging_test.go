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

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Logging", func() {
	var (
		ctx    context.Context
		logger logr.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = logr.Discard()
	})

	Context("AddLoggerToContext", func() {
		It("Should add the logger, and return the modified context", func() {
			newCtx := AddLoggerToContext(ctx, logger)

			Expect(newCtx).NotTo(BeIdenticalTo(ctx))
			Expect(newCtx.Value(loggerKey{})).NotTo(BeNil())
		})
	})

	Context("GetLoggerFromContext", func() {
		It("Should return the logger when available in context", func() {
			retrievedLogger := GetLoggerFromContext(AddLoggerToContext(ctx, logger))
			Expect(retrievedLogger).NotTo(BeNil())
		})

		It("Should return a discarding logger when not available in context", func() {
			retrievedLogger := GetLoggerFromContext(ctx)
			Expect(func() {
				retrievedLogger.Info("This should be discarded")
			}).NotTo(Panic())
		})
	})

	Context("NewRequestLogger", func() {
		It("Should correlate entries written through a Handler", func() {
			buf := &bytes.Buffer{}
			traced := WithTraceContext(ctx, TraceContext{TraceID: "abc", SpanID: "0000000000000002"})

			NewRequestLogger(traced, NewHandler(buf, &Options{ProjectID: "p"})).Info("authenticated")

			var entry map[string]any
			Expect(json.Unmarshal(buf.Bytes(), &entry)).To(Succeed())
			Expect(entry).To(HaveKeyWithValue(TraceIDAttribute, "projects/p/traces/abc"))
			Expect(entry).To(HaveKeyWithValue(SpanIDAttribute, "0000000000000002"))
			Expect(entry).To(HaveKeyWithValue(MessageAttribute, "authenticated"))
		})

		It("Should attach propagation fields for other handlers", func() {
			buf := &bytes.Buffer{}
			traced := WithTraceContext(ctx, TraceContext{TraceID: "abc", SpanID: "s"})

			NewRequestLogger(traced, slog.NewJSONHandler(buf, nil)).Info("authenticated")

			var entry map[string]any
			Expect(json.Unmarshal(buf.Bytes(), &entry)).To(Succeed())
			Expect(entry).To(HaveKeyWithValue(MDCFieldTraceID, "abc"))
			Expect(entry).To(HaveKeyWithValue(MDCFieldSpanID, "s"))
			Expect(entry).To(HaveKeyWithValue(MDCFieldSpanExport, "false"))
		})

		It("Should export the sampling decision for other handlers", func() {
			buf := &bytes.Buffer{}
			traced := WithTraceContext(ctx, TraceContext{TraceID: "abc", Sampled: true})

			NewRequestLogger(traced, slog.NewJSONHandler(buf, nil)).Info("authenticated")

			var entry map[string]any
			Expect(json.Unmarshal(buf.Bytes(), &entry)).To(Succeed())
			Expect(entry).To(HaveKeyWithValue(MDCFieldTraceID, "abc"))
			Expect(entry).To(HaveKeyWithValue(MDCFieldSpanExport, "true"))
			Expect(entry).NotTo(HaveKey(MDCFieldSpanID))
		})
	})
})
