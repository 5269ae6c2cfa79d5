/*
Copyright (c) Amazon Web Services
Distributed under the terms of the MIT license
*/

package stackdriver

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Constants", func() {
	It("Should match the Cloud Logging log entry schema", func() {
		Expect(SeverityAttribute).To(Equal("severity"))
		Expect(TimestampSecondsAttribute).To(Equal("timestampSeconds"))
		Expect(TimestampNanosAttribute).To(Equal("timestampNanos"))
		Expect(SpanIDAttribute).To(Equal("logging.googleapis.com/spanId"))
		Expect(TraceIDAttribute).To(Equal("logging.googleapis.com/trace"))
		Expect(ServiceContextAttribute).To(Equal("serviceContext"))
	})

	It("Should match the propagation field names", func() {
		Expect(MDCFieldTraceID).To(Equal("traceId"))
		Expect(MDCFieldSpanID).To(Equal("spanId"))
		Expect(MDCFieldSpanExport).To(Equal("X-Span-Export"))
	})

	Context("ComposeFullTraceName", func() {
		It("Should compose the full trace name", func() {
			name, err := ComposeFullTraceName("p", "t")
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("projects/p/traces/t"))
		})

		It("Should not escape its inputs", func() {
			name, err := ComposeFullTraceName("my project", "a/b")
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("projects/my project/traces/a/b"))
		})

		It("Should fail when the project ID is missing", func() {
			_, err := ComposeFullTraceName("", "t")
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, ErrInvalidArgument)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("project ID"))
		})

		It("Should fail when the trace ID is missing", func() {
			_, err := ComposeFullTraceName("p", "")
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, ErrInvalidArgument)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("trace ID"))
		})
	})
})
