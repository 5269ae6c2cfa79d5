/*
Copyright (c) Amazon Web Services
Distributed under the terms of the MIT license
*/

package iap

import "github.com/prometheus/client_golang/prometheus"

// Authentication results recorded by Metrics
const (
	ResultSuccess      = "success"
	ResultMissingToken = "missing_token"
	ResultInvalidToken = "invalid_token"
)

// Metrics counts authentication outcomes
type Metrics struct {
	authentications *prometheus.CounterVec
}

// NewMetrics creates Metrics and registers its collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		authentications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iap_authentication_total",
			Help: "Number of requests authenticated with an IAP assertion, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.authentications)
	return m
}

func (m *Metrics) observe(result string) {
	if m == nil {
		return
	}
	m.authentications.WithLabelValues(result).Inc()
}
