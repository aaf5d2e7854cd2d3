// Package metrics exposes Prometheus metrics for the HTTP surface and the
// LLM provider calls made by the chat service.
//
// Metrics:
//   - voicechat_http_requests_total{method,route,status}
//   - voicechat_chat_messages_total{provider,model,outcome}
//   - voicechat_provider_request_duration_seconds{provider,model}
//   - voicechat_provider_tokens_total{provider,model,direction}
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voicechat"

// Collector owns a Prometheus registry and the application metrics.
type Collector struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	chatMessages     *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	providerTokens   *prometheus.CounterVec
}

// NewCollector creates a collector. If registry is nil a fresh one is created
// with the Go runtime and process collectors attached.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	c := &Collector{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by method, route pattern and status",
			},
			[]string{"method", "route", "status"},
		),
		chatMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_messages_total",
				Help:      "Total number of chat messages sent to the provider by outcome",
			},
			[]string{"provider", "model", "outcome"},
		),
		providerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_request_duration_seconds",
				Help:      "Provider completion latency in seconds",
				// Short voice replies: 100ms - 30s
				Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"provider", "model"},
		),
		providerTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_tokens_total",
				Help:      "Tokens reported by the provider, by direction (input/output)",
			},
			[]string{"provider", "model", "direction"},
		),
	}

	registry.MustRegister(c.httpRequests, c.chatMessages, c.providerDuration, c.providerTokens)
	return c
}

// RecordHTTPRequest counts a finished HTTP request. route should be the
// matched mux pattern, never the raw path.
func (c *Collector) RecordHTTPRequest(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// RecordCompletion records one provider call. outcome is "success" or the
// failure kind.
func (c *Collector) RecordCompletion(provider, model, outcome string, duration time.Duration, inputTokens, outputTokens int) {
	c.chatMessages.WithLabelValues(provider, model, outcome).Inc()
	c.providerDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	if inputTokens > 0 {
		c.providerTokens.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		c.providerTokens.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
	}
}

// Handler returns the /metrics endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
