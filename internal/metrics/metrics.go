// Package metrics exposes the push client's Prometheus collectors. A nil
// *Collector is valid and records nothing, so the client can call it
// unconditionally.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "census").
	Namespace string

	// Subsystem is the metrics subsystem (default: "stream").
	Subsystem string

	// ConstLabels are added to every metric.
	ConstLabels prometheus.Labels

	// Registry is where collectors are registered.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "census",
		Subsystem: "stream",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector holds the client metrics.
type Collector struct {
	frames       *prometheus.CounterVec
	events       *prometheus.CounterVec
	decodeErrors *prometheus.CounterVec
	sends        *prometheus.CounterVec
	reconnects   *prometheus.CounterVec
	weight       prometheus.Gauge
	connected    prometheus.Gauge
}

// New registers the collectors and returns them.
func New(opts ...Option) *Collector {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := promauto.With(cfg.Registry)
	opt := func(name, help string) prometheus.Opts {
		return prometheus.Opts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: cfg.ConstLabels,
		}
	}

	return &Collector{
		frames: factory.NewCounterVec(prometheus.CounterOpts(opt(
			"frames_total", "Inbound frames by classified type")), []string{"type"}),
		events: factory.NewCounterVec(prometheus.CounterOpts(opt(
			"events_total", "Decoded events by name and family")), []string{"event", "family"}),
		decodeErrors: factory.NewCounterVec(prometheus.CounterOpts(opt(
			"decode_errors_total", "Service messages that failed to decode")), []string{"kind"}),
		sends: factory.NewCounterVec(prometheus.CounterOpts(opt(
			"commands_sent_total", "Outbound commands by action and outcome")), []string{"action", "outcome"}),
		reconnects: factory.NewCounterVec(prometheus.CounterOpts(opt(
			"reconnects_total", "Reconnect attempts by outcome")), []string{"outcome"}),
		weight: factory.NewGauge(prometheus.GaugeOpts(opt(
			"reconnect_weight", "Current accumulated reconnect weight"))),
		connected: factory.NewGauge(prometheus.GaugeOpts(opt(
			"connected", "1 while a push connection is open"))),
	}
}

// Frame counts an inbound frame of the given type.
func (c *Collector) Frame(frameType string) {
	if c == nil {
		return
	}
	c.frames.WithLabelValues(frameType).Inc()
}

// Event counts a decoded event.
func (c *Collector) Event(name, family string) {
	if c == nil {
		return
	}
	c.events.WithLabelValues(name, family).Inc()
}

// DecodeError counts a service message that failed to decode.
func (c *Collector) DecodeError(kind string) {
	if c == nil {
		return
	}
	c.decodeErrors.WithLabelValues(kind).Inc()
}

// Send records the outcome of an outbound command.
func (c *Collector) Send(action string, err error) {
	if c == nil {
		return
	}
	c.sends.WithLabelValues(action, outcome(err)).Inc()
}

// Reconnect records the outcome of a reconnect attempt.
func (c *Collector) Reconnect(err error) {
	if c == nil {
		return
	}
	c.reconnects.WithLabelValues(outcome(err)).Inc()
}

// Weight records the current reconnect weight.
func (c *Collector) Weight(w float64) {
	if c == nil {
		return
	}
	c.weight.Set(w)
}

// Connected records whether a connection is open.
func (c *Collector) Connected(up bool) {
	if c == nil {
		return
	}
	if up {
		c.connected.Set(1)
	} else {
		c.connected.Set(0)
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
