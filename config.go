package bytenc

import (
	"log/slog"
)

// Config is a config of the encoder.
//
// An instance is created by [New] and passed to configuration functions. The zero value is
// invalid.
type Config struct {
	logger     *slog.Logger
	listener   Listener
	prometheus *PrometheusConfig

	metrics *metrics
}

// Logger sets the structured logger used for lifecycle and failure records. By default, nothing
// is logged.
func (c *Config) Logger(logger *slog.Logger) {
	if logger == nil {
		panic("logger can't be nil")
	}
	c.logger = logger
}

// Listener sets the initial listener of the encoder. It's equivalent to calling
// [Encoder.SetListener] right after [New].
func (c *Config) Listener(listener Listener) {
	if listener == nil {
		panic("listener can't be nil")
	}
	c.listener = listener
}

// Prometheus sets the config of the Prometheus metrics. See [Prometheus].
func (c *Config) Prometheus(prometheus *PrometheusConfig) {
	if prometheus == nil {
		panic("prometheus can't be nil")
	}
	c.prometheus = prometheus
}

func newConfig(configFuncs ...func(c *Config)) *Config {
	c := Config{}
	c.Logger(slog.New(slog.DiscardHandler))
	c.Prometheus(Prometheus(nil))
	for _, cf := range configFuncs {
		if cf != nil {
			cf(&c)
		}
	}

	c.metrics = c.prometheus.metrics()

	return &c
}

// derive returns a copy of the config without the listener. The metrics are shared, since they
// can only be registered once.
func (c *Config) derive() *Config {
	d := *c
	d.listener = nil
	return &d
}
