package bytenc

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusConfig is a config of the Prometheus metrics provided by the encoder.
//
// An instance can be created only by the [Prometheus] function. The zero value is invalid.
//
// Metrics are registered once per [New] call. Encoders derived by [Encoder.Encode] share the
// metrics of the encoder they were derived from.
type PrometheusConfig struct {
	// Namespace of the metrics.
	Namespace string
	// Subsystem of the metrics.
	Subsystem string
	// Options for the pushed bytes counter.
	BytesPushed prometheus.CounterOpts
	// Options for the emitted chunks counter.
	ChunksEmitted prometheus.CounterOpts
	// Options for the pulled chunks counter.
	ChunksPulled prometheus.CounterOpts
	// Options for the closes counter.
	Closes prometheus.CounterOpts
	// Options for the waiting goroutines gauge.
	Waiting prometheus.GaugeOpts
	// Options for the chunk size histogram.
	ChunkSize prometheus.HistogramOpts

	registerer prometheus.Registerer
}

// Prometheus returns a [PrometheusConfig] with the provided registerer. If registerer is nil,
// metrics will not be registered. Many default parameters can be configured by passing
// configuration functions.
func Prometheus(
	registerer prometheus.Registerer,
	configFuncs ...func(c *PrometheusConfig),
) *PrometheusConfig {
	const (
		namespace = "bytenc"
		subsystem = ""
	)

	c := PrometheusConfig{
		registerer: registerer,
		Namespace:  namespace,
		Subsystem:  subsystem,
		BytesPushed: prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bytes_pushed",
			Help:      "Number of bytes pushed into encoder",
		},
		ChunksEmitted: prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chunks_emitted",
			Help:      "Number of chunks placed into encoder's mailbox",
		},
		ChunksPulled: prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chunks_pulled",
			Help:      "Number of chunks taken from encoder's mailbox",
		},
		Closes: prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "closes",
			Help:      "Number of closed encoders",
		},
		Waiting: prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "waiting",
			Help:      "Number of goroutines blocked on encoder's mailbox",
		},
		ChunkSize: prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chunk_size",
			Help:      "Size of emitted chunks in bytes",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		},
	}

	for _, cf := range configFuncs {
		if cf != nil {
			cf(&c)
		}
	}

	return &c
}

func (c *PrometheusConfig) metrics() *metrics {
	m := metrics{
		bytesPushed:   prometheus.NewCounter(c.BytesPushed),
		chunksEmitted: prometheus.NewCounter(c.ChunksEmitted),
		chunksPulled:  prometheus.NewCounterVec(c.ChunksPulled, []string{"type"}),
		closes:        prometheus.NewCounter(c.Closes),
		waiting:       prometheus.NewGaugeVec(c.Waiting, []string{"role"}),
		chunkSize:     prometheus.NewHistogram(c.ChunkSize),
	}

	if c.registerer != nil {
		c.registerer.MustRegister(
			m.bytesPushed,
			m.chunksEmitted,
			m.chunksPulled,
			m.closes,
			m.waiting,
			m.chunkSize,
		)
	}

	return &m
}

type metrics struct {
	bytesPushed   prometheus.Counter
	chunksEmitted prometheus.Counter
	chunksPulled  *prometheus.CounterVec
	closes        prometheus.Counter
	waiting       *prometheus.GaugeVec
	chunkSize     prometheus.Histogram
}
