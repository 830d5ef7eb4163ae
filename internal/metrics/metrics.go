package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	Instances prometheus.Gauge
	QueryTime prometheus.Gauge

	FramesRecomputed     prometheus.Counter
	FramesCached         prometheus.Counter
	TrajectoriesRejected prometheus.Counter
	DegenerateSegments   prometheus.Counter
	Seeks                prometheus.Counter

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge

	UpdateDuration  prometheus.Histogram
	PublishDuration prometheus.Histogram

	SpeedMultiplier prometheus.Gauge
	FrameInterval   prometheus.Gauge // seconds
}

func NewCollector(speedMultiplier float64, frameInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Instances: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "migration_instances",
			Help: "Number of expanded instances being rendered.",
		}),
		QueryTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "migration_query_time",
			Help: "Query time of the last published frame.",
		}),
		FramesRecomputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "migration_frames_recomputed_total",
			Help: "Frames whose attribute columns were recomputed.",
		}),
		FramesCached: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "migration_frames_cached_total",
			Help: "Frames served from the cached attribute columns.",
		}),
		TrajectoriesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "migration_trajectories_rejected_total",
			Help: "Trajectories dropped at expansion for malformed shape.",
		}),
		DegenerateSegments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "migration_degenerate_segments_total",
			Help: "Instance updates that landed on a zero-length time segment.",
		}),
		Seeks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "migration_seeks_total",
			Help: "Seek commands applied.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "migration_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "migration_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "migration_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		UpdateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "migration_update_duration_seconds",
			Help:    "Duration of attribute recomputation.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "migration_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		SpeedMultiplier: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "migration_speed_multiplier",
			Help: "Query-time units advanced per wall-clock second.",
		}),
		FrameInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "migration_frame_interval_seconds",
			Help: "Render loop period in seconds.",
		}),
	}

	reg.MustRegister(
		c.Instances, c.QueryTime,
		c.FramesRecomputed, c.FramesCached, c.TrajectoriesRejected, c.DegenerateSegments, c.Seeks,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
		c.UpdateDuration, c.PublishDuration,
		c.SpeedMultiplier, c.FrameInterval,
	)

	c.SpeedMultiplier.Set(speedMultiplier)
	c.FrameInterval.Set(frameInterval.Seconds())

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
