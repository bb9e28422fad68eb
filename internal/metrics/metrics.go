package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/maltedev/product-page-scraper/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for one run. There is no listener;
// the registry is exported to a node_exporter textfile when the run ends.
type Metrics struct {
	Registry        *prometheus.Registry
	ItemsTotal      *prometheus.CounterVec
	ItemDuration    prometheus.Histogram
	ImagesSaved     prometheus.Counter
	RunDuration     prometheus.Gauge
	RunLastFinished prometheus.Gauge

	textfile string
}

// New constructs and registers all metrics on a dedicated registry.
func New(textfile string) *Metrics {
	registry := prometheus.NewRegistry()

	items := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_items_total",
			Help: "Product pages processed, by outcome.",
		},
		[]string{"status"},
	)
	itemDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_item_duration_seconds",
			Help:    "Time spent on one product page including image download.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 45, 90},
		},
	)
	images := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_images_saved_total",
			Help: "Product images written to disk.",
		},
	)
	runDuration := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scraper_run_duration_seconds",
			Help: "Wall time of the last run.",
		},
	)
	lastFinished := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scraper_run_last_finished_timestamp_seconds",
			Help: "Unix time the last run finished.",
		},
	)

	registry.MustRegister(items, itemDuration, images, runDuration, lastFinished)

	return &Metrics{
		Registry:        registry,
		ItemsTotal:      items,
		ItemDuration:    itemDuration,
		ImagesSaved:     images,
		RunDuration:     runDuration,
		RunLastFinished: lastFinished,
		textfile:        textfile,
	}
}

func (m *Metrics) ItemDone(_ context.Context, result models.ItemResult) error {
	if m == nil {
		return nil
	}

	status := "success"
	if !result.Success() {
		status = "failure"
	}
	m.ItemsTotal.WithLabelValues(status).Inc()
	m.ItemDuration.Observe(result.Duration.Seconds())

	if result.ImagePath != "" {
		m.ImagesSaved.Inc()
	}
	return nil
}

// RunDone records run-level gauges and writes the textfile if configured.
func (m *Metrics) RunDone(_ context.Context, state models.RunState) error {
	if m == nil {
		return nil
	}

	now := time.Now()
	m.RunDuration.Set(state.Elapsed(now).Seconds())
	m.RunLastFinished.Set(float64(now.Unix()))

	if m.textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(m.textfile, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
