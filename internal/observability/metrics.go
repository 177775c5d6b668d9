package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics: счётчики прогона по источникам. Процесс разовый, поэтому метрики
// выгружаются в textfile для node_exporter, а не отдаются по HTTP.
type Metrics struct {
	registry *prometheus.Registry

	listingsSeen  *prometheus.CounterVec
	extracted     *prometheus.CounterVec
	failures      *prometheus.CounterVec
	inserted      *prometheus.CounterVec
	updated       *prometheus.CounterVec
	skipped       *prometheus.CounterVec
	sourceUp      *prometheus.GaugeVec
	duration      *prometheus.GaugeVec
	lastSuccessTS *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	counter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hackathon_sync",
			Name:      name,
			Help:      help,
		}, []string{"source"})
	}
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hackathon_sync",
			Name:      name,
			Help:      help,
		}, []string{"source"})
	}

	m := &Metrics{
		registry:      prometheus.NewRegistry(),
		listingsSeen:  counter("listings_seen_total", "Listings returned by the rendered page"),
		extracted:     counter("records_extracted_total", "Canonical records built from listings"),
		failures:      counter("extraction_failures_total", "Listings skipped because a required field was absent"),
		inserted:      counter("records_inserted_total", "Records written as new"),
		updated:       counter("records_updated_total", "Existing records replaced (last-write-wins only)"),
		skipped:       counter("records_skipped_total", "Records skipped as duplicates"),
		sourceUp:      gauge("source_up", "1 if the last run of the source completed without a fatal error"),
		duration:      gauge("source_duration_seconds", "Duration of the last run of the source"),
		lastSuccessTS: gauge("source_last_success_timestamp_seconds", "Unix time of the last successful run"),
	}
	m.registry.MustRegister(
		m.listingsSeen, m.extracted, m.failures,
		m.inserted, m.updated, m.skipped,
		m.sourceUp, m.duration, m.lastSuccessTS,
	)
	return m
}

func (m *Metrics) ObserveExtraction(source string, seen, extracted, failed int) {
	m.listingsSeen.WithLabelValues(source).Add(float64(seen))
	m.extracted.WithLabelValues(source).Add(float64(extracted))
	m.failures.WithLabelValues(source).Add(float64(failed))
}

func (m *Metrics) ObserveMerge(source string, inserted, updated, skipped int) {
	m.inserted.WithLabelValues(source).Add(float64(inserted))
	m.updated.WithLabelValues(source).Add(float64(updated))
	m.skipped.WithLabelValues(source).Add(float64(skipped))
}

func (m *Metrics) ObserveRun(source string, ok bool, took time.Duration) {
	m.duration.WithLabelValues(source).Set(took.Seconds())
	if ok {
		m.sourceUp.WithLabelValues(source).Set(1)
		m.lastSuccessTS.WithLabelValues(source).SetToCurrentTime()
		return
	}
	m.sourceUp.WithLabelValues(source).Set(0)
}

// WriteTextfile атомарно перезаписывает файл метрик.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
