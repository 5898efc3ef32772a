package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/moby/sys/atomicwriter"

	"github.com/nmstate/testbox/core"
)

// MetricsCollector holds Prometheus-style metrics and renders them in the
// text exposition format.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics map[string]*Metric
}

// Metric represents a single metric with its type and values
type Metric struct {
	Name        string
	Type        string // counter, gauge, histogram
	Help        string
	Value       float64
	Samples     []Sample // labelled values, in insertion order
	Histogram   *Histogram
	LastUpdated time.Time
}

// Sample is one labelled value of a metric.
type Sample struct {
	Labels map[string]string
	Value  float64
}

// Histogram for tracking distributions
type Histogram struct {
	Count  int64
	Sum    float64
	Bucket map[float64]int64 // bucket threshold -> count
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: make(map[string]*Metric),
	}
}

// RegisterCounter registers a new counter metric
func (mc *MetricsCollector) RegisterCounter(name, help string) {
	mc.register(name, "counter", help, nil)
}

// RegisterGauge registers a new gauge metric
func (mc *MetricsCollector) RegisterGauge(name, help string) {
	mc.register(name, "gauge", help, nil)
}

// RegisterHistogram registers a new histogram metric
func (mc *MetricsCollector) RegisterHistogram(name, help string, buckets []float64) {
	hist := &Histogram{Bucket: make(map[float64]int64, len(buckets))}
	for _, b := range buckets {
		hist.Bucket[b] = 0
	}
	mc.register(name, "histogram", help, hist)
}

func (mc *MetricsCollector) register(name, typ, help string, hist *Histogram) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.metrics[name] = &Metric{
		Name:        name,
		Type:        typ,
		Help:        help,
		Histogram:   hist,
		LastUpdated: time.Now(),
	}
}

// IncrementCounter increments a counter metric
func (mc *MetricsCollector) IncrementCounter(name string, value float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if metric, exists := mc.metrics[name]; exists && metric.Type == "counter" {
		metric.Value += value
		metric.LastUpdated = time.Now()
	}
}

// SetGauge sets a gauge metric value
func (mc *MetricsCollector) SetGauge(name string, value float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if metric, exists := mc.metrics[name]; exists && metric.Type == "gauge" {
		metric.Value = value
		metric.LastUpdated = time.Now()
	}
}

// SetGaugeWithLabels sets the value of one labelled series of a gauge,
// replacing an earlier value with the same labels.
func (mc *MetricsCollector) SetGaugeWithLabels(name string, labels map[string]string, value float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	metric, exists := mc.metrics[name]
	if !exists || metric.Type != "gauge" {
		return
	}
	key := formatLabels(labels)
	for i := range metric.Samples {
		if formatLabels(metric.Samples[i].Labels) == key {
			metric.Samples[i].Value = value
			metric.LastUpdated = time.Now()
			return
		}
	}
	metric.Samples = append(metric.Samples, Sample{Labels: labels, Value: value})
	metric.LastUpdated = time.Now()
}

// ObserveHistogram records a value in a histogram
func (mc *MetricsCollector) ObserveHistogram(name string, value float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if metric, exists := mc.metrics[name]; exists && metric.Type == "histogram" {
		hist := metric.Histogram
		hist.Count++
		hist.Sum += value

		for bucket := range hist.Bucket {
			if value <= bucket {
				hist.Bucket[bucket]++
			}
		}

		metric.LastUpdated = time.Now()
	}
}

// Export formats metrics in Prometheus text format, sorted by name
func (mc *MetricsCollector) Export() string {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	names := make([]string, 0, len(mc.metrics))
	for name := range mc.metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		metric := mc.metrics[name]
		fmt.Fprintf(&b, "# HELP %s %s\n", metric.Name, metric.Help)
		fmt.Fprintf(&b, "# TYPE %s %s\n", metric.Name, metric.Type)

		switch metric.Type {
		case "counter", "gauge":
			if len(metric.Samples) == 0 {
				fmt.Fprintf(&b, "%s %s\n", metric.Name, formatValue(metric.Value))
			}
			for _, s := range metric.Samples {
				fmt.Fprintf(&b, "%s%s %s\n", metric.Name, formatLabels(s.Labels), formatValue(s.Value))
			}

		case "histogram":
			if metric.Histogram != nil {
				bounds := make([]float64, 0, len(metric.Histogram.Bucket))
				for bound := range metric.Histogram.Bucket {
					bounds = append(bounds, bound)
				}
				sort.Float64s(bounds)
				for _, bound := range bounds {
					fmt.Fprintf(&b, "%s_bucket{le=\"%g\"} %d\n", metric.Name, bound, metric.Histogram.Bucket[bound])
				}
				fmt.Fprintf(&b, "%s_bucket{le=\"+Inf\"} %d\n", metric.Name, metric.Histogram.Count)
				fmt.Fprintf(&b, "%s_sum %s\n", metric.Name, formatValue(metric.Histogram.Sum))
				fmt.Fprintf(&b, "%s_count %d\n", metric.Name, metric.Histogram.Count)
			}
		}
	}

	return b.String()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, labels[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// InitDefaultMetrics registers the session metrics.
func (mc *MetricsCollector) InitDefaultMetrics() {
	mc.RegisterGauge("testbox_session_exit_status", "Exit status of the test session")
	mc.RegisterGauge("testbox_session_duration_seconds", "Wall time of the test session in seconds")
	mc.RegisterGauge("testbox_session_start_timestamp_seconds", "Unix time the session started")
	mc.RegisterGauge("testbox_session_tty", "Whether exec steps ran with a TTY (1 = yes)")
	mc.RegisterGauge("testbox_networks_attached", "Number of networks attached to the container")

	mc.RegisterCounter("testbox_steps_total", "Total number of steps run")
	mc.RegisterCounter("testbox_steps_failed_total", "Total number of failed steps")
	mc.RegisterCounter("testbox_cleanup_errors_total", "Total number of resources that failed to release")

	mc.RegisterGauge("testbox_step_exit_code", "Exit code of each step")
	mc.RegisterGauge("testbox_step_duration_seconds_by_step", "Duration of each step in seconds")
	mc.RegisterHistogram("testbox_step_duration_seconds", "Step duration in seconds",
		[]float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 1800, 3600})
}

// RecordSession records the outcome of a finished session.
func (mc *MetricsCollector) RecordSession(session *core.Session) {
	mc.SetGauge("testbox_session_exit_status", float64(session.ExitStatus))
	mc.SetGauge("testbox_session_duration_seconds", session.Duration().Seconds())
	if !session.StartedAt.IsZero() {
		mc.SetGauge("testbox_session_start_timestamp_seconds", float64(session.StartedAt.Unix()))
	}
	tty := 0.0
	if session.TTY {
		tty = 1
	}
	mc.SetGauge("testbox_session_tty", tty)
	mc.SetGauge("testbox_networks_attached", float64(len(session.Networks)))
	mc.IncrementCounter("testbox_cleanup_errors_total", float64(len(session.CleanupErrors)))

	for _, step := range session.Steps {
		mc.IncrementCounter("testbox_steps_total", 1)
		if step.Failed() {
			mc.IncrementCounter("testbox_steps_failed_total", 1)
		}
		labels := map[string]string{"step": step.Name, "kind": string(step.Kind)}
		mc.SetGaugeWithLabels("testbox_step_exit_code", labels, float64(step.ExitCode))
		mc.SetGaugeWithLabels("testbox_step_duration_seconds_by_step", labels, step.Duration.Seconds())
		mc.ObserveHistogram("testbox_step_duration_seconds", step.Duration.Seconds())
	}
}

// WriteFile atomically replaces path with the exported metrics, as the
// node_exporter textfile collector expects.
func (mc *MetricsCollector) WriteFile(path string) error {
	if err := atomicwriter.WriteFile(path, []byte(mc.Export()), 0o644); err != nil {
		return fmt.Errorf("write metrics file %s: %w", path, err)
	}
	return nil
}

// WriteSessionFile records session into a fresh collector and writes it to path.
func WriteSessionFile(path string, session *core.Session) error {
	mc := NewMetricsCollector()
	mc.InitDefaultMetrics()
	mc.RecordSession(session)
	return mc.WriteFile(path)
}
