// Package monitoring collects in-process service metrics and watches model
// artifacts on disk.
package monitoring

import (
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// MetricType 指标类型
type MetricType string

const (
	MetricTypeCounter MetricType = "counter"
	MetricTypeGauge   MetricType = "gauge"
	MetricTypeSummary MetricType = "summary"
)

// Metric names recorded by the API.
const (
	MetricHTTPRequests        = "http_requests_total"
	MetricHTTPRequestDuration = "http_request_duration_seconds"
	MetricPredictions         = "predictions_total"
	MetricPredictionErrors    = "prediction_errors_total"
	MetricModelLoaded         = "model_loaded"
)

// Metric is the current value of one series. Summaries also carry the
// observation count and extremes.
type Metric struct {
	Name      string            `json:"name"`
	Type      MetricType        `json:"type"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
	Count     int64             `json:"count,omitempty"`
	Min       float64           `json:"min,omitempty"`
	Max       float64           `json:"max,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Snapshot is a point-in-time copy of every series.
type Snapshot struct {
	StartedAt     time.Time      `json:"started_at"`
	Uptime        string         `json:"uptime"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Metrics       []Metric       `json:"metrics"`
	System        map[string]any `json:"system"`
}

// MetricsCollector 指标收集器
type MetricsCollector struct {
	metrics     map[string]*Metric
	metricsLock sync.RWMutex

	startTime time.Time
	now       func() time.Time
}

// NewMetricsCollector 创建指标收集器
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics:   make(map[string]*Metric),
		startTime: time.Now(),
		now:       time.Now,
	}
}

// IncrCounter 增加计数器
func (mc *MetricsCollector) IncrCounter(name string, value float64, labels map[string]string) {
	mc.update(name, MetricTypeCounter, labels, func(m *Metric) {
		m.Value += value
	})
}

// SetGauge 设置仪表
func (mc *MetricsCollector) SetGauge(name string, value float64, labels map[string]string) {
	mc.update(name, MetricTypeGauge, labels, func(m *Metric) {
		m.Value = value
	})
}

// ObserveDuration adds d to a summary. Value holds the running sum in seconds.
func (mc *MetricsCollector) ObserveDuration(name string, d time.Duration, labels map[string]string) {
	seconds := d.Seconds()
	mc.update(name, MetricTypeSummary, labels, func(m *Metric) {
		if m.Count == 0 || seconds < m.Min {
			m.Min = seconds
		}
		if seconds > m.Max {
			m.Max = seconds
		}
		m.Count++
		m.Value += seconds
	})
}

func (mc *MetricsCollector) update(name string, typ MetricType, labels map[string]string, fn func(*Metric)) {
	if mc == nil {
		return
	}
	key := seriesKey(name, labels)

	mc.metricsLock.Lock()
	defer mc.metricsLock.Unlock()

	m, ok := mc.metrics[key]
	if !ok {
		m = &Metric{Name: name, Type: typ, Labels: copyLabels(labels)}
		mc.metrics[key] = m
	}
	fn(m)
	m.Timestamp = mc.now()
}

// GetMetric returns a copy of one series, if it exists.
func (mc *MetricsCollector) GetMetric(name string, labels map[string]string) (Metric, bool) {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	m, ok := mc.metrics[seriesKey(name, labels)]
	if !ok {
		return Metric{}, false
	}
	out := *m
	out.Labels = copyLabels(m.Labels)
	return out, true
}

// Snapshot copies all series, ordered by name and labels.
func (mc *MetricsCollector) Snapshot() Snapshot {
	mc.metricsLock.RLock()
	keys := make([]string, 0, len(mc.metrics))
	for k := range mc.metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	metrics := make([]Metric, 0, len(keys))
	for _, k := range keys {
		m := *mc.metrics[k]
		m.Labels = copyLabels(m.Labels)
		metrics = append(metrics, m)
	}
	mc.metricsLock.RUnlock()

	uptime := mc.GetUptime()
	return Snapshot{
		StartedAt:     mc.startTime,
		Uptime:        uptime.String(),
		UptimeSeconds: uptime.Seconds(),
		Metrics:       metrics,
		System:        mc.GetSystemStats(),
	}
}

// GetUptime 获取运行时间
func (mc *MetricsCollector) GetUptime() time.Duration {
	return mc.now().Sub(mc.startTime)
}

// GetSystemStats 获取系统统计
func (mc *MetricsCollector) GetSystemStats() map[string]any {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]any{
		"goroutines": runtime.NumGoroutine(),
		"num_cpu":    runtime.NumCPU(),
		"memory": map[string]any{
			"alloc":       m.Alloc,
			"sys":         m.Sys,
			"heap_alloc":  m.HeapAlloc,
			"heap_inuse":  m.HeapInuse,
			"gc_count":    m.NumGC,
			"gc_pause_ns": m.PauseTotalNs,
		},
	}
}

func seriesKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	pairs := make([]string, 0, len(labels))
	for k, v := range labels {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return name + "{" + strings.Join(pairs, ",") + "}"
}

func copyLabels(labels map[string]string) map[string]string {
	if len(labels) == 0 {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}
