package shellz

import "github.com/zoobzio/metricz"

// Metric keys for the job executor. Registered once in NewMetrics and
// updated from job.go as stages spawn, finish, and push rows.
const (
	MetricStagesSpawned  = metricz.Key("job.stages.spawned.total")
	MetricStagesFinished = metricz.Key("job.stages.finished.total")
	MetricStagesFailed   = metricz.Key("job.stages.failed.total")
	MetricRowsProcessed  = metricz.Key("job.rows.processed.total")
	MetricJoinLatencyMs  = metricz.Key("job.join.latency.ms")
)

// Metrics wraps a metricz.Registry pre-populated with the job executor's
// counters and gauges, so callers never touch an unregistered key.
type Metrics struct {
	registry *metricz.Registry
}

// NewMetrics builds and registers the job executor's metric set.
func NewMetrics() *Metrics {
	registry := metricz.New()
	registry.Counter(MetricStagesSpawned)
	registry.Counter(MetricStagesFinished)
	registry.Counter(MetricStagesFailed)
	registry.Counter(MetricRowsProcessed)
	registry.Gauge(MetricJoinLatencyMs)
	return &Metrics{registry: registry}
}

// Registry exposes the underlying metricz.Registry for embedders that want
// to export it (Prometheus, StatsD, whatever the host process already
// uses).
func (m *Metrics) Registry() *metricz.Registry { return m.registry }

func (m *Metrics) stageSpawned()       { m.registry.Counter(MetricStagesSpawned).Inc() }
func (m *Metrics) stageFinished()      { m.registry.Counter(MetricStagesFinished).Inc() }
func (m *Metrics) stageFailed()        { m.registry.Counter(MetricStagesFailed).Inc() }
func (m *Metrics) rowProcessed()       { m.registry.Counter(MetricRowsProcessed).Inc() }
func (m *Metrics) joinLatency(ms float64) {
	m.registry.Gauge(MetricJoinLatencyMs).Set(ms)
}
