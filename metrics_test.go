package shellz

import "testing"

func TestNewMetricsRegistersAllCounters(t *testing.T) {
	m := NewMetrics()
	registry := m.Registry()

	if got := registry.Counter(MetricStagesSpawned).Value(); got != 0 {
		t.Errorf("expected a fresh spawned counter at 0, got %d", got)
	}
	if got := registry.Counter(MetricStagesFinished).Value(); got != 0 {
		t.Errorf("expected a fresh finished counter at 0, got %d", got)
	}
	if got := registry.Counter(MetricStagesFailed).Value(); got != 0 {
		t.Errorf("expected a fresh failed counter at 0, got %d", got)
	}
	if got := registry.Counter(MetricRowsProcessed).Value(); got != 0 {
		t.Errorf("expected a fresh rows-processed counter at 0, got %d", got)
	}
	if got := registry.Gauge(MetricJoinLatencyMs).Value(); got != 0 {
		t.Errorf("expected a fresh join-latency gauge at 0, got %v", got)
	}
}

func TestMetricsStageLifecycleCounters(t *testing.T) {
	m := NewMetrics()
	m.stageSpawned()
	m.stageSpawned()
	m.stageFinished()
	m.stageFailed()
	m.rowProcessed()
	m.rowProcessed()
	m.rowProcessed()
	m.joinLatency(12.5)

	registry := m.Registry()
	if got := registry.Counter(MetricStagesSpawned).Value(); got != 2 {
		t.Errorf("expected 2 spawned, got %d", got)
	}
	if got := registry.Counter(MetricStagesFinished).Value(); got != 1 {
		t.Errorf("expected 1 finished, got %d", got)
	}
	if got := registry.Counter(MetricStagesFailed).Value(); got != 1 {
		t.Errorf("expected 1 failed, got %d", got)
	}
	if got := registry.Counter(MetricRowsProcessed).Value(); got != 3 {
		t.Errorf("expected 3 rows processed, got %d", got)
	}
	if got := registry.Gauge(MetricJoinLatencyMs).Value(); got != 12.5 {
		t.Errorf("expected join latency 12.5, got %v", got)
	}
}

func TestNewJobWithNilMetricsAllocatesAPrivateRegistry(t *testing.T) {
	job := NewJob("anon", []StageSpec{{Command: nil, OutputSchema: nil}}, Sync, nil)
	if job.Metrics == nil {
		t.Fatal("expected NewJob to allocate a private Metrics when none is given")
	}
	if job.Metrics.Registry() == nil {
		t.Fatal("expected the private Metrics to carry a real registry")
	}
}
