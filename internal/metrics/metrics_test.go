package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetricFamily は名前でメトリクスファミリーを探すヘルパー。
func findMetricFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	if NewCollector(prometheus.NewRegistry()) == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordUpstreamStatus_LabelsByEndpointAndStatus はエンドポイント・ステータス別に集計されることを検証する。
func TestRecordUpstreamStatus_LabelsByEndpointAndStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstreamStatus("like", 200)
	c.RecordUpstreamStatus("like", 200)
	c.RecordUpstreamStatus("like", 404)

	mf := findMetricFamily(t, reg, "classmate_upstream_responses_total")
	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		got[labelValue(m, "endpoint")+"/"+labelValue(m, "status_code")] = m.GetCounter().GetValue()
	}

	if got["like/200"] != 2 {
		t.Errorf("like/200 = %v, want 2", got["like/200"])
	}
	if got["like/404"] != 1 {
		t.Errorf("like/404 = %v, want 1", got["like/404"])
	}
}

// TestRecordUpstreamFailure_IncrementsCounter は到達失敗カウンタが増加することを検証する。
func TestRecordUpstreamFailure_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstreamFailure("authentication")

	mf := findMetricFamily(t, reg, "classmate_upstream_failures_total")
	if v := mf.GetMetric()[0].GetCounter().GetValue(); v != 1 {
		t.Errorf("failures_total = %v, want 1", v)
	}
}

// TestRecordUpstreamLatency_ObservesHistogram はレイテンシがヒストグラムに記録されることを検証する。
func TestRecordUpstreamLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstreamLatency("status", 150*time.Millisecond)
	c.RecordUpstreamLatency("status", 2*time.Second)

	mf := findMetricFamily(t, reg, "classmate_upstream_latency_seconds")
	h := mf.GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 2 {
		t.Errorf("sample_count = %d, want 2", h.GetSampleCount())
	}
	if h.GetSampleSum() < 2.1 || h.GetSampleSum() > 2.2 {
		t.Errorf("sample_sum = %v, want ~2.15", h.GetSampleSum())
	}
}

// TestRecordUnlikeFallback_IncrementsCounter はフォールバックカウンタが増加することを検証する。
func TestRecordUnlikeFallback_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUnlikeFallback()

	mf := findMetricFamily(t, reg, "classmate_unlike_fallback_total")
	if v := mf.GetMetric()[0].GetCounter().GetValue(); v != 1 {
		t.Errorf("unlike_fallback_total = %v, want 1", v)
	}
}

// TestNewCollector_DuplicateRegistrationPanics は同じレジストリへの二重登録がpanicすることを検証する。
func TestNewCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewCollector(reg)
}
