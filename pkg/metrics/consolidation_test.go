package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestConsolidationMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewConsolidationMetrics(reg)

	metrics.ObserveRebuildDuration("manual", 250*time.Millisecond)
	metrics.AddSkippedReferences("missing_product", 3)
	metrics.AddLotsRebuilt(2)
	metrics.IncTransition("lot", "ready_to_order")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "lot_rebuild_skipped_references_total", "reason", "missing_product"); err != nil {
		t.Fatalf("fetch skipped: %v", err)
	} else if got != 3 {
		t.Fatalf("expected skipped=3, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "status_transitions_total", "entity", "lot"); err != nil {
		t.Fatalf("fetch transitions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected transitions=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "lot_rebuild_duration_seconds", "trigger", "manual"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestConsolidationMetricsNilSafe(t *testing.T) {
	var metrics *ConsolidationMetrics
	metrics.ObserveRebuildDuration("manual", time.Second)
	metrics.AddSkippedReferences("missing_product", 1)
	metrics.AddLotsRebuilt(1)
	metrics.IncTransition("lot", "pending")

	empty := NewConsolidationMetrics(nil)
	empty.AddSkippedReferences("missing_product", 1)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
