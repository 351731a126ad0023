package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveExtraction("image", nil, 20*time.Millisecond)
	m.ObserveExtraction("image", errors.New("boom"), time.Millisecond)
	m.CacheLookup("hit")
	m.CacheLookup("hit")
	m.ChatOutcome("safety")
	m.DegradedBlocks(3)
	m.DegradedBlocks(0)

	if got := testutil.ToFloat64(m.extractions.WithLabelValues("image", "ok")); got != 1 {
		t.Errorf("ok extractions = %v", got)
	}
	if got := testutil.ToFloat64(m.extractions.WithLabelValues("image", "error")); got != 1 {
		t.Errorf("error extractions = %v", got)
	}
	if got := testutil.ToFloat64(m.cache.WithLabelValues("hit")); got != 2 {
		t.Errorf("cache hits = %v", got)
	}
	if got := testutil.ToFloat64(m.chatOutcomes.WithLabelValues("safety")); got != 1 {
		t.Errorf("safety outcomes = %v", got)
	}
	if got := testutil.ToFloat64(m.degradedBlocks); got != 3 {
		t.Errorf("degraded blocks = %v", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveExtraction("pdf", nil, time.Second)
	m.CacheLookup("miss")
	m.CacheEviction()
	m.ChatOutcome("answer")
	m.DegradedBlocks(1)
}
