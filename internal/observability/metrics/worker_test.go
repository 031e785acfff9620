package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWorkerCountsLeadsByOutcomeAndGating(t *testing.T) {
	m := NewWorkerMetrics("worker")

	m.StartLead()
	m.FinishLead("worker", "after", "stored", 20*time.Millisecond)
	m.StartLead()
	m.FinishLead("worker", "after", "duplicate", 5*time.Millisecond)
	m.StartLead()
	m.FinishLead("worker", "", "rejected", time.Millisecond)

	cases := []struct {
		name string
		got  float64
		want float64
	}{
		{"stored", testutil.ToFloat64(m.leadsTotal.WithLabelValues("worker", "stored", "after")), 1},
		{"duplicate", testutil.ToFloat64(m.leadsTotal.WithLabelValues("worker", "duplicate", "after")), 1},
		{"rejected", testutil.ToFloat64(m.leadsTotal.WithLabelValues("worker", "rejected", "unknown")), 1},
		{"in flight", testutil.ToFloat64(m.leadsInFlight), 0},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, tc.got, tc.want)
		}
	}
}

func TestWorkerObservesFollowUpAndQuotedRange(t *testing.T) {
	m := NewWorkerMetrics("worker")

	m.ObserveFollowUpLag("worker", "before", 2*time.Hour)
	m.ObserveFollowUpLag("worker", "before", -time.Second)
	m.ObserveQuotedRange("worker", "after", 9800)
	m.ObserveQuotedRange("worker", "before", 0)

	if got := testutil.CollectAndCount(m.followUpLag); got != 1 {
		t.Fatalf("expected one lag series, got %d", got)
	}
	if got := testutil.CollectAndCount(m.quotedMax); got != 1 {
		t.Fatalf("expected only the lead with a range to be observed, got %d series", got)
	}
}
