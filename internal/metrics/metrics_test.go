package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCommandIncrementsCounterAndHistogram(t *testing.T) {
	m := Get()

	m.RecordCommand("goto", "completed", 2*time.Second)

	if got := testutil.ToFloat64(m.CommandsTotal.WithLabelValues("goto", "completed")); got != 1 {
		t.Fatalf("expected count 1, got %v", got)
	}
}

func TestRecordViolationIncrementsCounter(t *testing.T) {
	m := Get()

	m.RecordViolation("battery_critical")
	m.RecordViolation("battery_critical")

	if got := testutil.ToFloat64(m.SafetyViolations.WithLabelValues("battery_critical")); got != 2 {
		t.Fatalf("expected count 2, got %v", got)
	}
}

func TestSetConnectedTogglesGauge(t *testing.T) {
	m := Get()

	m.SetConnected(true)
	if got := testutil.ToFloat64(m.ConnectionStatus); got != 1 {
		t.Fatalf("expected 1, got %v", got)
	}

	m.SetConnected(false)
	if got := testutil.ToFloat64(m.ConnectionStatus); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}
