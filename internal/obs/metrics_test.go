package obs

import (
	"testing"
	"time"

	"main/internal/schema"
)

func TestObserveEventCountsAndLatency(t *testing.T) {
	m := NewMetrics()
	m.ObserveEvent(schema.EventHeader{Type: schema.EventFill, TsEvent: 100, TsRecv: 400})
	m.ObserveEvent(schema.EventHeader{Type: schema.EventFill, TsEvent: 100, TsRecv: 200})
	m.ObserveEvent(schema.EventHeader{Type: schema.EventRunSummary})

	s := m.Snapshot()
	if s.EventCounts[schema.EventFill] != 2 {
		t.Fatalf("fill count %d, want 2", s.EventCounts[schema.EventFill])
	}
	if s.EventCounts[schema.EventRunSummary] != 1 {
		t.Fatalf("summary count %d, want 1", s.EventCounts[schema.EventRunSummary])
	}
	if s.EventLatency.Count != 2 {
		t.Fatalf("latency samples %d, want 2", s.EventLatency.Count)
	}
	if s.EventLatency.Min != 100 || s.EventLatency.Max != 300 || s.EventLatency.Avg != 200 {
		t.Fatalf("latency snapshot %+v", s.EventLatency)
	}
}

func TestObserveRun(t *testing.T) {
	m := NewMetrics()
	m.ObserveRun(2 * time.Second)
	m.ObserveRun(4 * time.Second)

	s := m.Snapshot()
	if s.RunDuration.Count != 2 || s.RunDuration.Avg != 3*time.Second {
		t.Fatalf("run duration snapshot %+v", s.RunDuration)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveEvent(schema.EventHeader{Type: schema.EventFill})
	m.IncQueueDrop()
	m.IncQueueClosed()
	if s := m.Snapshot(); s.QueueDrops != 0 {
		t.Fatal("nil metrics must be inert")
	}
}

func TestTraceGeneratorMonotonic(t *testing.T) {
	g := NewTraceGenerator(10)
	a, b := g.Next(), g.Next()
	if a != 11 || b != 12 {
		t.Fatalf("got %d, %d", a, b)
	}
	var nilGen *TraceGenerator
	if nilGen.Next() != 0 {
		t.Fatal("nil generator must return 0")
	}
}
